package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugLog is a no-op logger until InitDebugLog enables it.
var DebugLog = zap.NewNop().Sugar()

func CheckDebug() bool {
	debug := os.Getenv("Q_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog points DebugLog at <dataDir>/debug.log when Q_DEBUG is set.
func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - may contain prompts and tool output
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(f), zapcore.DebugLevel)

	DebugLog = zap.New(core, zap.AddCaller()).Sugar()
	DebugLog.Infof("=== Debug logging started (Q_DEBUG=%s) ===", os.Getenv("Q_DEBUG"))
	DebugLog.Infof("Log path: %s", logPath)
}

// SyncDebugLog flushes buffered log entries.
func SyncDebugLog() {
	_ = DebugLog.Sync()
}

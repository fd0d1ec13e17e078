package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"q/config"
)

// ExportJSON writes the chat with id to path as indented JSON.
func (s *ChatStore) ExportJSON(ctx context.Context, id string, path string) error {
	chat, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(chat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chat: %w", err)
	}

	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// 0600: transcripts may hold anything the user pasted
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// SanitizeFilename replaces characters that are invalid in filenames.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\n', '\r':
			return '-'
		}
		return r
	}, name)

	name = strings.Trim(name, "-.")

	if len(name) > 50 {
		name = name[:50]
	}

	if name == "" {
		name = "chat"
	}

	return name
}

// GenerateExportPath returns the default export location for a chat in
// the user's Downloads directory.
func GenerateExportPath(chatID string, now time.Time) string {
	filename := fmt.Sprintf("q-chat-%s-%s.json", SanitizeFilename(chatID), now.Format("20060102-150405"))
	return filepath.Join(config.GetHomeDir(), "Downloads", filename)
}

package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"q/config"
	"q/metrics"
)

const readBufferSize = 4096

// RunAggregation consumes a completion stream until EOF or [DONE] and
// returns the folded result. onEvent, when set, sees every event before it
// is folded, in stream order. Bytes are decoded incrementally, so a UTF-8
// sequence split between reads is reassembled rather than replaced.
func RunAggregation(ctx context.Context, r io.Reader, onEvent Observer) (CompletionResult, error) {
	decoder := transform.NewReader(r, unicode.UTF8.NewDecoder())
	buf := make([]byte, readBufferSize)

	var (
		carry   string
		message strings.Builder
		calls   toolCallAccumulator
	)

read:
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := decoder.Read(buf)
		if n > 0 {
			var events []StreamEvent
			events, carry = ProcessStreamChunk(string(buf[:n]), carry)

			for _, event := range events {
				if onEvent != nil {
					onEvent(event)
				}

				switch e := event.(type) {
				case ContentEvent:
					metrics.StreamEvents.WithLabelValues("content").Inc()
					message.WriteString(e.Data)
				case ToolCallEvent:
					metrics.StreamEvents.WithLabelValues("tool_call").Inc()
					calls.add(e.ToolCall)
				case DoneEvent:
					metrics.StreamEvents.WithLabelValues("done").Inc()
					carry = ""
					break read
				}
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read completion stream: %w", err)
		}
	}

	if normalizeRecord(carry) != "" {
		metrics.DroppedCarry.Inc()
		config.DebugLog.Debugf("[Stream] Dropping %d bytes of unparsed trailing text: %q", len(carry), truncate(carry, 200))
	}

	if !calls.empty() {
		return ToolCallsResult{ToolCalls: calls.records()}, nil
	}
	return MessageResult{Message: message.String()}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

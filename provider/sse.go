package provider

import (
	"encoding/json"
	"fmt"
	"io"

	"q/completion"
)

// sseWriter writes completion chunks in the text/event-stream framing the
// completion package decodes.
type sseWriter struct {
	w io.Writer
}

func (s sseWriter) chunk(c completion.CompletionChunk) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode chunk: %w", err)
	}
	_, err = fmt.Fprintf(s.w, "data: %s\n\n", data)
	return err
}

func (s sseWriter) done() error {
	_, err := io.WriteString(s.w, "data: [DONE]\n\n")
	return err
}

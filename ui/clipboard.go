package ui

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

var ErrNothingToCopy = errors.New("nothing to copy yet")

var writeClipboard = clipboard.WriteAll

// CopyToClipboard puts text on the system clipboard.
func CopyToClipboard(text string) error {
	if text == "" {
		return ErrNothingToCopy
	}
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

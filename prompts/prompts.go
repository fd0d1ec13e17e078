// Package prompts reads the system prompts kept as Markdown files in the
// configured prompt directory.
package prompts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	DefaultCLI    = "You are a helpful AI assistant in a CLI. Do whatever the user asks."
	DefaultServer = "You are a helpful AI assistant. Do whatever the user asks."

	extension = ".md"
)

var (
	ErrNoDirectory = errors.New("no prompt directory configured")
	ErrNotFound    = errors.New("prompt not found")
)

// Prompt is one prompt file. Name is the file name without extension.
type Prompt struct {
	Name string
	File string
}

// List returns the prompts in dir sorted by name.
func List(dir string) ([]Prompt, error) {
	if dir == "" {
		return nil, ErrNoDirectory
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt directory: %w", err)
	}

	var prompts []Prompt
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != extension {
			continue
		}
		prompts = append(prompts, Prompt{
			Name: strings.TrimSuffix(entry.Name(), extension),
			File: entry.Name(),
		})
	}

	sort.Slice(prompts, func(i, j int) bool {
		return prompts[i].Name < prompts[j].Name
	})
	return prompts, nil
}

// Load returns the trimmed contents of <dir>/<name>.md.
func Load(dir, name string) (string, error) {
	if dir == "" {
		return "", ErrNoDirectory
	}

	name = strings.TrimSuffix(name, extension)
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name+extension))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read prompt %q: %w", name, err)
	}

	return strings.TrimSpace(string(data)), nil
}

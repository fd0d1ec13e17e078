package ui

import (
	"fmt"
	"io"
	"sync"

	"q/completion"
)

// StreamPrinter echoes a completion as it streams. Content is written
// as-is; each tool call is announced once on its own dim line.
type StreamPrinter struct {
	mu        sync.Mutex
	out       io.Writer
	wrote     bool
	announced map[string]bool
}

func NewStreamPrinter(out io.Writer) *StreamPrinter {
	return &StreamPrinter{out: out, announced: make(map[string]bool)}
}

// Observe is a completion.Observer.
func (p *StreamPrinter) Observe(ev completion.StreamEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev := ev.(type) {
	case completion.ContentEvent:
		if ev.Data == "" {
			return
		}
		fmt.Fprint(p.out, ev.Data)
		p.wrote = true
	case completion.ToolCallEvent:
		name := ev.ToolCall.Function.Name
		if name == "" || p.announced[ev.ToolCall.ID+name] {
			return
		}
		p.announced[ev.ToolCall.ID+name] = true
		if p.wrote {
			fmt.Fprintln(p.out)
			p.wrote = false
		}
		fmt.Fprintln(p.out, DimStyle.Render("→ calling "+name))
	}
}

// Finish ends the current output line, if any.
func (p *StreamPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.wrote {
		fmt.Fprintln(p.out)
		p.wrote = false
	}
}

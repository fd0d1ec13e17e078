package completion

import (
	"encoding/json"
	"strings"

	"q/config"
)

type toolCallBuilder struct {
	index *int
	id    string
	name  string
	args  strings.Builder
}

// toolCallAccumulator groups tool-call fragments into calls, keeping the
// order in which calls first appeared.
type toolCallAccumulator struct {
	calls []*toolCallBuilder
}

func (a *toolCallAccumulator) empty() bool {
	return len(a.calls) == 0
}

func (a *toolCallAccumulator) add(d ToolCallDelta) {
	b := a.match(d)
	if b == nil {
		b = &toolCallBuilder{index: d.Index}
		a.calls = append(a.calls, b)
	}
	if b.id == "" {
		b.id = d.ID
	}
	if b.name == "" {
		b.name = d.Function.Name
	}
	b.args.WriteString(d.Function.Arguments)
}

// match finds the call a fragment continues. Fragments sharing an index
// belong together unless they carry different ids. A fragment with neither
// index nor id nor name extends the most recent call.
func (a *toolCallAccumulator) match(d ToolCallDelta) *toolCallBuilder {
	if d.Index == nil {
		if d.ID == "" && d.Function.Name == "" && len(a.calls) > 0 {
			return a.calls[len(a.calls)-1]
		}
		return nil
	}

	for i := len(a.calls) - 1; i >= 0; i-- {
		b := a.calls[i]
		if b.index == nil || *b.index != *d.Index {
			continue
		}
		if d.ID != "" && b.id != "" && d.ID != b.id {
			return nil
		}
		return b
	}
	return nil
}

func (a *toolCallAccumulator) records() []ToolCallRecord {
	records := make([]ToolCallRecord, 0, len(a.calls))
	for _, b := range a.calls {
		records = append(records, ToolCallRecord{
			ID:        b.id,
			Name:      b.name,
			Arguments: parseArguments(b.name, b.args.String()),
		})
	}
	return records
}

// parseArguments decodes the argument text of one call. Anything that is
// not a JSON object becomes an empty argument set.
func parseArguments(name, text string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(text) == "" {
		return args
	}

	if err := json.Unmarshal([]byte(text), &args); err != nil || args == nil {
		config.DebugLog.Debugf("[Stream] Arguments for tool %q are not a JSON object, using {}: %v", name, err)
		return map[string]any{}
	}
	return args
}

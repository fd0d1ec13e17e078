package completion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intPtr(i int) *int { return &i }

func TestSplitRecords(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", " \n\n ", []string{}},
		{"single record", "data: {\"a\":1}", []string{`{"a":1}`}},
		{"no prefix", `{"a":1}`, []string{`{"a":1}`}},
		{"prefix without space", "data:{\"a\":1}", []string{`{"a":1}`}},
		{
			name:  "two records",
			chunk: "data: {\"a\":1}\n\ndata: {\"b\":2}\n\n",
			want:  []string{`{"a":1}`, `{"b":2}`},
		},
		{
			name:  "blank record between",
			chunk: "data: {\"a\":1}\n\ndata: \n\ndata: [DONE]",
			want:  []string{`{"a":1}`, "[DONE]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitRecords(tt.chunk)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("splitRecords mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProcessStreamChunk(t *testing.T) {
	tests := []struct {
		name      string
		chunk     string
		carry     string
		want      []StreamEvent
		wantCarry string
	}{
		{
			name:  "empty chunk keeps carry",
			chunk: "",
			carry: `{"choices":[`,
			// no events
			wantCarry: `{"choices":[`,
		},
		{
			name:  "single content record",
			chunk: `data: {"choices":[{"delta":{"content":"Hello"}}]}`,
			want:  []StreamEvent{ContentEvent{Data: "Hello"}},
		},
		{
			name:  "two records in order",
			chunk: "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\ndata: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}",
			want:  []StreamEvent{ContentEvent{Data: "Hello"}, ContentEvent{Data: " world"}},
		},
		{
			name:      "partial record becomes carry",
			chunk:     `data: {"choices":[{"delta":{"content":"Hel`,
			wantCarry: `data: {"choices":[{"delta":{"content":"Hel`,
		},
		{
			name:      "trailing whitespace stays in carry",
			chunk:     `data: {"choices":[{"delta":{"content":"Hello `,
			wantCarry: `data: {"choices":[{"delta":{"content":"Hello `,
		},
		{
			name:  "leading whitespace joins carry",
			chunk: ` world"}}]}`,
			carry: `data: {"choices":[{"delta":{"content":"Hello`,
			want:  []StreamEvent{ContentEvent{Data: "Hello world"}},
		},
		{
			name:      "whitespace only chunk extends carry",
			chunk:     "  ",
			carry:     `{"choices":[{"delta":{"content":"a`,
			wantCarry: `{"choices":[{"delta":{"content":"a  `,
		},
		{
			name:      "bare prefix after partial prefix",
			chunk:     "ata:",
			carry:     "d",
			wantCarry: "data:",
		},
		{
			name:  "carry completes",
			chunk: `lo"}}]}`,
			carry: `{"choices":[{"delta":{"content":"Hel`,
			want:  []StreamEvent{ContentEvent{Data: "Hello"}},
		},
		{
			name:  "done stops processing",
			chunk: "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\ndata: [DONE]\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}",
			want:  []StreamEvent{ContentEvent{Data: "a"}, DoneEvent{}},
		},
		{
			name:  "done split across chunks",
			chunk: "NE]",
			carry: "[DO",
			want:  []StreamEvent{DoneEvent{}},
		},
		{
			name:  "empty choices",
			chunk: `data: {"choices":[],"prompt_filter_results":[]}`,
		},
		{
			name:  "empty content is not an event",
			chunk: `data: {"choices":[{"delta":{"role":"assistant","content":""}}]}`,
		},
		{
			name:  "non function tool calls dropped",
			chunk: `data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"a","type":"function","function":{"name":"ls","arguments":"{}"}},{"index":1,"id":"b","type":"code_interpreter"}]}}]}`,
			want: []StreamEvent{
				ToolCallEvent{ToolCall: ToolCallDelta{Index: intPtr(0), ID: "a", Type: "function", Function: FunctionDelta{Name: "ls", Arguments: "{}"}}},
			},
		},
		{
			name:  "content and tool call in one record",
			chunk: `data: {"choices":[{"delta":{"content":"ok","tool_calls":[{"index":0,"type":"function","function":{"name":"ls"}}]}}]}`,
			want: []StreamEvent{
				ContentEvent{Data: "ok"},
				ToolCallEvent{ToolCall: ToolCallDelta{Index: intPtr(0), Type: "function", Function: FunctionDelta{Name: "ls"}}},
			},
		},
		{
			name:  "valid json of another shape clears carry",
			chunk: `data: [1,2,3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, carry := ProcessStreamChunk(tt.chunk, tt.carry)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
			if carry != tt.wantCarry {
				t.Errorf("carry = %q, want %q", carry, tt.wantCarry)
			}
		})
	}
}

func TestProcessStreamChunkDelimiterCut(t *testing.T) {
	first := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\nda"
	second := "ta: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}"

	events, carry := ProcessStreamChunk(first, "")
	if len(events) != 0 {
		t.Fatalf("expected no events before the delimiter is complete, got %v", events)
	}

	events, carry = ProcessStreamChunk(second, carry)
	want := []StreamEvent{ContentEvent{Data: "a"}, ContentEvent{Data: "b"}}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if carry != "" {
		t.Errorf("carry = %q, want empty", carry)
	}
}

func TestProcessStreamChunkIsPure(t *testing.T) {
	chunk := "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\ndata: {\"choices\":[{\"de"

	events1, carry1 := ProcessStreamChunk(chunk, "")
	events2, carry2 := ProcessStreamChunk(chunk, "")

	if diff := cmp.Diff(events1, events2); diff != "" {
		t.Errorf("same input gave different events:\n%s", diff)
	}
	if carry1 != carry2 {
		t.Errorf("same input gave different carry: %q vs %q", carry1, carry2)
	}
}

func TestProcessStreamChunkKeepsWhitespaceAtBoundaries(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"Hello  world \"}}]}\n\ndata: [DONE]\n\n"
	want := []StreamEvent{ContentEvent{Data: "Hello  world "}, DoneEvent{}}

	for i := 0; i <= len(stream); i++ {
		first, carry := ProcessStreamChunk(stream[:i], "")
		second, _ := ProcessStreamChunk(stream[i:], carry)
		got := append(first, second...)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("split at %d: events mismatch (-want +got):\n%s", i, diff)
		}
	}
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"q/model"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"short", "hello", 20, "hello"},
		{"exact", "12345678901234567890", 20, "12345678901234567890"},
		{"long", "123456789012345678901", 20, "12345678901234567890..."},
		{"newlines", "line one\nline two", 20, "line one line two"},
		{"wide runes", "日本語のテキストです。とても長い", 10, "日本語のテ..."},
		{"empty", "", 20, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.text, tt.width))
		})
	}
}

func TestSummarize(t *testing.T) {
	chat := model.Chat{
		ID: "abc",
		Data: model.ChatData{Messages: []model.Message{
			{Role: model.RoleSystem, Content: "system prompt"},
			{Role: model.RoleUser, Content: "hi"},
		}},
	}

	summary := Summarize(chat)
	assert.Equal(t, "abc", summary.ID)
	assert.Equal(t, "hi", summary.Message)
	assert.Equal(t, 2, summary.ChatLength)

	chat.Data.Messages = chat.Data.Messages[:1]
	assert.Equal(t, "system prompt", Summarize(chat).Message)

	chat.Data.Messages = nil
	assert.Equal(t, "", Summarize(chat).Message)
}

func TestSearchMessagesSkipsSystemAndTool(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleSystem, Content: "needle"},
		{Role: model.RoleUser, Content: "a Needle here"},
		{Role: model.RoleTool, Content: "needle", ToolCallID: "c"},
	}

	matches := SearchMessages("chat", messages, "NEEDLE")
	assert.Equal(t, []MessageMatch{{ChatID: "chat", MessageIndex: 1, Role: model.RoleUser, Preview: "a Needle here"}}, matches)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c", SanitizeFilename("a/b:c"))
	assert.Equal(t, "chat", SanitizeFilename("..."))
	assert.Len(t, SanitizeFilename(string(make([]byte, 80))), 50)
}

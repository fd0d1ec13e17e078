package storage

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"q/model"
)

// previewWidth is the display width of a chat summary preview.
const previewWidth = 20

// Summarize builds the listing form of a chat. The preview comes from the
// first message after the system prompt, falling back to the first
// message.
func Summarize(chat model.Chat) model.ChatSummary {
	messages := chat.Data.Messages

	var preview string
	switch {
	case len(messages) > 1 && messages[1].Content != "":
		preview = messages[1].Content
	case len(messages) > 0:
		preview = messages[0].Content
	}

	return model.ChatSummary{
		ID:         chat.ID,
		Message:    Preview(preview, previewWidth),
		CreatedAt:  chat.CreatedAt,
		UpdatedAt:  chat.UpdatedAt,
		ChatLength: len(messages),
	}
}

// Preview flattens text onto one line and cuts it to width display
// columns, adding "..." when something was cut.
func Preview(text string, width int) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "") + "..."
}

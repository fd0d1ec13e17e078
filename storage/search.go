package storage

import (
	"context"
	"strings"

	"q/model"
)

// MessageMatch is one message that matched a search.
type MessageMatch struct {
	ChatID       string
	MessageIndex int
	Role         model.Role
	Preview      string
}

// SearchMessages finds the messages of one transcript containing query,
// ignoring case. System and tool messages are not searched.
func SearchMessages(chatID string, messages []model.Message, query string) []MessageMatch {
	if query == "" {
		return nil
	}

	queryLower := strings.ToLower(query)
	var matches []MessageMatch

	for i, msg := range messages {
		if msg.Role == model.RoleSystem || msg.Role == model.RoleTool {
			continue
		}

		if strings.Contains(strings.ToLower(msg.Content), queryLower) {
			matches = append(matches, MessageMatch{
				ChatID:       chatID,
				MessageIndex: i,
				Role:         msg.Role,
				Preview:      Preview(msg.Content, 60),
			})
		}
	}

	return matches
}

// Search looks for query across every stored chat, oldest chat first.
func (s *ChatStore) Search(ctx context.Context, query string) ([]MessageMatch, error) {
	if query == "" {
		return nil, nil
	}

	raws, err := s.ListRaw(ctx)
	if err != nil {
		return nil, err
	}

	var matches []MessageMatch
	for _, raw := range raws {
		chat, err := ParseRawChat(raw)
		if err != nil {
			continue
		}
		matches = append(matches, SearchMessages(chat.ID, chat.Data.Messages, query)...)
	}

	return matches, nil
}

package model

import "time"

// RawChat is a chat as stored: the transcript is kept as serialized JSON.
type RawChat struct {
	ID        string    `json:"id"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Chat is a stored chat with its transcript decoded.
type Chat struct {
	ID        string    `json:"id"`
	Data      ChatData  `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatSummary is the listing form of a chat.
type ChatSummary struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ChatLength int       `json:"chat_length"`
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"q/config"
	"q/model"
)

// ErrChatNotFound is returned for ids that have no stored chat.
var ErrChatNotFound = errors.New("chat not found")

const databaseFile = "data.db"

// ChatStore keeps chats in SQLite. Each row holds the serialized
// transcript; messages are appended read-modify-write inside a transaction.
type ChatStore struct {
	db *sql.DB
}

// New opens (or creates) the chat database in dataDir.
func New(dataDir string) (*ChatStore, error) {
	dbPath := filepath.Join(dataDir, databaseFile)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store, err := NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an open database and makes sure the schema exists.
func NewWithDB(db *sql.DB) (*ChatStore, error) {
	store := &ChatStore{db: db}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *ChatStore) initialize() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chats_created_at ON chats(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Create stores a new chat and returns its id.
func (s *ChatStore) Create(ctx context.Context, data model.ChatData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", fmt.Errorf("invalid chat: %w", err)
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat: %w", err)
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	query := `INSERT INTO chats (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, id, string(encoded), now, now); err != nil {
		return "", fmt.Errorf("failed to create chat: %w", err)
	}

	config.DebugLog.Debugf("[Store] Created chat %s", id)
	return id, nil
}

// GetRaw returns the stored row for id without decoding the transcript.
func (s *ChatStore) GetRaw(ctx context.Context, id string) (model.RawChat, error) {
	query := `SELECT id, data, created_at, updated_at FROM chats WHERE id = ?`

	var raw model.RawChat
	err := s.db.QueryRowContext(ctx, query, id).Scan(&raw.ID, &raw.Data, &raw.CreatedAt, &raw.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RawChat{}, fmt.Errorf("%w: %s", ErrChatNotFound, id)
	}
	if err != nil {
		return model.RawChat{}, fmt.Errorf("failed to load chat: %w", err)
	}

	return raw, nil
}

// Get returns the chat with its transcript decoded.
func (s *ChatStore) Get(ctx context.Context, id string) (model.Chat, error) {
	raw, err := s.GetRaw(ctx, id)
	if err != nil {
		return model.Chat{}, err
	}
	return ParseRawChat(raw)
}

// AppendMessage adds msg to the end of the chat and returns the full
// transcript.
func (s *ChatStore) AppendMessage(ctx context.Context, id string, msg model.Message) ([]model.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var encoded string
	err = tx.QueryRowContext(ctx, `SELECT data FROM chats WHERE id = ?`, id).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	var data model.ChatData
	if err := json.Unmarshal([]byte(encoded), &data); err != nil {
		return nil, fmt.Errorf("failed to decode chat %s: %w", id, err)
	}
	data = data.Append(msg)

	updated, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat: %w", err)
	}

	query := `UPDATE chats SET data = ?, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, string(updated), time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("failed to update chat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit chat update: %w", err)
	}

	return data.Messages, nil
}

// ListRaw returns every stored row, oldest first.
func (s *ChatStore) ListRaw(ctx context.Context) ([]model.RawChat, error) {
	query := `SELECT id, data, created_at, updated_at FROM chats ORDER BY created_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []model.RawChat
	for rows.Next() {
		var raw model.RawChat
		if err := rows.Scan(&raw.ID, &raw.Data, &raw.CreatedAt, &raw.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, raw)
	}

	return chats, rows.Err()
}

// List returns a summary of every chat, oldest first. Rows whose transcript
// cannot be decoded are skipped.
func (s *ChatStore) List(ctx context.Context) ([]model.ChatSummary, error) {
	raws, err := s.ListRaw(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ChatSummary, 0, len(raws))
	for _, raw := range raws {
		chat, err := ParseRawChat(raw)
		if err != nil {
			config.DebugLog.Debugf("[Store] Skipping chat %s: %v", raw.ID, err)
			continue
		}
		summaries = append(summaries, Summarize(chat))
	}

	return summaries, nil
}

// Latest returns the most recently updated chat.
func (s *ChatStore) Latest(ctx context.Context) (model.Chat, error) {
	query := `SELECT id FROM chats ORDER BY updated_at DESC, rowid DESC LIMIT 1`

	var id string
	err := s.db.QueryRowContext(ctx, query).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Chat{}, fmt.Errorf("%w: no chats yet", ErrChatNotFound)
	}
	if err != nil {
		return model.Chat{}, fmt.Errorf("failed to find latest chat: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete removes the chat with id.
func (s *ChatStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, id)
	}

	config.DebugLog.Debugf("[Store] Deleted chat %s", id)
	return nil
}

func (s *ChatStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ParseRawChat decodes the transcript of a stored row.
func ParseRawChat(raw model.RawChat) (model.Chat, error) {
	var data model.ChatData
	if err := json.Unmarshal([]byte(raw.Data), &data); err != nil {
		return model.Chat{}, fmt.Errorf("failed to decode chat %s: %w", raw.ID, err)
	}

	return model.Chat{
		ID:        raw.ID,
		Data:      data,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}, nil
}

package testutil

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"q/model"
	"q/storage"
)

// MockTransport implements model.Transport for testing
type MockTransport struct {
	SendCompletionFunc func(ctx context.Context, req model.CompletionRequest) (io.ReadCloser, error)
	ListModelsFunc     func(ctx context.Context) ([]model.Model, error)

	mu       sync.Mutex
	requests []model.CompletionRequest
}

// NewMockTransport creates a transport that replies to successive
// completion requests with the given SSE bodies, in order. Requests past
// the last body get an error.
func NewMockTransport(bodies ...string) *MockTransport {
	m := &MockTransport{}
	m.SendCompletionFunc = func(ctx context.Context, req model.CompletionRequest) (io.ReadCloser, error) {
		n := len(m.Requests())
		if n > len(bodies) {
			return nil, fmt.Errorf("mock transport: unexpected request #%d", n)
		}
		return io.NopCloser(strings.NewReader(bodies[n-1])), nil
	}
	m.ListModelsFunc = func(ctx context.Context) ([]model.Model, error) {
		return TestModels(), nil
	}
	return m
}

func (m *MockTransport) SendCompletion(ctx context.Context, req model.CompletionRequest) (io.ReadCloser, error) {
	m.mu.Lock()
	req.Messages = append([]model.Message(nil), req.Messages...)
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.SendCompletionFunc(ctx, req)
}

func (m *MockTransport) ListModels(ctx context.Context) ([]model.Model, error) {
	return m.ListModelsFunc(ctx)
}

func (m *MockTransport) Name() string {
	return "mock"
}

// Requests returns a snapshot of the completion requests seen so far
func (m *MockTransport) Requests() []model.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.CompletionRequest(nil), m.requests...)
}

// MockToolRegistry implements chat.ToolRegistry for testing
type MockToolRegistry struct {
	ListToolsFunc func(ctx context.Context) ([]mcptypes.Tool, error)
	CallToolFunc  func(ctx context.Context, name string, args map[string]any) (string, error)
}

// NewMockToolRegistry serves TestMCPTools and answers every call with
// "<name> ok"
func NewMockToolRegistry() *MockToolRegistry {
	return &MockToolRegistry{
		ListToolsFunc: func(ctx context.Context) ([]mcptypes.Tool, error) {
			return TestMCPTools(), nil
		},
		CallToolFunc: func(ctx context.Context, name string, args map[string]any) (string, error) {
			return name + " ok", nil
		},
	}
}

func (m *MockToolRegistry) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	return m.ListToolsFunc(ctx)
}

func (m *MockToolRegistry) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	return m.CallToolFunc(ctx, name, args)
}

// MemoryStore is an in-memory chat store for testing
type MemoryStore struct {
	// AppendErr, when set, makes AppendMessage fail after the given
	// number of successful appends.
	AppendErr   error
	AppendLimit int

	mu      sync.Mutex
	chats   map[string]*model.Chat
	order   []string
	appends int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[string]*model.Chat)}
}

func (s *MemoryStore) Create(ctx context.Context, data model.ChatData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := time.Now()
	s.chats[id] = &model.Chat{ID: id, Data: copyData(data), CreatedAt: now, UpdatedAt: now}
	s.order = append(s.order, id)
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return model.Chat{}, fmt.Errorf("%w: %s", storage.ErrChatNotFound, id)
	}
	out := *chat
	out.Data = copyData(chat.Data)
	return out, nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, id string, msg model.Message) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.AppendErr != nil && s.appends >= s.AppendLimit {
		return nil, s.AppendErr
	}
	chat, ok := s.chats[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrChatNotFound, id)
	}
	s.appends++
	chat.Data = chat.Data.Append(msg)
	chat.UpdatedAt = time.Now()
	return copyData(chat.Data).Messages, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]model.ChatSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]model.ChatSummary, 0, len(s.order))
	for _, id := range s.order {
		chat, ok := s.chats[id]
		if !ok {
			continue
		}
		summaries = append(summaries, storage.Summarize(*chat))
	}
	return summaries, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrChatNotFound, id)
	}
	delete(s.chats, id)
	return nil
}

func copyData(data model.ChatData) model.ChatData {
	return model.ChatData{Messages: append([]model.Message(nil), data.Messages...)}
}

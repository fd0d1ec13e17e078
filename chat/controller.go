package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"q/completion"
	"q/config"
	"q/metrics"
	"q/model"
)

// Store is the chat persistence the controller and its callers need.
type Store interface {
	Create(ctx context.Context, data model.ChatData) (string, error)
	Get(ctx context.Context, id string) (model.Chat, error)
	AppendMessage(ctx context.Context, id string, msg model.Message) ([]model.Message, error)
	List(ctx context.Context) ([]model.ChatSummary, error)
	Delete(ctx context.Context, id string) error
}

// ToolRegistry resolves tool calls by name.
type ToolRegistry interface {
	ListTools(ctx context.Context) ([]mcptypes.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Controller runs chat turns against one transport and store.
type Controller struct {
	Transport model.Transport
	Store     Store
	Tools     ToolRegistry
	Model     model.Model

	// MaxHops bounds the tool dispatch rounds of one turn. Zero means
	// config.DefaultMaxToolHops.
	MaxHops int
}

// NewController returns a controller using the default hop limit.
func NewController(transport model.Transport, store Store, tools ToolRegistry, m model.Model) *Controller {
	return &Controller{
		Transport: transport,
		Store:     store,
		Tools:     tools,
		Model:     m,
		MaxHops:   config.DefaultMaxToolHops,
	}
}

// RunTurn runs one turn on the stored chat chatID. When userInput is not
// nil it is appended as a user message first. tools are the definitions
// offered to the model; onEvent, when set, sees every stream event.
//
// Every message produced is persisted as soon as it exists. The returned
// state is never nil.
func (c *Controller) RunTurn(ctx context.Context, chatID string, userInput *string, tools []mcptypes.Tool, onEvent completion.Observer) (*TurnState, error) {
	start := time.Now()
	state := &TurnState{ChatID: chatID, State: AwaitingInput}

	err := c.runTurn(ctx, state, userInput, tools, onEvent)

	metrics.TurnDuration.Observe(time.Since(start).Seconds())
	metrics.Turns.WithLabelValues(turnOutcome(err)).Inc()

	if err != nil {
		config.DebugLog.Debugf("[Turn] chat=%s state=%s hops=%d failed: %v", chatID, state.State, state.Hops, err)
		return state, err
	}
	config.DebugLog.Debugf("[Turn] chat=%s complete after %d hops (%d chars)", chatID, state.Hops, len(state.Reply))
	return state, nil
}

func (c *Controller) runTurn(ctx context.Context, state *TurnState, userInput *string, tools []mcptypes.Tool, onEvent completion.Observer) error {
	chat, err := c.Store.Get(ctx, state.ChatID)
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}
	state.Messages = chat.Data.Messages

	if userInput != nil {
		if err := c.persist(ctx, state, model.Message{Role: model.RoleUser, Content: *userInput}); err != nil {
			return err
		}
	}

	initiator := model.InitiatorUser
	for {
		state.State = Streaming
		result, err := c.stream(ctx, state.Messages, tools, initiator, onEvent)
		if err != nil {
			return err
		}

		switch r := result.(type) {
		case completion.MessageResult:
			state.Reply = r.Message
			state.State = TurnComplete
			return c.persist(ctx, state, model.Message{Role: model.RoleAssistant, Content: r.Message})

		case completion.ToolCallsResult:
			if state.Hops >= c.maxHops() {
				return fmt.Errorf("%w (limit %d), dropped calls: %s", ErrMaxHops, c.maxHops(), callNames(r.ToolCalls))
			}
			if err := c.persist(ctx, state, toolCallMessage(r.ToolCalls)); err != nil {
				return err
			}

			state.State = DispatchingTools
			for _, res := range c.dispatch(ctx, r.ToolCalls) {
				state.ToolCalls = append(state.ToolCalls, res.call)
				if res.err != nil {
					state.ToolErrors = append(state.ToolErrors, res.err)
				}
				if err := c.persist(ctx, state, res.message()); err != nil {
					return err
				}
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			state.Hops++
			initiator = model.InitiatorAgent

		default:
			return fmt.Errorf("unexpected completion result %T", result)
		}
	}
}

func (c *Controller) stream(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, initiator model.Initiator, onEvent completion.Observer) (completion.CompletionResult, error) {
	body, err := c.Transport.SendCompletion(ctx, model.CompletionRequest{
		Messages:  messages,
		Model:     c.Model.ID,
		MaxTokens: c.Model.Capabilities.Limits.MaxOutputTokens,
		Tools:     tools,
		Initiator: initiator,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start completion: %w", err)
	}
	defer body.Close()

	result, err := completion.RunAggregation(ctx, body, onEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to read completion: %w", err)
	}
	return result, nil
}

// persist appends msg to the in-memory transcript, then to the store.
func (c *Controller) persist(ctx context.Context, state *TurnState, msg model.Message) error {
	state.Messages = append(state.Messages, msg)

	if _, err := c.Store.AppendMessage(ctx, state.ChatID, msg); err != nil {
		return &PersistError{ChatID: state.ChatID, Err: err}
	}
	return nil
}

func (c *Controller) maxHops() int {
	if c.MaxHops <= 0 {
		return config.DefaultMaxToolHops
	}
	return c.MaxHops
}

func callNames(calls []completion.ToolCallRecord) string {
	names := make([]string, 0, len(calls))
	for _, call := range calls {
		names = append(names, call.Name)
	}
	return strings.Join(names, ", ")
}

func toolCallMessage(calls []completion.ToolCallRecord) model.Message {
	msg := model.Message{Role: model.RoleAssistant}
	for _, call := range calls {
		msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{
			ID:   call.ID,
			Type: "function",
			Function: model.FunctionCall{
				Name:      call.Name,
				Arguments: call.RawArguments(),
			},
		})
	}
	return msg
}

func turnOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrMaxHops):
		return metrics.OutcomeMaxHops
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCancelled
	}
	return metrics.OutcomeError
}

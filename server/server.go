// Package server exposes models and chat turns over HTTP for "q serve".
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/multierr"

	"q/chat"
	"q/completion"
	"q/config"
	"q/metrics"
	"q/model"
	"q/prompts"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	requestTimeout    = 60 * time.Second
)

// Settings is the part of the configuration the server reads and writes.
type Settings interface {
	CurrentModel() (model.Model, error)
	SetModel(model.Model) error
}

// Options wires a Server to its collaborators. Tools may be nil.
type Options struct {
	Transport model.Transport
	Store     chat.Store
	Tools     chat.ToolRegistry
	Settings  Settings
	MaxHops   int
}

type Server struct {
	opts Options
}

func New(opts Options) *Server {
	return &Server{opts: opts}
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/models", s.handleListModels)
		r.Put("/models/{model}", s.handleSetModel)

		r.Get("/chats", s.handleListChats)
		r.Get("/chats/{chatID}", s.handleGetChat)
		r.Delete("/chats/{chatID}", s.handleDeleteChat)
	})

	// Turns can run several tool hops and get no request timeout.
	r.Post("/chats", s.handleTurn)

	return metrics.Instrument(r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	config.DebugLog.Debugf("[Server] Listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		err = multierr.Append(err, serveErr)
	}
	config.DebugLog.Debugf("[Server] Stopped")
	return err
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			config.DebugLog.Debugf("[Server] %s %s -> %d (%s) id=%s",
				r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.opts.Transport.ListModels(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, flatten(models))
}

func (s *Server) handleSetModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "model")

	models, err := s.opts.Transport.ListModels(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}

	selected, err := model.SelectModel(models, name)
	if err != nil {
		unavailableModel(w, name)
		return
	}

	if err := s.opts.Settings.SetModel(selected); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Default model set to: %s", selected.Name),
	})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.opts.Store.List(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, chats)
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	c, err := s.opts.Store.Get(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatID")
	if err := s.opts.Store.Delete(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Chat %s deleted.", id)})
}

// handleTurn runs one turn and replies once the model produced its final
// message. A missing chat_id starts a new chat.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body."})
		return
	}
	if err := config.ValidateStruct(req); err != nil {
		respondWithError(w, err)
		return
	}

	m, err := s.opts.Settings.CurrentModel()
	if err != nil {
		respondWithError(w, err)
		return
	}

	ctx := r.Context()
	tools, err := s.tools(ctx)
	if err != nil {
		respondWithError(w, err)
		return
	}

	chatID := req.ChatID
	if chatID == "" {
		prompt := req.Prompt
		if prompt == "" {
			prompt = prompts.DefaultServer
		}
		chatID, err = s.opts.Store.Create(ctx, model.NewChatData(prompt))
		if err != nil {
			respondWithError(w, err)
			return
		}
	}

	controller := chat.NewController(s.opts.Transport, s.opts.Store, s.opts.Tools, m)
	if s.opts.MaxHops > 0 {
		controller.MaxHops = s.opts.MaxHops
	}

	var events int
	state, err := controller.RunTurn(ctx, chatID, &req.Message, tools, func(completion.StreamEvent) {
		events++
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	config.DebugLog.Debugf("[Server] Turn on chat %s folded %d events", chatID, events)

	resp := TurnResponse{
		ChatID:    chatID,
		Reply:     state.Reply,
		ToolCalls: make([]string, 0, len(state.ToolCalls)),
		Hops:      state.Hops,
	}
	for _, call := range state.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, call.Name)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) tools(ctx context.Context) ([]mcptypes.Tool, error) {
	if s.opts.Tools == nil {
		return nil, nil
	}
	return s.opts.Tools.ListTools(ctx)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/autosave"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/placement"
	"github.com/go-chi/chi/v5"
)

// Workspace opens page editors. session.Manager implements it.
type Workspace interface {
	Open(ctx context.Context, pageID string) (*lattice.Editor, error)
}

// Server serves the editor API over HTTP.
type Server struct {
	Pages   Workspace
	Streams *StreamManager
	Logger  *slog.Logger
	Metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// NewHandler creates a new HTTP handler for the workspace.
func NewHandler(pages Workspace, opts ...Option) http.Handler {
	server := &Server{
		Pages:  pages,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.Logger)

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Post("/validate", server.Validate)
	r.Route("/pages/{pageID}", func(r chi.Router) {
		r.Get("/", server.GetPage)
		r.Post("/commands", server.PostCommand)
		r.Post("/undo", server.PostUndo)
		r.Post("/redo", server.PostRedo)
		r.Post("/publish", server.PostPublish)
		r.Get("/events", server.SubscribeEvents)
	})
	if server.Metrics != nil {
		r.Handle("/metrics", server.Metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PageResponse is the body of GET /pages/{pageID}.
type PageResponse struct {
	PageID      string          `json:"page_id"`
	Revision    uint64          `json:"revision"`
	Document    domain.Document `json:"document"`
	CanUndo     bool            `json:"can_undo"`
	CanRedo     bool            `json:"can_redo"`
	LiveMessage string          `json:"live_message,omitempty"`
	Autosave    autosave.Status `json:"autosave"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors []string          `json:"errors,omitempty"`
	Issues []placement.Issue `json:"issues,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lattice-http",
		"version": strings.TrimSpace(lattice.Version),
	})
}

// GetPage handles the GET /pages/{pageID} request.
func (s *Server) GetPage(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(ed))
}

func pageResponse(ed *lattice.Editor) PageResponse {
	doc, rev := ed.Snapshot()
	if doc == nil {
		doc = domain.Document{}
	}
	return PageResponse{
		PageID:      ed.PageID(),
		Revision:    rev,
		Document:    doc,
		CanUndo:     ed.CanUndo(),
		CanRedo:     ed.CanRedo(),
		LiveMessage: ed.LiveMessage(),
		Autosave:    ed.AutosaveStatus(),
	}
}

// PostCommand handles the POST /pages/{pageID}/commands request.
func (s *Server) PostCommand(w http.ResponseWriter, r *http.Request) {
	var cmd lattice.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.Logger.Warn("PostCommand: Invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.execute(w, r, cmd)
}

// PostUndo handles the POST /pages/{pageID}/undo request.
func (s *Server) PostUndo(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, lattice.Command{Op: lattice.CmdUndo})
}

// PostRedo handles the POST /pages/{pageID}/redo request.
func (s *Server) PostRedo(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, lattice.Command{Op: lattice.CmdRedo})
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, cmd lattice.Command) {
	ed, ok := s.open(w, r)
	if !ok {
		return
	}

	res, diff, err := ed.ExecuteDiff(r.Context(), cmd)
	if err != nil {
		s.Logger.Info("Command failed", "page_id", ed.PageID(), "op", cmd.Op, "err", err)
		writeDomainError(w, err)
		return
	}

	if diff != nil {
		s.Logger.Debug("Command: Diff calculated", "diff", diff, "page_id", ed.PageID())
		if bytes, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(ed.PageID(), string(bytes))
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// PostPublish handles the POST /pages/{pageID}/publish request.
func (s *Server) PostPublish(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.open(w, r)
	if !ok {
		return
	}
	if err := ed.Publish(r.Context()); err != nil {
		s.Logger.Error("Publish failed", "page_id", ed.PageID(), "err", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(ed))
}

// Validate handles the POST /validate request. The body is a document;
// ?sections_only=true enables the restricted authoring mode.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	sectionsOnly, _ := strconv.ParseBool(r.URL.Query().Get("sections_only"))
	writeJSON(w, http.StatusOK, placement.ValidateDocument(doc, sectionsOnly))
}

func (s *Server) open(w http.ResponseWriter, r *http.Request) (*lattice.Editor, bool) {
	pageID := chi.URLParam(r, "pageID")
	ed, err := s.Pages.Open(r.Context(), pageID)
	if err != nil {
		s.Logger.Error("Open page failed", "page_id", pageID, "err", err)
		writeDomainError(w, err)
		return nil, false
	}
	return ed, true
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // PageID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(pageID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[pageID]; !ok {
		sm.subscribers[pageID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[pageID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[pageID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, pageID)
			}
		}
	}
}

// Subscribers returns the number of open streams for pageID.
func (sm *StreamManager) Subscribers(pageID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[pageID])
}

func (sm *StreamManager) Broadcast(pageID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "page_id", pageID, "payload_size", len(msg))

	for ch := range sm.subscribers[pageID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "page_id", pageID)
		}
	}
}

// SubscribeEvents handles the GET /pages/{pageID}/events request (SSE).
// ?watch=added,removed,changed,moved,reordered filters the diffs.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	pageID := chi.URLParam(r, "pageID")
	ch, cancel := s.Streams.Subscribe(pageID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.Logger.Info("SSE: Subscribing to page updates", "page_id", pageID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "page_id", pageID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matches(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func matches(msg string, watchList []string) bool {
	var diff domain.DocumentDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "added":
			if len(diff.Added) > 0 {
				return true
			}
		case "removed":
			if len(diff.Removed) > 0 {
				return true
			}
		case "changed":
			if len(diff.Changed) > 0 {
				return true
			}
		case "moved":
			if len(diff.Moved) > 0 {
				return true
			}
		case "reordered":
			if diff.Reordered {
				return true
			}
		}
	}
	return false
}

// -- Helpers --

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: fmt.Sprintf("failed to encode response: %v", err)})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// writeDomainError maps the domain sentinels to status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var perr *placement.Error
	switch {
	case errors.As(err, &perr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  err.Error(),
			Errors: perr.Result.Errors,
			Issues: perr.Result.Issues,
		})
	case errors.Is(err, domain.ErrInvalidCommand):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrTemplateNotFound), errors.Is(err, domain.ErrPageNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrEditorClosed), errors.Is(err, domain.ErrDuplicateID):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, autosave.ErrNoPublisher):
		writeError(w, http.StatusNotImplemented, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/placement"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// PageURIPrefix prefixes the page document resources.
const PageURIPrefix = "lattice://pages/"

// PageView is the structured result of the page tools. It mirrors the HTTP page response.
type PageView struct {
	PageID      string          `json:"page_id" jsonschema_description:"The page being edited"`
	Revision    uint64          `json:"revision" jsonschema_description:"Changes since the page was opened"`
	Document    domain.Document `json:"document" jsonschema_description:"The component tree"`
	CanUndo     bool            `json:"can_undo"`
	CanRedo     bool            `json:"can_redo"`
	LiveMessage string          `json:"live_message,omitempty" jsonschema_description:"Announcement for the last change"`
}

// Workspace opens page editors. session.Manager implements it.
type Workspace interface {
	Open(ctx context.Context, pageID string) (*lattice.Editor, error)
}

// Server exposes page editing as an MCP server.
type Server struct {
	pages     Workspace
	templates ports.TemplateLibrary
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithTemplates enables the list_templates tool.
func WithTemplates(lib ports.TemplateLibrary) Option {
	return func(s *Server) {
		s.templates = lib
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(pages Workspace, opts ...Option) *Server {
	s := &Server{
		pages:     pages,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("lattice-mcp", strings.TrimSpace(lattice.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get the component tree and history state of a page. Unknown pages start empty."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("The page to open")),
		mcp.WithOutputSchema[PageView](),
	), mcp.NewStructuredToolHandler(s.handleGetPage))

	s.mcpServer.AddTool(mcp.NewTool("execute_command",
		mcp.WithDescription("Apply an editing command to a page. Ops: add, insert, template, remove, remove_selection, duplicate, update, resize, move, undo, redo."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("The page to edit")),
		mcp.WithString("command", mcp.Required(), mcp.Description(`JSON command, e.g. {"op":"add","type":"Grid","at":{"parent_id":"s1","index":0}}`)),
		mcp.WithOutputSchema[lattice.CommandResult](),
	), mcp.NewStructuredToolHandler(s.handleExecute))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Revert the last change of a page."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("The page to edit")),
		mcp.WithOutputSchema[lattice.CommandResult](),
	), mcp.NewStructuredToolHandler(s.travel(lattice.CmdUndo)))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Reapply the last reverted change of a page."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("The page to edit")),
		mcp.WithOutputSchema[lattice.CommandResult](),
	), mcp.NewStructuredToolHandler(s.travel(lattice.CmdRedo)))

	s.mcpServer.AddTool(mcp.NewTool("publish",
		mcp.WithDescription("Publish the current document of a page and clear its history."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("The page to publish")),
		mcp.WithOutputSchema[PageView](),
	), mcp.NewStructuredToolHandler(s.handlePublish))

	s.mcpServer.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Check a document against the placement rules without editing anything."),
		mcp.WithString("document", mcp.Required(), mcp.Description("JSON array of root components")),
		mcp.WithBoolean("sections_only", mcp.Description("Restrict the root to sections")),
		mcp.WithOutputSchema[placement.Result](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	if s.templates != nil {
		s.mcpServer.AddTool(mcp.NewTool("list_templates",
			mcp.WithDescription("List the palette templates usable with the template command."),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			names, err := s.templates.Templates(ctx)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("list templates failed: %v", err)), nil
			}
			jsonBytes, _ := json.Marshal(names)
			return mcp.NewToolResultText(string(jsonBytes)), nil
		})
	}
}

func (s *Server) open(ctx context.Context, args map[string]interface{}) (*lattice.Editor, error) {
	pageID, _ := args["page_id"].(string)
	if pageID == "" {
		return nil, errors.New("page_id is required")
	}
	return s.pages.Open(ctx, pageID)
}

func view(ed *lattice.Editor) PageView {
	doc, rev := ed.Snapshot()
	if doc == nil {
		doc = domain.Document{}
	}
	return PageView{
		PageID:      ed.PageID(),
		Revision:    rev,
		Document:    doc,
		CanUndo:     ed.CanUndo(),
		CanRedo:     ed.CanRedo(),
		LiveMessage: ed.LiveMessage(),
	}
}

func (s *Server) handleGetPage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PageView, error) {
	ed, err := s.open(ctx, args)
	if err != nil {
		return PageView{}, err
	}
	return view(ed), nil
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (lattice.CommandResult, error) {
	ed, err := s.open(ctx, args)
	if err != nil {
		return lattice.CommandResult{}, err
	}

	raw, _ := args["command"].(string)
	var cmd lattice.Command
	if err := json.Unmarshal([]byte(raw), &cmd); err != nil {
		return lattice.CommandResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidCommand, err)
	}

	res, err := ed.Execute(ctx, cmd)
	if err != nil {
		s.logger.Info("MCP command failed", "page_id", ed.PageID(), "op", cmd.Op, "err", err)
		return lattice.CommandResult{}, err
	}
	return res, nil
}

func (s *Server) travel(op lattice.CommandOp) func(context.Context, mcp.CallToolRequest, map[string]interface{}) (lattice.CommandResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (lattice.CommandResult, error) {
		ed, err := s.open(ctx, args)
		if err != nil {
			return lattice.CommandResult{}, err
		}
		return ed.Execute(ctx, lattice.Command{Op: op})
	}
}

func (s *Server) handlePublish(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PageView, error) {
	ed, err := s.open(ctx, args)
	if err != nil {
		return PageView{}, err
	}
	if err := ed.Publish(ctx); err != nil {
		return PageView{}, fmt.Errorf("publish failed: %w", err)
	}
	return view(ed), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (placement.Result, error) {
	raw, _ := args["document"].(string)
	var doc domain.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return placement.Result{}, fmt.Errorf("invalid document: %w", err)
	}
	sectionsOnly, _ := args["sections_only"].(bool)
	return placement.ValidateDocument(doc, sectionsOnly), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(PageURIPrefix+"{page_id}", "Page Document",
		mcp.WithTemplateDescription("The current component tree of a page"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readPage)
}

func (s *Server) readPage(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	pageID := strings.TrimPrefix(uri, PageURIPrefix)
	if pageID == "" || pageID == uri {
		return nil, fmt.Errorf("invalid page uri %q", uri)
	}

	ed, err := s.pages.Open(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	jsonBytes, _ := json.Marshal(view(ed))

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

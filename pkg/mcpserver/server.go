package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/text/language"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
	"github.com/Killjoybr/IA-CAI/pkg/scoring"
)

// Config holds MCP server dependencies.
type Config struct {
	// Scanner runs scan and crawl calls. Required.
	Scanner *scanner.Scanner

	// Classifier scores findings. Nil trains the default model.
	Classifier *scoring.Classifier

	// Lang is the default severity label language.
	Lang language.Tag

	// MaxPages and Timeout apply when a call does not set them.
	MaxPages int
	Timeout  time.Duration

	Logger *slog.Logger
}

// Server wraps the MCP server with webprobe tools.
type Server struct {
	mcp    *mcp.Server
	config Config
	logger *slog.Logger
	ready  atomic.Bool
}

// New creates a server with all tools and resources registered.
func New(cfg Config) (*Server, error) {
	if cfg.Scanner == nil {
		return nil, fmt.Errorf("mcpserver: scanner is required")
	}
	if cfg.Classifier == nil {
		cfg.Classifier = scoring.New()
	}
	if cfg.Lang == (language.Tag{}) {
		cfg.Lang = language.English
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaults.MaxPages
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		logger: cfg.Logger.With(slog.String("component", "mcp")),
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    defaults.ToolName,
			Title:   "webprobe MCP Server",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)
	s.registerTools()
	s.registerResources()
	s.ready.Store(true)
	return s, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// RunStdio serves over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.InfoContext(ctx, "serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns the streamable HTTP transport mounted at / and
// /mcp, plus a /health probe.
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: false},
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/mcp", streamable)
	mux.Handle("/", streamable)
	return s.recovery(securityHeaders(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", defaults.ContentTypeJSON)
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting","service":"webprobe-mcp"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok","service":"webprobe-mcp"}`))
}

// recovery turns a handler panic into a 500 instead of a dropped
// connection.
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic in HTTP handler",
					slog.Any("panic", err),
					slog.String("stack", string(debug.Stack())))
				w.Header().Set("Content-Type", defaults.ContentTypeJSON)
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Result helpers
// ---------------------------------------------------------------------------

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// jsonResult marshals v to indented JSON in a single text block.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsonutil.MarshalIndent(v, "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult reports a tool failure in-band so the agent can correct
// its arguments instead of seeing a protocol error.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := jsonutil.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

// logged wraps a tool handler with a debug line per call.
func (s *Server) logged(name string, h mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		res, err := h(ctx, req)
		attrs := []any{slog.String("tool", name), slog.Duration("elapsed", time.Since(start))}
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "tool failed", append(attrs, slog.Any("error", err))...)
		case res != nil && res.IsError:
			s.logger.DebugContext(ctx, "tool rejected call", attrs...)
		default:
			s.logger.DebugContext(ctx, "tool call", attrs...)
		}
		return res, err
	}
}

const serverInstructions = `webprobe crawls a web site within its own domain, audits security
response headers, and sends reflected XSS and error-based SQL injection probes
through query parameters. Each finding gets a low/medium/high severity estimate.

Only scan sites you are authorized to test.

Typical flow:
1. crawl {"target": "example.com"} to see which pages are in reach.
2. scan {"target": "example.com", "max_pages": 10} for the full report.
3. classify_finding to score a finding you obtained elsewhere.`

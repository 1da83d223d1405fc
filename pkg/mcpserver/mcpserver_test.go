package mcpserver_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Killjoybr/IA-CAI/pkg/httpclient"
	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
	"github.com/Killjoybr/IA-CAI/pkg/mcpserver"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

func newServer(t *testing.T) *mcpserver.Server {
	t.Helper()
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 2 * time.Second
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sc, err := scanner.New(cfg, scanner.WithLogger(logger))
	require.NoError(t, err)
	srv, err := mcpserver.New(mcpserver.Config{Scanner: sc, Logger: logger})
	require.NoError(t, err)
	return srv
}

// newTestSession connects a client to a fresh server over in-memory
// transports.
func newTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	srv := newServer(t)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = srv.MCPServer().Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name, args string) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: json.RawMessage(args)})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestNewRequiresScanner(t *testing.T) {
	t.Parallel()
	_, err := mcpserver.New(mcpserver.Config{})
	assert.Error(t, err)
}

func TestListTools(t *testing.T) {
	t.Parallel()
	cs := newTestSession(t)

	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	for _, want := range []string{"scan", "crawl", "classify_finding"} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestScanTool(t *testing.T) {
	t.Parallel()
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<p>results for %s</p>", r.URL.Query().Get("q"))
	}))
	defer site.Close()

	cs := newTestSession(t)
	res := callTool(t, cs, "scan", fmt.Sprintf(`{"target": %q, "max_pages": 1, "lang": "pt"}`, site.URL+"/?q=x"))
	require.False(t, res.IsError, text(t, res))

	var rep struct {
		URLs         []string `json:"urls"`
		PagesFetched int      `json:"pages_fetched"`
		Findings     []struct {
			Kind string `json:"type"`
		} `json:"findings"`
		Annotated []struct {
			Kind  string `json:"type"`
			Class string `json:"severity_class"`
			Label string `json:"severity_label"`
		} `json:"annotated"`
	}
	require.NoError(t, jsonutil.Unmarshal([]byte(text(t, res)), &rep))

	assert.Equal(t, []string{site.URL + "/?q=x"}, rep.URLs)
	assert.Equal(t, 1, rep.PagesFetched)
	require.Len(t, rep.Annotated, len(rep.Findings))

	var sawXSS bool
	for _, a := range rep.Annotated {
		if a.Kind == "xss_reflected" {
			sawXSS = true
			assert.Equal(t, "high", a.Class)
			assert.Equal(t, "alto", a.Label)
		}
	}
	assert.True(t, sawXSS)
}

func TestScanToolInvalidTarget(t *testing.T) {
	t.Parallel()
	cs := newTestSession(t)

	res := callTool(t, cs, "scan", `{"target": "ftp://files.test"}`)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "invalid target")
}

func TestCrawlTool(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/about">about</a>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "about us")
	})
	site := httptest.NewServer(mux)
	defer site.Close()

	cs := newTestSession(t)
	res := callTool(t, cs, "crawl", fmt.Sprintf(`{"target": %q}`, site.URL+"/"))
	require.False(t, res.IsError, text(t, res))

	var out struct {
		URLs    []string `json:"urls"`
		Fetched int      `json:"pages_fetched"`
	}
	require.NoError(t, jsonutil.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, []string{site.URL + "/", site.URL + "/about"}, out.URLs)
	assert.Equal(t, 2, out.Fetched)
}

func TestClassifyTool(t *testing.T) {
	t.Parallel()
	cs := newTestSession(t)

	tests := []struct {
		name  string
		args  string
		class string
		label string
		conf  float64
	}{
		{"xss", `{"type": "xss_reflected", "url": "http://a", "payload": "<script>alert(1)</script>"}`, "high", "high", 0.755},
		{"csp", `{"type": "missing_header", "url": "http://a", "header": "Content-Security-Policy"}`, "medium", "medium", 0.6335},
		{"portuguese", `{"type": "missing_header", "url": "http://a", "header": "X-Frame-Options", "lang": "pt"}`, "medium", "médio", 0.5156},
		{"unknown type", `{"type": "open_redirect", "url": "http://a"}`, "low", "low", 0.4669},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, cs, "classify_finding", tt.args)
			require.False(t, res.IsError, text(t, res))

			var out struct {
				Class         string             `json:"class"`
				Label         string             `json:"label"`
				Confidence    float64            `json:"confidence"`
				Probabilities map[string]float64 `json:"probabilities"`
			}
			require.NoError(t, jsonutil.Unmarshal([]byte(text(t, res)), &out))
			assert.Equal(t, tt.class, out.Class)
			assert.Equal(t, tt.label, out.Label)
			assert.InDelta(t, tt.conf, out.Confidence, 0.01)
			assert.Len(t, out.Probabilities, 3)
		})
	}
}

func TestClassifyToolRequiresType(t *testing.T) {
	t.Parallel()
	cs := newTestSession(t)
	res := callTool(t, cs, "classify_finding", `{"url": "http://t/"}`)
	assert.True(t, res.IsError)
}

func TestResources(t *testing.T) {
	t.Parallel()
	cs := newTestSession(t)
	ctx := context.Background()

	for _, uri := range []string{"webprobe://version", "webprobe://model"} {
		res, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
		require.NoError(t, err, uri)
		require.NotEmpty(t, res.Contents, uri)
		assert.True(t, jsonutil.Valid([]byte(res.Contents[0].Text)), uri)
	}
}

func TestHTTPHandlerHealth(t *testing.T) {
	t.Parallel()
	h := newServer(t).HTTPHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

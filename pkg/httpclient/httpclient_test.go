package httpclient

import (
	"go/ast"
	"go/parser"
	"go/token"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WithDefaultConfig(t *testing.T) {
	client := New(DefaultConfig())
	require.NotNil(t, client)
	assert.Equal(t, 5*time.Second, client.Timeout)
	assert.NotNil(t, client.CheckRedirect)
}

func TestNew_ZeroConfigUsesDefaults(t *testing.T) {
	client := New(Config{})
	require.NotNil(t, client)
	assert.Equal(t, 5*time.Second, client.Timeout)
}

func TestNew_RespectsTimeout(t *testing.T) {
	client := New(WithTimeout(2 * time.Second))
	assert.Equal(t, 2*time.Second, client.Timeout)
}

func TestNew_InsecureSkipVerify(t *testing.T) {
	for _, skip := range []bool{true, false} {
		cfg := DefaultConfig()
		cfg.InsecureSkipVerify = skip
		transport, ok := New(cfg).Transport.(*http.Transport)
		require.True(t, ok, "Transport is not *http.Transport")
		require.NotNil(t, transport.TLSClientConfig)
		assert.Equal(t, skip, transport.TLSClientConfig.InsecureSkipVerify)
	}
}

func TestDefaultConfig_SkipsVerification(t *testing.T) {
	// Scanning self-signed targets is the default; flipping it must be explicit.
	assert.True(t, DefaultConfig().InsecureSkipVerify)
	assert.True(t, DefaultConfig().FollowRedirects)
}

func TestNew_SelfSignedTarget(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := New(DefaultConfig()).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	strict := DefaultConfig()
	strict.InsecureSkipVerify = false
	_, err = New(strict).Get(srv.URL)
	assert.Error(t, err)
}

func TestNew_RedirectPolicy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("moved"))
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Run("follow", func(t *testing.T) {
		resp, err := New(DefaultConfig()).Get(srv.URL + "/old")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("no follow", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FollowRedirects = false
		resp, err := New(cfg).Get(srv.URL + "/old")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})

	t.Run("loop", func(t *testing.T) {
		_, err := New(DefaultConfig()).Get(srv.URL + "/loop")
		assert.ErrorIs(t, err, ErrTooManyRedirects)
	})
}

func TestNew_WithProxy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Proxy = "http://127.0.0.1:8080"
	transport := New(cfg).Transport.(*http.Transport)
	assert.NotNil(t, transport.Proxy)

	cfg.Proxy = "ftp://bad"
	transport = New(cfg).Transport.(*http.Transport)
	assert.Nil(t, transport.Proxy, "invalid proxy must be ignored")
}

// ============================================================================
// ENFORCEMENT TESTS - Detect raw http.Client creation
// ============================================================================

// TestNoRawHTTPClient ensures code uses httpclient.New() instead of &http.Client{}
func TestNoRawHTTPClient(t *testing.T) {
	violations := findRawHTTPClients(t)

	if len(violations) > 0 {
		t.Errorf("Found %d raw &http.Client{} literals. Use httpclient.New() or httpclient.NewFetcher() instead:", len(violations))
		for _, v := range violations {
			t.Errorf("  %s", v)
		}
	}
}

func findRawHTTPClients(t *testing.T) []string {
	t.Helper()

	var violations []string
	root := findProjectRoot(t)

	// Files that legitimately need custom http.Client configuration
	excludePatterns := []string{
		"httpclient.go", // The factory itself
		"_test.go",      // All tests can create clients for testing
	}

	for _, dir := range []string{"pkg", "cmd"} {
		dirPath := filepath.Join(root, dir)
		if _, err := os.Stat(dirPath); os.IsNotExist(err) {
			continue
		}

		_ = filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}

			for _, pattern := range excludePatterns {
				if strings.Contains(path, pattern) {
					return nil
				}
			}

			fset := token.NewFileSet()
			node, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
			if err != nil {
				return nil
			}

			ast.Inspect(node, func(n ast.Node) bool {
				// Look for &http.Client{} or http.Client{}
				if unary, ok := n.(*ast.UnaryExpr); ok {
					if comp, ok := unary.X.(*ast.CompositeLit); ok {
						if isHTTPClientType(comp.Type) {
							pos := fset.Position(comp.Pos())
							relPath, _ := filepath.Rel(root, pos.Filename)
							violations = append(violations,
								relPath+":"+strconv.Itoa(pos.Line)+": &http.Client{}")
						}
					}
				}
				return true
			})

			return nil
		})
	}

	return violations
}

func isHTTPClientType(expr ast.Expr) bool {
	if sel, ok := expr.(*ast.SelectorExpr); ok {
		if ident, ok := sel.X.(*ast.Ident); ok {
			return ident.Name == "http" && sel.Sel.Name == "Client"
		}
	}
	return false
}

// TestNoRawHTTPTransport ensures code uses httpclient.New() instead of raw &http.Transport{}.
// Raw transports bypass the TLS, proxy and redirect policy configured here.
func TestNoRawHTTPTransport(t *testing.T) {
	violations := findRawHTTPTransports(t)

	if len(violations) > 0 {
		t.Errorf("Found %d raw &http.Transport{} literals. Use httpclient.New() instead:", len(violations))
		for _, v := range violations {
			t.Errorf("  %s", v)
		}
	}
}

func findRawHTTPTransports(t *testing.T) []string {
	t.Helper()

	var violations []string
	root := findProjectRoot(t)

	// Files that legitimately need custom http.Transport
	excludePatterns := []string{
		"httpclient.go", // The factory itself builds transports
		"_test.go",      // Tests can create transports for testing
	}

	for _, dir := range []string{"pkg", "cmd"} {
		dirPath := filepath.Join(root, dir)
		if _, err := os.Stat(dirPath); os.IsNotExist(err) {
			continue
		}

		_ = filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}

			for _, pattern := range excludePatterns {
				if strings.Contains(path, pattern) {
					return nil
				}
			}

			fset := token.NewFileSet()
			node, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
			if err != nil {
				return nil
			}

			ast.Inspect(node, func(n ast.Node) bool {
				if unary, ok := n.(*ast.UnaryExpr); ok {
					if comp, ok := unary.X.(*ast.CompositeLit); ok {
						if isHTTPTransportType(comp.Type) {
							pos := fset.Position(comp.Pos())
							relPath, _ := filepath.Rel(root, pos.Filename)
							violations = append(violations,
								relPath+":"+strconv.Itoa(pos.Line)+": &http.Transport{}")
						}
					}
				}
				return true
			})

			return nil
		})
	}

	return violations
}

func isHTTPTransportType(expr ast.Expr) bool {
	if sel, ok := expr.(*ast.SelectorExpr); ok {
		if ident, ok := sel.X.(*ast.Ident); ok {
			return ident.Name == "http" && sel.Sel.Name == "Transport"
		}
	}
	return false
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("Could not find project root (go.mod)")
		}
		dir = parent
	}
}

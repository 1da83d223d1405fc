// Command mcp-smoke starts `webprobe mcp --http` from the repository and
// drives it through a real MCP client session. Offline scenarios run by
// default; -live also scans -target.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Killjoybr/IA-CAI/pkg/httpclient"
	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
)

const modulePath = "github.com/Killjoybr/IA-CAI"

type scenario struct {
	name string
	live bool
	fn   func(ctx context.Context, s *mcp.ClientSession, target string) error
}

func main() {
	var (
		port    = flag.Int("port", 18080, "MCP HTTP port")
		target  = flag.String("target", "http://testphp.vulnweb.com", "Target for live scenarios")
		timeout = flag.Duration("timeout", 90*time.Second, "Overall timeout")
		live    = flag.Bool("live", false, "Enable scenarios that scan -target")
		runOnly = flag.String("scenario", "", "Run only this named scenario")
	)
	flag.Parse()
	log.SetFlags(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	serverCmd, err := startServer(ctx, *port)
	if err != nil {
		log.Fatalf("FATAL start_server: %v", err)
	}
	defer stopServer(serverCmd)

	if err := waitForHealth(ctx, *port); err != nil {
		log.Fatalf("FATAL health_check: %v", err)
	}
	fmt.Println("server: healthy")

	client := mcp.NewClient(&mcp.Implementation{Name: "mcp-smoke", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: fmt.Sprintf("http://127.0.0.1:%d/mcp", *port),
	}, nil)
	if err != nil {
		log.Fatalf("FATAL connect: %v", err)
	}
	defer session.Close()

	var passed, failed, skipped int
	for _, sc := range allScenarios() {
		if *runOnly != "" && sc.name != *runOnly {
			continue
		}
		if sc.live && !*live {
			skipped++
			fmt.Printf("SKIP  %s\n", sc.name)
			continue
		}
		if err := sc.fn(ctx, session, *target); err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", sc.name, err)
			continue
		}
		passed++
		fmt.Printf("PASS  %s\n", sc.name)
	}

	fmt.Printf("\n--- %d passed, %d failed, %d skipped ---\n", passed, failed, skipped)
	if failed > 0 {
		os.Exit(1)
	}
}

func allScenarios() []scenario {
	return []scenario{
		{"tool_discovery", false, scenarioToolDiscovery},
		{"resources", false, scenarioResources},
		{"classify", false, scenarioClassify},
		{"error_handling", false, scenarioErrorHandling},
		{"live_crawl", true, scenarioLiveCrawl},
		{"live_scan", true, scenarioLiveScan},
	}
}

func scenarioToolDiscovery(ctx context.Context, s *mcp.ClientSession, _ string) error {
	res, err := s.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}
	have := map[string]*mcp.Tool{}
	for _, t := range res.Tools {
		have[t.Name] = t
	}
	for _, name := range []string{"scan", "crawl", "classify_finding"} {
		t, ok := have[name]
		if !ok {
			return fmt.Errorf("tool %q not registered", name)
		}
		if t.Description == "" || t.InputSchema == nil {
			return fmt.Errorf("tool %q lacks description or schema", name)
		}
	}
	return nil
}

func scenarioResources(ctx context.Context, s *mcp.ClientSession, _ string) error {
	for _, uri := range []string{"webprobe://version", "webprobe://model"} {
		res, err := s.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
		if err != nil {
			return fmt.Errorf("read %s: %w", uri, err)
		}
		if len(res.Contents) == 0 || !jsonutil.Valid([]byte(res.Contents[0].Text)) {
			return fmt.Errorf("%s: empty or invalid JSON", uri)
		}
	}
	return nil
}

func scenarioClassify(ctx context.Context, s *mcp.ClientSession, _ string) error {
	cases := []struct {
		args  map[string]any
		class string
	}{
		{map[string]any{"type": "xss_reflected", "url": "http://a", "payload": "<script>"}, "high"},
		{map[string]any{"type": "missing_header", "url": "http://a", "header": "Content-Security-Policy"}, "medium"},
		{map[string]any{"type": "open_redirect", "url": "http://a"}, "low"},
	}
	for _, c := range cases {
		data, err := callToolJSON(ctx, s, "classify_finding", c.args)
		if err != nil {
			return err
		}
		if data["class"] != c.class {
			return fmt.Errorf("classify %v: got class %v, want %s", c.args["type"], data["class"], c.class)
		}
	}
	return nil
}

func scenarioErrorHandling(ctx context.Context, s *mcp.ClientSession, _ string) error {
	if err := requireToolError(ctx, s, "scan", map[string]any{"target": "ftp://files.test"}, "bad scheme"); err != nil {
		return err
	}
	if err := requireToolError(ctx, s, "scan", map[string]any{"target": ""}, "empty target"); err != nil {
		return err
	}
	return requireToolError(ctx, s, "classify_finding", map[string]any{"url": "http://a"}, "missing type")
}

func scenarioLiveCrawl(ctx context.Context, s *mcp.ClientSession, target string) error {
	data, err := callToolJSON(ctx, s, "crawl", map[string]any{"target": target, "max_pages": 3})
	if err != nil {
		return err
	}
	urls, _ := data["urls"].([]any)
	if len(urls) == 0 || len(urls) > 3 {
		return fmt.Errorf("crawl returned %d urls, want 1..3", len(urls))
	}
	return nil
}

func scenarioLiveScan(ctx context.Context, s *mcp.ClientSession, target string) error {
	data, err := callToolJSON(ctx, s, "scan", map[string]any{"target": target, "max_pages": 2})
	if err != nil {
		return err
	}
	if n, _ := data["pages_fetched"].(float64); n == 0 {
		return fmt.Errorf("target %s unreachable", target)
	}
	findings, _ := data["findings"].([]any)
	annotated, _ := data["annotated"].([]any)
	if len(findings) != len(annotated) {
		return fmt.Errorf("%d findings but %d annotated", len(findings), len(annotated))
	}
	return nil
}

// requireToolError passes when the call fails, in-band or at protocol level.
func requireToolError(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any, desc string) error {
	result, err := callToolRaw(ctx, s, name, args)
	if err != nil {
		return nil
	}
	if !result.IsError {
		return fmt.Errorf("NEG %s(%s): expected IsError=true (response: %s)", name, desc, truncate(extractText(result), 120))
	}
	return nil
}

func callToolJSON(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) (map[string]any, error) {
	result, err := callToolRaw(ctx, s, name, args)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("call %s: tool error: %s", name, truncate(extractText(result), 200))
	}
	var data map[string]any
	if err := jsonutil.Unmarshal([]byte(extractText(result)), &data); err != nil {
		return nil, fmt.Errorf("call %s: parse JSON: %w", name, err)
	}
	return data, nil
}

func callToolRaw(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, error) {
	return s.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
}

func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*mcp.TextContent); ok {
		return tc.Text
	}
	return fmt.Sprintf("%T", result.Content[0])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func startServer(ctx context.Context, port int) (*exec.Cmd, error) {
	root, err := findRepoRoot()
	if err != nil {
		return nil, fmt.Errorf("find repo root: %w", err)
	}
	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/cli", "mcp", "-http", fmt.Sprintf("127.0.0.1:%d", port))
	cmd.Dir = root
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func stopServer(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
	_, _ = cmd.Process.Wait()
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil && strings.HasPrefix(strings.TrimSpace(string(data)), "module "+modulePath) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("repo root not found walking up from %s", dir)
		}
		dir = parent
	}
}

func waitForHealth(ctx context.Context, port int) error {
	client := httpclient.New(httpclient.WithTimeout(2 * time.Second))
	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)

	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

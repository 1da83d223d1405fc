package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
	"github.com/Killjoybr/IA-CAI/pkg/scoring"
)

// maxTimeoutSeconds bounds the per-request timeout an agent may ask for.
const maxTimeoutSeconds = float64(defaults.MaxTimeout / time.Second)

func (s *Server) registerTools() {
	s.addScanTool()
	s.addCrawlTool()
	s.addClassifyTool()
}

func targetSchema() map[string]any {
	return map[string]any{
		"target": map[string]any{
			"type":        "string",
			"description": "Site to scan. A bare host gets http:// prepended.",
		},
		"max_pages": map[string]any{
			"type":        "integer",
			"description": "Maximum pages to crawl.",
			"default":     defaults.MaxPages,
			"minimum":     1,
			"maximum":     defaults.MaxPagesLimit,
		},
		"timeout": map[string]any{
			"type":        "number",
			"description": "Per-request timeout in seconds.",
			"default":     defaults.Timeout.Seconds(),
			"minimum":     0.1,
			"maximum":     maxTimeoutSeconds,
		},
	}
}

type targetArgs struct {
	Target   string  `json:"target"`
	MaxPages int     `json:"max_pages"`
	Timeout  float64 `json:"timeout"`
}

func (s *Server) target(a targetArgs) scanner.Target {
	t := scanner.Target{URL: a.Target, MaxPages: a.MaxPages, Timeout: s.config.Timeout}
	if t.MaxPages <= 0 {
		t.MaxPages = s.config.MaxPages
	}
	if a.Timeout > 0 {
		t.Timeout = time.Duration(min(a.Timeout, maxTimeoutSeconds) * float64(time.Second))
	}
	return t
}

// ═══════════════════════════════════════════════════════════════════════════
// scan
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addScanTool() {
	props := targetSchema()
	props["lang"] = map[string]any{
		"type":        "string",
		"description": "Severity label language.",
		"enum":        []string{"en", "pt"},
	}
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "scan",
			Title: "Web Vulnerability Scan",
			Description: `Crawl a site (same domain only), check each page for missing security headers, and probe query parameters for reflected XSS and error-based SQL injection.

Returns the report: visited urls, pages_fetched, findings, annotated findings with severity, request count and swallowed errors. pages_fetched 0 means the target never answered.

EXAMPLE INPUTS:
• {"target": "testphp.vulnweb.com"}
• {"target": "https://staging.example.com/app", "max_pages": 5, "timeout": 10}`,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": props,
				"required":   []string{"target"},
			},
			Annotations: &mcp.ToolAnnotations{
				Title:           "Web Vulnerability Scan",
				OpenWorldHint:   boolPtr(true),
				DestructiveHint: boolPtr(false),
			},
		},
		s.logged("scan", s.handleScan),
	)
}

type scanArgs struct {
	Target   string  `json:"target"`
	MaxPages int     `json:"max_pages"`
	Timeout  float64 `json:"timeout"`
	Lang     string  `json:"lang"`
}

func (s *Server) handleScan(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args scanArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	rep, err := s.config.Scanner.Scan(ctx, s.target(targetArgs{Target: args.Target, MaxPages: args.MaxPages, Timeout: args.Timeout}))
	if err != nil {
		if errors.Is(err, scanner.ErrInvalidTarget) {
			return errorResult(err.Error() + `. Example: {"target": "https://example.com"}`), nil
		}
		return nil, err
	}
	lang := s.config.Lang
	if args.Lang != "" {
		lang = scoring.ParseLang(args.Lang)
	}
	rep.Annotate(s.config.Classifier, lang)
	return jsonResult(rep)
}

// ═══════════════════════════════════════════════════════════════════════════
// crawl
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addCrawlTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        "crawl",
			Title:       "Crawl Site",
			Description: `List the same-domain pages reachable from a target, breadth first, without sending any probes.`,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": targetSchema(),
				"required":   []string{"target"},
			},
			Annotations: &mcp.ToolAnnotations{
				Title:         "Crawl Site",
				ReadOnlyHint:  true,
				OpenWorldHint: boolPtr(true),
			},
		},
		s.logged("crawl", s.handleCrawl),
	)
}

type crawlResult struct {
	URLs    []string `json:"urls"`
	Fetched int      `json:"pages_fetched"`
	Errors  []string `json:"errors,omitempty"`
}

func (s *Server) handleCrawl(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args targetArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	res, err := s.config.Scanner.Crawl(ctx, s.target(args))
	if err != nil {
		if errors.Is(err, scanner.ErrInvalidTarget) {
			return errorResult(err.Error()), nil
		}
		return nil, err
	}
	out := crawlResult{URLs: res.URLs, Fetched: res.Fetched}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	return jsonResult(out)
}

// ═══════════════════════════════════════════════════════════════════════════
// classify_finding
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addClassifyTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "classify_finding",
			Title: "Estimate Finding Severity",
			Description: `Estimate low/medium/high severity for one finding. Works offline; no request is sent.

EXAMPLE INPUTS:
• {"type": "missing_header", "url": "https://example.com/", "header": "Content-Security-Policy"}
• {"type": "xss_reflected", "url": "https://example.com/?q=x", "payload": "<script>alert(1)</script>", "lang": "pt"}`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type": map[string]any{
						"type":        "string",
						"description": "Finding type, for example missing_header, xss_reflected, sqli_error_based.",
					},
					"url":     map[string]any{"type": "string"},
					"header":  map[string]any{"type": "string"},
					"param":   map[string]any{"type": "string"},
					"payload": map[string]any{"type": "string"},
					"detail":  map[string]any{"type": "string"},
					"lang": map[string]any{
						"type": "string",
						"enum": []string{"en", "pt"},
					},
				},
				"required": []string{"type"},
			},
			Annotations: &mcp.ToolAnnotations{
				Title:          "Estimate Finding Severity",
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
			},
		},
		s.logged("classify_finding", s.handleClassify),
	)
}

type classifyArgs struct {
	finding.Finding `json:",inline"`
	Lang            string `json:"lang"`
}

type classifyResult struct {
	Class         finding.Severity   `json:"class"`
	Label         string             `json:"label"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
}

func (s *Server) handleClassify(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args classifyArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.Kind == "" {
		return errorResult(`type is required. Example: {"type": "missing_header", "header": "Content-Security-Policy"}`), nil
	}
	lang := s.config.Lang
	if args.Lang != "" {
		lang = scoring.ParseLang(args.Lang)
	}
	est := s.config.Classifier.Classify(args.Finding)
	out := classifyResult{
		Class:         est.Class,
		Label:         scoring.Label(est.Index, lang),
		Confidence:    est.Confidence,
		Probabilities: make(map[string]float64, scoring.NumClasses),
	}
	for i, p := range est.Probabilities {
		sev, _ := finding.SeverityFromIndex(i)
		out.Probabilities[sev.String()] = p
	}
	return jsonResult(out)
}

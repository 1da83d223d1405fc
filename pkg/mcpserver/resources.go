package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
)

func (s *Server) registerResources() {
	s.addJSONResource("webprobe://version", "webprobe version",
		"Server version and tool inventory.", s.versionInfo)
	s.addJSONResource("webprobe://model", "Severity model",
		"Trained classifier weights, one row per severity class.", s.modelInfo)
}

func (s *Server) addJSONResource(uri, name, desc string, body func() any) {
	s.mcp.AddResource(
		&mcp.Resource{URI: uri, Name: name, Description: desc, MIMEType: defaults.ContentTypeJSON},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			data, err := jsonutil.MarshalIndent(body(), "  ")
			if err != nil {
				return nil, fmt.Errorf("marshaling %s: %w", uri, err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{
					URI:      uri,
					MIMEType: defaults.ContentTypeJSON,
					Text:     string(data),
				}},
			}, nil
		},
	)
}

func (s *Server) versionInfo() any {
	kinds := make([]string, 0, 3)
	for _, k := range finding.KnownKinds() {
		kinds = append(kinds, k.String())
	}
	return map[string]any{
		"name":          defaults.ToolName,
		"version":       defaults.Version,
		"tools":         []string{"scan", "crawl", "classify_finding"},
		"finding_types": kinds,
		"max_pages":     s.config.MaxPages,
		"timeout":       s.config.Timeout.Seconds(),
	}
}

type modelRow struct {
	Class   finding.Severity `json:"class"`
	Weights []float64        `json:"weights"`
	Bias    float64          `json:"bias"`
}

func (s *Server) modelInfo() any {
	w, b := s.config.Classifier.Weights()
	rows := make([]modelRow, len(w))
	for i := range w {
		sev, _ := finding.SeverityFromIndex(i)
		rows[i] = modelRow{Class: sev, Weights: w[i][:], Bias: b[i]}
	}
	return map[string]any{
		"features": []string{"type_score", "has_payload", "header_score", "url_length"},
		"classes":  rows,
	}
}

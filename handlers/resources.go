// ABOUTME: MCP resource handlers exposing the validity catalog
// ABOUTME: Provides read-only JSON access via expirytrack:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/expirytrack/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const catalogURI = "expirytrack://catalog"

type ResourceHandlers struct {
	svc *service.Service
}

func NewResourceHandlers(svc *service.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// ReadCatalog returns every validity rule as JSON.
func (h *ResourceHandlers) ReadCatalog(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	rules, err := h.svc.ListRules(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	out := make([]RuleOutput, len(rules))
	for i := range rules {
		out[i] = ruleToOutput(&rules[i])
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      catalogURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for SwiftVisa resources.
	uriScheme = "swiftvisa://"

	// defaultHistoryLimit bounds the static history resource.
	defaultHistoryLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for index status.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "Size of the indexed policy corpus",
		MIMEType:    "application/json",
	}, s.handleIndexResource)

	// Static resource for recent decisions.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Most recent eligibility decisions",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	// Template for a bounded number of recent decisions.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "history/{limit}",
		Name:        "history-limited",
		Description: "The given number of most recent eligibility decisions",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleIndexResource reports how many chunks are indexed.
func (s *Server) handleIndexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(map[string]int{"index_size": s.ports.Query.IndexSize()})
	if err != nil {
		return nil, fmt.Errorf("marshalling index status: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

// handleHistoryResource returns recent audit records, newest first.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return jsonResult(req.Params.URI, []byte("[]")), nil
	}

	limit, ok := extractLimit(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	records, err := s.ports.History.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

func jsonResult(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}

// extractLimit parses the limit from swiftvisa://history or swiftvisa://history/{limit}.
func extractLimit(uri string) (int, bool) {
	const base = uriScheme + "history"

	if uri == base {
		return defaultHistoryLimit, true
	}
	if !strings.HasPrefix(uri, base+"/") {
		return 0, false
	}

	limit, err := strconv.Atoi(strings.TrimPrefix(uri, base+"/"))
	if err != nil || limit <= 0 {
		return 0, false
	}
	return limit, true
}

// Package mcp provides an MCP (Model Context Protocol) server adapter for SwiftVisa.
// It lets AI assistants run eligibility assessments against the local visa corpus.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

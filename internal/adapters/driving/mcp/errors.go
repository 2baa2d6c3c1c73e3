// Package mcp provides an MCP (Model Context Protocol) server adapter for visarag.
// It lets AI assistants retrieve visa policy passages as grounding context.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

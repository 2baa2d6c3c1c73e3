package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

const (
	uriScheme   = "visarag://"
	manifestURI = uriScheme + "index/manifest"
	buildsURI   = uriScheme + "index/builds"

	// historyLimit caps the builds resource.
	historyLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         manifestURI,
		Name:        "index-manifest",
		Description: "Manifest of the serving index build: id, strategy, exactness, dimension and counts",
		MIMEType:    "application/json",
	}, s.handleManifestResource)

	s.server.AddResource(&mcp.Resource{
		URI:         buildsURI,
		Name:        "index-builds",
		Description: "Recent index builds, newest first, with skipped documents",
		MIMEType:    "application/json",
	}, s.handleBuildsResource)
}

// handleManifestResource returns the manifest of the serving build.
func (s *Server) handleManifestResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	manifest, err := s.ports.Retrieval.Manifest()
	if errors.Is(err, domain.ErrIndexUnavailable) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return jsonResult(req.Params.URI, manifest)
}

// handleBuildsResource returns recent builds.
func (s *Server) handleBuildsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Index == nil {
		return jsonResult(req.Params.URI, []domain.BuildRecord{})
	}

	records, err := s.ports.Index.History(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	if records == nil {
		records = []domain.BuildRecord{}
	}
	return jsonResult(req.Params.URI, records)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

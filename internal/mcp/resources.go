package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faucetdb/fixturebake/internal/bake"
	"github.com/faucetdb/fixturebake/internal/fixture"
)

const (
	connectionsURI    = "fixturebake://connections"
	fixtureURIPrefix  = "fixturebake://fixture/"
	fixtureURIPattern = fixtureURIPrefix + "{connection}/{table}"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// fixturebake://connections: configured database connections
	// -------------------------------------------------------------------
	srv.AddResource(
		mcp.NewResource(
			connectionsURI,
			"Database Connections",
			mcp.WithResourceDescription(
				"Database connections configured for fixturebake and their drivers.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleConnectionsResource,
	)

	// -------------------------------------------------------------------
	// fixturebake://fixture/{connection}/{table}: fixture preview
	// -------------------------------------------------------------------
	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			fixtureURIPattern,
			"Fixture Preview",
			mcp.WithTemplateDescription(
				"The fixture class fixturebake would bake for a table, with one "+
					"generated record. Nothing is written.",
			),
			mcp.WithTemplateMIMEType("text/x-php"),
		),
		s.handleFixtureResource,
	)
}

// handleConnectionsResource returns a JSON list of all configured connections.
func (s *MCPServer) handleConnectionsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	b, err := json.MarshalIndent(s.connections(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal connections: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      connectionsURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

// handleFixtureResource renders a fixture preview for a table.
func (s *MCPServer) handleFixtureResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	uri := request.Params.URI
	connection, table, err := parseFixtureURI(uri)
	if err != nil {
		return nil, err
	}

	res, err := s.baker.Build(ctx, fixture.ModelName(table), fixture.ModeSingle, bake.Options{
		Connection: connection,
		Table:      table,
	})
	if err != nil {
		return nil, fmt.Errorf("bake preview for %q: %w", table, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/x-php",
			Text:     string(res.Content),
		},
	}, nil
}

// parseFixtureURI extracts the connection and table from
// "fixturebake://fixture/{connection}/{table}".
func parseFixtureURI(uri string) (connection, table string, err error) {
	rest := strings.TrimPrefix(uri, fixtureURIPrefix)
	connection, table, ok := strings.Cut(rest, "/")
	if rest == uri || !ok || connection == "" || table == "" {
		return "", "", fmt.Errorf("invalid fixture URI %q: expected %s", uri, fixtureURIPattern)
	}
	return connection, table, nil
}

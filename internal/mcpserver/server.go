// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the project graph for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/calder-dev/iterviz/internal/layout"
	"github.com/calder-dev/iterviz/internal/projectservice"
)

// Server wraps the MCP server with Iterviz tools.
type Server struct {
	mcp *server.MCPServer
	svc *projectservice.Service
}

// New creates a new MCP server with all Iterviz tools registered.
func New(svc *projectservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Iterviz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all design projects with slugs and titles, most recently updated first."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Read a full project aggregate (nodes and edges) as JSON."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug or id")),
	), s.getProject)

	s.mcp.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Create a new design project."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Project title")),
		mcp.WithString("slug", mcp.Required(), mcp.Description("URL-safe unique slug")),
		mcp.WithString("summary", mcp.Description("Optional summary")),
	), s.createProject)

	s.mcp.AddTool(mcp.NewTool("create_node",
		mcp.WithDescription("Add an iteration milestone to a project."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Owning project id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Milestone title")),
		mcp.WithString("date", mcp.Required(), mcp.Description("ISO calendar date (YYYY-MM-DD)")),
		mcp.WithString("summary", mcp.Description("Optional free-text summary")),
		mcp.WithString("categories", mcp.Description("Optional comma-separated category labels")),
	), s.createNode)

	s.mcp.AddTool(mcp.NewTool("create_edge",
		mcp.WithDescription("Connect two nodes of a project with a typed edge (improves/reverts/forks or free-form)."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Owning project id")),
		mcp.WithString("from_id", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("to_id", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithString("kind", mcp.Description("Optional edge kind label")),
	), s.createEdge)

	s.mcp.AddTool(mcp.NewTool("graph_layout",
		mcp.WithDescription("Compute the layered 2D layout for a project graph: one x/y position per node."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug or id")),
	), s.graphLayout)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.svc.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(projects, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.ResolveProject(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", key)), nil
	}
	out, _ := json.MarshalIndent(p, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary := ""
	if v, sErr := req.RequireString("summary"); sErr == nil {
		summary = v
	}

	p, err := s.svc.CreateProject(ctx, projectservice.CreateProjectInput{
		Title:   title,
		Slug:    slug,
		Summary: summary,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created project %s (%s)", p.Slug, p.ID)), nil
}

func (s *Server) createNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := projectservice.CreateNodeInput{
		ProjectID: projectID,
		Title:     title,
		DateISO:   date,
	}
	if v, sErr := req.RequireString("summary"); sErr == nil {
		in.Summary = v
	}
	if v, cErr := req.RequireString("categories"); cErr == nil && v != "" {
		for _, c := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(c); trimmed != "" {
				in.Categories = append(in.Categories, trimmed)
			}
		}
	}

	node, err := s.svc.CreateNode(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created node %s", node.ID)), nil
}

func (s *Server) createEdge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fromID, err := req.RequireString("from_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toID, err := req.RequireString("to_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind := ""
	if v, kErr := req.RequireString("kind"); kErr == nil {
		kind = v
	}

	edge, err := s.svc.CreateEdge(ctx, projectservice.CreateEdgeInput{
		ProjectID: projectID,
		FromID:    fromID,
		ToID:      toID,
		Kind:      kind,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created edge %s", edge.ID)), nil
}

func (s *Server) graphLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.ResolveProject(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", key)), nil
	}

	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	edges := make([]layout.Edge, len(p.Edges))
	for i, e := range p.Edges {
		edges[i] = layout.Edge{ID: e.ID, FromID: e.FromID, ToID: e.ToID}
	}

	out, _ := json.MarshalIndent(layout.Layered(ids, edges), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/calder-dev/iterviz/internal/projectservice"
	"github.com/calder-dev/iterviz/internal/testutil"
)

func testServer(t *testing.T) (*Server, *projectservice.Service) {
	t.Helper()
	svc := projectservice.NewService(testutil.TestDB(t))
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we invoke the tool
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_projects":
		result, err = srv.listProjects(ctx, req)
	case "get_project":
		result, err = srv.getProject(ctx, req)
	case "create_project":
		result, err = srv.createProject(ctx, req)
	case "create_node":
		result, err = srv.createNode(ctx, req)
	case "create_edge":
		result, err = srv.createEdge(ctx, req)
	case "graph_layout":
		result, err = srv.graphLayout(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndGetProject(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_project", map[string]interface{}{
		"title": "Bike v2",
		"slug":  "Bike V2",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created project bike-v2") {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "get_project", map[string]interface{}{"project": "bike-v2"})
	if r.IsError {
		t.Fatalf("get_project errored: %s", resultText(r))
	}
	text = resultText(r)
	if !strings.Contains(text, `"slug": "bike-v2"`) {
		t.Errorf("aggregate JSON missing slug: %q", text)
	}
}

func TestGetProjectMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_project", map[string]interface{}{"project": "nope"})
	if !r.IsError {
		t.Error("expected error for missing project")
	}
}

func TestCreateNodeAndEdge(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, projectservice.CreateProjectInput{Title: "Bike v2", Slug: "bike-v2"})
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "create_node", map[string]interface{}{
		"project_id": p.ID,
		"title":      "Frame v1",
		"date":       "2024-01-01",
		"categories": "physical, prototype",
	})
	if r.IsError {
		t.Fatalf("create_node errored: %s", resultText(r))
	}

	r = callTool(t, srv, "create_node", map[string]interface{}{
		"project_id": p.ID,
		"title":      "Frame v2",
		"date":       "2024-02-01",
	})
	if r.IsError {
		t.Fatalf("create_node errored: %s", resultText(r))
	}

	full, err := svc.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(full.Nodes))
	}
	if len(full.Nodes[0].Categories) != 2 {
		t.Errorf("categories = %v", full.Nodes[0].Categories)
	}

	r = callTool(t, srv, "create_edge", map[string]interface{}{
		"project_id": p.ID,
		"from_id":    full.Nodes[0].ID,
		"to_id":      full.Nodes[1].ID,
		"kind":       "improves",
	})
	if r.IsError {
		t.Fatalf("create_edge errored: %s", resultText(r))
	}

	full, err = svc.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Edges) != 1 || full.Edges[0].Kind != "improves" {
		t.Errorf("edges = %+v", full.Edges)
	}
}

func TestCreateNodeBadDate(t *testing.T) {
	srv, svc := testServer(t)
	p, err := svc.CreateProject(context.Background(), projectservice.CreateProjectInput{Title: "x", Slug: "x"})
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "create_node", map[string]interface{}{
		"project_id": p.ID,
		"title":      "bad",
		"date":       "January 1st",
	})
	if !r.IsError {
		t.Error("expected error for invalid date")
	}
}

func TestListProjects(t *testing.T) {
	srv, svc := testServer(t)
	if _, err := svc.CreateProject(context.Background(), projectservice.CreateProjectInput{Title: "A", Slug: "a"}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "list_projects", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"slug": "a"`) {
		t.Errorf("list missing project: %q", text)
	}
}

func TestGraphLayout(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()
	p, err := svc.CreateProject(ctx, projectservice.CreateProjectInput{Title: "Bike v2", Slug: "bike-v2"})
	if err != nil {
		t.Fatal(err)
	}
	n, err := svc.CreateNode(ctx, projectservice.CreateNodeInput{ProjectID: p.ID, Title: "a", DateISO: "2024-01-01"})
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "graph_layout", map[string]interface{}{"project": "bike-v2"})
	if r.IsError {
		t.Fatalf("graph_layout errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), n.ID) {
		t.Errorf("layout missing node id: %q", resultText(r))
	}
}

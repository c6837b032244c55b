package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/calder-dev/iterviz/internal/apperr"
	"github.com/calder-dev/iterviz/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "iterviz-store-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedProject(t *testing.T, db *DB) *models.ProjectSummary {
	t.Helper()
	p, err := db.CreateProject(context.Background(), NewProject{Title: "Bike v2", Slug: "bike-v2"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func seedNode(t *testing.T, db *DB, projectID, title string) *models.Node {
	t.Helper()
	n, err := db.CreateNode(context.Background(), NewNode{
		ProjectID: projectID,
		Title:     title,
		DateISO:   "2024-01-01",
	})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	return n
}

func TestCreateProjectDuplicateSlug(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)

	_, err := db.CreateProject(context.Background(), NewProject{Title: "Other", Slug: "bike-v2"})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate slug err = %v, want ErrAlreadyExists", err)
	}
}

func TestGetProjectAggregate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := seedProject(t, db)

	n1 := seedNode(t, db, p.ID, "Frame v1")
	n2 := seedNode(t, db, p.ID, "Frame v2")
	if _, err := db.CreateEdge(ctx, NewEdge{ProjectID: p.ID, FromID: n1.ID, ToID: n2.ID, Kind: "improves"}); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	got, err := db.GetProjectBySlug(ctx, "bike-v2")
	if err != nil {
		t.Fatalf("GetProjectBySlug: %v", err)
	}
	if len(got.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(got.Nodes))
	}
	if len(got.Edges) != 1 {
		t.Errorf("edges = %d, want 1", len(got.Edges))
	}
	if got.Edges[0].Kind != "improves" {
		t.Errorf("edge kind = %q", got.Edges[0].Kind)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetProject(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateNodePatchSemantics(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := seedProject(t, db)

	n, err := db.CreateNode(ctx, NewNode{
		ProjectID:  p.ID,
		Title:      "Frame v1",
		DateISO:    "2024-01-01",
		Summary:    "first pass",
		Categories: []string{"physical"},
		Metrics:    map[string]float64{"weight": 12.5},
	})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	// Patch only the title; everything else must survive.
	title := "Frame v1.1"
	got, err := db.UpdateNode(ctx, n.ID, NodePatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	if got.Title != "Frame v1.1" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Summary != "first pass" {
		t.Errorf("summary changed: %q", got.Summary)
	}
	if len(got.Categories) != 1 || got.Categories[0] != "physical" {
		t.Errorf("categories changed: %v", got.Categories)
	}
	if got.Metrics["weight"] != 12.5 {
		t.Errorf("metrics changed: %v", got.Metrics)
	}
	if got.DateISO != "2024-01-01" {
		t.Errorf("date changed: %q", got.DateISO)
	}
}

func TestUpdateNodeMissing(t *testing.T) {
	db := testDB(t)
	title := "x"
	if _, err := db.UpdateNode(context.Background(), "missing", NodePatch{Title: &title}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNodeCascadesEdges(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := seedProject(t, db)

	n1 := seedNode(t, db, p.ID, "a")
	n2 := seedNode(t, db, p.ID, "b")
	if _, err := db.CreateEdge(ctx, NewEdge{ProjectID: p.ID, FromID: n1.ID, ToID: n2.ID}); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	if err := db.DeleteNode(ctx, n2.ID); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	got, err := db.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 1 {
		t.Errorf("nodes = %d, want 1", len(got.Nodes))
	}
	if len(got.Edges) != 0 {
		t.Errorf("edges = %d, want 0 (cascade)", len(got.Edges))
	}
}

func TestDeleteMissingIsAnError(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.DeleteNode(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("DeleteNode err = %v, want ErrNotFound", err)
	}
	if err := db.DeleteEdge(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("DeleteEdge err = %v, want ErrNotFound", err)
	}
	if err := db.DeleteProject(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("DeleteProject err = %v, want ErrNotFound", err)
	}
}

func TestCreateEdgeForeignNodeRejected(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := seedProject(t, db)
	other, err := db.CreateProject(ctx, NewProject{Title: "Other", Slug: "other"})
	if err != nil {
		t.Fatal(err)
	}

	mine := seedNode(t, db, p.ID, "mine")
	theirs := seedNode(t, db, other.ID, "theirs")

	if _, err := db.CreateEdge(ctx, NewEdge{ProjectID: p.ID, FromID: mine.ID, ToID: theirs.ID}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("cross-project edge err = %v, want ErrValidation", err)
	}
}

func TestCorruptStructuredColumnDegrades(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := seedProject(t, db)
	n := seedNode(t, db, p.ID, "broken")

	// Corrupt the stored columns behind the gateway's back.
	corrupt(t, db.conn, `UPDATE nodes SET categories = 'not json', metrics = '{bad' WHERE id = ?`, n.ID)

	got, err := db.GetNode(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNode should not fail on corrupt columns: %v", err)
	}
	if len(got.Categories) != 0 {
		t.Errorf("categories = %v, want empty", got.Categories)
	}
	if got.Metrics != nil {
		t.Errorf("metrics = %v, want nil", got.Metrics)
	}
	if got.Title != "broken" {
		t.Errorf("title = %q, rest of the record should survive", got.Title)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := seedProject(t, db)
	n1 := seedNode(t, db, p.ID, "a")
	n2 := seedNode(t, db, p.ID, "b")
	if _, err := db.CreateEdge(ctx, NewEdge{ProjectID: p.ID, FromID: n1.ID, ToID: n2.ID}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := db.GetNode(ctx, n1.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("node survived project delete: %v", err)
	}
}

func TestListProjectsOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	first, err := db.CreateProject(ctx, NewProject{Title: "First", Slug: "first"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateProject(ctx, NewProject{Title: "Second", Slug: "second"}); err != nil {
		t.Fatal(err)
	}

	// Touch the first project via a node mutation; it should rise to the top.
	seedNode(t, db, first.ID, "bump")

	list, err := db.ListProjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("projects = %d, want 2", len(list))
	}
	if list[0].Slug != "first" {
		t.Errorf("most recently updated = %q, want first", list[0].Slug)
	}
}

func TestMediaRefs(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := seedProject(t, db)

	_, err := db.CreateNode(ctx, NewNode{
		ProjectID: p.ID,
		Title:     "with media",
		DateISO:   "2024-01-01",
		Media: []models.MediaItem{
			{Type: models.MediaImage, Src: "/uploads/a.png"},
			{Type: models.MediaVideo, Src: "/uploads/b.mp4"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	refs, err := db.MediaRefs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{"/uploads/a.png", "/uploads/b.mp4"} {
		if _, ok := refs[src]; !ok {
			t.Errorf("missing ref %s", src)
		}
	}
}

func corrupt(t *testing.T, conn *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := conn.Exec(query, args...); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calder-dev/iterviz/internal/apperr"
	"github.com/calder-dev/iterviz/internal/models"
)

// NewProject holds the fields for creating a project.
type NewProject struct {
	Title   string
	Slug    string
	Summary string
}

// NewNode holds the fields for creating a node.
type NewNode struct {
	ProjectID     string
	Title         string
	DateISO       string
	Summary       string
	Categories    []string
	Media         []models.MediaItem
	Metrics       map[string]float64
	ContentMd     string
	ContentFormat string
	ShowBoth      bool
}

// NodePatch describes a partial node update. Only non-nil fields are written;
// everything else is left unchanged.
type NodePatch struct {
	Title         *string
	DateISO       *string
	Summary       *string
	Categories    *[]string
	Media         *[]models.MediaItem
	Metrics       *map[string]float64
	ContentMd     *string
	ContentFormat *string
	ShowBoth      *bool
}

// NewEdge holds the fields for creating an edge.
type NewEdge struct {
	ProjectID string
	FromID    string
	ToID      string
	Kind      string
}

// CreateProject inserts a new project. A duplicate slug yields ErrAlreadyExists.
func (db *DB) CreateProject(ctx context.Context, p NewProject) (*models.ProjectSummary, error) {
	var exists int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM projects WHERE slug = ?`, p.Slug).Scan(&exists); err != nil {
		return nil, fmt.Errorf("store: check slug: %w", err)
	}
	if exists > 0 {
		return nil, apperr.ErrAlreadyExists
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO projects (id, slug, title, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, p.Slug, p.Title, p.Summary, now, now)
	if err != nil {
		return nil, fmt.Errorf("store: insert project: %w", err)
	}
	return &models.ProjectSummary{
		ID:        id,
		Slug:      p.Slug,
		Title:     p.Title,
		Summary:   p.Summary,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetProject loads a full project aggregate (nodes + edges) by id.
func (db *DB) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return db.getProject(ctx, `id`, id)
}

// GetProjectBySlug loads a full project aggregate by slug.
func (db *DB) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	return db.getProject(ctx, `slug`, slug)
}

func (db *DB) getProject(ctx context.Context, col, key string) (*models.Project, error) {
	p := &models.Project{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, slug, title, summary, created_at, updated_at FROM projects WHERE `+col+` = ?`, key,
	).Scan(&p.ID, &p.Slug, &p.Title, &p.Summary, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get project: %w", err)
	}

	nodes, err := db.projectNodes(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	edges, err := db.projectEdges(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Nodes = nodes
	p.Edges = edges
	return p, nil
}

func (db *DB) projectNodes(ctx context.Context, projectID string) ([]models.Node, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, title, date_iso, summary, categories, media, metrics,
		       content_md, content_format, show_both
		FROM nodes WHERE project_id = ? ORDER BY date_iso, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("store: project nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

func (db *DB) projectEdges(ctx context.Context, projectID string) ([]models.Edge, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, from_id, to_id, kind FROM edges WHERE project_id = ? ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("store: project edges: %w", err)
	}
	defer rows.Close()

	edges := []models.Edge{}
	for rows.Next() {
		var e models.Edge
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.FromID, &e.ToID, &e.Kind); err != nil {
			return nil, fmt.Errorf("store: scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ListProjects returns project summaries ordered by most recently updated.
func (db *DB) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, slug, title, summary, created_at, updated_at
		FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	out := []models.ProjectSummary{}
	for rows.Next() {
		var p models.ProjectSummary
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Summary, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProject removes a project; nodes and edges cascade via foreign keys.
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// CreateNode inserts a node under an existing project and bumps the
// project's updated_at.
func (db *DB) CreateNode(ctx context.Context, n NewNode) (*models.Node, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := projectExists(ctx, tx, n.ProjectID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO nodes (id, project_id, title, date_iso, summary, categories, media,
		                   metrics, content_md, content_format, show_both)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, n.ProjectID, n.Title, n.DateISO, n.Summary,
		encodeCategories(n.Categories), encodeMedia(n.Media), encodeMetrics(n.Metrics),
		n.ContentMd, n.ContentFormat, boolToInt(n.ShowBoth))
	if err != nil {
		return nil, fmt.Errorf("store: insert node: %w", err)
	}
	if err := touchProject(ctx, tx, n.ProjectID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return db.GetNode(ctx, id)
}

// GetNode loads a single node by id.
func (db *DB) GetNode(ctx context.Context, id string) (*models.Node, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, project_id, title, date_iso, summary, categories, media, metrics,
		       content_md, content_format, show_both
		FROM nodes WHERE id = ?
	`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return n, err
}

// UpdateNode applies a partial update: only fields present in the patch are
// written, everything else keeps its stored value.
func (db *DB) UpdateNode(ctx context.Context, id string, patch NodePatch) (*models.Node, error) {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.DateISO != nil {
		add("date_iso", *patch.DateISO)
	}
	if patch.Summary != nil {
		add("summary", *patch.Summary)
	}
	if patch.Categories != nil {
		add("categories", encodeCategories(*patch.Categories))
	}
	if patch.Media != nil {
		add("media", encodeMedia(*patch.Media))
	}
	if patch.Metrics != nil {
		add("metrics", encodeMetrics(*patch.Metrics))
	}
	if patch.ContentMd != nil {
		add("content_md", *patch.ContentMd)
	}
	if patch.ContentFormat != nil {
		add("content_format", *patch.ContentFormat)
	}
	if patch.ShowBoth != nil {
		add("show_both", boolToInt(*patch.ShowBoth))
	}

	if len(set) == 0 {
		return db.GetNode(ctx, id)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := "UPDATE nodes SET " + strings.Join(set, ", ") + " WHERE id = ?"
	res, err := tx.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return nil, fmt.Errorf("store: update node: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.ErrNotFound
	}

	var projectID string
	if err := tx.QueryRowContext(ctx, `SELECT project_id FROM nodes WHERE id = ?`, id).Scan(&projectID); err != nil {
		return nil, fmt.Errorf("store: node project: %w", err)
	}
	if err := touchProject(ctx, tx, projectID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return db.GetNode(ctx, id)
}

// DeleteNode removes a node along with every edge referencing it, so the
// stored graph never holds dangling edges. Deleting an unknown id is an error,
// not a no-op.
func (db *DB) DeleteNode(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var projectID string
	err = tx.QueryRowContext(ctx, `SELECT project_id FROM nodes WHERE id = ?`, id).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: node project: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE from_id = ? OR to_id = ?`, id, id); err != nil {
		return fmt.Errorf("store: delete node edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete node: %w", err)
	}
	if err := touchProject(ctx, tx, projectID); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateEdge inserts an edge after verifying both endpoints belong to the
// same project. Duplicate edges and cycles are allowed by design.
func (db *DB) CreateEdge(ctx context.Context, e NewEdge) (*models.Edge, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := projectExists(ctx, tx, e.ProjectID); err != nil {
		return nil, err
	}
	for _, nodeID := range []string{e.FromID, e.ToID} {
		var owner string
		err := tx.QueryRowContext(ctx, `SELECT project_id FROM nodes WHERE id = ?`, nodeID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != e.ProjectID) {
			return nil, fmt.Errorf("%w: node %s does not belong to project", apperr.ErrValidation, nodeID)
		}
		if err != nil {
			return nil, fmt.Errorf("store: edge endpoint: %w", err)
		}
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO edges (id, project_id, from_id, to_id, kind) VALUES (?, ?, ?, ?, ?)
	`, id, e.ProjectID, e.FromID, e.ToID, e.Kind)
	if err != nil {
		return nil, fmt.Errorf("store: insert edge: %w", err)
	}
	if err := touchProject(ctx, tx, e.ProjectID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return &models.Edge{ID: id, ProjectID: e.ProjectID, FromID: e.FromID, ToID: e.ToID, Kind: e.Kind}, nil
}

// DeleteEdge removes an edge. Deleting an unknown id is an error.
func (db *DB) DeleteEdge(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var projectID string
	err = tx.QueryRowContext(ctx, `SELECT project_id FROM edges WHERE id = ?`, id).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: edge project: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete edge: %w", err)
	}
	if err := touchProject(ctx, tx, projectID); err != nil {
		return err
	}
	return tx.Commit()
}

// MediaRefs returns the set of media src values referenced by any node,
// used by the uploads watcher to detect orphaned files on disk.
func (db *DB) MediaRefs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, media FROM nodes WHERE media != ''`)
	if err != nil {
		return nil, fmt.Errorf("store: media refs: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]struct{})
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		for _, m := range decodeMedia(raw, id) {
			refs[m.Src] = struct{}{}
		}
	}
	return refs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*models.Node, error) {
	var n models.Node
	var categories, media, metrics string
	var showBoth int
	err := row.Scan(&n.ID, &n.ProjectID, &n.Title, &n.DateISO, &n.Summary,
		&categories, &media, &metrics, &n.ContentMd, &n.ContentFormat, &showBoth)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan node: %w", err)
	}
	n.Categories = decodeCategories(categories, n.ID)
	n.Media = decodeMedia(media, n.ID)
	n.Metrics = decodeMetrics(metrics, n.ID)
	n.ShowBoth = showBoth != 0
	n.ViewMode = models.DeriveViewMode(n.ContentMd, n.ShowBoth)
	return &n, nil
}

func projectExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: project exists: %w", err)
	}
	return nil
}

func touchProject(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("store: touch project: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

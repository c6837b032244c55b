// Package store provides the SQLite persistence gateway for projects,
// nodes and edges. Structured node fields (categories, media, metrics) are
// kept as JSON-encoded text columns and never leak past this package in
// encoded form.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/calder-dev/iterviz/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	slug       TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	summary    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS nodes (
	id             TEXT PRIMARY KEY,
	project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title          TEXT NOT NULL,
	date_iso       TEXT NOT NULL,
	summary        TEXT NOT NULL DEFAULT '',
	categories     TEXT NOT NULL DEFAULT '[]',
	media          TEXT NOT NULL DEFAULT '',
	metrics        TEXT NOT NULL DEFAULT '',
	content_md     TEXT NOT NULL DEFAULT '',
	content_format TEXT NOT NULL DEFAULT '',
	show_both      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS edges (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	from_id    TEXT NOT NULL,
	to_id      TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_nodes_project ON nodes(project_id);
CREATE INDEX IF NOT EXISTS idx_edges_project ON edges(project_id);
CREATE INDEX IF NOT EXISTS idx_edges_endpoints ON edges(from_id, to_id);
`

// Gateway defines the persistence operations the rest of the application
// depends on. Consumers should depend on this interface rather than the
// concrete *DB type to facilitate testing with mocks.
type Gateway interface {
	CreateProject(ctx context.Context, p NewProject) (*models.ProjectSummary, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.ProjectSummary, error)
	DeleteProject(ctx context.Context, id string) error
	CreateNode(ctx context.Context, n NewNode) (*models.Node, error)
	GetNode(ctx context.Context, id string) (*models.Node, error)
	UpdateNode(ctx context.Context, id string, patch NodePatch) (*models.Node, error)
	DeleteNode(ctx context.Context, id string) error
	CreateEdge(ctx context.Context, e NewEdge) (*models.Edge, error)
	DeleteEdge(ctx context.Context, id string) error
	MediaRefs(ctx context.Context) (map[string]struct{}, error)
	Close() error
}

// Verify *DB satisfies Gateway at compile time.
var _ Gateway = (*DB)(nil)

// DB wraps a sql.DB with project graph operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Package models defines the domain types for Iterviz.
package models

import "time"

// Media types.
const (
	MediaImage = "img"
	MediaVideo = "video"
)

// Node detail view modes, derived from markdown presence and the ShowBoth flag.
const (
	ViewDetail   = "detail"
	ViewMarkdown = "markdown"
	ViewBoth     = "both"
)

// MediaItem is an uploaded image or video embedded by value inside a Node.
type MediaItem struct {
	Type string `json:"type"`
	Src  string `json:"src"`
	Alt  string `json:"alt,omitempty"`
}

// Node is one milestone in a project's iteration history.
//
// Title and DateISO are mandatory; categories, media, metrics and markdown
// content are independently optional and may coexist.
type Node struct {
	ID            string             `json:"id"`
	ProjectID     string             `json:"-"`
	Title         string             `json:"title"`
	DateISO       string             `json:"dateISO"`
	Summary       string             `json:"summary,omitempty"`
	Categories    []string           `json:"categories"`
	Media         []MediaItem        `json:"media,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	ContentMd     string             `json:"contentMd,omitempty"`
	ContentFormat string             `json:"contentFormat,omitempty"`
	ShowBoth      bool               `json:"showBoth"`

	// ViewMode is derived from ContentMd and ShowBoth on read, never stored.
	ViewMode string `json:"viewMode,omitempty"`
}

// DeriveViewMode returns which detail view a renderer should offer:
// structured detail when there is no markdown, markdown-only when markdown is
// present without showBoth, and a tab selector (defaulting to markdown) when
// both are requested.
func DeriveViewMode(contentMd string, showBoth bool) string {
	if contentMd == "" {
		return ViewDetail
	}
	if showBoth {
		return ViewBoth
	}
	return ViewMarkdown
}

// Edge is a typed relationship between two nodes of the same project.
// The domain permits multigraphs and cycles.
type Edge struct {
	ID        string `json:"id"`
	ProjectID string `json:"-"`
	FromID    string `json:"fromId"`
	ToID      string `json:"toId"`
	Kind      string `json:"kind,omitempty"`
}

// Project is the aggregate root: a slug-addressable design project owning
// its nodes and edges.
type Project struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
}

// ProjectSummary is a lightweight representation returned by list operations.
type ProjectSummary struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

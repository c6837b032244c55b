// Package projectservice coordinates persistence operations for the project
// graph and owns request-level validation.
package projectservice

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/calder-dev/iterviz/internal/apperr"
	"github.com/calder-dev/iterviz/internal/models"
	"github.com/calder-dev/iterviz/internal/store"
)

// Service coordinates persistence gateway operations.
type Service struct {
	db store.Gateway
}

// NewService creates a new project service.
func NewService(db store.Gateway) *Service {
	return &Service{db: db}
}

// CreateProjectInput holds the fields for creating a project.
type CreateProjectInput struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Summary string `json:"summary"`
}

// Validate checks the required fields.
func (in CreateProjectInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Slug, validation.Required),
	)
}

// CreateNodeInput holds the fields for creating a node.
type CreateNodeInput struct {
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

// Validate checks the required fields.
func (in CreateNodeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ProjectID, validation.Required),
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.DateISO, validation.Required, validation.Date("2006-01-02")),
	)
}

// CreateEdgeInput holds the fields for creating an edge.
type CreateEdgeInput struct {
	ProjectID string
	FromID    string
	ToID      string
	Kind      string
}

// Validate checks the required fields.
func (in CreateEdgeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ProjectID, validation.Required),
		validation.Field(&in.FromID, validation.Required),
		validation.Field(&in.ToID, validation.Required),
	)
}

// NormalizeSlug lowercases a slug and collapses whitespace runs to hyphens.
func NormalizeSlug(slug string) string {
	return strings.Join(strings.Fields(strings.ToLower(slug)), "-")
}

// CreateProject validates and creates a project. The slug is normalized to a
// URL-safe form before storage.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*models.ProjectSummary, error) {
	in.Slug = NormalizeSlug(in.Slug)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, err)
	}
	return s.db.CreateProject(ctx, store.NewProject{
		Title:   in.Title,
		Slug:    in.Slug,
		Summary: in.Summary,
	})
}

// GetProject loads the full project aggregate by id.
func (s *Service) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.db.GetProject(ctx, id)
}

// ResolveProject loads a project by slug, falling back to id lookup. Embed
// URLs accept either form.
func (s *Service) ResolveProject(ctx context.Context, slugOrID string) (*models.Project, error) {
	p, err := s.db.GetProjectBySlug(ctx, slugOrID)
	if err == nil {
		return p, nil
	}
	return s.db.GetProject(ctx, slugOrID)
}

// ListProjects returns project summaries, most recently updated first.
func (s *Service) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	return s.db.ListProjects(ctx)
}

// DeleteProject removes a project and its nodes and edges.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	return s.db.DeleteProject(ctx, id)
}

// CreateNode validates and creates a node under a project.
func (s *Service) CreateNode(ctx context.Context, in CreateNodeInput) (*models.Node, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, err)
	}
	return s.db.CreateNode(ctx, store.NewNode{
		ProjectID:     in.ProjectID,
		Title:         in.Title,
		DateISO:       in.DateISO,
		Summary:       in.Summary,
		Categories:    in.Categories,
		Media:         in.Media,
		Metrics:       in.Metrics,
		ContentMd:     in.ContentMd,
		ContentFormat: in.ContentFormat,
		ShowBoth:      in.ShowBoth,
	})
}

// UpdateNode applies a partial update to a node.
func (s *Service) UpdateNode(ctx context.Context, id string, patch store.NodePatch) (*models.Node, error) {
	if patch.Title != nil && *patch.Title == "" {
		return nil, fmt.Errorf("%w: title cannot be blank", apperr.ErrValidation)
	}
	if patch.DateISO != nil && *patch.DateISO == "" {
		return nil, fmt.Errorf("%w: dateISO cannot be blank", apperr.ErrValidation)
	}
	return s.db.UpdateNode(ctx, id, patch)
}

// DeleteNode removes a node and cascades its edges.
func (s *Service) DeleteNode(ctx context.Context, id string) error {
	return s.db.DeleteNode(ctx, id)
}

// CreateEdge validates and creates an edge between two nodes of a project.
func (s *Service) CreateEdge(ctx context.Context, in CreateEdgeInput) (*models.Edge, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, err)
	}
	return s.db.CreateEdge(ctx, store.NewEdge{
		ProjectID: in.ProjectID,
		FromID:    in.FromID,
		ToID:      in.ToID,
		Kind:      in.Kind,
	})
}

// DeleteEdge removes an edge.
func (s *Service) DeleteEdge(ctx context.Context, id string) error {
	return s.db.DeleteEdge(ctx, id)
}

// MediaRefs returns every media src referenced by any node.
func (s *Service) MediaRefs(ctx context.Context) (map[string]struct{}, error) {
	return s.db.MediaRefs(ctx)
}

package api

import (
	"github.com/calder-dev/iterviz/internal/models"
	"github.com/calder-dev/iterviz/internal/projectservice"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest = projectservice.CreateProjectInput

// ProjectListResponse wraps project listings.
type ProjectListResponse struct {
	Projects []models.ProjectSummary `json:"projects"`
}

// ActionResponse is returned after a successful intent dispatch.
type ActionResponse struct {
	OK   bool         `json:"ok"`
	Node *models.Node `json:"node,omitempty"`
	Edge *models.Edge `json:"edge,omitempty"`
}

// OrphanListResponse wraps orphaned upload listings.
type OrphanListResponse struct {
	Orphans []string `json:"orphans"`
}

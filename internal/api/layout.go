package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calder-dev/iterviz/internal/layout"
	"github.com/calder-dev/iterviz/internal/models"
)

// Layout3DResponse holds placed nodes and drawable edge geometry for the
// 3D circular view.
type Layout3DResponse struct {
	Positions map[string]layout.Vec3 `json:"positions"`
	Edges     []layout.Segment       `json:"edges"`
}

// Layout2D handles GET /api/projects/{projectID}/layout: a layered top-down
// position per node.
func (h *Handler) Layout2D(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, "layout project", err)
		return
	}
	ids, edges := layoutInputs(p)
	writeJSON(w, http.StatusOK, layout.Layered(ids, edges))
}

// Layout3D handles GET /api/projects/{projectID}/layout3d: fixed circular
// placement with edge cylinder geometry.
func (h *Handler) Layout3D(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, "layout project", err)
		return
	}
	ids, edges := layoutInputs(p)
	positions, segments := layout.Circular3D(ids, edges)
	writeJSON(w, http.StatusOK, Layout3DResponse{Positions: positions, Edges: segments})
}

func layoutInputs(p *models.Project) ([]string, []layout.Edge) {
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	edges := make([]layout.Edge, len(p.Edges))
	for i, e := range p.Edges {
		edges[i] = layout.Edge{ID: e.ID, FromID: e.FromID, ToID: e.ToID}
	}
	return ids, edges
}

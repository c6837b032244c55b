package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/calder-dev/iterviz/internal/mediastore"
	"github.com/calder-dev/iterviz/internal/models"
	"github.com/calder-dev/iterviz/internal/projectservice"
	"github.com/calder-dev/iterviz/internal/store"
)

// Notifier publishes graph change events to connected viewers.
type Notifier interface {
	PublishChange(kind, projectID, id string)
}

// Handler holds API route handlers.
type Handler struct {
	svc      *projectservice.Service
	media    *mediastore.FS
	notifier Notifier
}

// NewHandler creates a new Handler. notifier may be nil.
func NewHandler(svc *projectservice.Service, media *mediastore.FS, notifier Notifier) *Handler {
	return &Handler{svc: svc, media: media, notifier: notifier}
}

func (h *Handler) notify(kind, projectID, id string) {
	if h.notifier != nil {
		h.notifier.PublishChange(kind, projectID, id)
	}
}

// ListProjects handles GET /api/projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects(r.Context())
	if err != nil {
		writeError(w, "list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: projects})
}

// CreateProject handles POST /api/projects.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p, err := h.svc.CreateProject(r.Context(), req)
	if err != nil {
		writeError(w, "create project", err)
		return
	}
	h.notify("project.created", p.ID, p.ID)
	writeJSON(w, http.StatusCreated, p)
}

// GetProject handles GET /api/projects/{projectID}: the full aggregate the
// editor and viewer screens load.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/projects/{projectID}.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	if err := h.svc.DeleteProject(r.Context(), id); err != nil {
		writeError(w, "delete project", err)
		return
	}
	h.notify("project.deleted", id, id)
	w.WriteHeader(http.StatusNoContent)
}

// Actions handles POST /api/projects/{projectID}/actions: form posts with an
// "intent" field selecting the mutation, mirroring the editor screens.
func (h *Handler) Actions(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid form body"))
		return
	}

	switch r.PostForm.Get("intent") {
	case "createNode":
		h.createNode(w, r, projectID)
	case "updateNode":
		h.updateNode(w, r, projectID)
	case "deleteNode":
		h.deleteNode(w, r, projectID)
	case "createEdge":
		h.createEdge(w, r, projectID)
	case "deleteEdge":
		h.deleteEdge(w, r, projectID)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown intent"))
	}
}

func (h *Handler) createNode(w http.ResponseWriter, r *http.Request, projectID string) {
	form := r.PostForm
	media, _ := parseMediaJSON(form.Get("mediaJson"))
	metrics, _ := parseMetricsJSON(form.Get("metricsJson"))
	node, err := h.svc.CreateNode(r.Context(), projectservice.CreateNodeInput{
		ProjectID:     projectID,
		Title:         form.Get("title"),
		DateISO:       form.Get("dateISO"),
		Summary:       form.Get("summary"),
		Categories:    splitCategories(form.Get("categories")),
		Media:         media,
		Metrics:       metrics,
		ContentMd:     form.Get("contentMd"),
		ContentFormat: form.Get("contentFormat"),
		ShowBoth:      form.Get("showBoth") == "1",
	})
	if err != nil {
		writeError(w, "create node", err)
		return
	}
	h.notify("node.created", projectID, node.ID)
	writeJSON(w, http.StatusOK, ActionResponse{OK: true, Node: node})
}

// updateNode builds a patch from the fields present in the form; absent keys
// leave the stored values untouched.
func (h *Handler) updateNode(w http.ResponseWriter, r *http.Request, projectID string) {
	form := r.PostForm
	nodeID := form.Get("nodeId")
	if nodeID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("nodeId is required"))
		return
	}

	patch := store.NodePatch{}
	if form.Has("title") {
		patch.Title = ptr(form.Get("title"))
	}
	if form.Has("dateISO") {
		patch.DateISO = ptr(form.Get("dateISO"))
	}
	if form.Has("summary") {
		patch.Summary = ptr(form.Get("summary"))
	}
	if form.Has("categories") {
		patch.Categories = ptr(splitCategories(form.Get("categories")))
	}
	if form.Has("mediaJson") {
		if media, ok := parseMediaJSON(form.Get("mediaJson")); ok {
			patch.Media = &media
		}
	}
	if form.Has("metricsJson") {
		if metrics, ok := parseMetricsJSON(form.Get("metricsJson")); ok {
			patch.Metrics = &metrics
		}
	}
	if form.Has("contentMd") {
		patch.ContentMd = ptr(form.Get("contentMd"))
	}
	if form.Has("contentFormat") {
		patch.ContentFormat = ptr(form.Get("contentFormat"))
	}
	if form.Has("showBoth") {
		patch.ShowBoth = ptr(form.Get("showBoth") == "1")
	}

	node, err := h.svc.UpdateNode(r.Context(), nodeID, patch)
	if err != nil {
		writeError(w, "update node", err)
		return
	}
	h.notify("node.updated", projectID, node.ID)
	writeJSON(w, http.StatusOK, ActionResponse{OK: true, Node: node})
}

func (h *Handler) deleteNode(w http.ResponseWriter, r *http.Request, projectID string) {
	nodeID := r.PostForm.Get("nodeId")
	if nodeID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("nodeId is required"))
		return
	}
	if err := h.svc.DeleteNode(r.Context(), nodeID); err != nil {
		writeError(w, "delete node", err)
		return
	}
	h.notify("node.deleted", projectID, nodeID)
	writeJSON(w, http.StatusOK, ActionResponse{OK: true})
}

func (h *Handler) createEdge(w http.ResponseWriter, r *http.Request, projectID string) {
	form := r.PostForm
	edge, err := h.svc.CreateEdge(r.Context(), projectservice.CreateEdgeInput{
		ProjectID: projectID,
		FromID:    form.Get("fromId"),
		ToID:      form.Get("toId"),
		Kind:      form.Get("kind"),
	})
	if err != nil {
		writeError(w, "create edge", err)
		return
	}
	h.notify("edge.created", projectID, edge.ID)
	writeJSON(w, http.StatusOK, ActionResponse{OK: true, Edge: edge})
}

func (h *Handler) deleteEdge(w http.ResponseWriter, r *http.Request, projectID string) {
	edgeID := r.PostForm.Get("edgeId")
	if edgeID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("edgeId is required"))
		return
	}
	if err := h.svc.DeleteEdge(r.Context(), edgeID); err != nil {
		writeError(w, "delete edge", err)
		return
	}
	h.notify("edge.deleted", projectID, edgeID)
	writeJSON(w, http.StatusOK, ActionResponse{OK: true})
}

// UploadOrphans handles GET /api/uploads/orphans: files on disk no node
// references (partial batches survive crashes; see the uploads watcher).
func (h *Handler) UploadOrphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := mediastore.Orphans(r.Context(), h.media, h.svc)
	if err != nil {
		writeError(w, "list orphans", err)
		return
	}
	writeJSON(w, http.StatusOK, OrphanListResponse{Orphans: orphans})
}

func splitCategories(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseMediaJSON decodes a mediaJson form field. An empty field is an
// explicit clear; invalid JSON reports ok=false and the mutation ignores the
// field rather than failing.
func parseMediaJSON(raw string) ([]models.MediaItem, bool) {
	if raw == "" {
		return nil, true
	}
	var media []models.MediaItem
	if err := json.Unmarshal([]byte(raw), &media); err != nil {
		return nil, false
	}
	return media, true
}

func parseMetricsJSON(raw string) (map[string]float64, bool) {
	if raw == "" {
		return nil, true
	}
	var metrics map[string]float64
	if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
		return nil, false
	}
	return metrics, true
}

func ptr[T any](v T) *T {
	return &v
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Embed handles GET /api/embed/{slugOrId}: the read-only project DTO consumed
// by third-party sites. CORS is allow-all, GET-only.
func (h *Handler) Embed(w http.ResponseWriter, r *http.Request) {
	slugOrID := chi.URLParam(r, "slugOrId")
	if slugOrID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("project slug or id required"))
		return
	}

	p, err := h.svc.ResolveProject(r.Context(), slugOrID)
	if err != nil {
		writeError(w, "embed project", err)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET")
	writeJSON(w, http.StatusOK, p)
}

// embedScript is the bootstrap served at GET /embed. It scans the host page
// for [data-project] markers and hydrates each with a summary card fetched
// from /api/embed/.
const embedScript = `(function() {
  'use strict';

  function initEmbeds() {
    var elements = document.querySelectorAll('[data-project]');
    elements.forEach(function(el) {
      var project = el.getAttribute('data-project');
      if (!project) return;

      fetch('/api/embed/' + encodeURIComponent(project))
        .then(function(res) { return res.json(); })
        .then(function(data) {
          el.innerHTML = '<div style="padding: 20px; border: 1px solid #ccc; border-radius: 8px;">' +
            '<h2>' + (data.title || 'Project') + '</h2>' +
            '<p>' + (data.summary || '') + '</p>' +
            '<p><small>Nodes: ' + ((data.nodes && data.nodes.length) || 0) +
            ', Edges: ' + ((data.edges && data.edges.length) || 0) + '</small></p>' +
            '<p><a href="/p/' + project + '" target="_blank">View Full Project</a></p>' +
            '</div>';
        })
        .catch(function(err) {
          el.innerHTML = '<p style="color: red;">Failed to load project</p>';
          console.error('Embed error:', err);
        });
    });
  }

  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', initEmbeds);
  } else {
    initEmbeds();
  }
})();`

// EmbedScript handles GET /embed: a cacheable static bootstrap script.
func EmbedScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(embedScript))
}

package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/calder-dev/iterviz/internal/models"
)

const maxUploadBytes = 50 << 20 // 50 MB per request

// Upload handles POST /api/upload (multipart/form-data, one or more "file"
// fields). Files that are neither image/* nor video/* are skipped without
// failing the batch; the response preserves input order. The request fails
// only when no file survives the filter.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("no files provided"))
		return
	}

	items := []models.MediaItem{}
	for _, header := range files {
		mediaType, err := mediaTypeOf(header)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to read file"))
			return
		}
		if mediaType == "" {
			continue // unsupported type, skip
		}

		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to read file"))
			return
		}

		filename := uuid.NewString() + filepath.Ext(header.Filename)
		_, writeErr := h.media.Write(filename, file)
		file.Close()
		if writeErr != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
			return
		}

		items = append(items, models.MediaItem{
			Type: mediaType,
			Src:  "/uploads/" + filename,
			Alt:  header.Filename,
		})
	}

	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("no valid files uploaded"))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// mediaTypeOf classifies an upload as "img" or "video" from the part's
// Content-Type header, sniffing the content when the header is absent or
// generic. Returns "" for unsupported types.
func mediaTypeOf(header *multipart.FileHeader) (string, error) {
	ct := header.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		file, err := header.Open()
		if err != nil {
			return "", err
		}
		defer file.Close()
		buf := make([]byte, 512)
		n, err := file.Read(buf)
		if err != nil && err != io.EOF {
			return "", err
		}
		ct = http.DetectContentType(buf[:n])
	}

	switch {
	case strings.HasPrefix(ct, "image/"):
		return models.MediaImage, nil
	case strings.HasPrefix(ct, "video/"):
		return models.MediaVideo, nil
	default:
		return "", nil
	}
}

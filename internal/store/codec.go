package store

import (
	"encoding/json"
	"log/slog"

	"github.com/calder-dev/iterviz/internal/models"
)

// The encode/decode boundary for JSON text columns. A decode failure on a
// corrupt column must not fail the whole read: the field degrades to its
// zero value and the corruption is logged.

func encodeCategories(cats []string) string {
	if cats == nil {
		cats = []string{}
	}
	b, _ := json.Marshal(cats)
	return string(b)
}

func decodeCategories(raw, nodeID string) []string {
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("store: corrupt categories column", slog.String("node", nodeID), slog.String("error", err.Error()))
		return []string{}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func encodeMedia(media []models.MediaItem) string {
	if len(media) == 0 {
		return ""
	}
	b, _ := json.Marshal(media)
	return string(b)
}

func decodeMedia(raw, nodeID string) []models.MediaItem {
	if raw == "" {
		return nil
	}
	var out []models.MediaItem
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("store: corrupt media column", slog.String("node", nodeID), slog.String("error", err.Error()))
		return nil
	}
	return out
}

func encodeMetrics(metrics map[string]float64) string {
	if len(metrics) == 0 {
		return ""
	}
	b, _ := json.Marshal(metrics)
	return string(b)
}

func decodeMetrics(raw, nodeID string) map[string]float64 {
	if raw == "" {
		return nil
	}
	var out map[string]float64
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("store: corrupt metrics column", slog.String("node", nodeID), slog.String("error", err.Error()))
		return nil
	}
	return out
}

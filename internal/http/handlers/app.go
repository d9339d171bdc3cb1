package handlers

import (
	"encoding/json"
	"net/http"

	"animator/internal/domain"
	"animator/internal/infra"
	"animator/internal/middleware"
	"animator/internal/providers/video"
)

// BlobRegistry resolves and releases published artifacts.
type BlobRegistry interface {
	Get(id string) (*domain.VideoArtifact, error)
	Release(id string) error
}

type App struct {
	Generator      video.Generator
	Blobs          BlobRegistry
	History        domain.GenerationRepository
	Logger         *infra.Logger
	MaxUploadBytes int64
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{
			"code":    errCode,
			"message": message,
		},
	})
}

func (a *App) logger(r *http.Request) *infra.Logger {
	base := a.Logger
	if base == nil {
		base = infra.DiscardLogger()
	}
	l := base.With().Str("request_id", middleware.RequestIDFromContext(r.Context())).Logger()
	return &l
}

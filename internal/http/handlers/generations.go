package handlers

import (
	"net/http"
	"strconv"
	"time"
)

type generationResponse struct {
	ID            string    `json:"id"`
	OperationName string    `json:"operation_name,omitempty"`
	Model         string    `json:"model"`
	Prompt        string    `json:"prompt"`
	MIME          string    `json:"image_mime"`
	Outcome       string    `json:"outcome"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	VideoBytes    int64     `json:"video_bytes"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// GenerationsList returns the most recent generation history entries.
func (a *App) GenerationsList(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotFound, "not_found", "generation history is not enabled")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			a.error(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = v
	}
	records, err := a.History.ListRecent(r.Context(), limit)
	if err != nil {
		a.logger(r).Error().Err(err).Msg("api: list generations")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation history")
		return
	}
	items := make([]generationResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, generationResponse{
			ID:            rec.ID,
			OperationName: rec.OperationName,
			Model:         rec.Model,
			Prompt:        rec.Prompt,
			MIME:          rec.MIMEType,
			Outcome:       string(rec.Outcome),
			ErrorKind:     rec.ErrorKind,
			VideoBytes:    rec.VideoBytes,
			DurationMS:    rec.Duration.Milliseconds(),
			CreatedAt:     rec.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

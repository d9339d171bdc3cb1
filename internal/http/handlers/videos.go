package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"animator/internal/domain"
	"animator/internal/media"
	"animator/internal/providers/video"
)

const defaultMaxUploadBytes = 20 << 20

type videoResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	MIME      string    `json:"mime"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// VideosGenerate accepts a multipart form with either an `image` file or an
// `image_data_url` camera capture, plus `prompt`. It responds once the remote
// operation resolves.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	limit := a.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "The uploaded image is too large.")
			return
		}
		a.error(w, http.StatusBadRequest, "invalid_request", "Expected a multipart form with an image and a prompt.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	img, err := imageFromForm(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_image", "The image could not be read. Please upload a PNG, JPEG or WEBP picture.")
		return
	}
	req, err := media.NewGenerationRequest(img, r.FormValue("prompt"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "Please upload an image and enter a prompt.")
		return
	}

	artifact, err := a.Generator.Generate(r.Context(), req)
	if err != nil {
		if r.Context().Err() != nil {
			a.logger(r).Info().Msg("api: client went away during generation")
			return
		}
		a.writeGenerationError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toVideoResponse(artifact))
}

func (a *App) writeGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrEncoding) {
		a.error(w, http.StatusBadRequest, "invalid_image", "The image could not be encoded for upload.")
		return
	}
	classified := video.Classify(err)
	status := http.StatusBadGateway
	switch classified.Kind {
	case video.KindQuota:
		status = http.StatusTooManyRequests
	case video.KindCredential:
		status = http.StatusUnauthorized
	}
	a.logger(r).Warn().Str("kind", string(classified.Kind)).Int("status", status).Msg("api: generation failed")
	a.error(w, status, string(classified.Kind), classified.Message)
}

// VideoGet streams a published artifact.
func (a *App) VideoGet(w http.ResponseWriter, r *http.Request) {
	artifact, err := a.Blobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "video not found")
		return
	}
	w.Header().Set("Content-Type", artifact.MIMEType)
	http.ServeContent(w, r, "video.mp4", artifact.CreatedAt, bytes.NewReader(artifact.Data))
}

// VideoRelease drops a published artifact once the client stops showing it.
func (a *App) VideoRelease(w http.ResponseWriter, r *http.Request) {
	if err := a.Blobs.Release(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "video not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to release video")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func imageFromForm(r *http.Request) (*media.Image, error) {
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		return media.FromUpload(file, header)
	case errors.Is(err, http.ErrMissingFile):
		if dataURL := r.FormValue("image_data_url"); dataURL != "" {
			return media.FromDataURL(dataURL)
		}
		return nil, nil
	default:
		return nil, err
	}
}

func toVideoResponse(artifact *domain.VideoArtifact) videoResponse {
	return videoResponse{
		ID:        artifact.ID,
		URL:       artifact.URL,
		MIME:      artifact.MIMEType,
		Bytes:     artifact.Size(),
		CreatedAt: artifact.CreatedAt,
	}
}

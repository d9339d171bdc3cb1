// Package app assembles the generation pipeline shared by the API server and
// the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"animator/internal/adapter/repo"
	"animator/internal/domain"
	"animator/internal/infra"
	"animator/internal/infra/credentials"
	"animator/internal/metrics"
	"animator/internal/providers/genai"
	"animator/internal/providers/video"
	"animator/internal/storage"
)

type Services struct {
	Config      *infra.Config
	Logger      infra.Logger
	Pool        *pgxpool.Pool
	SQL         infra.SQLExecutor
	Credentials *credentials.Store
	History     domain.GenerationRepository
	Gemini      *genai.Client
	Blobs       *storage.BlobStore
	Registry    *prometheus.Registry
	Metrics     *metrics.Recorder
	Animator    *video.Animator
}

// Build wires every collaborator from cfg. The database is optional; when it is
// configured it must be reachable.
func Build(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Services, error) {
	s := &Services{Config: cfg, Logger: logger}

	if cfg.HasDatabase() {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.Pool = pool
		s.SQL = infra.NewSQLRunner(pool, logger)
		s.Credentials = credentials.NewStore(s.SQL)
		s.History = repo.NewGenerationRepository(s.SQL)
	}

	apiKey := cfg.GeminiAPIKey
	if apiKey == "" && s.Credentials != nil {
		stored, found, err := s.Credentials.Lookup(ctx)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("app: read stored gemini api key")
		case found:
			logger.Info().
				Str("source", stored.Source).
				Time("updated_at", stored.UpdatedAt).
				Msg("app: using stored gemini api key")
			apiKey = stored.Value
		}
	}
	if apiKey == "" {
		logger.Warn().Msg("app: no gemini api key configured; generations will be refused")
	}

	gemini, err := genai.NewClient(genai.Options{
		APIKey:     apiKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.VeoModel,
		HTTPClient: &http.Client{Timeout: cfg.GeminiHTTPTimeout},
		Logger:     &s.Logger,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("app: gemini client: %w", err)
	}
	s.Gemini = gemini

	s.Blobs = storage.NewBlobStore(cfg.BlobCapacity)
	s.Registry = metrics.NewRegistry()
	s.Metrics = metrics.NewRecorder(s.Registry)

	animator, err := video.NewAnimator(video.Options{
		Backend:      gemini,
		Publisher:    s.Blobs,
		PollInterval: cfg.PollInterval,
		MaxWait:      cfg.MaxWait,
		Logger:       &s.Logger,
		Metrics:      s.Metrics,
		History:      s.History,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("app: animator: %w", err)
	}
	s.Animator = animator
	return s, nil
}

// Close releases the database pool.
func (s *Services) Close() {
	if s.Pool != nil {
		s.Pool.Close()
		s.Pool = nil
	}
}

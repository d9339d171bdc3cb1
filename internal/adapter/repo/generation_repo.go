package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"animator/internal/domain"
	"animator/internal/infra"
	"animator/internal/sqlinline"
)

const maxHistoryLimit = 200

// GenerationRepositoryPG implements domain.GenerationRepository on PostgreSQL.
type GenerationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewGenerationRepository constructs the repository.
func NewGenerationRepository(sql infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{sql: sql}
}

// Record inserts one finished generation. Records without an id get a fresh one.
func (r *GenerationRepositoryPG) Record(ctx context.Context, rec *domain.GenerationRecord) error {
	if rec == nil {
		return errors.New("repo: generation record is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertGeneration,
		rec.ID,
		rec.OperationName,
		rec.Model,
		rec.Prompt,
		rec.MIMEType,
		string(rec.Outcome),
		rec.ErrorKind,
		rec.ErrorMessage,
		rec.VideoBytes,
		rec.Duration.Milliseconds(),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repo: insert generation: %w", err)
	}
	return nil
}

// ListRecent returns the newest generations first.
func (r *GenerationRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectRecentGenerations, limit)
	if err != nil {
		return nil, fmt.Errorf("repo: list generations: %w", err)
	}
	defer rows.Close()

	var out []domain.GenerationRecord
	for rows.Next() {
		var (
			rec        domain.GenerationRecord
			outcome    string
			durationMS int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.OperationName,
			&rec.Model,
			&rec.Prompt,
			&rec.MIMEType,
			&outcome,
			&rec.ErrorKind,
			&rec.ErrorMessage,
			&rec.VideoBytes,
			&durationMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("repo: scan generation: %w", err)
		}
		rec.Outcome = domain.GenerationOutcome(outcome)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: iterate generations: %w", err)
	}
	return out, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)

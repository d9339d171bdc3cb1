package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"animator/internal/infra"
	"animator/internal/sqlinline"
)

// Sources recorded next to a saved key.
const (
	SourceCLI = "cli"
	SourceEnv = "env"
)

// ErrEmptyKey is returned when saving a blank key.
var ErrEmptyKey = errors.New("credentials: gemini api key is empty")

// StoredKey is the Gemini API key kept in Postgres.
type StoredKey struct {
	Value     string
	Source    string
	UpdatedAt time.Time
}

// Store persists the Gemini API key. It is the fallback credential source
// when GEMINI_API_KEY is not set.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Lookup returns the saved key. found is false when nothing usable is stored.
func (s *Store) Lookup(ctx context.Context) (key StoredKey, found bool, err error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectGeminiKey)
	if err := row.Scan(&key.Value, &key.Source, &key.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return StoredKey{}, false, nil
		}
		return StoredKey{}, false, err
	}
	key.Value = strings.TrimSpace(key.Value)
	return key, key.Value != "", nil
}

// Save replaces the stored key.
func (s *Store) Save(ctx context.Context, key, source string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if source = strings.TrimSpace(source); source == "" {
		source = SourceCLI
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertGeminiKey, key, source)
	return err
}

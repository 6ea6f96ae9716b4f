// Package sqlite provides a local read-through artifact cache backed by
// an embedded SQLite database. It sits in front of the shared Postgres
// artifact store so repeat reads on the same host never leave the box.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/store"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifact_cache (
	unit_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (unit_id, kind)
);
`

// Open opens (or creates) the cache database at dir/artifacts.db with
// WAL journaling so concurrent readers never block the writer.
func Open(dir string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		filepath.Join(dir, "artifacts.db"))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	// modernc sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY churn under write load.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}

	return db, nil
}

// CachedArtifactStore is a read-through store.ArtifactStore: reads are
// served from the local cache when possible and fall through to the
// backing store on a miss, filling the cache on the way back. Writes go
// to the backing store first; the cache fill afterwards is best-effort.
type CachedArtifactStore struct {
	cache   *sql.DB
	backing store.ArtifactStore
	logger  *slog.Logger
}

// NewCachedArtifactStore wraps the backing store with the local cache.
func NewCachedArtifactStore(cache *sql.DB, backing store.ArtifactStore, logger *slog.Logger) (*CachedArtifactStore, error) {
	if cache == nil {
		return nil, errors.New("cache db cannot be nil")
	}
	if backing == nil {
		return nil, errors.New("backing store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CachedArtifactStore{
		cache:   cache,
		backing: backing,
		logger:  logger.With(slog.String("component", "artifact_cache")),
	}, nil
}

// Ensure CachedArtifactStore implements store.ArtifactStore interface
var _ store.ArtifactStore = (*CachedArtifactStore)(nil)

// Get implements store.ArtifactStore.Get
// A local hit never touches the backing store. A cache read error
// degrades to a miss rather than failing the request.
func (s *CachedArtifactStore) Get(ctx context.Context, unitID uuid.UUID, kind domain.ArtifactKind) (*domain.Artifact, error) {
	if artifact, err := s.getLocal(ctx, unitID, kind); err == nil {
		return artifact, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("cache read failed, falling through",
			slog.String("error", err.Error()),
			slog.String("unit_id", unitID.String()),
			slog.String("kind", string(kind)))
	}

	artifact, err := s.backing.Get(ctx, unitID, kind)
	if err != nil {
		return nil, err
	}

	s.fill(ctx, artifact)
	return artifact, nil
}

// Put implements store.ArtifactStore.Put
// The backing store is the source of truth; the write fails if it does.
func (s *CachedArtifactStore) Put(ctx context.Context, artifact *domain.Artifact) error {
	if err := s.backing.Put(ctx, artifact); err != nil {
		return err
	}
	s.fill(ctx, artifact)
	return nil
}

func (s *CachedArtifactStore) getLocal(ctx context.Context, unitID uuid.UUID, kind domain.ArtifactKind) (*domain.Artifact, error) {
	query := `
		SELECT payload, created_at, updated_at
		FROM artifact_cache
		WHERE unit_id = ? AND kind = ?
	`
	artifact := domain.Artifact{UnitID: unitID, Kind: kind}
	err := s.cache.QueryRowContext(ctx, query, unitID.String(), string(kind)).Scan(
		&artifact.Payload,
		&artifact.CreatedAt,
		&artifact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (s *CachedArtifactStore) fill(ctx context.Context, artifact *domain.Artifact) {
	query := `
		INSERT INTO artifact_cache (unit_id, kind, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (unit_id, kind)
		DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	_, err := s.cache.ExecContext(
		ctx,
		query,
		artifact.UnitID.String(),
		string(artifact.Kind),
		[]byte(artifact.Payload),
		artifact.CreatedAt,
		artifact.UpdatedAt,
	)
	if err != nil {
		s.logger.Warn("cache fill failed",
			slog.String("error", err.Error()),
			slog.String("unit_id", artifact.UnitID.String()),
			slog.String("kind", string(artifact.Kind)))
	}
}

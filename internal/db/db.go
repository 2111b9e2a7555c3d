package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"train-tracker/internal/status"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS train_status_snapshots (
  id          BIGSERIAL PRIMARY KEY,
  train_id    TEXT        NOT NULL,
  instance_id INTEGER     NOT NULL,
  resolved_at TIMESTAMPTZ NOT NULL,
  payload     JSONB       NOT NULL
);
CREATE INDEX IF NOT EXISTS train_status_snapshots_train_resolved
  ON train_status_snapshots (train_id, resolved_at DESC);
CREATE TABLE IF NOT EXISTS train_status_resolutions (
  train_id    TEXT PRIMARY KEY,
  resolved_at TIMESTAMPTZ NOT NULL
);
`

// SnapshotStore persists resolved statuses so the latest view survives restarts.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

// SaveSnapshot writes one row per instance, all stamped with resolvedAt, and
// marks resolvedAt as the train's latest resolution. An empty statuses slice
// records that the train currently has no instances.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, trainID string, resolvedAt time.Time, statuses []status.TrainStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	q := `INSERT INTO train_status_snapshots (train_id, instance_id, resolved_at, payload) VALUES ($1, $2, $3, $4)`
	for _, st := range statuses {
		b, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, trainID, st.InstanceID, resolvedAt, b); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}
	mark := `
INSERT INTO train_status_resolutions (train_id, resolved_at) VALUES ($1, $2)
ON CONFLICT (train_id) DO UPDATE SET resolved_at = EXCLUDED.resolved_at`
	if _, err := tx.ExecContext(ctx, mark, trainID, resolvedAt); err != nil {
		return fmt.Errorf("mark resolution: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the statuses of the most recent resolution stored for trainID,
// ordered by instance id. No resolution, or an empty one, yields a nil slice.
func (s *SnapshotStore) LatestSnapshot(ctx context.Context, trainID string) ([]status.TrainStatus, error) {
	q := `
SELECT s.payload
FROM train_status_snapshots s
JOIN train_status_resolutions r ON r.train_id = s.train_id AND r.resolved_at = s.resolved_at
WHERE s.train_id = $1
ORDER BY s.instance_id`
	rows, err := s.db.QueryContext(ctx, q, trainID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []status.TrainStatus
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		var st status.TrainStatus
		if err := json.Unmarshal(b, &st); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
)

// PostgresStore persists snapshots in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed snapshot store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, snapshot models.Snapshot) error {
	query := `
		INSERT INTO snapshots (id, surveillance_id, siren, taken_at, data)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		snapshot.ID.String(),
		snapshot.SurveillanceID.String(),
		snapshot.SIREN,
		snapshot.TakenAt,
		[]byte(snapshot.Data),
	)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, surveillanceID id.SurveillanceID) (*models.Snapshot, error) {
	query := `
		SELECT id, surveillance_id, siren, taken_at, data
		FROM snapshots
		WHERE surveillance_id = $1
		ORDER BY taken_at DESC
		LIMIT 1
	`
	var (
		snapshot models.Snapshot
		rawID    string
		rawSID   string
		data     []byte
	)
	err := s.db.QueryRowContext(ctx, query, surveillanceID.String()).
		Scan(&rawID, &rawSID, &snapshot.SIREN, &snapshot.TakenAt, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	if snapshot.ID, err = id.ParseSnapshotID(rawID); err != nil {
		return nil, fmt.Errorf("stored snapshot id: %w", err)
	}
	if snapshot.SurveillanceID, err = id.ParseSurveillanceID(rawSID); err != nil {
		return nil, fmt.Errorf("stored surveillance id: %w", err)
	}
	snapshot.Data = data
	return &snapshot, nil
}

func (s *PostgresStore) ListRefs(ctx context.Context, surveillanceID id.SurveillanceID, limit int) ([]models.SnapshotRef, error) {
	query := `
		SELECT id, taken_at
		FROM snapshots
		WHERE surveillance_id = $1
		ORDER BY taken_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, surveillanceID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshot refs: %w", err)
	}
	defer rows.Close()

	var refs []models.SnapshotRef
	for rows.Next() {
		var (
			ref   models.SnapshotRef
			rawID string
		)
		if err := rows.Scan(&rawID, &ref.TakenAt); err != nil {
			return nil, fmt.Errorf("scan snapshot ref: %w", err)
		}
		if ref.ID, err = id.ParseSnapshotID(rawID); err != nil {
			return nil, fmt.Errorf("stored snapshot id: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot refs: %w", err)
	}
	return refs, nil
}

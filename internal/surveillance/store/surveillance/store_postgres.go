package surveillance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

// PostgresStore persists surveillances in PostgreSQL. Pure I/O; ownership and
// validation belong in the service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed surveillance store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const surveillanceColumns = `id, owner_id, siren, company_name, watch_type, criteria, cadence,
	email_alerts, webhook_url, active, last_checked_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, surveillance *models.Surveillance) error {
	criteria, err := marshalCriteria(surveillance.Criteria)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO surveillances (` + surveillanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(ctx, query,
		surveillance.ID.String(),
		surveillance.OwnerID.String(),
		surveillance.SIREN,
		surveillance.CompanyName,
		string(surveillance.WatchType),
		criteria,
		string(surveillance.Cadence),
		surveillance.EmailAlerts,
		surveillance.WebhookURL,
		surveillance.Active,
		nullTime(surveillance.LastCheckedAt),
		surveillance.CreatedAt,
		surveillance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create surveillance: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, surveillanceID id.SurveillanceID) (*models.Surveillance, error) {
	query := `SELECT ` + surveillanceColumns + ` FROM surveillances WHERE id = $1`
	record, err := scanSurveillance(s.db.QueryRowContext(ctx, query, surveillanceID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "surveillance not found")
		}
		return nil, fmt.Errorf("find surveillance: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) FindActiveDuplicate(ctx context.Context, ownerID id.UserID, siren string) (*models.Surveillance, error) {
	query := `
		SELECT ` + surveillanceColumns + `
		FROM surveillances
		WHERE owner_id = $1 AND siren = $2 AND active
		LIMIT 1
	`
	record, err := scanSurveillance(s.db.QueryRowContext(ctx, query, ownerID.String(), siren))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active duplicate: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Surveillance, error) {
	query := `
		SELECT ` + surveillanceColumns + `
		FROM surveillances
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	return s.queryMany(ctx, query, ownerID.String())
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*models.Surveillance, error) {
	query := `
		SELECT ` + surveillanceColumns + `
		FROM surveillances
		WHERE active
		ORDER BY created_at DESC
	`
	return s.queryMany(ctx, query)
}

func (s *PostgresStore) Update(ctx context.Context, surveillance *models.Surveillance) error {
	criteria, err := marshalCriteria(surveillance.Criteria)
	if err != nil {
		return err
	}
	query := `
		UPDATE surveillances
		SET watch_type = $2, criteria = $3, cadence = $4, email_alerts = $5,
			webhook_url = $6, active = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		surveillance.ID.String(),
		string(surveillance.WatchType),
		criteria,
		string(surveillance.Cadence),
		surveillance.EmailAlerts,
		surveillance.WebhookURL,
		surveillance.Active,
		surveillance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update surveillance: %w", err)
	}
	return requireRow(result, "surveillance not found")
}

func (s *PostgresStore) SetLastChecked(ctx context.Context, surveillanceID id.SurveillanceID, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE surveillances SET last_checked_at = $2 WHERE id = $1`,
		surveillanceID.String(), at,
	)
	if err != nil {
		return fmt.Errorf("set last checked: %w", err)
	}
	return requireRow(result, "surveillance not found")
}

func (s *PostgresStore) Delete(ctx context.Context, surveillanceID id.SurveillanceID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM surveillances WHERE id = $1`, surveillanceID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete surveillance: %w", err)
	}
	return requireRow(result, "surveillance not found")
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]*models.Surveillance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list surveillances: %w", err)
	}
	defer rows.Close()

	var out []*models.Surveillance
	for rows.Next() {
		record, err := scanSurveillance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan surveillance: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surveillances: %w", err)
	}
	return out, nil
}

type surveillanceRow interface {
	Scan(dest ...any) error
}

func scanSurveillance(row surveillanceRow) (*models.Surveillance, error) {
	var (
		record        models.Surveillance
		rawID         string
		rawOwner      string
		watchType     string
		rawCriteria   []byte
		cadence       string
		lastCheckedAt sql.NullTime
	)
	if err := row.Scan(
		&rawID, &rawOwner, &record.SIREN, &record.CompanyName, &watchType,
		&rawCriteria, &cadence, &record.EmailAlerts, &record.WebhookURL,
		&record.Active, &lastCheckedAt, &record.CreatedAt, &record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if record.ID, err = id.ParseSurveillanceID(rawID); err != nil {
		return nil, fmt.Errorf("stored surveillance id: %w", err)
	}
	if record.OwnerID, err = id.ParseUserID(rawOwner); err != nil {
		return nil, fmt.Errorf("stored owner id: %w", err)
	}
	record.WatchType = models.WatchType(watchType)
	record.Cadence = id.Cadence(cadence)
	if err := json.Unmarshal(rawCriteria, &record.Criteria); err != nil {
		return nil, fmt.Errorf("stored criteria: %w", err)
	}
	if lastCheckedAt.Valid {
		record.LastCheckedAt = &lastCheckedAt.Time
	}
	return &record, nil
}

// marshalCriteria stores the criteria set as a JSONB array.
func marshalCriteria(criteria []id.Criterion) ([]byte, error) {
	data, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("marshal criteria: %w", err)
	}
	return data, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func requireRow(result sql.Result, message string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return dErrors.New(dErrors.CodeNotFound, message)
	}
	return nil
}

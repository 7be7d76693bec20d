package change

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
)

// PostgresStore persists changes in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed change store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const changeColumns = `id, surveillance_id, change_type, field, old_value, new_value,
	importance, detected_at, notified, notified_at`

// importanceRank mirrors the domain ordering for the listing tie-break.
const importanceRank = `
	CASE importance
		WHEN 'critical' THEN 3
		WHEN 'high' THEN 2
		WHEN 'medium' THEN 1
		ELSE 0
	END`

func (s *PostgresStore) Append(ctx context.Context, changes []models.Change) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append changes: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO changes (` + changeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, c := range changes {
		_, err := tx.ExecContext(ctx, query,
			c.ID.String(),
			c.SurveillanceID.String(),
			string(c.Type),
			c.Field,
			[]byte(c.OldValue),
			[]byte(c.NewValue),
			string(c.Importance),
			c.DetectedAt,
			c.Notified,
			nullTime(c.NotifiedAt),
		)
		if err != nil {
			return fmt.Errorf("append change: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append changes: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, surveillanceID id.SurveillanceID, filter models.ChangeFilter, page models.PageRequest) (models.ChangePage, error) {
	page = page.Normalize()

	where := []string{"surveillance_id = $1"}
	args := []any{surveillanceID.String()}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("change_type = $%d", len(args)))
	}
	if filter.Importance != "" {
		args = append(args, string(filter.Importance))
		where = append(where, fmt.Sprintf("importance = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		where = append(where, fmt.Sprintf("detected_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		where = append(where, fmt.Sprintf("detected_at <= $%d", len(args)))
	}
	condition := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM changes WHERE ` + condition
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return models.ChangePage{}, fmt.Errorf("count changes: %w", err)
	}

	args = append(args, page.Limit, (page.Page-1)*page.Limit)
	listQuery := fmt.Sprintf(`
		SELECT `+changeColumns+`
		FROM changes
		WHERE `+condition+`
		ORDER BY detected_at DESC, `+importanceRank+` DESC
		LIMIT $%d OFFSET $%d
	`, len(args)-1, len(args))

	changes, err := s.queryMany(ctx, listQuery, args...)
	if err != nil {
		return models.ChangePage{}, err
	}

	return models.ChangePage{
		Changes:    changes,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: (total + page.Limit - 1) / page.Limit,
	}, nil
}

func (s *PostgresStore) Recent(ctx context.Context, surveillanceID id.SurveillanceID, limit int) ([]models.Change, error) {
	query := `
		SELECT ` + changeColumns + `
		FROM changes
		WHERE surveillance_id = $1
		ORDER BY detected_at DESC, ` + importanceRank + ` DESC
		LIMIT $2
	`
	return s.queryMany(ctx, query, surveillanceID.String(), limit)
}

func (s *PostgresStore) CountSince(ctx context.Context, surveillanceID id.SurveillanceID, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM changes WHERE surveillance_id = $1 AND detected_at >= $2`,
		surveillanceID.String(), since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count changes since: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkNotified(ctx context.Context, changeIDs []id.ChangeID, at time.Time) error {
	if len(changeIDs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE changes SET notified = TRUE, notified_at = $2 WHERE id = ANY($1::uuid[])`,
		idStrings(changeIDs), at,
	)
	if err != nil {
		return fmt.Errorf("mark changes notified: %w", err)
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context, surveillanceID id.SurveillanceID) ([]models.ChangeStat, error) {
	query := `
		SELECT change_type, importance, COUNT(*), MAX(detected_at)
		FROM changes
		WHERE surveillance_id = $1
		GROUP BY change_type, importance
		ORDER BY COUNT(*) DESC, MAX(detected_at) DESC
	`
	rows, err := s.db.QueryContext(ctx, query, surveillanceID.String())
	if err != nil {
		return nil, fmt.Errorf("change stats: %w", err)
	}
	defer rows.Close()

	var out []models.ChangeStat
	for rows.Next() {
		var (
			stat       models.ChangeStat
			changeType string
			importance string
		)
		if err := rows.Scan(&changeType, &importance, &stat.Count, &stat.LastOccurrence); err != nil {
			return nil, fmt.Errorf("scan change stat: %w", err)
		}
		stat.Type = models.ChangeType(changeType)
		stat.Importance = models.Importance(importance)
		out = append(out, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change stats: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountsByImportance(ctx context.Context, surveillanceIDs []id.SurveillanceID, since time.Time) (map[models.Importance]int, error) {
	query := `
		SELECT importance, COUNT(*)
		FROM changes
		WHERE surveillance_id = ANY($1::uuid[]) AND detected_at >= $2
		GROUP BY importance
	`
	rows, err := s.db.QueryContext(ctx, query, surveillanceIDStrings(surveillanceIDs), since)
	if err != nil {
		return nil, fmt.Errorf("counts by importance: %w", err)
	}
	defer rows.Close()

	out := make(map[models.Importance]int)
	for rows.Next() {
		var (
			importance string
			count      int
		)
		if err := rows.Scan(&importance, &count); err != nil {
			return nil, fmt.Errorf("scan importance count: %w", err)
		}
		out[models.Importance(importance)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate importance counts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountsByType(ctx context.Context, surveillanceIDs []id.SurveillanceID, since time.Time) (map[models.ChangeType]int, error) {
	query := `
		SELECT change_type, COUNT(*)
		FROM changes
		WHERE surveillance_id = ANY($1::uuid[]) AND detected_at >= $2
		GROUP BY change_type
	`
	rows, err := s.db.QueryContext(ctx, query, surveillanceIDStrings(surveillanceIDs), since)
	if err != nil {
		return nil, fmt.Errorf("counts by type: %w", err)
	}
	defer rows.Close()

	out := make(map[models.ChangeType]int)
	for rows.Next() {
		var (
			changeType string
			count      int
		)
		if err := rows.Scan(&changeType, &count); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		out[models.ChangeType(changeType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate type counts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DailyCounts(ctx context.Context, surveillanceIDs []id.SurveillanceID, since time.Time) ([]models.DailyCount, error) {
	query := `
		SELECT TO_CHAR(detected_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
		FROM changes
		WHERE surveillance_id = ANY($1::uuid[]) AND detected_at >= $2
		GROUP BY day
		ORDER BY day
	`
	rows, err := s.db.QueryContext(ctx, query, surveillanceIDStrings(surveillanceIDs), since)
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	defer rows.Close()

	var out []models.DailyCount
	for rows.Next() {
		var count models.DailyCount
		if err := rows.Scan(&count.Date, &count.Count); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		out = append(out, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily counts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]models.Change, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var out []models.Change
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return out, nil
}

type changeRow interface {
	Scan(dest ...any) error
}

func scanChange(row changeRow) (models.Change, error) {
	var (
		c          models.Change
		rawID      string
		rawSID     string
		changeType string
		oldValue   []byte
		newValue   []byte
		importance string
		notifiedAt sql.NullTime
	)
	if err := row.Scan(
		&rawID, &rawSID, &changeType, &c.Field, &oldValue, &newValue,
		&importance, &c.DetectedAt, &c.Notified, &notifiedAt,
	); err != nil {
		return models.Change{}, err
	}

	var err error
	if c.ID, err = id.ParseChangeID(rawID); err != nil {
		return models.Change{}, fmt.Errorf("stored change id: %w", err)
	}
	if c.SurveillanceID, err = id.ParseSurveillanceID(rawSID); err != nil {
		return models.Change{}, fmt.Errorf("stored surveillance id: %w", err)
	}
	c.Type = models.ChangeType(changeType)
	c.OldValue = oldValue
	c.NewValue = newValue
	c.Importance = models.Importance(importance)
	if notifiedAt.Valid {
		c.NotifiedAt = &notifiedAt.Time
	}
	return c, nil
}

func idStrings(changeIDs []id.ChangeID) []string {
	out := make([]string, 0, len(changeIDs))
	for _, changeID := range changeIDs {
		out = append(out, changeID.String())
	}
	return out
}

func surveillanceIDStrings(surveillanceIDs []id.SurveillanceID) []string {
	out := make([]string, 0, len(surveillanceIDs))
	for _, surveillanceID := range surveillanceIDs {
		out = append(out, surveillanceID.String())
	}
	return out
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

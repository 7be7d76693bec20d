// Package company serves current company projections from the registry data
// layer. Ingestion of registry feeds is a separate pipeline; this package only
// reads the denormalized tables it maintains.
package company

import (
	"context"
	"database/sql"
	"errors"

	"vigie/internal/surveillance/models"
	dErrors "vigie/pkg/domain-errors"
)

// PostgresSource reads company projections from the registry tables.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// FetchProjection assembles the full denormalized company state.
// Errors: CodeNotFound for an unknown SIREN.
func (s *PostgresSource) FetchProjection(ctx context.Context, siren string) (*models.Projection, error) {
	const companyQuery = `
		SELECT siren, name, legal_form, status, share_capital,
		       address_line1, address_postal_code, address_city,
		       fiscal_year_end, revenue, net_income
		FROM companies
		WHERE siren = $1`

	var p models.Projection
	row := s.db.QueryRowContext(ctx, companyQuery, siren)
	err := row.Scan(
		&p.SIREN, &p.Name, &p.LegalForm, &p.Status, &p.ShareCapital,
		&p.Address.Line1, &p.Address.PostalCode, &p.Address.City,
		&p.Financial.FiscalYearEnd, &p.Financial.Revenue, &p.Financial.NetIncome,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no company with siren %s", siren)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
	}

	if p.Officers, err = s.officers(ctx, siren); err != nil {
		return nil, err
	}
	if p.Documents, err = s.documents(ctx, siren); err != nil {
		return nil, err
	}
	if p.Proceedings, err = s.proceedings(ctx, siren); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresSource) officers(ctx context.Context, siren string) ([]models.Officer, error) {
	const query = `
		SELECT last_name, first_name, role
		FROM company_officers
		WHERE siren = $1
		ORDER BY last_name, first_name`

	rows, err := s.db.QueryContext(ctx, query, siren)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load officers")
	}
	defer rows.Close()

	var out []models.Officer
	for rows.Next() {
		var o models.Officer
		if err := rows.Scan(&o.LastName, &o.FirstName, &o.Role); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to scan officer")
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to iterate officers")
	}
	return out, nil
}

func (s *PostgresSource) documents(ctx context.Context, siren string) ([]models.Document, error) {
	const query = `
		SELECT id, kind, filed_at
		FROM company_documents
		WHERE siren = $1
		ORDER BY filed_at DESC`

	rows, err := s.db.QueryContext(ctx, query, siren)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load documents")
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Kind, &d.FiledAt); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to scan document")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to iterate documents")
	}
	return out, nil
}

func (s *PostgresSource) proceedings(ctx context.Context, siren string) ([]models.Proceeding, error) {
	const query = `
		SELECT id, kind, court, decided_at
		FROM company_proceedings
		WHERE siren = $1
		ORDER BY decided_at DESC`

	rows, err := s.db.QueryContext(ctx, query, siren)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proceedings")
	}
	defer rows.Close()

	var out []models.Proceeding
	for rows.Next() {
		var p models.Proceeding
		if err := rows.Scan(&p.ID, &p.Kind, &p.Court, &p.DecidedAt); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to scan proceeding")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to iterate proceedings")
	}
	return out, nil
}

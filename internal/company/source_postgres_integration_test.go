//go:build integration

package company_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"vigie/internal/company"
	"vigie/internal/surveillance/models"
	dErrors "vigie/pkg/domain-errors"
	"vigie/pkg/testutil/containers"
)

type PostgresSourceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	source   *company.PostgresSource
}

func TestPostgresSourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSourceSuite))
}

func (s *PostgresSourceSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.source = company.NewPostgres(s.postgres.DB)
}

func (s *PostgresSourceSuite) TearDownSuite() {
	s.Require().NoError(s.postgres.Terminate(context.Background()))
}

func (s *PostgresSourceSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"companies", "company_officers", "company_documents", "company_proceedings"))
}

func (s *PostgresSourceSuite) seedCompany(ctx context.Context) {
	db := s.postgres.DB
	_, err := db.ExecContext(ctx, `
		INSERT INTO companies (siren, name, legal_form, status, share_capital,
			address_line1, address_postal_code, address_city,
			fiscal_year_end, revenue, net_income)
		VALUES ('123456789', 'Acme Industries', 'SAS', 'active', 50000,
			'1 rue de la Paix', '75002', 'Paris',
			'2024-12-31', 1200000, 85000)`)
	s.Require().NoError(err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO company_officers (siren, last_name, first_name, role) VALUES
			('123456789', 'Martin', 'Claire', 'President'),
			('123456789', 'Durand', 'Paul', 'Directeur General')`)
	s.Require().NoError(err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO company_documents (id, siren, kind, filed_at) VALUES
			('doc-1', '123456789', 'comptes annuels', '2024-06-30'),
			('doc-2', '123456789', 'statuts', '2025-01-15')`)
	s.Require().NoError(err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO company_proceedings (id, siren, kind, court, decided_at) VALUES
			('proc-1', '123456789', 'redressement judiciaire', 'TC Paris', '2025-03-01')`)
	s.Require().NoError(err)
}

func (s *PostgresSourceSuite) TestFetchProjection() {
	ctx := context.Background()
	s.seedCompany(ctx)

	p, err := s.source.FetchProjection(ctx, "123456789")
	s.Require().NoError(err)
	s.Equal("123456789", p.SIREN)
	s.Equal("Acme Industries", p.Name)
	s.Equal("SAS", p.LegalForm)
	s.Equal(float64(50000), p.ShareCapital)
	s.Equal("Paris", p.Address.City)
	s.Equal(float64(1200000), p.Financial.Revenue)

	// Officers ordered by name, documents by filing date descending.
	s.Equal([]models.Officer{
		{LastName: "Durand", FirstName: "Paul", Role: "Directeur General"},
		{LastName: "Martin", FirstName: "Claire", Role: "President"},
	}, p.Officers)
	s.Require().Len(p.Documents, 2)
	s.Equal("doc-2", p.Documents[0].ID)
	s.Require().Len(p.Proceedings, 1)
	s.Equal("TC Paris", p.Proceedings[0].Court)
}

func (s *PostgresSourceSuite) TestFetchUnknownSirenIsNotFound() {
	_, err := s.source.FetchProjection(context.Background(), "999999999")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

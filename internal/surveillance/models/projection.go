package models

import (
	"encoding/json"

	dErrors "vigie/pkg/domain-errors"
)

// Projection is the denormalized, observable state of one company as served
// by the registry data source. Snapshots store its JSON encoding verbatim.
type Projection struct {
	SIREN        string  `json:"siren"`
	Name         string  `json:"name"`
	LegalForm    string  `json:"legal_form"`
	Status       string  `json:"status"`
	ShareCapital float64 `json:"share_capital"`

	Address   Address          `json:"address"`
	Officers  []Officer        `json:"officers"`
	Financial FinancialSummary `json:"financial_summary"`

	Documents   []Document   `json:"documents"`
	Proceedings []Proceeding `json:"proceedings"`
}

// Address is the registered office address.
type Address struct {
	Line1      string `json:"line1"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

// Officer is one office-holder. Identity key for diffing is
// (LastName, FirstName); Role changes on the same person are reported as a
// role change, never as remove+add.
type Officer struct {
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Role      string `json:"role"`
}

// Key returns the officer's diffing identity.
func (o Officer) Key() string {
	return o.LastName + "\x00" + o.FirstName
}

// FinancialSummary is the latest published financial data.
type FinancialSummary struct {
	FiscalYearEnd string  `json:"fiscal_year_end"`
	Revenue       float64 `json:"revenue"`
	NetIncome     float64 `json:"net_income"`
}

// Document is one filed registry document.
type Document struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	FiledAt string `json:"filed_at"`
}

// Proceeding is one legal proceeding or court ruling.
type Proceeding struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Court     string `json:"court"`
	DecidedAt string `json:"decided_at"`
}

// EncodeProjection serializes a projection for snapshot storage.
func EncodeProjection(p Projection) (json.RawMessage, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode projection")
	}
	return data, nil
}

// DecodeProjection restores a projection from snapshot storage.
func DecodeProjection(data json.RawMessage) (Projection, error) {
	var p Projection
	if err := json.Unmarshal(data, &p); err != nil {
		return Projection{}, dErrors.Wrap(err, dErrors.CodeInternal, "decode snapshot projection")
	}
	return p, nil
}

package domain

import dErrors "vigie/pkg/domain-errors"

// Criterion is a named category of company sub-state that the change detector
// compares independently.
// Invariant: the value must be one of the supported criteria.
//
// Usage: construct via ParseCriterion at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Criterion string

// Supported surveillance criteria.
const (
	CriterionIdentity    Criterion = "identity"
	CriterionAddress     Criterion = "address"
	CriterionOfficers    Criterion = "officers"
	CriterionFinancials  Criterion = "financials"
	CriterionDocuments   Criterion = "documents"
	CriterionProceedings Criterion = "legal_proceedings"
)

// validCriteria is the single source of truth for valid criteria.
var validCriteria = map[Criterion]bool{
	CriterionIdentity:    true,
	CriterionAddress:     true,
	CriterionOfficers:    true,
	CriterionFinancials:  true,
	CriterionDocuments:   true,
	CriterionProceedings: true,
}

// AllCriteria returns every supported criterion, in stable order.
func AllCriteria() []Criterion {
	return []Criterion{
		CriterionIdentity,
		CriterionAddress,
		CriterionOfficers,
		CriterionFinancials,
		CriterionDocuments,
		CriterionProceedings,
	}
}

// ParseCriterion constructs a Criterion from external input.
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseCriterion(s string) (Criterion, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "criterion cannot be empty")
	}
	c := Criterion(s)
	if !c.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown criterion %q", s)
	}
	return c, nil
}

// ParseCriteria validates a set of criteria, rejecting duplicates.
func ParseCriteria(values []string) ([]Criterion, error) {
	seen := make(map[Criterion]bool, len(values))
	out := make([]Criterion, 0, len(values))
	for _, v := range values {
		c, err := ParseCriterion(v)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "duplicate criterion %q", v)
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// IsValid checks if the criterion is one of the supported enum values.
func (c Criterion) IsValid() bool {
	return validCriteria[c]
}

// String returns the string representation of the criterion.
func (c Criterion) String() string {
	return string(c)
}

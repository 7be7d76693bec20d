package models

import (
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

// WatchType is a preset bundle of criteria. The custom type carries whatever
// criteria the caller supplies.
type WatchType string

const (
	WatchComplete  WatchType = "complete"
	WatchOfficers  WatchType = "officers"
	WatchFinancial WatchType = "financial"
	WatchLegal     WatchType = "legal"
	WatchCustom    WatchType = "custom"
)

// WatchTypeInfo describes a preset for the types listing endpoint.
type WatchTypeInfo struct {
	Type        WatchType      `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Criteria    []id.Criterion `json:"criteria"`
}

// watchTypePresets is the single source of truth for preset criteria bundles.
var watchTypePresets = map[WatchType]WatchTypeInfo{
	WatchComplete: {
		Type:        WatchComplete,
		Name:        "Complete surveillance",
		Description: "Every observable change to the company",
		Criteria:    id.AllCriteria(),
	},
	WatchOfficers: {
		Type:        WatchOfficers,
		Name:        "Officers only",
		Description: "Changes in the management team",
		Criteria:    []id.Criterion{id.CriterionOfficers},
	},
	WatchFinancial: {
		Type:        WatchFinancial,
		Name:        "Financial surveillance",
		Description: "Share capital and filed accounts",
		Criteria:    []id.Criterion{id.CriterionFinancials, id.CriterionDocuments},
	},
	WatchLegal: {
		Type:        WatchLegal,
		Name:        "Legal surveillance",
		Description: "Court rulings and collective proceedings",
		Criteria:    []id.Criterion{id.CriterionProceedings},
	},
	WatchCustom: {
		Type:        WatchCustom,
		Name:        "Custom surveillance",
		Description: "Caller-defined criteria",
		Criteria:    nil,
	},
}

// WatchTypes returns every preset, in stable order.
func WatchTypes() []WatchTypeInfo {
	out := make([]WatchTypeInfo, 0, len(watchTypePresets))
	for _, t := range []WatchType{WatchComplete, WatchOfficers, WatchFinancial, WatchLegal, WatchCustom} {
		out = append(out, watchTypePresets[t])
	}
	return out
}

// ParseWatchType constructs a WatchType from external input.
func ParseWatchType(s string) (WatchType, error) {
	t := WatchType(s)
	if _, ok := watchTypePresets[t]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown watch type %q", s)
	}
	return t, nil
}

// ResolveCriteria returns the effective criteria for a watch type. For custom
// watches the supplied criteria are required; presets ignore the supplied set.
func ResolveCriteria(t WatchType, custom []id.Criterion) ([]id.Criterion, error) {
	if t == WatchCustom {
		if len(custom) == 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "custom watch type requires at least one criterion")
		}
		return custom, nil
	}
	preset, ok := watchTypePresets[t]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown watch type %q", string(t))
	}
	return preset.Criteria, nil
}

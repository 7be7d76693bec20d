// Package quota is the account/billing collaborator: plan capacity checks,
// usage counting, and billing status lookups. Surveillance consults it only
// at creation time and when selecting the sweep due-set.
package quota

import (
	"context"
	"fmt"
	"log/slog"

	"vigie/internal/surveillance/ports"
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

// Plan is the subscription tier of an account.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// featureLimits maps plan -> feature -> allowed units. -1 means unlimited.
var featureLimits = map[Plan]map[string]int{
	PlanFree:       {"surveillance": 1},
	PlanStarter:    {"surveillance": 10},
	PlanPro:        {"surveillance": 100},
	PlanEnterprise: {"surveillance": -1},
}

// Account is one billable owner.
type Account struct {
	OwnerID id.UserID
	Plan    Plan
	Status  ports.BillingStatus
	Usage   map[string]int
}

// Store persists accounts and usage counters.
type Store interface {
	GetAccount(ctx context.Context, ownerID id.UserID) (*Account, error)
	IncrementUsage(ctx context.Context, ownerID id.UserID, feature string) error
}

// Service implements ports.QuotaService on top of a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("quota store is required")
	}

	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// HasCapacity reports whether the owner may create another unit of feature.
// Unknown accounts are treated as free-plan trials so a missing billing row
// never blocks the first surveillance.
func (s *Service) HasCapacity(ctx context.Context, ownerID id.UserID, feature string) (bool, error) {
	account, err := s.store.GetAccount(ctx, ownerID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if account == nil {
		account = &Account{OwnerID: ownerID, Plan: PlanFree, Status: ports.BillingTrial}
	}

	limit, ok := featureLimits[account.Plan][feature]
	if !ok {
		return false, dErrors.Newf(dErrors.CodeBadRequest, "unknown feature %q", feature)
	}
	if limit < 0 {
		return true, nil
	}
	return account.Usage[feature] < limit, nil
}

// RecordUsage counts one created unit against the owner's plan.
func (s *Service) RecordUsage(ctx context.Context, ownerID id.UserID, feature string) error {
	if err := s.store.IncrementUsage(ctx, ownerID, feature); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record usage")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "usage recorded",
			"owner_id", ownerID,
			"feature", feature,
		)
	}
	return nil
}

// BillingStatus returns the owner's plan state; unknown accounts are trials.
func (s *Service) BillingStatus(ctx context.Context, ownerID id.UserID) (ports.BillingStatus, error) {
	account, err := s.store.GetAccount(ctx, ownerID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if account == nil {
		return ports.BillingTrial, nil
	}
	return account.Status, nil
}

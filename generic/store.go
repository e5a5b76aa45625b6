/*
store.go - Persistence interfaces consumed by the calculation core

PURPOSE:
  Defines the narrow interfaces between the charge rate core and the
  platform's relational data. The core never sees SQL; it sees these.

KEY INTERFACES:
  ApprenticeRepository:   Read apprentice attributes
  HostEmployerRepository: Read margin / admin overrides
  PlacementRepository:    Find the active placement, update its charge rate
  AwardRepository:        Award metadata and penalty rules
  CalculationStore:       Insert and approve ChargeRateCalculation records
  QuoteStore:             Insert and read quotes
  Repositories:           Bundle of all of the above
  TxStore:                Repositories + WithTx for atomic multi-table writes
  Seeder:                 Upserts reference data for scenarios and tests

ATOMIC WRITES:
  Approving a calculation updates the record AND the placement. Generating
  a quote inserts N calculations AND the quote. Both run inside WithTx so a
  failure leaves no partial state.

LOOKUP CONVENTION:
  Get* methods return a *NotFoundError (errors.Is ErrNotFound) when the row
  is missing. FindActivePlacement returns (nil, nil) when there is no active
  placement, since "no placement" is a normal answer.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for tests and demos

SEE ALSO:
  - chargerate/calculator.go: Main consumer
*/
package generic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REFERENCE DATA - read-only from the core's point of view
// =============================================================================

type ApprenticeRepository interface {
	GetApprentice(ctx context.Context, id ApprenticeID) (*Apprentice, error)
}

type HostEmployerRepository interface {
	GetHostEmployer(ctx context.Context, id HostEmployerID) (*HostEmployer, error)
}

type PlacementRepository interface {
	// FindActivePlacement returns nil, nil when no active placement exists.
	FindActivePlacement(ctx context.Context, apprenticeID ApprenticeID, hostID HostEmployerID) (*Placement, error)

	// UpdateChargeRate sets the placement's current charge rate.
	UpdateChargeRate(ctx context.Context, id PlacementID, rate decimal.Decimal) error
}

type AwardRepository interface {
	GetAward(ctx context.Context, id AwardID) (*Award, error)
	GetPenaltyRules(ctx context.Context, id AwardID) ([]PenaltyRule, error)
}

// =============================================================================
// RECORDS - written by the core
// =============================================================================

type CalculationStore interface {
	InsertCalculation(ctx context.Context, rec ChargeRateCalculation) error
	GetCalculation(ctx context.Context, id CalculationID) (*ChargeRateCalculation, error)
	ListCalculations(ctx context.Context, apprenticeID ApprenticeID) ([]ChargeRateCalculation, error)

	// MarkApproved stamps approver and time. It does not check prior state;
	// callers decide whether re-approval is allowed.
	MarkApproved(ctx context.Context, id CalculationID, approverID string, at time.Time) error
}

type QuoteStore interface {
	InsertQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, id QuoteID) (*Quote, error)
}

// =============================================================================
// REPOSITORY BUNDLE + TRANSACTIONS
// =============================================================================

// Repositories bundles every store the core uses so a transaction can hand
// out a consistent set.
type Repositories interface {
	ApprenticeRepository
	HostEmployerRepository
	PlacementRepository
	AwardRepository
	CalculationStore
	QuoteStore
}

// TxStore wraps Repositories with transaction support.
type TxStore interface {
	Repositories

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The Repositories passed to fn must not be used after fn returns.
	WithTx(ctx context.Context, fn func(Repositories) error) error
}

// =============================================================================
// SEEDING - platform-owned writes, used by scenarios and tests
// =============================================================================

// Seeder writes the reference data the core only reads. Save* methods upsert.
type Seeder interface {
	SaveApprentice(ctx context.Context, a Apprentice) error
	SaveHostEmployer(ctx context.Context, h HostEmployer) error
	SavePlacement(ctx context.Context, p Placement) error
	SaveAward(ctx context.Context, a Award, rules []PenaltyRule) error
	GetPlacement(ctx context.Context, id PlacementID) (*Placement, error)

	// Reset deletes everything, records included.
	Reset(ctx context.Context) error
}

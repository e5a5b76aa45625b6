/*
Package chargerate composes rate resolution, the cost model and penalty
estimation into persisted, approvable charge rate calculations.

PURPOSE:
  The orchestrator for one apprentice/host employer pair, and the quote
  aggregator that batches it. Lookups run sequentially because each one can
  change the next query: apprentice -> placement -> award -> rate.

RATE PRECEDENCE:
  1. Negotiated rate on the active placement
  2. Award rate from the resolver (placement award, then training contract)
  3. ratesource.DefaultHourlyRate when no award can be determined

MARGIN PRECEDENCE:
  explicit override -> host employer override -> configured default.
  The admin-cost rate follows host override -> configured default.

APPROVAL:
  One-directional. Re-approving is rejected with ErrAlreadyApproved.
  Marking the record and copying the rate onto the active placement happen
  in one transaction.

SEE ALSO:
  - quote.go: GenerateQuote
  - ratesource/resolver.go: the rate cascade
  - costmodel/engine.go: the cost model
*/
package chargerate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/charge-rate-engine/costmodel"
	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/ratesource"
)

// SourceNegotiated marks a calculation priced from a placement override.
const SourceNegotiated generic.RateSourceName = "negotiated"

// RateResolver is satisfied by *ratesource.Resolver.
type RateResolver interface {
	ResolveApprenticeRate(ctx context.Context, awardCode string, year generic.CalendarYear, attrs ratesource.Attributes) (ratesource.Resolution, error)
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	store    generic.TxStore
	resolver RateResolver
	work     costmodel.WorkConfiguration
	cost     costmodel.CostConfiguration
	billable costmodel.BillableOptions
	clock    generic.Clock
	logger   *zap.Logger
}

type Option func(*Calculator)

func WithWorkConfiguration(w costmodel.WorkConfiguration) Option {
	return func(c *Calculator) { c.work = w }
}

func WithCostConfiguration(cc costmodel.CostConfiguration) Option {
	return func(c *Calculator) { c.cost = cc }
}

func WithBillableOptions(b costmodel.BillableOptions) Option {
	return func(c *Calculator) { c.billable = b }
}

func WithClock(clock generic.Clock) Option { return func(c *Calculator) { c.clock = clock } }

func WithLogger(l *zap.Logger) Option { return func(c *Calculator) { c.logger = l } }

// NewCalculator uses the default work, cost and billable configuration
// unless overridden.
func NewCalculator(store generic.TxStore, resolver RateResolver, opts ...Option) *Calculator {
	c := &Calculator{
		store:    store,
		resolver: resolver,
		work:     costmodel.DefaultWorkConfiguration(),
		cost:     costmodel.DefaultCostConfiguration(),
		billable: costmodel.DefaultBillableOptions(),
		clock:    generic.SystemClock{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request identifies the pair to price.
type Request struct {
	ApprenticeID   generic.ApprenticeID
	HostEmployerID generic.HostEmployerID
	MarginOverride *decimal.Decimal

	// Year is the calendar year rates are resolved for. Zero means the
	// current year.
	Year generic.CalendarYear
}

func (r Request) validate() error {
	if r.ApprenticeID == "" {
		return &generic.ValidationError{Field: "apprentice_id", Reason: "required"}
	}
	if r.HostEmployerID == "" {
		return &generic.ValidationError{Field: "host_employer_id", Reason: "required"}
	}
	if r.MarginOverride != nil && r.MarginOverride.IsNegative() {
		return &generic.ConfigurationError{Field: "margin", Reason: "must not be negative"}
	}
	if r.Year < 0 {
		return &generic.ValidationError{Field: "year", Reason: "must not be negative"}
	}
	return nil
}

// CalculateAndPersist prices the pair and stores an unapproved record.
func (c *Calculator) CalculateAndPersist(ctx context.Context, req Request) (*generic.ChargeRateCalculation, error) {
	rec, err := c.calculate(ctx, c.store, req)
	if err != nil {
		return nil, err
	}
	if err := c.store.InsertCalculation(ctx, *rec); err != nil {
		return nil, fmt.Errorf("failed to save calculation: %w", err)
	}
	c.logger.Info("charge rate calculated",
		zap.String("calculation_id", string(rec.ID)),
		zap.String("apprentice_id", string(rec.ApprenticeID)),
		zap.String("host_employer_id", string(rec.HostEmployerID)),
		zap.String("rate_source", string(rec.RateSource)),
		zap.String("charge_rate", generic.RoundCurrency(rec.Result.ChargeRate).String()),
	)
	return rec, nil
}

// calculate builds a record without writing it.
func (c *Calculator) calculate(ctx context.Context, repos generic.Repositories, req Request) (*generic.ChargeRateCalculation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	apprentice, err := repos.GetApprentice(ctx, req.ApprenticeID)
	if err != nil {
		return nil, err
	}
	host, err := repos.GetHostEmployer(ctx, req.HostEmployerID)
	if err != nil {
		return nil, err
	}
	placement, err := repos.FindActivePlacement(ctx, apprentice.ID, host.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find placement: %w", err)
	}

	now := c.clock.Now()
	year := req.Year
	if year == 0 {
		year = generic.CalendarYear(now.Year())
	}

	awardID := apprentice.TrainingContractAwardID
	if placement != nil && placement.AwardID != nil {
		awardID = placement.AwardID
	}

	resolution := ratesource.DefaultResolution("", generic.CalendarToFinancialYear(year))
	var rules []generic.PenaltyRule
	if awardID != nil {
		award, err := repos.GetAward(ctx, *awardID)
		if err != nil {
			return nil, err
		}
		resolution, err = c.resolver.ResolveApprenticeRate(ctx, award.Code, year, ratesource.AttributesOf(*apprentice))
		if err != nil {
			return nil, err
		}
		rules, err = repos.GetPenaltyRules(ctx, *awardID)
		if err != nil {
			return nil, err
		}
		if rules == nil {
			rules = []generic.PenaltyRule{}
		}
	}

	payRate := resolution.Rate
	source := generic.RateSourceName(resolution.Source)
	if placement != nil && placement.NegotiatedRate != nil {
		payRate = *placement.NegotiatedRate
		source = SourceNegotiated
	}

	cost := c.cost
	if host.AdminRateOverride != nil {
		cost.AdminRate = *host.AdminRateOverride
	}
	margin := cost.DefaultMargin
	switch {
	case req.MarginOverride != nil:
		margin = *req.MarginOverride
	case host.MarginOverride != nil:
		margin = *host.MarginOverride
	}

	result, err := costmodel.Compute(costmodel.Input{
		PayRate:      payRate,
		Work:         c.work,
		Cost:         cost,
		Billable:     c.billable,
		Margin:       margin,
		PenaltyRules: rules,
	})
	if err != nil {
		return nil, err
	}

	rec := &generic.ChargeRateCalculation{
		ID:             generic.CalculationID(uuid.NewString()),
		ApprenticeID:   apprentice.ID,
		HostEmployerID: host.ID,
		AwardID:        awardID,
		RateSource:     source,
		Result:         result,
		Margin:         margin,
		WeeklyHours:    c.work.WeeklyHours(),
		CalculatedAt:   now,
	}
	if placement != nil {
		id := placement.ID
		rec.PlacementID = &id
	}
	return rec, nil
}

// =============================================================================
// READS
// =============================================================================

func (c *Calculator) GetCalculation(ctx context.Context, id generic.CalculationID) (*generic.ChargeRateCalculation, error) {
	return c.store.GetCalculation(ctx, id)
}

// ListCalculations returns an apprentice's calculations, newest first.
func (c *Calculator) ListCalculations(ctx context.Context, apprenticeID generic.ApprenticeID) ([]generic.ChargeRateCalculation, error) {
	if _, err := c.store.GetApprentice(ctx, apprenticeID); err != nil {
		return nil, err
	}
	return c.store.ListCalculations(ctx, apprenticeID)
}

// =============================================================================
// APPROVAL
// =============================================================================

// Approve marks a calculation approved and copies its charge rate, rounded to
// cents, onto the pair's active placement if there is one.
func (c *Calculator) Approve(ctx context.Context, id generic.CalculationID, approverID string) (*generic.ChargeRateCalculation, error) {
	if approverID == "" {
		return nil, &generic.ValidationError{Field: "approver_id", Reason: "required"}
	}

	var approved *generic.ChargeRateCalculation
	var placementID *generic.PlacementID
	err := c.store.WithTx(ctx, func(repos generic.Repositories) error {
		rec, err := repos.GetCalculation(ctx, id)
		if err != nil {
			return err
		}
		if rec.Approved {
			return fmt.Errorf("calculation %s approved by %s: %w", id, rec.ApprovedBy, generic.ErrAlreadyApproved)
		}

		if err := repos.MarkApproved(ctx, id, approverID, c.clock.Now()); err != nil {
			return fmt.Errorf("failed to mark approved: %w", err)
		}

		placement, err := repos.FindActivePlacement(ctx, rec.ApprenticeID, rec.HostEmployerID)
		if err != nil {
			return fmt.Errorf("failed to find placement: %w", err)
		}
		if placement != nil {
			if err := repos.UpdateChargeRate(ctx, placement.ID, generic.RoundCurrency(rec.Result.ChargeRate)); err != nil {
				return fmt.Errorf("failed to update placement charge rate: %w", err)
			}
			placementID = &placement.ID
		}

		approved, err = repos.GetCalculation(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("calculation_id", string(id)),
		zap.String("approved_by", approverID),
	}
	if placementID != nil {
		fields = append(fields, zap.String("placement_id", string(*placementID)))
	}
	c.logger.Info("charge rate approved", fields...)
	return approved, nil
}

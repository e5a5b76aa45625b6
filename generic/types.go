/*
Package generic provides the domain-agnostic core of the charge rate engine.

PURPOSE:
  This package contains the types every other package speaks: money and
  rate quantities, typed identifiers, the reference entities consumed from
  the surrounding platform (apprentices, host employers, placements, awards)
  and the persisted calculation and quote records.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money / Rate helpers: decimal.Decimal everywhere, never float64
  - Typed IDs: ApprenticeID, HostEmployerID, PlacementID, AwardID, ...
  - Reference entities: Apprentice, HostEmployer, Placement, Award, PenaltyRule
  - Records: ChargeRateCalculation, Quote, QuoteLine

DESIGN PRINCIPLES:
  1. Precision: all currency, hours and rates use decimal.Decimal
  2. Type Safety: strong typing for IDs prevents mixing apprentice/host IDs
  3. Auditability: calculation records keep inputs, margin and approval stamps

SEE ALSO:
  - errors.go: Error taxonomy
  - store.go: Repository interfaces
  - time.go: Financial/calendar year conversion
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// Dec builds a decimal from a float literal. Use only for constants and
// configuration values, never for computed amounts.
func Dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// MustParseDecimal is decimal.RequireFromString for table literals.
func MustParseDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// RoundCurrency rounds to cents using banker's rounding, which is what the
// payroll exports expect.
func RoundCurrency(d decimal.Decimal) decimal.Decimal { return d.RoundBank(2) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ApprenticeID string
type HostEmployerID string
type PlacementID string
type AwardID string
type CalculationID string
type QuoteID string

// =============================================================================
// REFERENCE ENTITIES - owned by the surrounding platform, read-only here
// =============================================================================

// Apprentice carries the attributes that select an award classification.
type Apprentice struct {
	ID                 ApprenticeID
	FirstName          string
	LastName           string
	YearLevel          int // apprenticeship stage, 1-4
	IsAdult            bool
	HasCompletedYear12 bool
	Sector             string // e.g. "residential", "commercial", "civil"

	// TrainingContractAwardID is the award named on the training contract.
	// Used when no active placement carries an award reference.
	TrainingContractAwardID *AwardID
}

// HostEmployer may override the system margin and admin-cost rate.
type HostEmployer struct {
	ID                HostEmployerID
	Name              string
	MarginOverride    *decimal.Decimal
	AdminRateOverride *decimal.Decimal
}

// Placement is an active assignment of an apprentice to a host employer.
type Placement struct {
	ID                PlacementID
	ApprenticeID      ApprenticeID
	HostEmployerID    HostEmployerID
	AwardID           *AwardID
	NegotiatedRate    *decimal.Decimal // hourly pay override, wins over the award
	CurrentChargeRate *decimal.Decimal
	Active            bool
	UpdatedAt         time.Time
}

// Award is a jurisdictional pay instrument, e.g. MA000025.
type Award struct {
	ID   AwardID
	Code string
	Name string
}

// PenaltyType names the time window a penalty rate applies to.
type PenaltyType string

const (
	PenaltyWeekend       PenaltyType = "weekend"
	PenaltyPublicHoliday PenaltyType = "public_holiday"
	PenaltyOvertime      PenaltyType = "overtime"
	PenaltyEvening       PenaltyType = "evening"
	PenaltyNight         PenaltyType = "night"
)

// PenaltyRule is immutable reference data attached to an award.
type PenaltyRule struct {
	Name       string
	Type       PenaltyType
	Multiplier decimal.Decimal // e.g. 1.5 for time-and-a-half
}

// =============================================================================
// CALCULATION RECORD
// =============================================================================

// OnCosts are the annual employment costs on top of base wage.
type OnCosts struct {
	Superannuation decimal.Decimal
	WorkersComp    decimal.Decimal
	PayrollTax     decimal.Decimal
	LeaveLoading   decimal.Decimal
	StudyCost      decimal.Decimal
	PPECost        decimal.Decimal
	AdminCost      decimal.Decimal
}

// Total sums every on-cost component.
func (o OnCosts) Total() decimal.Decimal {
	return decimal.Sum(o.Superannuation, o.WorkersComp, o.PayrollTax,
		o.LeaveLoading, o.StudyCost, o.PPECost, o.AdminCost)
}

// CalculationResult is the output of the cost model. Values are unrounded;
// presentation layers round with RoundCurrency.
type CalculationResult struct {
	PayRate             decimal.Decimal
	TotalAnnualHours    decimal.Decimal
	BillableAnnualHours decimal.Decimal
	BaseWage            decimal.Decimal
	OnCosts             OnCosts
	TotalCost           decimal.Decimal
	CostPerHour         decimal.Decimal
	ChargeRate          decimal.Decimal

	// PenaltyEstimates maps rule name to an informational annual estimate.
	// Nil when no award was resolved.
	PenaltyEstimates map[string]decimal.Decimal
}

// RateSourceName records where the pay rate of a calculation came from.
type RateSourceName string

// ChargeRateCalculation is the persisted, approvable form of a result.
type ChargeRateCalculation struct {
	ID             CalculationID
	ApprenticeID   ApprenticeID
	HostEmployerID HostEmployerID
	PlacementID    *PlacementID
	AwardID        *AwardID
	RateSource     RateSourceName
	Result         CalculationResult
	Margin         decimal.Decimal
	WeeklyHours    decimal.Decimal
	CalculatedAt   time.Time

	// Approval is one-directional.
	Approved   bool
	ApprovedBy string
	ApprovedAt *time.Time
}

// =============================================================================
// QUOTE
// =============================================================================

type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
)

type QuoteLine struct {
	ApprenticeID  ApprenticeID
	CalculationID CalculationID
	WeeklyHours   decimal.Decimal
	ChargeRate    decimal.Decimal
	TotalPrice    decimal.Decimal
}

type Quote struct {
	ID             QuoteID
	HostEmployerID HostEmployerID
	Lines          []QuoteLine
	TotalAmount    decimal.Decimal
	Status         QuoteStatus
	CreatedAt      time.Time
	ValidUntil     time.Time
}

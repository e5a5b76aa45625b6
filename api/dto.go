/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model in generic/ from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Decimal fields marshal as JSON strings ("55.76") so no precision is lost
  in transit. Requests accept either strings or numbers.

TYPES:
  Rates:        RateResolutionDTO
  Cost model:   ComputeRequest, WorkDTO, CostDTO, BillableDTO, CalculationResultDTO
  Penalties:    EstimatePenaltiesRequest, PenaltyRuleDTO
  Calculations: CreateCalculationRequest, ApproveRequest, CalculationDTO
  Quotes:       CreateQuoteRequest, QuoteDTO, QuoteLineDTO
  Scenarios:    ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/charge-rate-engine/costmodel"
	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/ratesource"
)

// =============================================================================
// RATE RESOLUTION
// =============================================================================

type RateResolutionDTO struct {
	Rate           decimal.Decimal `json:"rate"`
	Source         string          `json:"source"`
	Fallback       bool            `json:"fallback"`
	AwardCode      string          `json:"award_code"`
	Classification string          `json:"classification,omitempty"`
	FinancialYear  int             `json:"financial_year"`
	EffectiveYear  int             `json:"effective_year"`
}

func toRateResolutionDTO(r ratesource.Resolution) RateResolutionDTO {
	return RateResolutionDTO{
		Rate:           r.Rate,
		Source:         string(r.Source),
		Fallback:       r.Source.IsFallback(),
		AwardCode:      r.AwardCode,
		Classification: r.Classification,
		FinancialYear:  int(r.FinancialYear),
		EffectiveYear:  int(r.EffectiveYear),
	}
}

// =============================================================================
// COST MODEL
// =============================================================================

// WorkDTO overrides individual fields of the default work pattern.
type WorkDTO struct {
	HoursPerDay     *decimal.Decimal `json:"hours_per_day,omitempty"`
	DaysPerWeek     *decimal.Decimal `json:"days_per_week,omitempty"`
	WeeksPerYear    *decimal.Decimal `json:"weeks_per_year,omitempty"`
	AnnualLeaveDays *decimal.Decimal `json:"annual_leave_days,omitempty"`
	PublicHolidays  *decimal.Decimal `json:"public_holidays,omitempty"`
	SickLeaveDays   *decimal.Decimal `json:"sick_leave_days,omitempty"`
	TrainingWeeks   *decimal.Decimal `json:"training_weeks,omitempty"`
}

func (d *WorkDTO) apply(w costmodel.WorkConfiguration) costmodel.WorkConfiguration {
	if d == nil {
		return w
	}
	override(&w.HoursPerDay, d.HoursPerDay)
	override(&w.DaysPerWeek, d.DaysPerWeek)
	override(&w.WeeksPerYear, d.WeeksPerYear)
	override(&w.AnnualLeaveDays, d.AnnualLeaveDays)
	override(&w.PublicHolidays, d.PublicHolidays)
	override(&w.SickLeaveDays, d.SickLeaveDays)
	override(&w.TrainingWeeks, d.TrainingWeeks)
	return w
}

// CostDTO overrides individual fields of the default cost configuration.
type CostDTO struct {
	SuperannuationRate *decimal.Decimal `json:"superannuation_rate,omitempty"`
	WorkersCompRate    *decimal.Decimal `json:"workers_comp_rate,omitempty"`
	PayrollTaxRate     *decimal.Decimal `json:"payroll_tax_rate,omitempty"`
	LeaveLoadingRate   *decimal.Decimal `json:"leave_loading_rate,omitempty"`
	StudyCost          *decimal.Decimal `json:"study_cost,omitempty"`
	PPECost            *decimal.Decimal `json:"ppe_cost,omitempty"`
	AdminRate          *decimal.Decimal `json:"admin_rate,omitempty"`
	DefaultMargin      *decimal.Decimal `json:"default_margin,omitempty"`
	AdverseWeatherDays *decimal.Decimal `json:"adverse_weather_days,omitempty"`
}

func (d *CostDTO) apply(c costmodel.CostConfiguration) costmodel.CostConfiguration {
	if d == nil {
		return c
	}
	override(&c.SuperannuationRate, d.SuperannuationRate)
	override(&c.WorkersCompRate, d.WorkersCompRate)
	override(&c.PayrollTaxRate, d.PayrollTaxRate)
	override(&c.LeaveLoadingRate, d.LeaveLoadingRate)
	override(&c.StudyCost, d.StudyCost)
	override(&c.PPECost, d.PPECost)
	override(&c.AdminRate, d.AdminRate)
	override(&c.DefaultMargin, d.DefaultMargin)
	override(&c.AdverseWeatherDays, d.AdverseWeatherDays)
	return c
}

func override[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// BillableDTO overrides individual flags of the default billable options.
type BillableDTO struct {
	AnnualLeave    *bool `json:"annual_leave,omitempty"`
	PublicHolidays *bool `json:"public_holidays,omitempty"`
	SickLeave      *bool `json:"sick_leave,omitempty"`
	Training       *bool `json:"training,omitempty"`
	AdverseWeather *bool `json:"adverse_weather,omitempty"`
}

func (d *BillableDTO) apply(b costmodel.BillableOptions) costmodel.BillableOptions {
	if d == nil {
		return b
	}
	override(&b.AnnualLeave, d.AnnualLeave)
	override(&b.PublicHolidays, d.PublicHolidays)
	override(&b.SickLeave, d.SickLeave)
	override(&b.Training, d.Training)
	override(&b.AdverseWeather, d.AdverseWeather)
	return b
}

// ComputeRequest runs the cost model directly. Margin defaults to the cost
// configuration's default margin.
type ComputeRequest struct {
	PayRate      decimal.Decimal  `json:"pay_rate"`
	Margin       *decimal.Decimal `json:"margin,omitempty"`
	Work         *WorkDTO         `json:"work,omitempty"`
	Cost         *CostDTO         `json:"cost,omitempty"`
	Billable     *BillableDTO     `json:"billable,omitempty"`
	PenaltyRules []PenaltyRuleDTO `json:"penalty_rules,omitempty"`
}

type OnCostsDTO struct {
	Superannuation decimal.Decimal `json:"superannuation"`
	WorkersComp    decimal.Decimal `json:"workers_comp"`
	PayrollTax     decimal.Decimal `json:"payroll_tax"`
	LeaveLoading   decimal.Decimal `json:"leave_loading"`
	StudyCost      decimal.Decimal `json:"study_cost"`
	PPECost        decimal.Decimal `json:"ppe_cost"`
	AdminCost      decimal.Decimal `json:"admin_cost"`
	Total          decimal.Decimal `json:"total"`
}

// CalculationResultDTO rounds money to cents for display. Hours are exact.
type CalculationResultDTO struct {
	PayRate             decimal.Decimal            `json:"pay_rate"`
	TotalAnnualHours    decimal.Decimal            `json:"total_annual_hours"`
	BillableAnnualHours decimal.Decimal            `json:"billable_annual_hours"`
	BaseWage            decimal.Decimal            `json:"base_wage"`
	OnCosts             OnCostsDTO                 `json:"on_costs"`
	TotalCost           decimal.Decimal            `json:"total_cost"`
	CostPerHour         decimal.Decimal            `json:"cost_per_hour"`
	ChargeRate          decimal.Decimal            `json:"charge_rate"`
	PenaltyEstimates    map[string]decimal.Decimal `json:"penalty_estimates,omitempty"`
}

func toCalculationResultDTO(r generic.CalculationResult) CalculationResultDTO {
	round := generic.RoundCurrency
	dto := CalculationResultDTO{
		PayRate:             r.PayRate,
		TotalAnnualHours:    r.TotalAnnualHours,
		BillableAnnualHours: r.BillableAnnualHours,
		BaseWage:            round(r.BaseWage),
		OnCosts: OnCostsDTO{
			Superannuation: round(r.OnCosts.Superannuation),
			WorkersComp:    round(r.OnCosts.WorkersComp),
			PayrollTax:     round(r.OnCosts.PayrollTax),
			LeaveLoading:   round(r.OnCosts.LeaveLoading),
			StudyCost:      round(r.OnCosts.StudyCost),
			PPECost:        round(r.OnCosts.PPECost),
			AdminCost:      round(r.OnCosts.AdminCost),
			Total:          round(r.OnCosts.Total()),
		},
		TotalCost:   round(r.TotalCost),
		CostPerHour: round(r.CostPerHour),
		ChargeRate:  round(r.ChargeRate),
	}
	if r.PenaltyEstimates != nil {
		dto.PenaltyEstimates = make(map[string]decimal.Decimal, len(r.PenaltyEstimates))
		for name, v := range r.PenaltyEstimates {
			dto.PenaltyEstimates[name] = round(v)
		}
	}
	return dto
}

// =============================================================================
// PENALTIES
// =============================================================================

type PenaltyRuleDTO struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

func toPenaltyRules(dtos []PenaltyRuleDTO) []generic.PenaltyRule {
	if dtos == nil {
		return nil
	}
	rules := make([]generic.PenaltyRule, len(dtos))
	for i, d := range dtos {
		rules[i] = generic.PenaltyRule{Name: d.Name, Type: generic.PenaltyType(d.Type), Multiplier: d.Multiplier}
	}
	return rules
}

// EstimatePenaltiesRequest takes rules inline or from a stored award.
// Inline rules win when both are given.
type EstimatePenaltiesRequest struct {
	PayRate decimal.Decimal  `json:"pay_rate"`
	AwardID string           `json:"award_id,omitempty"`
	Rules   []PenaltyRuleDTO `json:"rules,omitempty"`
}

type PenaltyEstimatesDTO struct {
	PayRate   decimal.Decimal            `json:"pay_rate"`
	Estimates map[string]decimal.Decimal `json:"estimates"`
}

// =============================================================================
// CALCULATIONS
// =============================================================================

type CreateCalculationRequest struct {
	ApprenticeID   string           `json:"apprentice_id"`
	HostEmployerID string           `json:"host_employer_id"`
	Margin         *decimal.Decimal `json:"margin,omitempty"`
	Year           int              `json:"year,omitempty"`
}

type ApproveRequest struct {
	ApproverID string `json:"approver_id"`
}

type CalculationDTO struct {
	ID             string               `json:"id"`
	ApprenticeID   string               `json:"apprentice_id"`
	HostEmployerID string               `json:"host_employer_id"`
	PlacementID    *string              `json:"placement_id,omitempty"`
	AwardID        *string              `json:"award_id,omitempty"`
	RateSource     string               `json:"rate_source"`
	Margin         decimal.Decimal      `json:"margin"`
	WeeklyHours    decimal.Decimal      `json:"weekly_hours"`
	Result         CalculationResultDTO `json:"result"`
	CalculatedAt   string               `json:"calculated_at"`
	Approved       bool                 `json:"approved"`
	ApprovedBy     string               `json:"approved_by,omitempty"`
	ApprovedAt     string               `json:"approved_at,omitempty"`
}

func toCalculationDTO(rec *generic.ChargeRateCalculation) CalculationDTO {
	dto := CalculationDTO{
		ID:             string(rec.ID),
		ApprenticeID:   string(rec.ApprenticeID),
		HostEmployerID: string(rec.HostEmployerID),
		RateSource:     string(rec.RateSource),
		Margin:         rec.Margin,
		WeeklyHours:    rec.WeeklyHours,
		Result:         toCalculationResultDTO(rec.Result),
		CalculatedAt:   rec.CalculatedAt.Format(time.RFC3339),
		Approved:       rec.Approved,
		ApprovedBy:     rec.ApprovedBy,
	}
	if rec.PlacementID != nil {
		dto.PlacementID = strPtr(string(*rec.PlacementID))
	}
	if rec.AwardID != nil {
		dto.AwardID = strPtr(string(*rec.AwardID))
	}
	if rec.ApprovedAt != nil {
		dto.ApprovedAt = rec.ApprovedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// QUOTES
// =============================================================================

type CreateQuoteRequest struct {
	HostEmployerID string           `json:"host_employer_id"`
	ApprenticeIDs  []string         `json:"apprentice_ids"`
	Margin         *decimal.Decimal `json:"margin,omitempty"`
	Year           int              `json:"year,omitempty"`
}

type QuoteLineDTO struct {
	ApprenticeID  string          `json:"apprentice_id"`
	CalculationID string          `json:"calculation_id"`
	WeeklyHours   decimal.Decimal `json:"weekly_hours"`
	ChargeRate    decimal.Decimal `json:"charge_rate"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type QuoteDTO struct {
	ID             string          `json:"id"`
	HostEmployerID string          `json:"host_employer_id"`
	Lines          []QuoteLineDTO  `json:"lines"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         string          `json:"status"`
	CreatedAt      string          `json:"created_at"`
	ValidUntil     string          `json:"valid_until"`
}

func toQuoteDTO(q *generic.Quote) QuoteDTO {
	lines := make([]QuoteLineDTO, len(q.Lines))
	for i, l := range q.Lines {
		lines[i] = QuoteLineDTO{
			ApprenticeID:  string(l.ApprenticeID),
			CalculationID: string(l.CalculationID),
			WeeklyHours:   l.WeeklyHours,
			ChargeRate:    l.ChargeRate,
			TotalPrice:    l.TotalPrice,
		}
	}
	return QuoteDTO{
		ID:             string(q.ID),
		HostEmployerID: string(q.HostEmployerID),
		Lines:          lines,
		TotalAmount:    q.TotalAmount,
		Status:         string(q.Status),
		CreatedAt:      q.CreatedAt.Format(time.RFC3339),
		ValidUntil:     q.ValidUntil.Format(time.RFC3339),
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func strPtr(s string) *string {
	return &s
}

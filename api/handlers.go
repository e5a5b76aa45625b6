/*
handlers.go - HTTP API handlers for the charge rate engine

PURPOSE:
  Exposes rate resolution, the cost model, penalty estimates, calculation
  records and quotes over REST. Handles HTTP request/response and JSON
  serialization, and delegates to ratesource/, costmodel/, penalty/ and
  chargerate/.

ENDPOINTS:
  Rates:
    GET    /api/rates/resolve                   Resolve an apprentice pay rate
    POST   /api/charge-rates/compute            Run the cost model directly
    POST   /api/penalties/estimate              Penalty estimates for a pay rate

  Calculations:
    POST   /api/calculations                    Calculate and persist
    GET    /api/calculations/{id}               Fetch a record
    POST   /api/calculations/{id}/approve       Approve, update the placement
    GET    /api/apprentices/{id}/calculations   Records for an apprentice

  Quotes:
    POST   /api/quotes                          Generate a draft quote
    GET    /api/quotes/{id}                     Fetch a quote

  Scenarios (scenarios.go):
    GET    /api/scenarios                       List demo scenarios
    POST   /api/scenarios/load                  Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with a status derived from the error category:
  - 400: ValidationError, malformed body or query
  - 404: NotFoundError
  - 409: ErrAlreadyApproved
  - 422: ConfigurationError (impossible cost model, malformed award code)
  - 500: everything else

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/warp/charge-rate-engine/chargerate"
	"github.com/warp/charge-rate-engine/costmodel"
	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/penalty"
	"github.com/warp/charge-rate-engine/ratesource"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is what the handlers need from persistence: the repositories the
// calculator reads and writes, plus seeding for demo scenarios.
type Store interface {
	generic.TxStore
	generic.Seeder
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      Store
	Calculator *chargerate.Calculator
	Resolver   chargerate.RateResolver

	work     costmodel.WorkConfiguration
	cost     costmodel.CostConfiguration
	billable costmodel.BillableOptions
	year     generic.CalendarYear
	clock    generic.Clock
	logger   *zap.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

type Option func(*Handler)

// WithDefaults sets the cost model used by /api/charge-rates/compute. It
// should match the configuration the Calculator was built with.
func WithDefaults(w costmodel.WorkConfiguration, c costmodel.CostConfiguration, b costmodel.BillableOptions) Option {
	return func(h *Handler) {
		h.work = w
		h.cost = c
		h.billable = b
	}
}

// WithCalendarYear pins the year used when a request names none.
func WithCalendarYear(y generic.CalendarYear) Option { return func(h *Handler) { h.year = y } }

func WithClock(c generic.Clock) Option { return func(h *Handler) { h.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(h *Handler) { h.logger = l } }

// NewHandler creates a new handler.
func NewHandler(store Store, calc *chargerate.Calculator, resolver chargerate.RateResolver, opts ...Option) *Handler {
	h := &Handler{
		Store:      store,
		Calculator: calc,
		Resolver:   resolver,
		work:       costmodel.DefaultWorkConfiguration(),
		cost:       costmodel.DefaultCostConfiguration(),
		billable:   costmodel.DefaultBillableOptions(),
		clock:      generic.SystemClock{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// requestYear resolves a zero year to the pinned year, then to the clock.
func (h *Handler) requestYear(y int) generic.CalendarYear {
	if y != 0 {
		return generic.CalendarYear(y)
	}
	if h.year != 0 {
		return h.year
	}
	return generic.CalendarYear(h.clock.Now().Year())
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

// ResolveRate resolves an apprentice pay rate through the fallback cascade.
//
//	GET /api/rates/resolve?award_code=MA000025&year=2025&year_level=2&adult=false&year12=true&sector=commercial
func (h *Handler) ResolveRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	awardCode := q.Get("award_code")
	if awardCode == "" {
		writeError(w, http.StatusBadRequest, "award_code is required", nil)
		return
	}

	year, err := intParam(q.Get("year"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	level, err := intParam(q.Get("year_level"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year_level", err)
		return
	}
	adult, err := boolParam(q.Get("adult"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid adult flag", err)
		return
	}
	year12, err := boolParam(q.Get("year12"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year12 flag", err)
		return
	}

	res, err := h.Resolver.ResolveApprenticeRate(r.Context(), awardCode, h.requestYear(year), ratesource.Attributes{
		YearLevel:          level,
		IsAdult:            adult,
		HasCompletedYear12: year12,
		Sector:             q.Get("sector"),
	})
	if err != nil {
		writeDomainError(w, "Failed to resolve rate", err)
		return
	}

	writeJSON(w, http.StatusOK, toRateResolutionDTO(res))
}

// ComputeChargeRate runs the cost model on the request's pay rate. Config
// blocks in the body override the server defaults field by field.
func (h *Handler) ComputeChargeRate(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cost := req.Cost.apply(h.cost)
	margin := cost.DefaultMargin
	if req.Margin != nil {
		margin = *req.Margin
	}

	result, err := costmodel.Compute(costmodel.Input{
		PayRate:      req.PayRate,
		Work:         req.Work.apply(h.work),
		Cost:         cost,
		Billable:     req.Billable.apply(h.billable),
		Margin:       margin,
		PenaltyRules: toPenaltyRules(req.PenaltyRules),
	})
	if err != nil {
		writeDomainError(w, "Failed to compute charge rate", err)
		return
	}

	writeJSON(w, http.StatusOK, toCalculationResultDTO(result))
}

// EstimatePenalties returns informational penalty estimates.
func (h *Handler) EstimatePenalties(w http.ResponseWriter, r *http.Request) {
	var req EstimatePenaltiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rules := toPenaltyRules(req.Rules)
	if rules == nil && req.AwardID != "" {
		stored, err := h.Store.GetPenaltyRules(r.Context(), generic.AwardID(req.AwardID))
		if err != nil {
			writeDomainError(w, "Failed to load penalty rules", err)
			return
		}
		rules = stored
	}

	estimates, err := penalty.Estimate(req.PayRate, rules)
	if err != nil {
		writeDomainError(w, "Failed to estimate penalties", err)
		return
	}

	writeJSON(w, http.StatusOK, PenaltyEstimatesDTO{PayRate: req.PayRate, Estimates: estimates})
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// CreateCalculation prices an apprentice for a host and stores the record.
func (h *Handler) CreateCalculation(w http.ResponseWriter, r *http.Request) {
	var req CreateCalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Calculator.CalculateAndPersist(r.Context(), chargerate.Request{
		ApprenticeID:   generic.ApprenticeID(req.ApprenticeID),
		HostEmployerID: generic.HostEmployerID(req.HostEmployerID),
		MarginOverride: req.Margin,
		Year:           h.requestYear(req.Year),
	})
	if err != nil {
		writeDomainError(w, "Failed to calculate charge rate", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCalculationDTO(rec))
}

// GetCalculation returns a single record.
func (h *Handler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.Calculator.GetCalculation(r.Context(), generic.CalculationID(id))
	if err != nil {
		writeDomainError(w, "Failed to get calculation", err)
		return
	}

	writeJSON(w, http.StatusOK, toCalculationDTO(rec))
}

// ApproveCalculation approves a record. A second approval is a 409.
func (h *Handler) ApproveCalculation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Calculator.Approve(r.Context(), generic.CalculationID(id), req.ApproverID)
	if err != nil {
		writeDomainError(w, "Failed to approve calculation", err)
		return
	}

	writeJSON(w, http.StatusOK, toCalculationDTO(rec))
}

// ListCalculations returns an apprentice's records, newest first.
func (h *Handler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	recs, err := h.Calculator.ListCalculations(r.Context(), generic.ApprenticeID(id))
	if err != nil {
		writeDomainError(w, "Failed to list calculations", err)
		return
	}

	dtos := make([]CalculationDTO, len(recs))
	for i := range recs {
		dtos[i] = toCalculationDTO(&recs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// QUOTE HANDLERS
// =============================================================================

// CreateQuote prices every apprentice and stores a draft quote.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ids := make([]generic.ApprenticeID, len(req.ApprenticeIDs))
	for i, id := range req.ApprenticeIDs {
		ids[i] = generic.ApprenticeID(id)
	}

	q, err := h.Calculator.GenerateQuote(r.Context(), chargerate.QuoteRequest{
		HostEmployerID: generic.HostEmployerID(req.HostEmployerID),
		ApprenticeIDs:  ids,
		MarginOverride: req.Margin,
		Year:           h.requestYear(req.Year),
	})
	if err != nil {
		writeDomainError(w, "Failed to generate quote", err)
		return
	}

	writeJSON(w, http.StatusCreated, toQuoteDTO(q))
}

// GetQuote returns a stored quote with its lines.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	q, err := h.Calculator.GetQuote(r.Context(), generic.QuoteID(id))
	if err != nil {
		writeDomainError(w, "Failed to get quote", err)
		return
	}

	writeJSON(w, http.StatusOK, toQuoteDTO(q))
}

// =============================================================================
// HELPERS
// =============================================================================

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generic.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, generic.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case generic.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func boolParam(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

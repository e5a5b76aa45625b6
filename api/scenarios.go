/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	reference data: awards with penalty rules, host employers with and
	without overrides, apprentices at different stages and their placements.

AVAILABLE SCENARIOS:

	electrical-crew:  Electrical award, two apprentices, default margin
	building-sectors: Building award, residential/commercial/civil sectors,
	                  host with margin and admin overrides
	negotiated-rate:  Placement with a negotiated hourly rate
	mixed-awards:     Training-contract award, manufacturing, no award at all

HOW SCENARIOS WORK:
 1. Reset the store (reference data and records)
 2. Save awards with their penalty rules
 3. Save host employers
 4. Save apprentices
 5. Save active placements

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "building-sectors"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, s)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the store. Only use in development/demo environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/ratesource"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "electrical-crew",
		Name:        "Electrical Crew",
		Description: "Electrical award with weekend and holiday penalties, 1st and 3rd year apprentices",
		Category:    "award",
	},
	{
		ID:          "building-sectors",
		Name:        "Building Sectors",
		Description: "Residential, commercial and civil apprentices; host pays 20% margin and 12% admin",
		Category:    "award",
	},
	{
		ID:          "negotiated-rate",
		Name:        "Negotiated Rate",
		Description: "Plumbing placement with a negotiated $24.50 hourly rate",
		Category:    "placement",
	},
	{
		ID:          "mixed-awards",
		Name:        "Mixed Awards",
		Description: "Award from the training contract, manufacturing, and an apprentice with no award",
		Category:    "fallback",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads the named scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context, generic.Seeder) error
	switch req.ScenarioID {
	case "electrical-crew":
		load = loadElectricalCrewScenario
	case "building-sectors":
		load = loadBuildingSectorsScenario
	case "negotiated-rate":
		load = loadNegotiatedRateScenario
	case "mixed-awards":
		load = loadMixedAwardsScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx, h.Store); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase deletes all reference data and records.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func rate(s string) *decimal.Decimal {
	d := generic.MustParseDecimal(s)
	return &d
}

func awardID(id string) *generic.AwardID {
	a := generic.AwardID(id)
	return &a
}

// seed saves everything in dependency order and stops at the first error.
type seed struct {
	awards      []generic.Award
	rules       map[generic.AwardID][]generic.PenaltyRule
	hosts       []generic.HostEmployer
	apprentices []generic.Apprentice
	placements  []generic.Placement
}

func (sd seed) apply(ctx context.Context, s generic.Seeder) error {
	for _, a := range sd.awards {
		if err := s.SaveAward(ctx, a, sd.rules[a.ID]); err != nil {
			return fmt.Errorf("award %s: %w", a.ID, err)
		}
	}
	for _, h := range sd.hosts {
		if err := s.SaveHostEmployer(ctx, h); err != nil {
			return fmt.Errorf("host employer %s: %w", h.ID, err)
		}
	}
	for _, a := range sd.apprentices {
		if err := s.SaveApprentice(ctx, a); err != nil {
			return fmt.Errorf("apprentice %s: %w", a.ID, err)
		}
	}
	for _, p := range sd.placements {
		if err := s.SavePlacement(ctx, p); err != nil {
			return fmt.Errorf("placement %s: %w", p.ID, err)
		}
	}
	return nil
}

func loadElectricalCrewScenario(ctx context.Context, s generic.Seeder) error {
	return seed{
		awards: []generic.Award{
			{ID: "award-elec", Code: ratesource.AwardElectrical, Name: "Electrical, Electronic and Communications Contracting Award"},
		},
		rules: map[generic.AwardID][]generic.PenaltyRule{
			"award-elec": {
				{Name: "Saturday", Type: generic.PenaltyWeekend, Multiplier: *rate("1.5")},
				{Name: "Sunday", Type: generic.PenaltyWeekend, Multiplier: *rate("2.0")},
				{Name: "Public holiday", Type: generic.PenaltyPublicHoliday, Multiplier: *rate("2.5")},
				{Name: "Overtime", Type: generic.PenaltyOvertime, Multiplier: *rate("1.5")},
			},
		},
		hosts: []generic.HostEmployer{
			{ID: "host-sparks", Name: "Sparks Electrical Pty Ltd"},
		},
		apprentices: []generic.Apprentice{
			{ID: "appr-jordan", FirstName: "Jordan", LastName: "Lee", YearLevel: 1, HasCompletedYear12: true},
			{ID: "appr-priya", FirstName: "Priya", LastName: "Nair", YearLevel: 3, IsAdult: true},
		},
		placements: []generic.Placement{
			{ID: "pl-jordan", ApprenticeID: "appr-jordan", HostEmployerID: "host-sparks", AwardID: awardID("award-elec"), Active: true},
			{ID: "pl-priya", ApprenticeID: "appr-priya", HostEmployerID: "host-sparks", AwardID: awardID("award-elec"), Active: true},
		},
	}.apply(ctx, s)
}

func loadBuildingSectorsScenario(ctx context.Context, s generic.Seeder) error {
	return seed{
		awards: []generic.Award{
			{ID: "award-build", Code: ratesource.AwardBuilding, Name: "Building and Construction General On-site Award"},
		},
		rules: map[generic.AwardID][]generic.PenaltyRule{
			"award-build": {
				{Name: "Weekend", Type: generic.PenaltyWeekend, Multiplier: *rate("1.5")},
				{Name: "Night shift", Type: generic.PenaltyNight, Multiplier: *rate("1.3")},
			},
		},
		hosts: []generic.HostEmployer{
			{ID: "host-buildco", Name: "BuildCo Constructions", MarginOverride: rate("0.20"), AdminRateOverride: rate("0.12")},
		},
		apprentices: []generic.Apprentice{
			{ID: "appr-res", FirstName: "Riley", LastName: "Tran", YearLevel: 2, Sector: "residential"},
			{ID: "appr-com", FirstName: "Morgan", LastName: "Hughes", YearLevel: 2, Sector: "commercial"},
			{ID: "appr-civ", FirstName: "Ash", LastName: "Kelly", YearLevel: 1, Sector: "civil"},
		},
		placements: []generic.Placement{
			{ID: "pl-res", ApprenticeID: "appr-res", HostEmployerID: "host-buildco", AwardID: awardID("award-build"), Active: true},
			{ID: "pl-com", ApprenticeID: "appr-com", HostEmployerID: "host-buildco", AwardID: awardID("award-build"), Active: true},
			{ID: "pl-civ", ApprenticeID: "appr-civ", HostEmployerID: "host-buildco", AwardID: awardID("award-build"), Active: true},
		},
	}.apply(ctx, s)
}

func loadNegotiatedRateScenario(ctx context.Context, s generic.Seeder) error {
	return seed{
		awards: []generic.Award{
			{ID: "award-plumb", Code: ratesource.AwardPlumbing, Name: "Plumbing and Fire Sprinklers Award"},
		},
		rules: map[generic.AwardID][]generic.PenaltyRule{
			"award-plumb": {
				{Name: "Weekend", Type: generic.PenaltyWeekend, Multiplier: *rate("1.5")},
				{Name: "Evening", Type: generic.PenaltyEvening, Multiplier: *rate("1.15")},
			},
		},
		hosts: []generic.HostEmployer{
			{ID: "host-flow", Name: "Flow Plumbing Services", MarginOverride: rate("0.18")},
		},
		apprentices: []generic.Apprentice{
			{ID: "appr-casey", FirstName: "Casey", LastName: "Brown", YearLevel: 2},
		},
		placements: []generic.Placement{
			{
				ID: "pl-casey", ApprenticeID: "appr-casey", HostEmployerID: "host-flow",
				AwardID: awardID("award-plumb"), NegotiatedRate: rate("24.50"), Active: true,
			},
		},
	}.apply(ctx, s)
}

func loadMixedAwardsScenario(ctx context.Context, s generic.Seeder) error {
	return seed{
		awards: []generic.Award{
			{ID: "award-hair", Code: ratesource.AwardHairBeauty, Name: "Hair and Beauty Industry Award"},
			{ID: "award-manu", Code: ratesource.AwardManufacturing, Name: "Manufacturing and Associated Industries Award"},
		},
		rules: map[generic.AwardID][]generic.PenaltyRule{
			"award-hair": {
				{Name: "Saturday", Type: generic.PenaltyWeekend, Multiplier: *rate("1.33")},
			},
		},
		hosts: []generic.HostEmployer{
			{ID: "host-mixed", Name: "Regional Group Host"},
		},
		apprentices: []generic.Apprentice{
			// award comes from the training contract; the placement names none
			{ID: "appr-sky", FirstName: "Sky", LastName: "Parker", YearLevel: 2, TrainingContractAwardID: awardID("award-hair")},
			{ID: "appr-drew", FirstName: "Drew", LastName: "Wilson", YearLevel: 4},
			{ID: "appr-noa", FirstName: "Noa", LastName: "Singh", YearLevel: 1},
		},
		placements: []generic.Placement{
			{ID: "pl-sky", ApprenticeID: "appr-sky", HostEmployerID: "host-mixed", Active: true},
			{ID: "pl-drew", ApprenticeID: "appr-drew", HostEmployerID: "host-mixed", AwardID: awardID("award-manu"), Active: true},
			{ID: "pl-noa", ApprenticeID: "appr-noa", HostEmployerID: "host-mixed", Active: true},
		},
	}.apply(ctx, s)
}

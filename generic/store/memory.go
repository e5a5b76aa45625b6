// Package store provides in-memory repository implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/charge-rate-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements generic.TxStore. Records are copied on the way in and
// out so callers can't mutate stored state.
type Memory struct {
	mu    sync.RWMutex
	state memoryState
	clock generic.Clock
}

type memoryState struct {
	apprentices  map[generic.ApprenticeID]generic.Apprentice
	hosts        map[generic.HostEmployerID]generic.HostEmployer
	placements   map[generic.PlacementID]generic.Placement
	awards       map[generic.AwardID]generic.Award
	penaltyRules map[generic.AwardID][]generic.PenaltyRule
	calculations map[generic.CalculationID]generic.ChargeRateCalculation
	quotes       map[generic.QuoteID]generic.Quote
}

var (
	_ generic.TxStore = (*Memory)(nil)
	_ generic.Seeder  = (*Memory)(nil)
)

type MemoryOption func(*Memory)

// WithClock sets the clock stamped on placement updates.
func WithClock(c generic.Clock) MemoryOption { return func(m *Memory) { m.clock = c } }

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{state: newMemoryState(), clock: generic.SystemClock{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newMemoryState() memoryState {
	return memoryState{
		apprentices:  make(map[generic.ApprenticeID]generic.Apprentice),
		hosts:        make(map[generic.HostEmployerID]generic.HostEmployer),
		placements:   make(map[generic.PlacementID]generic.Placement),
		awards:       make(map[generic.AwardID]generic.Award),
		penaltyRules: make(map[generic.AwardID][]generic.PenaltyRule),
		calculations: make(map[generic.CalculationID]generic.ChargeRateCalculation),
		quotes:       make(map[generic.QuoteID]generic.Quote),
	}
}

// =============================================================================
// SEEDING - platform-owned data, written by scenarios and tests
// =============================================================================

func (m *Memory) SaveApprentice(_ context.Context, a generic.Apprentice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.apprentices[a.ID] = a
	return nil
}

func (m *Memory) SaveHostEmployer(_ context.Context, h generic.HostEmployer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.hosts[h.ID] = h
	return nil
}

func (m *Memory) SavePlacement(_ context.Context, p generic.Placement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.placements[p.ID] = p
	return nil
}

func (m *Memory) SaveAward(_ context.Context, a generic.Award, rules []generic.PenaltyRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.awards[a.ID] = a
	m.state.penaltyRules[a.ID] = append([]generic.PenaltyRule(nil), rules...)
	return nil
}

// GetPlacement is used by tests to observe approval side effects.
func (m *Memory) GetPlacement(_ context.Context, id generic.PlacementID) (*generic.Placement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.state.placements[id]
	if !ok {
		return nil, generic.NewNotFound("placement", id)
	}
	return &p, nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = newMemoryState()
	return nil
}

// =============================================================================
// generic.Repositories (locking wrappers)
// =============================================================================

func (m *Memory) GetApprentice(ctx context.Context, id generic.ApprenticeID) (*generic.Apprentice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetApprentice(ctx, id)
}

func (m *Memory) GetHostEmployer(ctx context.Context, id generic.HostEmployerID) (*generic.HostEmployer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetHostEmployer(ctx, id)
}

func (m *Memory) FindActivePlacement(ctx context.Context, apprenticeID generic.ApprenticeID, hostID generic.HostEmployerID) (*generic.Placement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().FindActivePlacement(ctx, apprenticeID, hostID)
}

func (m *Memory) UpdateChargeRate(ctx context.Context, id generic.PlacementID, rate decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().UpdateChargeRate(ctx, id, rate)
}

func (m *Memory) GetAward(ctx context.Context, id generic.AwardID) (*generic.Award, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetAward(ctx, id)
}

func (m *Memory) GetPenaltyRules(ctx context.Context, id generic.AwardID) ([]generic.PenaltyRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetPenaltyRules(ctx, id)
}

func (m *Memory) InsertCalculation(ctx context.Context, rec generic.ChargeRateCalculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().InsertCalculation(ctx, rec)
}

func (m *Memory) GetCalculation(ctx context.Context, id generic.CalculationID) (*generic.ChargeRateCalculation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetCalculation(ctx, id)
}

func (m *Memory) ListCalculations(ctx context.Context, apprenticeID generic.ApprenticeID) ([]generic.ChargeRateCalculation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().ListCalculations(ctx, apprenticeID)
}

func (m *Memory) MarkApproved(ctx context.Context, id generic.CalculationID, approverID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().MarkApproved(ctx, id, approverID, at)
}

func (m *Memory) InsertQuote(ctx context.Context, q generic.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().InsertQuote(ctx, q)
}

func (m *Memory) GetQuote(ctx context.Context, id generic.QuoteID) (*generic.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetQuote(ctx, id)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(generic.Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()

	if err := fn(m.view()); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (s memoryState) clone() memoryState {
	c := newMemoryState()
	for k, v := range s.apprentices {
		c.apprentices[k] = v
	}
	for k, v := range s.hosts {
		c.hosts[k] = v
	}
	for k, v := range s.placements {
		c.placements[k] = v
	}
	for k, v := range s.awards {
		c.awards[k] = v
	}
	for k, v := range s.penaltyRules {
		c.penaltyRules[k] = append([]generic.PenaltyRule(nil), v...)
	}
	for k, v := range s.calculations {
		c.calculations[k] = v
	}
	for k, v := range s.quotes {
		c.quotes[k] = v
	}
	return c
}

// =============================================================================
// UNLOCKED VIEW - callers hold m.mu
// =============================================================================

type memoryView struct {
	m *Memory
}

func (m *Memory) view() *memoryView { return &memoryView{m: m} }

func (v *memoryView) GetApprentice(_ context.Context, id generic.ApprenticeID) (*generic.Apprentice, error) {
	a, ok := v.m.state.apprentices[id]
	if !ok {
		return nil, generic.NewNotFound("apprentice", id)
	}
	return &a, nil
}

func (v *memoryView) GetHostEmployer(_ context.Context, id generic.HostEmployerID) (*generic.HostEmployer, error) {
	h, ok := v.m.state.hosts[id]
	if !ok {
		return nil, generic.NewNotFound("host_employer", id)
	}
	return &h, nil
}

func (v *memoryView) FindActivePlacement(_ context.Context, apprenticeID generic.ApprenticeID, hostID generic.HostEmployerID) (*generic.Placement, error) {
	var found *generic.Placement
	for _, p := range v.m.state.placements {
		if !p.Active || p.ApprenticeID != apprenticeID || p.HostEmployerID != hostID {
			continue
		}
		// Most recently updated wins if the platform left duplicates.
		if found == nil || p.UpdatedAt.After(found.UpdatedAt) {
			cp := p
			found = &cp
		}
	}
	return found, nil
}

func (v *memoryView) UpdateChargeRate(_ context.Context, id generic.PlacementID, rate decimal.Decimal) error {
	p, ok := v.m.state.placements[id]
	if !ok {
		return generic.NewNotFound("placement", id)
	}
	p.CurrentChargeRate = &rate
	p.UpdatedAt = v.m.clock.Now()
	v.m.state.placements[id] = p
	return nil
}

func (v *memoryView) GetAward(_ context.Context, id generic.AwardID) (*generic.Award, error) {
	a, ok := v.m.state.awards[id]
	if !ok {
		return nil, generic.NewNotFound("award", id)
	}
	return &a, nil
}

func (v *memoryView) GetPenaltyRules(_ context.Context, id generic.AwardID) ([]generic.PenaltyRule, error) {
	if _, ok := v.m.state.awards[id]; !ok {
		return nil, generic.NewNotFound("award", id)
	}
	return append([]generic.PenaltyRule(nil), v.m.state.penaltyRules[id]...), nil
}

func (v *memoryView) InsertCalculation(_ context.Context, rec generic.ChargeRateCalculation) error {
	rec.Result.PenaltyEstimates = copyEstimates(rec.Result.PenaltyEstimates)
	v.m.state.calculations[rec.ID] = rec
	return nil
}

func (v *memoryView) GetCalculation(_ context.Context, id generic.CalculationID) (*generic.ChargeRateCalculation, error) {
	rec, ok := v.m.state.calculations[id]
	if !ok {
		return nil, generic.NewNotFound("calculation", id)
	}
	rec.Result.PenaltyEstimates = copyEstimates(rec.Result.PenaltyEstimates)
	return &rec, nil
}

func (v *memoryView) ListCalculations(_ context.Context, apprenticeID generic.ApprenticeID) ([]generic.ChargeRateCalculation, error) {
	var out []generic.ChargeRateCalculation
	for _, rec := range v.m.state.calculations {
		if rec.ApprenticeID == apprenticeID {
			rec.Result.PenaltyEstimates = copyEstimates(rec.Result.PenaltyEstimates)
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CalculatedAt.After(out[j].CalculatedAt)
	})
	return out, nil
}

func (v *memoryView) MarkApproved(_ context.Context, id generic.CalculationID, approverID string, at time.Time) error {
	rec, ok := v.m.state.calculations[id]
	if !ok {
		return generic.NewNotFound("calculation", id)
	}
	rec.Approved = true
	rec.ApprovedBy = approverID
	rec.ApprovedAt = &at
	v.m.state.calculations[id] = rec
	return nil
}

func (v *memoryView) InsertQuote(_ context.Context, q generic.Quote) error {
	q.Lines = append([]generic.QuoteLine(nil), q.Lines...)
	v.m.state.quotes[q.ID] = q
	return nil
}

func (v *memoryView) GetQuote(_ context.Context, id generic.QuoteID) (*generic.Quote, error) {
	q, ok := v.m.state.quotes[id]
	if !ok {
		return nil, generic.NewNotFound("quote", id)
	}
	q.Lines = append([]generic.QuoteLine(nil), q.Lines...)
	return &q, nil
}

func copyEstimates(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	if in == nil {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

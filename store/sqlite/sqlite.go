/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.TxStore and generic.Seeder using SQLite. In production
  the same patterns apply to PostgreSQL with minor dialect changes.

INTERFACES IMPLEMENTED:
  generic.Repositories: Apprentice, host employer, placement, award reads;
                        calculation and quote records
  generic.TxStore:      WithTx for approve and quote generation
  generic.Seeder:       Upserts for scenarios and tests

KEY TABLES:
  apprentices, host_employers, placements, awards, penalty_rules:
      reference data owned by the surrounding platform
  charge_rate_calculations: persisted results, approval stamps
  quotes, quote_lines:      draft quotes

DECIMALS:
  Every amount, rate and hour count is stored as a decimal string (TEXT) and
  parsed back with shopspring/decimal. REAL is never used.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Inside WithTx the repositories are
  bound to the *sql.Tx and take no locks; WithTx holds the write lock.
  ":memory:" databases are pinned to one connection so every query sees the
  same database.

MIGRATION:
  Versioned goose migrations embedded from migrations/*.sql, applied on New().

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/charge-rate-engine/generic"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	clock  generic.Clock
	logger *zap.Logger
}

var (
	_ generic.TxStore = (*Store)(nil)
	_ generic.Seeder  = (*Store)(nil)
)

type Option func(*Store)

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.logger = l } }

// WithClock sets the clock stamped on placement updates.
func WithClock(c generic.Clock) Option { return func(s *Store) { s.clock = c } }

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	s := &Store{clock: generic.SystemClock{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	s.db = db

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the embedded goose migrations.
func (s *Store) migrate() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{s.logger.Sugar()})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zap at debug level.
type gooseLogger struct{ l *zap.SugaredLogger }

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Debugf(strings.TrimSuffix(format, "\n"), v...)
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repos implements generic.Repositories over a querier. It never locks.
type repos struct {
	q     querier
	clock generic.Clock
}

func (s *Store) repos() *repos { return &repos{q: s.db, clock: s.clock} }

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(generic.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&repos{q: sqlTx, clock: s.clock}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// generic.Repositories (locking wrappers)
// =============================================================================

func (s *Store) GetApprentice(ctx context.Context, id generic.ApprenticeID) (*generic.Apprentice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos().GetApprentice(ctx, id)
}

func (s *Store) GetHostEmployer(ctx context.Context, id generic.HostEmployerID) (*generic.HostEmployer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos().GetHostEmployer(ctx, id)
}

func (s *Store) FindActivePlacement(ctx context.Context, apprenticeID generic.ApprenticeID, hostID generic.HostEmployerID) (*generic.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos().FindActivePlacement(ctx, apprenticeID, hostID)
}

func (s *Store) UpdateChargeRate(ctx context.Context, id generic.PlacementID, rate decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repos().UpdateChargeRate(ctx, id, rate)
}

func (s *Store) GetAward(ctx context.Context, id generic.AwardID) (*generic.Award, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos().GetAward(ctx, id)
}

func (s *Store) GetPenaltyRules(ctx context.Context, id generic.AwardID) ([]generic.PenaltyRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos().GetPenaltyRules(ctx, id)
}

func (s *Store) InsertCalculation(ctx context.Context, rec generic.ChargeRateCalculation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repos().InsertCalculation(ctx, rec)
}

func (s *Store) GetCalculation(ctx context.Context, id generic.CalculationID) (*generic.ChargeRateCalculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos().GetCalculation(ctx, id)
}

func (s *Store) ListCalculations(ctx context.Context, apprenticeID generic.ApprenticeID) ([]generic.ChargeRateCalculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos().ListCalculations(ctx, apprenticeID)
}

func (s *Store) MarkApproved(ctx context.Context, id generic.CalculationID, approverID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repos().MarkApproved(ctx, id, approverID, at)
}

func (s *Store) InsertQuote(ctx context.Context, q generic.Quote) error {
	return s.WithTx(ctx, func(r generic.Repositories) error {
		return r.InsertQuote(ctx, q)
	})
}

func (s *Store) GetQuote(ctx context.Context, id generic.QuoteID) (*generic.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos().GetQuote(ctx, id)
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

func (r *repos) GetApprentice(ctx context.Context, id generic.ApprenticeID) (*generic.Apprentice, error) {
	var (
		a       generic.Apprentice
		awardID sql.NullString
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, year_level, is_adult, has_completed_year12,
		       sector, training_contract_award_id
		FROM apprentices WHERE id = ?
	`, id).Scan(&a.ID, &a.FirstName, &a.LastName, &a.YearLevel, &a.IsAdult,
		&a.HasCompletedYear12, &a.Sector, &awardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.NewNotFound("apprentice", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get apprentice: %w", err)
	}
	a.TrainingContractAwardID = nullAwardID(awardID)
	return &a, nil
}

func (r *repos) GetHostEmployer(ctx context.Context, id generic.HostEmployerID) (*generic.HostEmployer, error) {
	var (
		h             generic.HostEmployer
		margin, admin sql.NullString
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name, margin_override, admin_rate_override
		FROM host_employers WHERE id = ?
	`, id).Scan(&h.ID, &h.Name, &margin, &admin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.NewNotFound("host_employer", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get host employer: %w", err)
	}
	if h.MarginOverride, err = parseNullDecimal(margin); err != nil {
		return nil, err
	}
	if h.AdminRateOverride, err = parseNullDecimal(admin); err != nil {
		return nil, err
	}
	return &h, nil
}

const placementColumns = `id, apprentice_id, host_employer_id, award_id, negotiated_rate,
	current_charge_rate, active, updated_at`

func scanPlacement(row interface{ Scan(...any) error }) (*generic.Placement, error) {
	var (
		p                  generic.Placement
		awardID            sql.NullString
		negotiated, charge sql.NullString
		updatedAt          string
	)
	if err := row.Scan(&p.ID, &p.ApprenticeID, &p.HostEmployerID, &awardID,
		&negotiated, &charge, &p.Active, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	p.AwardID = nullAwardID(awardID)
	if p.NegotiatedRate, err = parseNullDecimal(negotiated); err != nil {
		return nil, err
	}
	if p.CurrentChargeRate, err = parseNullDecimal(charge); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repos) FindActivePlacement(ctx context.Context, apprenticeID generic.ApprenticeID, hostID generic.HostEmployerID) (*generic.Placement, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+placementColumns+`
		FROM placements
		WHERE apprentice_id = ? AND host_employer_id = ? AND active = 1
		ORDER BY updated_at DESC
		LIMIT 1
	`, apprenticeID, hostID)
	p, err := scanPlacement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active placement: %w", err)
	}
	return p, nil
}

func (r *repos) getPlacement(ctx context.Context, id generic.PlacementID) (*generic.Placement, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+placementColumns+` FROM placements WHERE id = ?`, id)
	p, err := scanPlacement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.NewNotFound("placement", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get placement: %w", err)
	}
	return p, nil
}

func (r *repos) UpdateChargeRate(ctx context.Context, id generic.PlacementID, rate decimal.Decimal) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE placements SET current_charge_rate = ?, updated_at = ? WHERE id = ?`,
		rate.String(), formatTime(r.clock.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update charge rate: %w", err)
	}
	return requireRow(res, "placement", id)
}

func (r *repos) GetAward(ctx context.Context, id generic.AwardID) (*generic.Award, error) {
	var a generic.Award
	err := r.q.QueryRowContext(ctx, `SELECT id, code, name FROM awards WHERE id = ?`, id).
		Scan(&a.ID, &a.Code, &a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.NewNotFound("award", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get award: %w", err)
	}
	return &a, nil
}

func (r *repos) GetPenaltyRules(ctx context.Context, id generic.AwardID) ([]generic.PenaltyRule, error) {
	if _, err := r.GetAward(ctx, id); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT name, penalty_type, multiplier
		FROM penalty_rules WHERE award_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query penalty rules: %w", err)
	}
	defer rows.Close()

	rules := []generic.PenaltyRule{}
	for rows.Next() {
		var (
			rule       generic.PenaltyRule
			multiplier string
		)
		if err := rows.Scan(&rule.Name, &rule.Type, &multiplier); err != nil {
			return nil, fmt.Errorf("failed to scan penalty rule: %w", err)
		}
		if rule.Multiplier, err = parseDecimal(multiplier); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// =============================================================================
// CALCULATION RECORDS
// =============================================================================

const calculationColumns = `id, apprentice_id, host_employer_id, placement_id, award_id, rate_source,
	pay_rate, total_annual_hours, billable_annual_hours, base_wage,
	superannuation, workers_comp, payroll_tax, leave_loading, study_cost, ppe_cost, admin_cost,
	total_cost, cost_per_hour, charge_rate, penalty_estimates_json,
	margin, weekly_hours, calculated_at, approved, approved_by, approved_at`

func (r *repos) InsertCalculation(ctx context.Context, rec generic.ChargeRateCalculation) error {
	var estimates sql.NullString
	if rec.Result.PenaltyEstimates != nil {
		b, err := json.Marshal(rec.Result.PenaltyEstimates)
		if err != nil {
			return fmt.Errorf("failed to encode penalty estimates: %w", err)
		}
		estimates = sql.NullString{String: string(b), Valid: true}
	}

	var approvedAt sql.NullString
	if rec.ApprovedAt != nil {
		approvedAt = sql.NullString{String: formatTime(*rec.ApprovedAt), Valid: true}
	}

	res := rec.Result
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO charge_rate_calculations (`+calculationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.ApprenticeID, rec.HostEmployerID,
		nullPlacementID(rec.PlacementID), nullAwardIDValue(rec.AwardID), rec.RateSource,
		res.PayRate.String(), res.TotalAnnualHours.String(), res.BillableAnnualHours.String(), res.BaseWage.String(),
		res.OnCosts.Superannuation.String(), res.OnCosts.WorkersComp.String(), res.OnCosts.PayrollTax.String(),
		res.OnCosts.LeaveLoading.String(), res.OnCosts.StudyCost.String(), res.OnCosts.PPECost.String(),
		res.OnCosts.AdminCost.String(),
		res.TotalCost.String(), res.CostPerHour.String(), res.ChargeRate.String(), estimates,
		rec.Margin.String(), rec.WeeklyHours.String(), formatTime(rec.CalculatedAt),
		rec.Approved, nullString(rec.ApprovedBy), approvedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("calculation %s already exists: %w", rec.ID, err)
		}
		return fmt.Errorf("failed to insert calculation: %w", err)
	}
	return nil
}

func (r *repos) GetCalculation(ctx context.Context, id generic.CalculationID) (*generic.ChargeRateCalculation, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+calculationColumns+` FROM charge_rate_calculations WHERE id = ?`, id)
	rec, err := scanCalculation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.NewNotFound("calculation", id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *repos) ListCalculations(ctx context.Context, apprenticeID generic.ApprenticeID) ([]generic.ChargeRateCalculation, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+calculationColumns+`
		FROM charge_rate_calculations
		WHERE apprentice_id = ?
		ORDER BY calculated_at DESC, id ASC
	`, apprenticeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer rows.Close()

	var out []generic.ChargeRateCalculation
	for rows.Next() {
		rec, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *repos) MarkApproved(ctx context.Context, id generic.CalculationID, approverID string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE charge_rate_calculations
		SET approved = 1, approved_by = ?, approved_at = ?
		WHERE id = ?
	`, approverID, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to mark calculation approved: %w", err)
	}
	return requireRow(res, "calculation", id)
}

func scanCalculation(row interface{ Scan(...any) error }) (*generic.ChargeRateCalculation, error) {
	var (
		rec                                                     generic.ChargeRateCalculation
		placementID, awardID, estimates, approvedBy, approvedAt sql.NullString
		payRate, totalHours, billableHours, baseWage            string
		super, wc, payrollTax, leaveLoading, study, ppe, admin  string
		totalCost, costPerHour, chargeRate, margin, weeklyHours string
		calculatedAt                                            string
	)
	err := row.Scan(
		&rec.ID, &rec.ApprenticeID, &rec.HostEmployerID, &placementID, &awardID, &rec.RateSource,
		&payRate, &totalHours, &billableHours, &baseWage,
		&super, &wc, &payrollTax, &leaveLoading, &study, &ppe, &admin,
		&totalCost, &costPerHour, &chargeRate, &estimates,
		&margin, &weeklyHours, &calculatedAt, &rec.Approved, &approvedBy, &approvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan calculation: %w", err)
	}

	if placementID.Valid {
		id := generic.PlacementID(placementID.String)
		rec.PlacementID = &id
	}
	rec.AwardID = nullAwardID(awardID)
	rec.ApprovedBy = approvedBy.String

	p := decimalParser{}
	res := &rec.Result
	res.PayRate = p.parse(payRate)
	res.TotalAnnualHours = p.parse(totalHours)
	res.BillableAnnualHours = p.parse(billableHours)
	res.BaseWage = p.parse(baseWage)
	res.OnCosts = generic.OnCosts{
		Superannuation: p.parse(super),
		WorkersComp:    p.parse(wc),
		PayrollTax:     p.parse(payrollTax),
		LeaveLoading:   p.parse(leaveLoading),
		StudyCost:      p.parse(study),
		PPECost:        p.parse(ppe),
		AdminCost:      p.parse(admin),
	}
	res.TotalCost = p.parse(totalCost)
	res.CostPerHour = p.parse(costPerHour)
	res.ChargeRate = p.parse(chargeRate)
	rec.Margin = p.parse(margin)
	rec.WeeklyHours = p.parse(weeklyHours)
	if p.err != nil {
		return nil, p.err
	}

	if estimates.Valid {
		if err := json.Unmarshal([]byte(estimates.String), &res.PenaltyEstimates); err != nil {
			return nil, fmt.Errorf("failed to decode penalty estimates: %w", err)
		}
	}
	if rec.CalculatedAt, err = parseTime(calculatedAt); err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		t, err := parseTime(approvedAt.String)
		if err != nil {
			return nil, err
		}
		rec.ApprovedAt = &t
	}
	return &rec, nil
}

// =============================================================================
// QUOTES
// =============================================================================

func (r *repos) InsertQuote(ctx context.Context, q generic.Quote) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO quotes (id, host_employer_id, total_amount, status, created_at, valid_until)
		VALUES (?, ?, ?, ?, ?, ?)
	`, q.ID, q.HostEmployerID, q.TotalAmount.String(), q.Status, formatTime(q.CreatedAt), formatTime(q.ValidUntil))
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}

	for i, line := range q.Lines {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO quote_lines
			(quote_id, position, apprentice_id, calculation_id, weekly_hours, charge_rate, total_price)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, q.ID, i, line.ApprenticeID, line.CalculationID,
			line.WeeklyHours.String(), line.ChargeRate.String(), line.TotalPrice.String())
		if err != nil {
			return fmt.Errorf("failed to insert quote line %d: %w", i, err)
		}
	}
	return nil
}

func (r *repos) GetQuote(ctx context.Context, id generic.QuoteID) (*generic.Quote, error) {
	var (
		q                     generic.Quote
		total                 string
		createdAt, validUntil string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, host_employer_id, total_amount, status, created_at, valid_until
		FROM quotes WHERE id = ?
	`, id).Scan(&q.ID, &q.HostEmployerID, &total, &q.Status, &createdAt, &validUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.NewNotFound("quote", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if q.TotalAmount, err = parseDecimal(total); err != nil {
		return nil, err
	}
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if q.ValidUntil, err = parseTime(validUntil); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT apprentice_id, calculation_id, weekly_hours, charge_rate, total_price
		FROM quote_lines WHERE quote_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote lines: %w", err)
	}
	defer rows.Close()

	q.Lines = []generic.QuoteLine{}
	for rows.Next() {
		var (
			line                  generic.QuoteLine
			hours, rate, subtotal string
		)
		if err := rows.Scan(&line.ApprenticeID, &line.CalculationID, &hours, &rate, &subtotal); err != nil {
			return nil, fmt.Errorf("failed to scan quote line: %w", err)
		}
		p := decimalParser{}
		line.WeeklyHours = p.parse(hours)
		line.ChargeRate = p.parse(rate)
		line.TotalPrice = p.parse(subtotal)
		if p.err != nil {
			return nil, p.err
		}
		q.Lines = append(q.Lines, line)
	}
	return &q, rows.Err()
}

// =============================================================================
// SEEDING (generic.Seeder interface)
// =============================================================================

func (s *Store) SaveApprentice(ctx context.Context, a generic.Apprentice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO apprentices
		(id, first_name, last_name, year_level, is_adult, has_completed_year12, sector, training_contract_award_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			year_level = excluded.year_level,
			is_adult = excluded.is_adult,
			has_completed_year12 = excluded.has_completed_year12,
			sector = excluded.sector,
			training_contract_award_id = excluded.training_contract_award_id
	`, a.ID, a.FirstName, a.LastName, a.YearLevel, a.IsAdult, a.HasCompletedYear12, a.Sector,
		nullAwardIDValue(a.TrainingContractAwardID))
	if err != nil {
		return fmt.Errorf("failed to save apprentice: %w", err)
	}
	return nil
}

func (s *Store) SaveHostEmployer(ctx context.Context, h generic.HostEmployer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO host_employers (id, name, margin_override, admin_rate_override)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			margin_override = excluded.margin_override,
			admin_rate_override = excluded.admin_rate_override
	`, h.ID, h.Name, nullDecimal(h.MarginOverride), nullDecimal(h.AdminRateOverride))
	if err != nil {
		return fmt.Errorf("failed to save host employer: %w", err)
	}
	return nil
}

func (s *Store) SavePlacement(ctx context.Context, p generic.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.clock.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO placements (`+placementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			apprentice_id = excluded.apprentice_id,
			host_employer_id = excluded.host_employer_id,
			award_id = excluded.award_id,
			negotiated_rate = excluded.negotiated_rate,
			current_charge_rate = excluded.current_charge_rate,
			active = excluded.active,
			updated_at = excluded.updated_at
	`, p.ID, p.ApprenticeID, p.HostEmployerID, nullAwardIDValue(p.AwardID),
		nullDecimal(p.NegotiatedRate), nullDecimal(p.CurrentChargeRate), p.Active, formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save placement: %w", err)
	}
	return nil
}

// SaveAward upserts the award and replaces its penalty rules.
func (s *Store) SaveAward(ctx context.Context, a generic.Award, rules []generic.PenaltyRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO awards (id, code, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET code = excluded.code, name = excluded.name
	`, a.ID, a.Code, a.Name); err != nil {
		return fmt.Errorf("failed to save award: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM penalty_rules WHERE award_id = ?`, a.ID); err != nil {
		return fmt.Errorf("failed to clear penalty rules: %w", err)
	}
	for i, rule := range rules {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO penalty_rules (award_id, position, name, penalty_type, multiplier)
			VALUES (?, ?, ?, ?, ?)
		`, a.ID, i, rule.Name, rule.Type, rule.Multiplier.String()); err != nil {
			return fmt.Errorf("failed to save penalty rule %q: %w", rule.Name, err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetPlacement(ctx context.Context, id generic.PlacementID) (*generic.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos().getPlacement(ctx, id)
}

// Reset clears all data (for testing and scenario loading).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"quote_lines", "quotes", "charge_rate_calculations",
		"placements", "apprentices", "host_employers", "penalty_rules", "awards",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt decimal %q: %w", s, err)
	}
	return d, nil
}

// decimalParser keeps the first parse error so a row can be decoded in one
// pass.
type decimalParser struct{ err error }

func (p *decimalParser) parse(s string) decimal.Decimal {
	d, err := parseDecimal(s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return d
}

func parseNullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := parseDecimal(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullAwardID(s sql.NullString) *generic.AwardID {
	if !s.Valid {
		return nil
	}
	id := generic.AwardID(s.String)
	return &id
}

func nullAwardIDValue(id *generic.AwardID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func nullPlacementID(id *generic.PlacementID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func requireRow(res sql.Result, kind string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return generic.NewNotFound(kind, id)
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

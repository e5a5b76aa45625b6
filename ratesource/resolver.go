package ratesource

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/warp/charge-rate-engine/generic"
)

// MaxYearLevel is the final year of an apprenticeship.
const MaxYearLevel = 4

var awardCodePattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{6}$`)

// NormalizeAwardCode upper-cases and trims code, then checks it looks like
// MA000025.
func NormalizeAwardCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !awardCodePattern.MatchString(c) {
		return "", &generic.ConfigurationError{Field: "award_code", Reason: fmt.Sprintf("%q is not an award code like MA000025", code)}
	}
	return c, nil
}

var errNoRemote = errors.New("no remote source configured")

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver runs the cascade. It is safe for concurrent use; concurrent cache
// misses for the same key share one remote call.
type Resolver struct {
	tables  *Tables
	remote  RemoteSource
	cache   *Cache[[]Classification]
	timeout time.Duration
	logger  *zap.Logger
	group   singleflight.Group
}

type Option func(*Resolver)

// WithRemote enables the remote tier.
func WithRemote(src RemoteSource) Option { return func(r *Resolver) { r.remote = src } }

// WithCache replaces the default cache, typically to inject a clock.
func WithCache(c *Cache[[]Classification]) Option { return func(r *Resolver) { r.cache = c } }

// WithTables replaces the built-in tables.
func WithTables(t *Tables) Option { return func(r *Resolver) { r.tables = t } }

// WithTimeout sets the per-call remote timeout, capped at MaxRemoteTimeout.
func WithTimeout(d time.Duration) Option { return func(r *Resolver) { r.timeout = d } }

func WithLogger(l *zap.Logger) Option { return func(r *Resolver) { r.logger = l } }

// NewResolver builds a resolver over the built-in tables with no remote tier.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{timeout: MaxRemoteTimeout}
	for _, opt := range opts {
		opt(r)
	}
	if r.tables == nil {
		r.tables = DefaultTables()
	}
	if r.cache == nil {
		r.cache = NewCache[[]Classification](DefaultCacheTTL, nil)
	}
	if r.timeout <= 0 || r.timeout > MaxRemoteTimeout {
		r.timeout = MaxRemoteTimeout
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// ResolveApprenticeRate returns the hourly base rate for an apprentice on an
// award in a calendar year. Missing data never fails: the last tier is
// DefaultHourlyRate. Errors are returned only for malformed input.
func (r *Resolver) ResolveApprenticeRate(ctx context.Context, awardCode string, year generic.CalendarYear, attrs Attributes) (Resolution, error) {
	code, err := NormalizeAwardCode(awardCode)
	if err != nil {
		return Resolution{}, err
	}
	if year <= 0 {
		return Resolution{}, &generic.ValidationError{Field: "year", Reason: fmt.Sprintf("must be positive, got %d", year)}
	}
	if attrs.YearLevel < 1 || attrs.YearLevel > MaxYearLevel {
		return Resolution{}, &generic.ValidationError{Field: "year_level", Reason: fmt.Sprintf("must be between 1 and %d, got %d", MaxYearLevel, attrs.YearLevel)}
	}

	key := Key{AwardCode: code, FinancialYear: generic.CalendarToFinancialYear(year), Attributes: attrs}
	log := r.logger.With(
		zap.String("award_code", code),
		zap.Int("financial_year", int(key.FinancialYear)),
		zap.Int("year_level", attrs.YearLevel),
	)

	res := r.fromRemote(ctx, key, log)
	if !res.IsOk() {
		res = r.fromTables(key)
	}
	log.Info("resolved apprentice rate",
		zap.String("source", string(res.Value.Source)),
		zap.String("rate", res.Value.Rate.String()),
	)
	return res.Value, nil
}

// fromRemote covers the cache and remote tiers, including the stale cache.
func (r *Resolver) fromRemote(ctx context.Context, key Key, log *zap.Logger) Result[Resolution] {
	if r.remote == nil {
		return Fail[Resolution](errNoRemote)
	}
	ck := CacheKey{Endpoint: r.remote.Endpoint(key.AwardCode), Year: key.FinancialYear}

	if !r.cache.IsExpired(ck) {
		cands, _ := r.cache.Get(ck)
		log.Debug("rate cache hit", zap.Stringer("cache_key", ck))
		return r.selectFrom(cands, key, SourceCache)
	}

	fetched := r.fetch(ctx, ck, key)
	if fetched.IsOk() {
		return r.selectFrom(fetched.Value, key, SourceRemote)
	}
	log.Warn("remote rate source unavailable, falling back", zap.Error(fetched.Err))

	if stale, ok := r.cache.Get(ck); ok {
		storedAt, _ := r.cache.StoredAt(ck)
		log.Info("serving stale cached rates", zap.Time("stored_at", storedAt))
		return r.selectFrom(stale, key, SourceStaleCache)
	}
	return Fail[Resolution](fetched.Err)
}

// fetch shares one remote call between concurrent misses on the same key.
// The call runs detached from any single caller's cancellation and fills the
// cache when it succeeds; each caller stops waiting when its own ctx ends.
func (r *Resolver) fetch(ctx context.Context, ck CacheKey, key Key) Result[[]Classification] {
	ch := r.group.DoChan(ck.String(), func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		cands, err := r.remote.FetchRates(callCtx, key.AwardCode, key.FinancialYear)
		if err != nil {
			return nil, err
		}
		r.cache.Set(ck, cands)
		return cands, nil
	})

	var err error
	select {
	case res := <-ch:
		if res.Err == nil {
			return Ok(res.Val.([]Classification))
		}
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if !errors.Is(err, generic.ErrUpstreamUnavailable) {
		err = &generic.UpstreamError{Stage: "request", Err: err}
	}
	return Fail[[]Classification](err)
}

func (r *Resolver) selectFrom(cands []Classification, key Key, source Source) Result[Resolution] {
	c, ok := SelectClassification(cands, key.Attributes)
	if !ok {
		return Fail[Resolution](&generic.UpstreamError{Stage: "match", Err: fmt.Errorf("no classification for year level %d", key.YearLevel)})
	}
	return Ok(Resolution{
		Rate:           c.HourlyRate,
		Source:         source,
		AwardCode:      key.AwardCode,
		Classification: c.Name,
		FinancialYear:  key.FinancialYear,
		EffectiveYear:  generic.FinancialYearToCalendar(key.FinancialYear),
	})
}

// fromTables walks the static strategies and ends at the default rate.
func (r *Resolver) fromTables(key Key) Result[Resolution] {
	for _, lookup := range r.tables.Strategies() {
		if m, ok := lookup.Find(key); ok {
			return Ok(Resolution{
				Rate:           m.Rate,
				Source:         lookup.Source,
				AwardCode:      key.AwardCode,
				Classification: m.Classification,
				FinancialYear:  m.FinancialYear,
				EffectiveYear:  generic.FinancialYearToCalendar(m.FinancialYear),
			})
		}
	}
	return Ok(DefaultResolution(key.AwardCode, key.FinancialYear))
}

// DefaultResolution is the terminal tier.
func DefaultResolution(awardCode string, fy generic.FinancialYear) Resolution {
	return Resolution{
		Rate:          DefaultHourlyRate,
		Source:        SourceDefault,
		AwardCode:     awardCode,
		FinancialYear: fy,
		EffectiveYear: generic.FinancialYearToCalendar(fy),
	}
}

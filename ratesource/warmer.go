package ratesource

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/charge-rate-engine/generic"
)

// DefaultWarmInterval refreshes well inside DefaultCacheTTL.
const DefaultWarmInterval = 6 * time.Hour

// Warmer periodically resolves a fixed set of awards so the remote cache is
// refreshed before requests need it. One resolution per award per year is
// enough: the cache holds every classification of an award-year.
type Warmer struct {
	resolver *Resolver
	awards   []string
	interval time.Duration
	clock    generic.Clock
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWarmer creates a warmer. A non-positive interval uses DefaultWarmInterval.
func NewWarmer(r *Resolver, awards []string, interval time.Duration, clock generic.Clock, logger *zap.Logger) *Warmer {
	if interval <= 0 {
		interval = DefaultWarmInterval
	}
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Warmer{
		resolver: r,
		awards:   awards,
		interval: interval,
		clock:    clock,
		logger:   logger.Named("warmer"),
	}
}

// Start runs one pass immediately, then one per interval until Stop or ctx
// is done. Starting a running warmer is a no-op.
func (w *Warmer) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
	w.logger.Info("started", zap.Duration("interval", w.interval), zap.Strings("awards", w.awards))
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (w *Warmer) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()
	w.logger.Info("stopped")
}

func (w *Warmer) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce resolves every award for the current calendar year and returns
// how many were served by the remote source or a fresh cache entry.
func (w *Warmer) RunOnce(ctx context.Context) int {
	year := generic.CalendarYear(w.clock.Now().Year())
	warm := 0
	for _, code := range w.awards {
		if ctx.Err() != nil {
			break
		}
		res, err := w.resolver.ResolveApprenticeRate(ctx, code, year, Attributes{YearLevel: 1})
		if err != nil {
			w.logger.Warn("award not warmed", zap.String("award_code", code), zap.Error(err))
			continue
		}
		if res.Source == SourceRemote || res.Source == SourceCache {
			warm++
		}
	}
	w.logger.Debug("warm pass complete", zap.Int("warm", warm), zap.Int("awards", len(w.awards)))
	return warm
}

package ratesource_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/warp/charge-rate-engine/ratesource"
)

func TestWarmer_RunOnce(t *testing.T) {
	h := newHarness(t, ratesource.StaticCredential("secret"))
	w := ratesource.NewWarmer(h.resolver, []string{"MA000025", "MA000020"}, time.Hour, h.clock, zap.NewNop())
	ctx := context.Background()

	// WHEN: the first pass runs against an empty cache
	// THEN: both awards are fetched
	assert.Equal(t, 2, w.RunOnce(ctx))
	assert.Equal(t, int32(2), h.api.calls.Load())

	// WHEN: a second pass runs while entries are fresh
	// THEN: no further calls
	assert.Equal(t, 2, w.RunOnce(ctx))
	assert.Equal(t, int32(2), h.api.calls.Load())

	// WHEN: entries expire
	h.clock.Advance(25 * time.Hour)
	w.RunOnce(ctx)

	// THEN: they are refetched
	assert.Equal(t, int32(4), h.api.calls.Load())
}

func TestWarmer_UpstreamDownCountsNothing(t *testing.T) {
	h := newHarness(t, ratesource.StaticCredential("secret"))
	h.api.fail.Store(true)
	w := ratesource.NewWarmer(h.resolver, []string{"MA000025"}, time.Hour, h.clock, nil)

	assert.Equal(t, 0, w.RunOnce(context.Background()))
}

func TestWarmer_MalformedAwardIsSkipped(t *testing.T) {
	h := newHarness(t, ratesource.StaticCredential("secret"))
	w := ratesource.NewWarmer(h.resolver, []string{"ELEC", "MA000025"}, time.Hour, h.clock, nil)

	assert.Equal(t, 1, w.RunOnce(context.Background()))
}

func TestWarmer_StartStop(t *testing.T) {
	h := newHarness(t, ratesource.StaticCredential("secret"))
	w := ratesource.NewWarmer(h.resolver, []string{"MA000025"}, time.Hour, h.clock, nil)

	w.Start(context.Background())
	w.Start(context.Background()) // no second loop

	// the immediate pass runs in the background
	assert.Eventually(t, func() bool { return h.api.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	w.Stop()
	w.Stop()
	assert.Equal(t, int32(1), h.api.calls.Load())
}

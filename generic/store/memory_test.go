package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/generic/store"
)

var t0 = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

func TestMemory_UpdateChargeRateStampsClock(t *testing.T) {
	clock := generic.NewFixedClock(t0)
	mem := store.NewMemory(store.WithClock(clock))
	ctx := context.Background()

	// GIVEN: two active placements for the same pair, pl-2 the newer
	require.NoError(t, mem.SavePlacement(ctx, generic.Placement{
		ID: "pl-1", ApprenticeID: "appr-1", HostEmployerID: "host-1", Active: true, UpdatedAt: t0,
	}))
	require.NoError(t, mem.SavePlacement(ctx, generic.Placement{
		ID: "pl-2", ApprenticeID: "appr-1", HostEmployerID: "host-1", Active: true, UpdatedAt: t0.Add(time.Hour),
	}))

	p, err := mem.FindActivePlacement(ctx, "appr-1", "host-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, generic.PlacementID("pl-2"), p.ID)

	// WHEN: pl-1 is updated later
	clock.Advance(2 * time.Hour)
	require.NoError(t, mem.UpdateChargeRate(ctx, "pl-1", generic.MustParseDecimal("55.76")))

	// THEN: it carries the store clock's time and becomes the active one
	p, err = mem.FindActivePlacement(ctx, "appr-1", "host-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, generic.PlacementID("pl-1"), p.ID)
	assert.Equal(t, t0.Add(2*time.Hour), p.UpdatedAt)
	require.NotNil(t, p.CurrentChargeRate)
	assert.Equal(t, "55.76", p.CurrentChargeRate.String())
}

func TestMemory_UpdateChargeRateUnknownPlacement(t *testing.T) {
	mem := store.NewMemory()

	err := mem.UpdateChargeRate(context.Background(), "pl-missing", generic.MustParseDecimal("1"))
	assert.True(t, generic.IsNotFound(err))
}

package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wealth-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func sampleInstrument() engine.Instrument {
	return engine.Instrument{
		ID:                "inst-1",
		AccountID:         "acc-1",
		Name:              "Term deposit",
		Currency:          "AMD",
		Principal:         dec("120000"),
		StartDate:         engine.NewDate(2025, time.January, 1),
		TermMonths:        12,
		AnnualRatePercent: dec("17"),
		PayoutFrequency:   "monthly",
		AutoRenew:         true,
		Note:              "renews automatically",
	}
}

// =============================================================================
// INSTRUMENTS
// =============================================================================

func TestInstruments_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveInstrument(ctx, sampleInstrument()))

	got, err := store.GetInstrument(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, engine.InstrumentID("inst-1"), got.ID)
	assert.Equal(t, engine.AccountID("acc-1"), got.AccountID)
	assert.True(t, got.Principal.Equal(dec("120000")))
	assert.Equal(t, "2025-01-01", got.StartDate.String())
	assert.Equal(t, 12, got.TermMonths)
	assert.True(t, got.AnnualRatePercent.Equal(dec("17")))
	assert.True(t, got.AutoRenew)
	assert.Equal(t, "renews automatically", got.Note)
}

func TestInstruments_SaveIsUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inst := sampleInstrument()
	require.NoError(t, store.SaveInstrument(ctx, inst))

	inst.Principal = dec("200000")
	inst.AutoRenew = false
	require.NoError(t, store.SaveInstrument(ctx, inst))

	got, err := store.GetInstrument(ctx, inst.ID)
	require.NoError(t, err)
	assert.True(t, got.Principal.Equal(dec("200000")))
	assert.False(t, got.AutoRenew)

	all, err := store.ListInstruments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestInstruments_ZeroStartDateSurvives(t *testing.T) {
	// Non-term instruments have no start date; it must come back zero, not
	// as a garbage parse.
	store := newTestStore(t)
	ctx := context.Background()

	inst := sampleInstrument()
	inst.ID = "inst-savings"
	inst.StartDate = engine.Date{}
	inst.TermMonths = 0
	require.NoError(t, store.SaveInstrument(ctx, inst))

	got, err := store.GetInstrument(ctx, inst.ID)
	require.NoError(t, err)
	assert.True(t, got.StartDate.IsZero())
}

func TestInstruments_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetInstrument(context.Background(), "nope")
	assert.ErrorIs(t, err, engine.ErrInstrumentNotFound)
}

func TestInstruments_DeleteMissing(t *testing.T) {
	store := newTestStore(t)
	err := store.DeleteInstrument(context.Background(), "nope")
	assert.ErrorIs(t, err, engine.ErrInstrumentNotFound)
}

func TestInstruments_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveInstrument(ctx, sampleInstrument()))
	require.NoError(t, store.DeleteInstrument(ctx, "inst-1"))

	all, err := store.ListInstruments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// =============================================================================
// FLOWS
// =============================================================================

func sampleFlows() []engine.LedgerFlow {
	return []engine.LedgerFlow{
		{
			ID:           "inst-1:investment:2025-01-01",
			Kind:         engine.FlowInvestment,
			Date:         engine.NewDate(2025, time.January, 1),
			Amount:       dec("120000"),
			Currency:     "AMD",
			AccountID:    "acc-1",
			InstrumentID: "inst-1",
			Description:  "Term deposit",
		},
		{
			ID:       "manual-1",
			Kind:     engine.FlowExpense,
			Date:     engine.NewDate(2025, time.February, 10),
			Amount:   dec("350.75"),
			Currency: "AMD",
		},
	}
}

func TestFlows_ReplaceAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceFlows(ctx, sampleFlows()))

	got, err := store.ListFlows(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// ListFlows returns canonical (date, kind, id) order.
	assert.Equal(t, engine.FlowID("inst-1:investment:2025-01-01"), got[0].ID)
	assert.True(t, got[0].MachineOwned())
	assert.Equal(t, engine.FlowID("manual-1"), got[1].ID)
	assert.False(t, got[1].MachineOwned())
	assert.True(t, got[1].Amount.Equal(dec("350.75")))
}

func TestFlows_ReplaceIsWholesale(t *testing.T) {
	// GIVEN: An existing ledger
	// WHEN: Replacing with a different set
	// THEN: The old rows are gone, only the new set remains

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceFlows(ctx, sampleFlows()))
	require.NoError(t, store.ReplaceFlows(ctx, sampleFlows()[1:]))

	got, err := store.ListFlows(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, engine.FlowID("manual-1"), got[0].ID)
}

func TestFlows_ReplaceWithEmptyClears(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceFlows(ctx, sampleFlows()))
	require.NoError(t, store.ReplaceFlows(ctx, nil))

	got, err := store.ListFlows(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFlows_Append(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendFlow(ctx, sampleFlows()[1]))

	got, err := store.ListFlows(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, engine.FlowKind("expense"), got[0].Kind)
}

// =============================================================================
// RATE OVERRIDES
// =============================================================================

func TestRateOverrides_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRateOverride(ctx, engine.RateYear{Year: 2027, AnnualRatePercent: dec("15.5")}))
	require.NoError(t, store.SaveRateOverride(ctx, engine.RateYear{Year: 2026, AnnualRatePercent: dec("16")}))
	// Upsert the 2027 pin.
	require.NoError(t, store.SaveRateOverride(ctx, engine.RateYear{Year: 2027, AnnualRatePercent: dec("14")}))

	got, err := store.ListRateOverrides(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2026, got[0].Year)
	assert.Equal(t, 2027, got[1].Year)
	assert.True(t, got[1].AnnualRatePercent.Equal(dec("14")))
}

func TestRateOverrides_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRateOverride(ctx, engine.RateYear{Year: 2026, AnnualRatePercent: dec("16")}))
	require.NoError(t, store.DeleteRateOverride(ctx, 2026))
	// Deleting a missing year is a no-op.
	require.NoError(t, store.DeleteRateOverride(ctx, 2026))

	got, err := store.ListRateOverrides(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// =============================================================================
// TIERS
// =============================================================================

func TestTiers_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTier(ctx, engine.TierDefinition{
		ID: "tier-2", Order: 2, DisplayName: "Reserve",
		MinSavings:        decPtr("100000"),
		MinMonthlyRevenue: decPtr("2000"),
		Description:       "six months of runway",
	}))
	require.NoError(t, store.SaveTier(ctx, engine.TierDefinition{
		ID: "tier-1", Order: 1, DisplayName: "Cushion",
	}))

	got, err := store.ListTiers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Listed in walk order, nil thresholds preserved as nil.
	assert.Equal(t, engine.TierID("tier-1"), got[0].ID)
	assert.Nil(t, got[0].MinSavings)
	assert.Nil(t, got[0].MinMonthlyRevenue)

	require.NotNil(t, got[1].MinSavings)
	assert.True(t, got[1].MinSavings.Equal(dec("100000")))
	require.NotNil(t, got[1].MinMonthlyRevenue)
	assert.True(t, got[1].MinMonthlyRevenue.Equal(dec("2000")))
}

func TestTiers_DeleteMissing(t *testing.T) {
	store := newTestStore(t)
	err := store.DeleteTier(context.Background(), "nope")
	assert.ErrorIs(t, err, engine.ErrTierNotFound)
}

// =============================================================================
// FX RATES
// =============================================================================

func TestFXRates_UpsertPerPair(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveFXRate(ctx, engine.FXRate{From: "USD", To: "AMD", Rate: dec("395"), TimestampMs: 1}))
	require.NoError(t, store.SaveFXRate(ctx, engine.FXRate{From: "USD", To: "AMD", Rate: dec("400"), TimestampMs: 2}))
	require.NoError(t, store.SaveFXRate(ctx, engine.FXRate{From: "EUR", To: "AMD", Rate: dec("430"), TimestampMs: 3}))

	got, err := store.ListFXRates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2, "one row per pair")

	assert.Equal(t, "EUR", got[0].From)
	assert.Equal(t, "USD", got[1].From)
	assert.True(t, got[1].Rate.Equal(dec("400")), "latest rate wins")
	assert.Equal(t, int64(2), got[1].TimestampMs)
}

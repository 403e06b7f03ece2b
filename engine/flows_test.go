package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wealth-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testFX() engine.FXContext {
	return engine.NewFXContext("AMD")
}

func testSynchronizer() engine.FlowSynchronizer {
	return engine.NewFlowSynchronizer(testSchedule(), testFX())
}

func flowsOfKind(flows []engine.LedgerFlow, kind engine.FlowKind) []engine.LedgerFlow {
	var out []engine.LedgerFlow
	for _, f := range flows {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// DERIVATION
// =============================================================================

func TestDeriveAutoFlows_FullTermShape(t *testing.T) {
	// GIVEN: A 12-month deposit of 120000 at 17%
	// THEN: 1 investment + 12 interest + 1 deposit flow

	sync := testSynchronizer()
	flows := sync.DeriveAutoFlows(termDeposit(), engine.NewDate(2025, time.June, 1))

	require.Len(t, flows, 14)
	assert.Len(t, flowsOfKind(flows, engine.FlowInvestment), 1)
	assert.Len(t, flowsOfKind(flows, engine.FlowInterest), 12)
	assert.Len(t, flowsOfKind(flows, engine.FlowDeposit), 1)

	invest := flowsOfKind(flows, engine.FlowInvestment)[0]
	assert.Equal(t, "2025-01-01", invest.Date.String())
	assert.True(t, invest.Amount.Equal(dec("120000")))

	// Interest flows land on the anniversary day of each month.
	first := flowsOfKind(flows, engine.FlowInterest)[0]
	assert.Equal(t, "2025-02-01", first.Date.String())
	assert.True(t, first.Amount.Equal(dec("1700")), "got %s", first.Amount)

	matured := flowsOfKind(flows, engine.FlowDeposit)[0]
	assert.Equal(t, "2025-12-31", matured.Date.String())
	assert.True(t, matured.Amount.Equal(dec("120000")))
}

func TestDeriveAutoFlows_DeterministicIDs(t *testing.T) {
	// Deriving twice yields identical ids: the id is a pure function of
	// (instrument, kind, date).

	sync := testSynchronizer()
	today := engine.NewDate(2025, time.June, 1)

	first := sync.DeriveAutoFlows(termDeposit(), today)
	second := sync.DeriveAutoFlows(termDeposit(), today)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	assert.True(t, first[0].MachineOwned())
}

func TestDeriveAutoFlows_NonTermDeposit_NoFlows(t *testing.T) {
	inst := termDeposit()
	inst.TermMonths = 0

	flows := testSynchronizer().DeriveAutoFlows(inst, engine.NewDate(2025, time.June, 1))
	assert.Empty(t, flows)
}

func TestDeriveAutoFlows_SubCentAmountsSkipped(t *testing.T) {
	// GIVEN: A principal so small the monthly interest rounds below 0.01
	// THEN: Interest flows are dropped, principal flows survive

	inst := termDeposit()
	inst.Principal = dec("0.50") // 0.50*17/1200 ~ 0.007

	flows := testSynchronizer().DeriveAutoFlows(inst, engine.NewDate(2025, time.June, 1))
	assert.Empty(t, flowsOfKind(flows, engine.FlowInterest))
	assert.Len(t, flowsOfKind(flows, engine.FlowInvestment), 1)
	assert.Len(t, flowsOfKind(flows, engine.FlowDeposit), 1)
}

// =============================================================================
// CURRENCY CONVERSION
// =============================================================================

func TestDeriveAutoFlows_ConvertsToLedgerCurrency(t *testing.T) {
	fx := testFX().WithRate("USD", "AMD", engine.FXSnapshot{Rate: dec("400")})
	sync := engine.NewFlowSynchronizer(testSchedule(), fx)

	inst := termDeposit()
	inst.Currency = "USD"
	inst.Principal = dec("1000")

	flows := sync.DeriveAutoFlows(inst, engine.NewDate(2025, time.June, 1))
	invest := flowsOfKind(flows, engine.FlowInvestment)[0]

	assert.Equal(t, "AMD", invest.Currency)
	assert.True(t, invest.Amount.Equal(dec("400000")), "got %s", invest.Amount)
}

func TestDeriveAutoFlows_UnresolvableCurrencyKeptAsIs(t *testing.T) {
	// No EUR rate in the context: amounts stay in EUR, unconverted.
	inst := termDeposit()
	inst.Currency = "EUR"

	flows := testSynchronizer().DeriveAutoFlows(inst, engine.NewDate(2025, time.June, 1))
	require.NotEmpty(t, flows)
	for _, f := range flows {
		assert.Equal(t, "EUR", f.Currency)
	}
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func userFlow(id string, kind engine.FlowKind, date engine.Date, amount string) engine.LedgerFlow {
	return engine.LedgerFlow{
		ID:       engine.FlowID(id),
		Kind:     kind,
		Date:     date,
		Amount:   dec(amount),
		Currency: "AMD",
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	// GIVEN: Any instrument set and an existing ledger
	// THEN: reconcile(reconcile(x)) == reconcile(x), deep equality

	sync := testSynchronizer()
	today := engine.NewDate(2025, time.June, 1)
	instruments := []engine.Instrument{termDeposit()}
	existing := []engine.LedgerFlow{
		userFlow("manual-1", engine.FlowExpense, engine.NewDate(2025, time.March, 3), "250"),
		userFlow("manual-2", engine.FlowIncome, engine.NewDate(2025, time.April, 4), "9000"),
	}

	once := sync.Reconcile(existing, instruments, today)
	twice := sync.Reconcile(once, instruments, today)

	assert.True(t, engine.EqualFlowSets(once, twice), "reconcile must be idempotent")
}

func TestReconcile_PreservesUserOwnedFlows(t *testing.T) {
	sync := testSynchronizer()
	today := engine.NewDate(2025, time.June, 1)
	manual := userFlow("manual-1", engine.FlowExpense, engine.NewDate(2025, time.March, 3), "250")

	out := sync.Reconcile([]engine.LedgerFlow{manual}, []engine.Instrument{termDeposit()}, today)

	var found bool
	for _, f := range out {
		if f.ID == manual.ID {
			found = true
			assert.True(t, f.Amount.Equal(manual.Amount))
		}
	}
	assert.True(t, found, "user-owned flow must survive reconcile")
}

func TestReconcile_RegeneratesMachineOwnedFlows(t *testing.T) {
	// GIVEN: A stale machine-owned flow with a hand-edited amount
	// WHEN: Reconciling
	// THEN: The flow is regenerated with the derived amount

	sync := testSynchronizer()
	today := engine.NewDate(2025, time.June, 1)
	inst := termDeposit()

	tampered := engine.LedgerFlow{
		ID:           engine.AutoFlowID(inst.ID, engine.FlowInterest, engine.NewDate(2025, time.February, 1)),
		Kind:         engine.FlowInterest,
		Date:         engine.NewDate(2025, time.February, 1),
		Amount:       dec("999999"),
		Currency:     "AMD",
		InstrumentID: inst.ID,
	}

	out := sync.Reconcile([]engine.LedgerFlow{tampered}, []engine.Instrument{inst}, today)

	for _, f := range out {
		if f.ID == tampered.ID {
			assert.True(t, f.Amount.Equal(dec("1700")), "tampered amount must be regenerated, got %s", f.Amount)
			return
		}
	}
	t.Fatal("regenerated flow not found")
}

func TestReconcile_DropsFlowsOfDeletedInstruments(t *testing.T) {
	sync := testSynchronizer()
	today := engine.NewDate(2025, time.June, 1)

	// Ledger still holds flows for an instrument that no longer exists.
	stale := sync.DeriveAutoFlows(termDeposit(), today)
	out := sync.Reconcile(stale, nil, today)

	assert.Empty(t, out, "flows of deleted instruments must disappear")
}

func TestReconcile_DeterministicOrdering(t *testing.T) {
	sync := testSynchronizer()
	today := engine.NewDate(2025, time.June, 1)
	out := sync.Reconcile(nil, []engine.Instrument{termDeposit()}, today)

	for i := 1; i < len(out); i++ {
		a, b := out[i-1], out[i]
		ordered := a.Date.Before(b.Date) ||
			(a.Date.Equal(b.Date) && a.Kind < b.Kind) ||
			(a.Date.Equal(b.Date) && a.Kind == b.Kind && a.ID <= b.ID)
		assert.True(t, ordered, "flows out of order at %d", i)
	}
}

/*
flows.go - Idempotent derivation of ledger flows from instruments

PURPOSE:
  The ledger view and the simulation view are two presentations of the same
  instrument set; they must never disagree on principal totals. This file
  derives the canonical set of machine-owned ledger flows (principal
  invested, monthly interest, matured principal returned) from the current
  instruments, and reconciles that set against a stored ledger without
  duplicating or losing manually entered flows.

CRITICAL INVARIANTS:
  1. DETERMINISTIC IDS: An auto flow's id is a pure function of
     (instrumentId, kind, date). Re-deriving never creates duplicates.
  2. IDEMPOTENCE: reconcile(reconcile(x)) == reconcile(x), byte for byte:
     same ids, same deterministic order (date, then kind, then id).
  3. OWNERSHIP: Machine-owned flows are regenerated wholesale; user-owned
     flows pass through verbatim.

WHY FULL REGENERATION?
  The synchronizer is re-run opportunistically after every instrument edit
  and from a periodic job. Computing a full replacement set instead of
  incremental deltas means there is no partial-failure state to reason
  about, and concurrent re-syncs can coalesce (last write wins). Callers
  compare old and new sets (EqualFlowSets) and skip persistence when
  nothing changed.

SEE ALSO:
  - interest.go: Amounts for the monthly interest flows
  - fx.go: Conversion into the canonical ledger currency
  - store.go: FlowStore.ReplaceAutoFlows persists the replacement set
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FLOW SYNCHRONIZER
// =============================================================================

// FlowSynchronizer derives and reconciles machine-owned ledger flows.
type FlowSynchronizer struct {
	Model InterestModel
	FX    FXContext
}

// NewFlowSynchronizer wires a synchronizer from a schedule and FX context.
func NewFlowSynchronizer(rates RateSchedule, fx FXContext) FlowSynchronizer {
	return FlowSynchronizer{Model: InterestModel{Rates: rates}, FX: fx}
}

// DeriveAutoFlows computes the full machine-owned flow set for one
// instrument:
//   - one investment flow on the start date, amount = principal
//   - one interest flow per month 1..termMonths, dated on the anniversary
//     day, amount = monthly interest at that point in the schedule
//   - one deposit flow on the maturity date, amount = principal
//
// Amounts are converted to the ledger currency; when no rate resolves the
// original currency is kept unchanged. Flows whose converted amount rounds
// below 0.01 are skipped entirely.
func (s FlowSynchronizer) DeriveAutoFlows(inst Instrument, today Date) []LedgerFlow {
	inst = inst.Sanitize()
	if !inst.IsTermDeposit() {
		return nil
	}

	flows := make([]LedgerFlow, 0, inst.TermMonths+2)

	if f, ok := s.autoFlow(inst, FlowInvestment, inst.StartDate, inst.Principal); ok {
		flows = append(flows, f)
	}

	for month := 1; month <= inst.TermMonths; month++ {
		payDate := inst.StartDate.AddMonths(month)
		amount := s.Model.MonthlyInterest(inst, payDate)
		if f, ok := s.autoFlow(inst, FlowInterest, payDate, amount); ok {
			flows = append(flows, f)
		}
	}

	if f, ok := s.autoFlow(inst, FlowDeposit, MaturityDate(inst), inst.Principal); ok {
		flows = append(flows, f)
	}

	return flows
}

// autoFlow builds one machine-owned flow, converting into the ledger
// currency. Reports ok=false for amounts that round below one cent.
func (s FlowSynchronizer) autoFlow(inst Instrument, kind FlowKind, date Date, amount decimal.Decimal) (LedgerFlow, bool) {
	converted, currency := s.FX.ToLedger(amount, inst.Currency)
	if converted.Round(2).LessThan(centThreshold) {
		return LedgerFlow{}, false
	}
	return LedgerFlow{
		ID:           AutoFlowID(inst.ID, kind, date),
		Kind:         kind,
		Date:         date,
		Amount:       converted,
		Currency:     currency,
		AccountID:    inst.AccountID,
		InstrumentID: inst.ID,
		Description:  inst.Name,
	}, true
}

// Reconcile produces the canonical ledger: every machine-owned flow from
// the current instruments, plus every user-owned flow from the existing
// ledger, in deterministic order. Running it twice with unchanged inputs
// yields a deeply equal result.
func (s FlowSynchronizer) Reconcile(existing []LedgerFlow, instruments []Instrument, today Date) []LedgerFlow {
	out := make([]LedgerFlow, 0, len(existing))

	// User-owned flows survive verbatim. Machine-owned flows are dropped
	// here and regenerated below, so hand-edits to them cannot survive.
	for _, f := range existing {
		if !f.MachineOwned() {
			out = append(out, f)
		}
	}

	for _, inst := range instruments {
		out = append(out, s.DeriveAutoFlows(inst, today)...)
	}

	SortFlows(out)
	return out
}

// =============================================================================
// ORDERING & EQUALITY
// =============================================================================

// SortFlows orders flows by date, then kind, then id. This is the one
// canonical ledger order; reconcile output and equality checks rely on it.
func SortFlows(flows []LedgerFlow) {
	sort.Slice(flows, func(i, j int) bool {
		a, b := flows[i], flows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})
}

// EqualFlowSets reports deep equality of two flow slices, element by
// element. Callers sort both sides first (Reconcile output already is) and
// skip persistence when the sets match.
func EqualFlowSets(a, b []LedgerFlow) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalFlow(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalFlow(a, b LedgerFlow) bool {
	return a.ID == b.ID &&
		a.Kind == b.Kind &&
		a.Date.Equal(b.Date) &&
		a.Amount.Equal(b.Amount) &&
		a.Currency == b.Currency &&
		a.AccountID == b.AccountID &&
		a.InstrumentID == b.InstrumentID &&
		a.Description == b.Description
}

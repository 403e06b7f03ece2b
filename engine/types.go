/*
Package engine provides the wealth projection and tier-placement core.

PURPOSE:
  This package contains the computation-only heart of the personal finance
  dashboard: interest estimation for fixed-term deposits under a time-varying
  rate schedule, idempotent derivation of ledger flows from the instrument
  list, multi-year growth simulation with discrete reinvestment, and
  placement of aggregated totals on an ordered tier ladder.

KEY CONCEPTS IN THIS FILE (types.go):
  - Instrument: A fixed-term, interest-bearing deposit (principal, term, rate)
  - LedgerFlow: A dated financial event in the ledger (investment, interest, ...)
  - Machine-owned flows: Flows fully derived from instrument state, safe to
    regenerate on every sync
  - Clamping constructors: Negative or non-finite inputs are clamped to zero,
    never propagated

DESIGN PRINCIPLES:
  1. Purity: Every computation is a function of its explicit inputs (schedule,
     instruments, FX context, horizon). Persistence lives behind interfaces
     at the boundary (store.go).
  2. Precision: Uses decimal.Decimal to avoid floating-point errors.
  3. Degradation over rejection: Malformed dates and out-of-range amounts
     degrade to a safe interpretation rather than raising. Financial
     estimates are best-effort.

SEE ALSO:
  - rates.go: Year-indexed rate schedule with default decay
  - interest.go: Monthly interest with renewal re-pricing
  - flows.go: Idempotent ledger flow derivation
  - projection.go: Month-by-month growth simulation
  - tiers.go: Tier ladder placement
*/
package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type InstrumentID string
type AccountID string
type FlowID string
type TierID string

// =============================================================================
// INSTRUMENT - Fixed-term, interest-bearing deposit
// =============================================================================

// Instrument is a fixed-term deposit. The engine only reads instruments;
// it never mutates them, except to synthesize new simulation-local ones
// during a projection run (see projection.go).
type Instrument struct {
	ID        InstrumentID
	AccountID AccountID
	Name      string
	Currency  string

	// Principal is the deposited amount. Always >= 0 after sanitizing.
	Principal decimal.Decimal

	// StartDate is the day the term began. Zero value means "no start date":
	// the instrument is treated as a simple non-term deposit.
	StartDate Date

	// TermMonths is the original term length. Zero means non-term deposit.
	TermMonths int

	// AnnualRatePercent is the nominal rate stated on the deposit contract.
	// Zero means "use the schedule rate".
	AnnualRatePercent decimal.Decimal

	// PayoutFrequency is informational only (e.g. "monthly", "at_maturity").
	PayoutFrequency string

	AutoRenew bool
	Note      string
}

// Sanitize returns a copy with principal, rate and term clamped into their
// valid ranges. Negative amounts never propagate into downstream sums.
func (i Instrument) Sanitize() Instrument {
	i.Principal = clampAmount(i.Principal)
	i.AnnualRatePercent = clampAmount(i.AnnualRatePercent)
	if i.TermMonths < 0 {
		i.TermMonths = 0
	}
	return i
}

// IsTermDeposit reports whether the instrument carries a real term. Anything
// without a start date or term length degrades to a simple deposit earning
// its stated nominal rate.
func (i Instrument) IsTermDeposit() bool {
	return !i.StartDate.IsZero() && i.TermMonths > 0
}

// =============================================================================
// LEDGER FLOW - Dated financial event
// =============================================================================

type FlowKind string

const (
	FlowInvestment FlowKind = "investment" // Principal committed to an instrument
	FlowInterest   FlowKind = "interest"   // Monthly interest payout
	FlowDeposit    FlowKind = "deposit"    // Matured principal returned
	FlowIncome     FlowKind = "income"     // User-entered income
	FlowWithdrawal FlowKind = "withdrawal" // User-entered withdrawal
	FlowExpense    FlowKind = "expense"    // User-entered expense
)

// machineOwnedKinds lists the flow kinds that are fully derived from
// instrument state. Flows of these kinds that are linked to an instrument
// are regenerated on every sync and must never be hand-edited.
var machineOwnedKinds = map[FlowKind]bool{
	FlowInvestment: true,
	FlowInterest:   true,
	FlowDeposit:    true,
}

// LedgerFlow is a single dated event in the ledger.
type LedgerFlow struct {
	ID       FlowID
	Kind     FlowKind
	Date     Date
	Amount   decimal.Decimal
	Currency string

	// Optional links. An empty InstrumentID means the flow is not tied to
	// any deposit and is therefore always user-owned.
	AccountID    AccountID
	InstrumentID InstrumentID

	Description string
}

// MachineOwned reports whether this flow is owned by the synchronizer.
// Machine-owned flows are dropped and regenerated wholesale on every
// reconcile; everything else is preserved verbatim.
func (f LedgerFlow) MachineOwned() bool {
	return f.InstrumentID != "" && machineOwnedKinds[f.Kind]
}

// AutoFlowID builds the deterministic id for a machine-owned flow. The id is
// a pure function of (instrument, kind, date) so re-deriving the same flow
// always yields the same id: upserts are idempotent by construction.
func AutoFlowID(instrumentID InstrumentID, kind FlowKind, date Date) FlowID {
	return FlowID(string(instrumentID) + ":" + string(kind) + ":" + date.String())
}

// =============================================================================
// AMOUNT SANITIZING
// =============================================================================

var (
	oneHundred    = decimal.NewFromInt(100)
	twelveHundred = decimal.NewFromInt(1200)
	centThreshold = decimal.RequireFromString("0.01")
)

// clampAmount clamps negative values to zero. Decimals built through the
// library cannot hold NaN or Inf, so negativity is the only hazard here.
func clampAmount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// AmountFromFloat converts a float to a decimal amount, clamping negative
// and non-finite inputs to zero. Use this at every float ingestion point so
// NaN/Infinity never reach a sum.
func AmountFromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

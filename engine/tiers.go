/*
tiers.go - Tier ladder placement and aggregated totals

PURPOSE:
  Classifies the user's current financial position against an ordered
  ladder of savings/revenue thresholds: "you are here, here is the gap to
  the next tier". Totals are aggregated in one reporting currency;
  instruments whose currency cannot be converted are excluded and counted,
  never guessed at 1:1.

LADDER WALK:
  Tiers are scanned in ascending order and the walk stops at the first tier
  that is not met. The previous tier is current, the failed tier is next.
  This assumes thresholds are non-decreasing by order; a tier with lower
  requirements than its predecessor would be unreachable by this scan.
  ValidateLadder makes that precondition explicit instead of silent.

SEE ALSO:
  - fx.go: Conversion into the reporting currency
  - interest.go: Monthly passive revenue per instrument
  - projection.go: TargetForTier for "months until next tier" projections
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIER DEFINITION
// =============================================================================

// TierDefinition is one rung of the ladder. Nil thresholds always count as
// met; Order values are unique and define the walk order.
type TierDefinition struct {
	ID          TierID
	Order       int
	DisplayName string

	MinSavings        *decimal.Decimal
	MinMonthlyRevenue *decimal.Decimal

	Description string
}

// Met reports whether the given totals satisfy this tier's thresholds.
func (t TierDefinition) Met(totalSavings, monthlyRevenue decimal.Decimal) bool {
	if t.MinSavings != nil && t.MinSavings.IsPositive() && totalSavings.LessThan(*t.MinSavings) {
		return false
	}
	if t.MinMonthlyRevenue != nil && t.MinMonthlyRevenue.IsPositive() && monthlyRevenue.LessThan(*t.MinMonthlyRevenue) {
		return false
	}
	return true
}

// ValidateLadder checks the ladder precondition: unique orders and
// non-decreasing thresholds. The placement scan silently skips past a tier
// with lower requirements than its predecessor, so violations are surfaced
// here instead of being assumed away.
func ValidateLadder(tiers []TierDefinition) error {
	sorted := sortedByOrder(tiers)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Order == cur.Order {
			return &LadderError{TierID: cur.ID, Reason: "duplicate order"}
		}
		if thresholdDecreases(prev.MinSavings, cur.MinSavings) ||
			thresholdDecreases(prev.MinMonthlyRevenue, cur.MinMonthlyRevenue) {
			return &LadderError{TierID: cur.ID, Reason: "thresholds decrease along the ladder"}
		}
	}
	return nil
}

// thresholdDecreases reports whether cur sets a strictly lower bar than
// prev. A nil threshold means "always met" and never decreases anything.
func thresholdDecreases(prev, cur *decimal.Decimal) bool {
	if prev == nil || cur == nil {
		return false
	}
	return cur.LessThan(*prev)
}

func sortedByOrder(tiers []TierDefinition) []TierDefinition {
	sorted := make([]TierDefinition, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return sorted
}

// =============================================================================
// PLACEMENT
// =============================================================================

// Placement is the result of a ladder walk. Nil Current means even the
// bottom tier is not met; nil Next means every tier is met.
type Placement struct {
	Current *TierDefinition
	Next    *TierDefinition

	// Gaps to the next tier's thresholds, zero-floored. Both zero when
	// there is no next tier.
	SavingsGap decimal.Decimal
	RevenueGap decimal.Decimal
}

// PlaceOnLadder walks the tiers in ascending order and stops advancing at
// the first tier that is not met.
func PlaceOnLadder(totalSavings, monthlyRevenue decimal.Decimal, tiers []TierDefinition) Placement {
	sorted := sortedByOrder(tiers)

	var placement Placement
	for i := range sorted {
		if !sorted[i].Met(totalSavings, monthlyRevenue) {
			placement.Next = &sorted[i]
			break
		}
		placement.Current = &sorted[i]
	}

	if placement.Next != nil {
		placement.SavingsGap = gapTo(placement.Next.MinSavings, totalSavings)
		placement.RevenueGap = gapTo(placement.Next.MinMonthlyRevenue, monthlyRevenue)
	}
	return placement
}

func gapTo(threshold *decimal.Decimal, have decimal.Decimal) decimal.Decimal {
	if threshold == nil {
		return decimal.Zero
	}
	gap := threshold.Sub(have)
	if gap.IsNegative() {
		return decimal.Zero
	}
	return gap
}

// =============================================================================
// TOTALS AGGREGATION
// =============================================================================

// Totals is the aggregated financial position in the reporting currency.
// ExcludedInstruments counts instruments left out because their currency
// could not be converted; callers can distinguish "legitimately zero" from
// "under-counted".
type Totals struct {
	Savings        decimal.Decimal
	MonthlyRevenue decimal.Decimal
	Currency       string

	ExcludedInstruments int
}

// AggregateTotals sums principals and monthly passive revenue across the
// instruments, converted into the FX context's ledger currency. An
// instrument whose currency has no resolvable rate is excluded entirely
// from both sums.
func AggregateTotals(instruments []Instrument, model InterestModel, fx FXContext, asOf Date) Totals {
	totals := Totals{Currency: fx.LedgerCurrency()}
	for _, inst := range instruments {
		inst = inst.Sanitize()

		principal, ok := fx.Convert(inst.Principal, inst.Currency, totals.Currency)
		if !ok {
			totals.ExcludedInstruments++
			continue
		}
		revenue, ok := fx.Convert(model.MonthlyInterest(inst, asOf), inst.Currency, totals.Currency)
		if !ok {
			totals.ExcludedInstruments++
			continue
		}

		totals.Savings = totals.Savings.Add(principal)
		totals.MonthlyRevenue = totals.MonthlyRevenue.Add(revenue)
	}
	return totals
}

// =============================================================================
// TIER SNAPSHOT
// =============================================================================

// TierSnapshot is the derived "where am I" view: totals, ladder placement,
// and expense coverage. Recomputed on demand, never persisted.
type TierSnapshot struct {
	Totals
	Placement

	EstimatedMonthlyExpenses decimal.Decimal
	MonthsOfExpensesSaved    decimal.Decimal
	CoveragePercent          decimal.Decimal
}

// expenseLookbackMonths is the trailing window used to estimate monthly
// expenses from the ledger.
const expenseLookbackMonths = 6

// EstimateMonthlyExpenses averages user-entered expense and withdrawal
// flows over the trailing window. Flows in a currency the context cannot
// convert are skipped.
func EstimateMonthlyExpenses(flows []LedgerFlow, fx FXContext, today Date) decimal.Decimal {
	windowStart := today.AddMonths(-expenseLookbackMonths)
	total := decimal.Zero
	for _, f := range flows {
		if f.Kind != FlowExpense && f.Kind != FlowWithdrawal {
			continue
		}
		if f.Date.Before(windowStart) || f.Date.After(today) {
			continue
		}
		amount, ok := fx.Convert(clampAmount(f.Amount), f.Currency, fx.LedgerCurrency())
		if !ok {
			continue
		}
		total = total.Add(amount)
	}
	return total.Div(decimal.NewFromInt(expenseLookbackMonths))
}

// BuildTierSnapshot computes the full placement view from the current
// instruments, ledger and ladder.
func BuildTierSnapshot(instruments []Instrument, flows []LedgerFlow, tiers []TierDefinition, model InterestModel, fx FXContext, today Date) TierSnapshot {
	totals := AggregateTotals(instruments, model, fx, today)
	snapshot := TierSnapshot{
		Totals:    totals,
		Placement: PlaceOnLadder(totals.Savings, totals.MonthlyRevenue, tiers),
	}

	snapshot.EstimatedMonthlyExpenses = EstimateMonthlyExpenses(flows, fx, today)
	if snapshot.EstimatedMonthlyExpenses.IsPositive() {
		snapshot.MonthsOfExpensesSaved = totals.Savings.Div(snapshot.EstimatedMonthlyExpenses)
		snapshot.CoveragePercent = totals.MonthlyRevenue.Div(snapshot.EstimatedMonthlyExpenses).Mul(oneHundred)
	}
	return snapshot
}

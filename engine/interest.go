/*
interest.go - Monthly interest for one instrument under the rate schedule

PURPOSE:
  Given one fixed-term instrument and a date, compute the interest it earns
  that month. The interesting part is renewal: once the original term has
  elapsed, the deposit rolls over and re-prices to the schedule rate for the
  renewal year. Renewed instruments never keep their original nominal rate.

RATE RESOLUTION:
  1. No start date or zero term  -> nominal rate (simple non-term deposit)
  2. elapsedMonths < 1           -> nominal rate (first month of life)
  3. within first term           -> nominal rate
  4. renewed (index >= 1)        -> RateForYear(year the renewal occurred)

  The domain intentionally uses simple non-compounded monthly estimates:
  monthly interest = principal * annualRate / 100 / 12. Compounding happens
  only through discrete reinvestment events in the simulator.

SEE ALSO:
  - rates.go: RateForYear
  - flows.go: Dates each interest flow on the anniversary day
  - projection.go: Accrues this value per simulated month
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// INTEREST MODEL
// =============================================================================

// InterestModel computes per-month interest for instruments against a rate
// schedule. It is a value; copying is cheap and safe.
type InterestModel struct {
	Rates RateSchedule
}

// EffectiveAnnualRate resolves the annual rate percent the instrument earns
// as of the given date, applying renewal re-pricing.
func (m InterestModel) EffectiveAnnualRate(inst Instrument, asOf Date) decimal.Decimal {
	inst = inst.Sanitize()
	if !inst.IsTermDeposit() {
		return inst.AnnualRatePercent
	}

	elapsed := MonthsBetween(inst.StartDate, asOf)
	if elapsed < 1 {
		return inst.AnnualRatePercent
	}

	renewalIndex := elapsed / inst.TermMonths
	if renewalIndex < 1 {
		return inst.AnnualRatePercent
	}

	// The deposit has rolled over at least once. It re-prices to the
	// schedule rate of the calendar year the latest renewal happened in.
	renewalDate := inst.StartDate.AddMonths(renewalIndex * inst.TermMonths)
	return m.Rates.RateForYear(renewalDate.Year())
}

// MonthlyInterest returns the interest the instrument earns in the month of
// asOf: principal * effectiveAnnualRate / 100 / 12. Never negative; zero
// when principal is zero.
func (m InterestModel) MonthlyInterest(inst Instrument, asOf Date) decimal.Decimal {
	inst = inst.Sanitize()
	rate := m.EffectiveAnnualRate(inst, asOf)
	return inst.Principal.Mul(rate).Div(twelveHundred)
}

// EstimateTotalInterestOverHorizon sums monthly interest for
// min(remainingTermMonths, horizonMonths) months starting at asOf. The
// effective rate is re-derived each month: a renewal boundary inside the
// horizon switches the rate mid-sum.
func (m InterestModel) EstimateTotalInterestOverHorizon(inst Instrument, horizonMonths int, asOf Date) decimal.Decimal {
	inst = inst.Sanitize()
	if horizonMonths <= 0 {
		return decimal.Zero
	}

	months := horizonMonths
	if inst.IsTermDeposit() {
		if remaining := RemainingTermMonths(inst, asOf); remaining < months {
			months = remaining
		}
	}

	total := decimal.Zero
	for i := 0; i < months; i++ {
		total = total.Add(m.MonthlyInterest(inst, asOf.AddMonths(i)))
	}
	return total
}

// RemainingTermMonths returns how many months of the original term are left
// as of the given date. Zero once the term has fully elapsed, and zero for
// non-term deposits.
func RemainingTermMonths(inst Instrument, asOf Date) int {
	if !inst.IsTermDeposit() {
		return 0
	}
	remaining := inst.TermMonths - ElapsedMonths(inst.StartDate, asOf)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MaturityDate returns the last day of the original term:
// startDate + termMonths - 1 day. Zero Date for non-term deposits.
func MaturityDate(inst Instrument) Date {
	if !inst.IsTermDeposit() {
		return Date{}
	}
	return inst.StartDate.AddMonths(inst.TermMonths).AddDays(-1)
}

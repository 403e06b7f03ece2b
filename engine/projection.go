/*
projection.go - Month-by-month wealth growth simulation

PURPOSE:
  Simulates total balance growth for a horizon: either a fixed number of
  months, or "until a savings/revenue target is met". Interest accrues into
  a reinvestment bucket; once the bucket crosses the reinvest step size, a
  round chunk is folded back in as a brand-new interest-bearing instrument
  subject to the same rate schedule. Compounding happens purely through
  these discrete reinvestment events.

PER-MONTH ALGORITHM:
  1. startingBalance = sum of live principals + bucket
  2. every instrument with elapsedMonths >= 1 accrues its effective monthly
     interest into the month's revenue; a weighted blended annual rate is
     tracked for reporting (revenue / eligiblePrincipal * 12 * 100)
  3. bucket += revenue; investable = floor(bucket / step) * step;
     the remainder stays in the bucket
  4. investable > 0 synthesizes a new instrument dated this month, term =
     the fixed reinvest term, rate = RateForYear(currentYear), appended to
     the simulation-local working list
  5. endingBalance = principal total + investable + remaining bucket

TERMINATION:
  A hard iteration cap guarantees the loop ends even when a target is
  unreachable. Reaching the cap without meeting the target reports
  TargetReached=false with whatever was simulated; callers must treat that
  as "unknown / not reached", never as success.

SNAPSHOT SEMANTICS:
  The input instrument list is cloned at call time. The synthetic
  instruments live in a slice local to the run and are never persisted.

SEE ALSO:
  - interest.go: Effective monthly interest with renewal re-pricing
  - rates.go: Pricing of synthetic reinvestments
  - tiers.go: Targets for tier-directed projections
*/
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// HardHorizonCapMonths bounds every simulation run: 100 years of months.
const HardHorizonCapMonths = 1200

// DefaultReinvestTermMonths is the term given to synthetic reinvestment
// instruments.
const DefaultReinvestTermMonths = 12

// DefaultReinvestStep is the chunk size for discrete reinvestment: interest
// is reinvested only in round multiples of this amount.
var DefaultReinvestStep = decimal.NewFromInt(1000)

// SimulatorConfig tunes the reinvestment behavior of a projection run.
type SimulatorConfig struct {
	// ReinvestStep is the discrete chunk size. Non-positive disables
	// reinvestment entirely: revenue just pools in the bucket.
	ReinvestStep decimal.Decimal

	// ReinvestTermMonths is the term of each synthetic instrument.
	ReinvestTermMonths int

	// MaxMonths caps the run. Zero or negative falls back to the hard cap;
	// values above the hard cap are clamped to it.
	MaxMonths int
}

// DefaultSimulatorConfig returns the stock reinvestment configuration.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		ReinvestStep:       DefaultReinvestStep,
		ReinvestTermMonths: DefaultReinvestTermMonths,
		MaxMonths:          HardHorizonCapMonths,
	}
}

func (c SimulatorConfig) cap() int {
	if c.MaxMonths <= 0 || c.MaxMonths > HardHorizonCapMonths {
		return HardHorizonCapMonths
	}
	return c.MaxMonths
}

// =============================================================================
// TARGETS
// =============================================================================

// Target is a stop condition for tier-directed projections. Nil thresholds
// count as already met; a Target with both nil is met immediately.
type Target struct {
	MinSavings        *decimal.Decimal
	MinMonthlyRevenue *decimal.Decimal
}

// MetBy reports whether the given balance and monthly revenue satisfy the
// target.
func (t Target) MetBy(balance, monthlyRevenue decimal.Decimal) bool {
	if t.MinSavings != nil && balance.LessThan(*t.MinSavings) {
		return false
	}
	if t.MinMonthlyRevenue != nil && monthlyRevenue.LessThan(*t.MinMonthlyRevenue) {
		return false
	}
	return true
}

// TargetForTier builds the stop condition for reaching a tier.
func TargetForTier(tier TierDefinition) Target {
	return Target{MinSavings: tier.MinSavings, MinMonthlyRevenue: tier.MinMonthlyRevenue}
}

// =============================================================================
// RESULT ROWS
// =============================================================================

// MonthRow is one simulated month, retained for drill-down under its year.
type MonthRow struct {
	Year  int
	Month time.Month

	StartingBalance    decimal.Decimal
	Revenue            decimal.Decimal
	Invested           decimal.Decimal
	Bucket             decimal.Decimal
	EndingBalance      decimal.Decimal
	BlendedRatePercent decimal.Decimal

	// EligiblePrincipal is the principal that earned interest this month
	// (instruments at least one month old). Basis of the blended rate.
	EligiblePrincipal decimal.Decimal
}

// YearRow aggregates a calendar year of simulation, expandable into its
// constituent month rows.
type YearRow struct {
	Year int

	StartingBalance     decimal.Decimal
	EndingDepositTotal  decimal.Decimal
	Invested            decimal.Decimal
	Revenue             decimal.Decimal
	EndingBalance       decimal.Decimal
	BlendedRatePercent  decimal.Decimal
	UninvestedRemainder decimal.Decimal

	Months []MonthRow
}

// Projection is the result of one simulation run.
type Projection struct {
	Years           []YearRow
	MonthsSimulated int

	// TargetReached is only ever true when a target was supplied and met
	// within the horizon. A capped run that never met its target reports
	// false; callers must not infer success from the rows alone.
	TargetReached bool
	ReachedAt     Date
}

// =============================================================================
// SIMULATOR
// =============================================================================

// Simulator runs wealth projections against a rate schedule.
type Simulator struct {
	Rates  RateSchedule
	Config SimulatorConfig
}

// NewSimulator builds a simulator with the stock configuration.
func NewSimulator(rates RateSchedule) Simulator {
	return Simulator{Rates: rates, Config: DefaultSimulatorConfig()}
}

// ProjectMonths simulates a fixed number of months. The month count is
// clamped into [0, hard cap].
func (s Simulator) ProjectMonths(instruments []Instrument, months int, start Date) Projection {
	if months < 0 {
		months = 0
	}
	if months > s.Config.cap() {
		months = s.Config.cap()
	}
	return s.run(instruments, start, months, nil)
}

// ProjectToTarget simulates until the target is met, up to the configured
// cap. An empty target is met in the first simulated month.
func (s Simulator) ProjectToTarget(instruments []Instrument, target Target, start Date) Projection {
	return s.run(instruments, start, s.Config.cap(), &target)
}

// run is the core month loop. A nil target means "fixed horizon".
func (s Simulator) run(instruments []Instrument, start Date, maxMonths int, target *Target) Projection {
	model := InterestModel{Rates: s.Rates}

	// Defensive snapshot: the caller may mutate its slice while we loop.
	// Synthetic reinvestments are appended here and die with the run.
	working := make([]Instrument, 0, len(instruments))
	for _, inst := range instruments {
		working = append(working, inst.Sanitize())
	}

	principalTotal := decimal.Zero
	for _, inst := range working {
		principalTotal = principalTotal.Add(inst.Principal)
	}

	bucket := decimal.Zero
	syntheticSeq := 0

	var (
		months  []MonthRow
		result  Projection
		reached bool
	)

	for i := 0; i < maxMonths; i++ {
		current := start.AddMonths(i)
		startingBalance := principalTotal.Add(bucket)

		// Accrue interest for every instrument at least one month old.
		revenue := decimal.Zero
		eligiblePrincipal := decimal.Zero
		for _, inst := range working {
			if inst.IsTermDeposit() && MonthsBetween(inst.StartDate, current) < 1 {
				continue
			}
			revenue = revenue.Add(model.MonthlyInterest(inst, current))
			eligiblePrincipal = eligiblePrincipal.Add(inst.Principal)
		}

		blendedRate := decimal.Zero
		if eligiblePrincipal.IsPositive() {
			blendedRate = revenue.Div(eligiblePrincipal).Mul(twelveHundred)
		}

		// Pool revenue, then peel off the largest round chunk.
		bucket = bucket.Add(revenue)
		investable := decimal.Zero
		if s.Config.ReinvestStep.IsPositive() {
			investable = bucket.Div(s.Config.ReinvestStep).Floor().Mul(s.Config.ReinvestStep)
		}
		if investable.IsPositive() {
			bucket = bucket.Sub(investable)
			syntheticSeq++
			working = append(working, Instrument{
				ID:                InstrumentID(fmt.Sprintf("sim:%s:%d", current, syntheticSeq)),
				Name:              "reinvestment",
				Principal:         investable,
				StartDate:         current,
				TermMonths:        s.Config.ReinvestTermMonths,
				AnnualRatePercent: s.Rates.RateForYear(current.Year()),
			})
			principalTotal = principalTotal.Add(investable)
		}

		endingBalance := principalTotal.Add(bucket)

		months = append(months, MonthRow{
			Year:               current.Year(),
			Month:              current.Month(),
			StartingBalance:    startingBalance,
			Revenue:            revenue,
			Invested:           investable,
			Bucket:             bucket,
			EndingBalance:      endingBalance,
			BlendedRatePercent: blendedRate,
			EligiblePrincipal:  eligiblePrincipal,
		})

		if target != nil && target.MetBy(endingBalance, revenue) {
			reached = true
			result.ReachedAt = current
			break
		}
	}

	result.Years = groupByYear(months)
	result.MonthsSimulated = len(months)
	result.TargetReached = reached
	return result
}

// groupByYear folds month rows into calendar-year aggregates.
func groupByYear(months []MonthRow) []YearRow {
	var years []YearRow
	for _, mr := range months {
		if len(years) == 0 || years[len(years)-1].Year != mr.Year {
			years = append(years, YearRow{Year: mr.Year, StartingBalance: mr.StartingBalance})
		}
		yr := &years[len(years)-1]
		yr.Invested = yr.Invested.Add(mr.Invested)
		yr.Revenue = yr.Revenue.Add(mr.Revenue)
		yr.EndingBalance = mr.EndingBalance
		yr.UninvestedRemainder = mr.Bucket
		yr.EndingDepositTotal = mr.EndingBalance.Sub(mr.Bucket)
		yr.Months = append(yr.Months, mr)
	}

	// Blended rate per year: revenue over average eligible principal,
	// annualized. Months where nothing earned dilute the average.
	for i := range years {
		yr := &years[i]
		principalMonths := decimal.Zero
		for _, mr := range yr.Months {
			principalMonths = principalMonths.Add(mr.EligiblePrincipal)
		}
		if principalMonths.IsPositive() {
			yr.BlendedRatePercent = yr.Revenue.Div(principalMonths).Mul(twelveHundred)
		}
	}
	return years
}

/*
rates.go - Year-indexed annual interest rate schedule

PURPOSE:
  The rate schedule answers one question: "what annual rate does the bank
  pay for a deposit opened in year Y?" It is the leaf dependency of the
  interest model, the flow synchronizer and the projection simulator.

SHAPE:
  Without overrides the schedule is a simple linear decay: the base rate
  minus one percentage point per year after the base year, floored at a
  minimum. Users can pin specific years via overrides; any year not pinned
  falls back to the computed decay.

NO ERROR CONDITIONS:
  Inputs are clamped, not rejected. A negative horizon yields an empty
  sequence; an override for a far-future year simply sits in the sparse map
  until asked for.

SEE ALSO:
  - interest.go: Uses RateForYear for renewal re-pricing
  - projection.go: Uses RateForYear to price synthetic reinvestments
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE SCHEDULE
// =============================================================================

// RateYear is one row of the schedule: the annual rate for deposits opened
// in a given calendar year. At most one entry per year.
type RateYear struct {
	Year              int
	AnnualRatePercent decimal.Decimal
}

// Default decay parameters. The decay drops one percentage point per year
// from the base rate until it hits the floor.
var (
	DefaultBaseRatePercent = decimal.NewFromInt(17)
	DefaultFloorPercent    = decimal.NewFromInt(8)
)

// RateSchedule resolves annual rates per calendar year. Overrides are a
// sparse set; everything else is the linear decay. The schedule is a value:
// read once at simulation start, never a live subscription.
type RateSchedule struct {
	baseYear  int
	baseRate  decimal.Decimal
	floorRate decimal.Decimal
	overrides map[int]decimal.Decimal
}

// NewRateSchedule builds a schedule with the given decay parameters and
// overrides. Later overrides for the same year win; negative rates clamp
// to zero.
func NewRateSchedule(baseYear int, baseRatePercent, floorPercent decimal.Decimal, overrides []RateYear) RateSchedule {
	s := RateSchedule{
		baseYear:  baseYear,
		baseRate:  clampAmount(baseRatePercent),
		floorRate: clampAmount(floorPercent),
		overrides: make(map[int]decimal.Decimal, len(overrides)),
	}
	for _, o := range overrides {
		s.overrides[o.Year] = clampAmount(o.AnnualRatePercent)
	}
	return s
}

// DefaultRateSchedule builds the stock declining schedule anchored at
// baseYear, with no overrides.
func DefaultRateSchedule(baseYear int) RateSchedule {
	return NewRateSchedule(baseYear, DefaultBaseRatePercent, DefaultFloorPercent, nil)
}

// BaseYear returns the year the decay is anchored at.
func (s RateSchedule) BaseYear() int { return s.baseYear }

// RateForYear returns the annual rate percent for the given year: the
// explicit override if one exists, otherwise
// max(floor, base - (year - baseYear)).
func (s RateSchedule) RateForYear(year int) decimal.Decimal {
	if r, ok := s.overrides[year]; ok {
		return r
	}
	decayed := s.baseRate.Sub(decimal.NewFromInt(int64(year - s.baseYear)))
	if decayed.LessThan(s.floorRate) {
		return s.floorRate
	}
	return decayed
}

// DefaultSchedule materializes (year, rate) pairs for horizonYears years
// starting at the base year. A negative or zero horizon yields an empty
// sequence.
func (s RateSchedule) DefaultSchedule(horizonYears int) []RateYear {
	if horizonYears <= 0 {
		return nil
	}
	out := make([]RateYear, 0, horizonYears)
	for y := s.baseYear; y < s.baseYear+horizonYears; y++ {
		out = append(out, RateYear{Year: y, AnnualRatePercent: s.RateForYear(y)})
	}
	return out
}

// Overrides returns the sparse override rows, ordered by year.
func (s RateSchedule) Overrides() []RateYear {
	out := make([]RateYear, 0, len(s.overrides))
	for y := range s.overrides {
		out = append(out, RateYear{Year: y, AnnualRatePercent: s.overrides[y]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

/*
fx.go - Currency conversion context

PURPOSE:
  All ledger amounts are kept in one canonical currency, and tier totals are
  aggregated in one reporting currency. The FXContext is the explicit bag of
  pairwise rates used for those conversions. It is a parameter passed into
  the engine, never ambient state, so every computation stays pure and
  testable.

MISSING RATES:
  Conversion never guesses. When no rate (direct or inverse) is resolvable
  for a pair, Convert reports ok=false and the caller decides:
  - flows.go keeps the amount in its original currency;
  - tiers.go excludes the instrument from totals and counts the exclusion.
  A deliberate under-count beats a silently wrong number.

SEE ALSO:
  - flows.go: Converts auto-flow amounts into the ledger currency
  - tiers.go: Converts principals into the reporting currency
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// FX SNAPSHOT
// =============================================================================

// FXSnapshot is a single observed conversion rate between two currencies.
// IsCached marks rates served from a local cache rather than a fresh fetch;
// the engine uses them identically, the flag exists for display.
type FXSnapshot struct {
	Rate        decimal.Decimal
	TimestampMs int64
	IsCached    bool
}

type currencyPair struct {
	From string
	To   string
}

// =============================================================================
// FX CONTEXT
// =============================================================================

// FXContext holds the rate snapshots available to one engine invocation,
// plus the canonical ledger currency everything is normalized to.
type FXContext struct {
	ledgerCurrency string
	rates          map[currencyPair]FXSnapshot
}

// NewFXContext creates an empty context normalizing into ledgerCurrency.
func NewFXContext(ledgerCurrency string) FXContext {
	return FXContext{
		ledgerCurrency: ledgerCurrency,
		rates:          make(map[currencyPair]FXSnapshot),
	}
}

// LedgerCurrency returns the canonical currency ledger flows are kept in.
func (fx FXContext) LedgerCurrency() string { return fx.ledgerCurrency }

// WithRate returns a copy of the context that also knows the given rate.
// Non-positive rates are ignored; they could never produce a meaningful
// conversion.
func (fx FXContext) WithRate(from, to string, snap FXSnapshot) FXContext {
	if !snap.Rate.IsPositive() {
		return fx
	}
	next := FXContext{
		ledgerCurrency: fx.ledgerCurrency,
		rates:          make(map[currencyPair]FXSnapshot, len(fx.rates)+1),
	}
	for p, s := range fx.rates {
		next.rates[p] = s
	}
	next.rates[currencyPair{From: from, To: to}] = snap
	return next
}

// Convert converts amount from one currency to another. Same-currency
// conversion is the identity. Falls back to the inverse pair when only the
// opposite direction is known. Returns ok=false when no rate resolves.
func (fx FXContext) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	if from == to {
		return amount, true
	}
	if snap, ok := fx.rates[currencyPair{From: from, To: to}]; ok {
		return amount.Mul(snap.Rate), true
	}
	if snap, ok := fx.rates[currencyPair{From: to, To: from}]; ok {
		return amount.Div(snap.Rate), true
	}
	return decimal.Zero, false
}

// ToLedger converts an amount into the ledger currency, reporting the
// currency the result is actually denominated in. When no rate resolves the
// amount is returned unchanged with its original currency attached.
func (fx FXContext) ToLedger(amount decimal.Decimal, currency string) (decimal.Decimal, string) {
	converted, ok := fx.Convert(amount, currency, fx.ledgerCurrency)
	if !ok {
		return amount, currency
	}
	return converted, fx.ledgerCurrency
}

/*
store.go - Persistence interfaces at the engine boundary

PURPOSE:
  The engine is computation-only: every function is pure over its inputs.
  Reads and writes of instruments, flows, rate overrides, tiers and FX
  rates sit behind these interfaces and are owned by external
  collaborators. Different implementations can use SQLite or in-memory
  storage.

FLOW REPLACEMENT CONTRACT:
  ReplaceFlows persists a full replacement ledger, computed by
  FlowSynchronizer.Reconcile. Because reconcile output is deterministic and
  idempotent, concurrent re-syncs are safe to coalesce: last write wins.
  Callers compare with the stored ledger (EqualFlowSets) and skip the write
  when nothing changed.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - engine/store: In-memory store for tests and dev
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
)

// InstrumentStore persists the deposit instruments.
type InstrumentStore interface {
	ListInstruments(ctx context.Context) ([]Instrument, error)
	GetInstrument(ctx context.Context, id InstrumentID) (Instrument, error)
	SaveInstrument(ctx context.Context, inst Instrument) error
	DeleteInstrument(ctx context.Context, id InstrumentID) error
}

// FlowStore persists the ledger.
type FlowStore interface {
	ListFlows(ctx context.Context) ([]LedgerFlow, error)

	// ReplaceFlows atomically replaces the entire ledger with the given
	// reconciled set.
	ReplaceFlows(ctx context.Context, flows []LedgerFlow) error

	// AppendFlow adds one user-owned flow.
	AppendFlow(ctx context.Context, flow LedgerFlow) error
}

// RateOverrideStore persists user overrides of the rate schedule.
type RateOverrideStore interface {
	ListRateOverrides(ctx context.Context) ([]RateYear, error)
	SaveRateOverride(ctx context.Context, row RateYear) error
	DeleteRateOverride(ctx context.Context, year int) error
}

// TierStore persists the tier ladder.
type TierStore interface {
	ListTiers(ctx context.Context) ([]TierDefinition, error)
	SaveTier(ctx context.Context, tier TierDefinition) error
	DeleteTier(ctx context.Context, id TierID) error
}

// FXRate is a persisted conversion rate observation.
type FXRate struct {
	From        string
	To          string
	Rate        decimal.Decimal
	TimestampMs int64
}

// FXStore persists cached FX rates. Rates loaded from here are marked
// IsCached when folded into an FXContext.
type FXStore interface {
	ListFXRates(ctx context.Context) ([]FXRate, error)
	SaveFXRate(ctx context.Context, rate FXRate) error
}

// Store is the full persistence surface the dashboard needs.
type Store interface {
	InstrumentStore
	FlowStore
	RateOverrideStore
	TierStore
	FXStore
}

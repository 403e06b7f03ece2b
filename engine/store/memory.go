// Package store provides engine.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/wealth-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	instruments map[engine.InstrumentID]engine.Instrument
	flows       []engine.LedgerFlow
	overrides   map[int]engine.RateYear
	tiers       map[engine.TierID]engine.TierDefinition
	fxRates     map[string]engine.FXRate
}

func NewMemory() *Memory {
	return &Memory{
		instruments: make(map[engine.InstrumentID]engine.Instrument),
		overrides:   make(map[int]engine.RateYear),
		tiers:       make(map[engine.TierID]engine.TierDefinition),
		fxRates:     make(map[string]engine.FXRate),
	}
}

// --- InstrumentStore ---

func (m *Memory) ListInstruments(_ context.Context) ([]engine.Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Instrument, 0, len(m.instruments))
	for _, inst := range m.instruments {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetInstrument(_ context.Context, id engine.InstrumentID) (engine.Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instruments[id]
	if !ok {
		return engine.Instrument{}, engine.ErrInstrumentNotFound
	}
	return inst, nil
}

func (m *Memory) SaveInstrument(_ context.Context, inst engine.Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instruments[inst.ID] = inst
	return nil
}

func (m *Memory) DeleteInstrument(_ context.Context, id engine.InstrumentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instruments[id]; !ok {
		return engine.ErrInstrumentNotFound
	}
	delete(m.instruments, id)
	return nil
}

// --- FlowStore ---

func (m *Memory) ListFlows(_ context.Context) ([]engine.LedgerFlow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.LedgerFlow, len(m.flows))
	copy(out, m.flows)
	return out, nil
}

func (m *Memory) ReplaceFlows(_ context.Context, flows []engine.LedgerFlow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows = make([]engine.LedgerFlow, len(flows))
	copy(m.flows, flows)
	return nil
}

func (m *Memory) AppendFlow(_ context.Context, flow engine.LedgerFlow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows = append(m.flows, flow)
	return nil
}

// --- RateOverrideStore ---

func (m *Memory) ListRateOverrides(_ context.Context) ([]engine.RateYear, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.RateYear, 0, len(m.overrides))
	for _, row := range m.overrides {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

func (m *Memory) SaveRateOverride(_ context.Context, row engine.RateYear) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[row.Year] = row
	return nil
}

func (m *Memory) DeleteRateOverride(_ context.Context, year int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, year)
	return nil
}

// --- TierStore ---

func (m *Memory) ListTiers(_ context.Context) ([]engine.TierDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.TierDefinition, 0, len(m.tiers))
	for _, tier := range m.tiers {
		out = append(out, tier)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *Memory) SaveTier(_ context.Context, tier engine.TierDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers[tier.ID] = tier
	return nil
}

func (m *Memory) DeleteTier(_ context.Context, id engine.TierID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tiers[id]; !ok {
		return engine.ErrTierNotFound
	}
	delete(m.tiers, id)
	return nil
}

// --- FXStore ---

func (m *Memory) ListFXRates(_ context.Context) ([]engine.FXRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.FXRate, 0, len(m.fxRates))
	for _, r := range m.fxRates {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out, nil
}

func (m *Memory) SaveFXRate(_ context.Context, rate engine.FXRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fxRates[rate.From+"/"+rate.To] = rate
	return nil
}

/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Pre-built scenarios that populate the store with realistic data for
  demos. Each scenario seeds instruments, tiers and FX rates that
  demonstrate a specific engine feature, then reconciles the ledger.

AVAILABLE SCENARIOS:
  starter-portfolio:  Two term deposits, default ladder
  renewed-deposit:    A deposit past its original term (schedule re-pricing)
  multi-currency:     Deposits in two currencies plus a cached FX rate

NOTE:
  Scenarios upsert over existing data with fixed ids. Only use in
  development/demo environments.

SEE ALSO:
  - handlers.go: ListScenarios, LoadScenario handlers
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/wealth-engine/engine"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "starter-portfolio",
		Name:        "Starter Portfolio",
		Description: "Two term deposits and the default tier ladder",
	},
	{
		ID:          "renewed-deposit",
		Name:        "Renewed Deposit",
		Description: "A deposit past its original term, re-priced from the schedule",
	},
	{
		ID:          "multi-currency",
		Name:        "Multi-Currency",
		Description: "Deposits in two currencies with a cached FX rate",
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario seeds the store with the selected scenario's data.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error
	switch req.ScenarioID {
	case "starter-portfolio":
		err = h.loadStarterPortfolio(ctx)
	case "renewed-deposit":
		err = h.loadRenewedDeposit(ctx)
	case "multi-currency":
		err = h.loadMultiCurrency(ctx)
	default:
		writeError(w, http.StatusNotFound, "Unknown scenario", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	if _, err := h.Resync(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reconcile ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// defaultLadder is the stock four-rung ladder seeded by scenarios.
func defaultLadder() []engine.TierDefinition {
	return []engine.TierDefinition{
		{
			ID: "tier-cushion", Order: 1, DisplayName: "Safety Cushion",
			MinSavings:  decPtr("0"),
			Description: "Any savings at all",
		},
		{
			ID: "tier-reserve", Order: 2, DisplayName: "Reserve",
			MinSavings: decPtr("100000"), MinMonthlyRevenue: decPtr("2000"),
			Description: "Half a year of expenses put aside",
		},
		{
			ID: "tier-security", Order: 3, DisplayName: "Security",
			MinSavings: decPtr("250000"), MinMonthlyRevenue: decPtr("4000"),
			Description: "Passive income covers essential spending",
		},
		{
			ID: "tier-independence", Order: 4, DisplayName: "Independence",
			MinSavings: decPtr("1000000"), MinMonthlyRevenue: decPtr("12000"),
			Description: "Passive income covers all spending",
		},
	}
}

func (h *Handler) seedTiers(ctx context.Context) error {
	for _, tier := range defaultLadder() {
		if err := h.Store.SaveTier(ctx, tier); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadStarterPortfolio(ctx context.Context) error {
	if err := h.seedTiers(ctx); err != nil {
		return err
	}

	today := engine.Today()
	instruments := []engine.Instrument{
		{
			ID: "demo-deposit-1", Name: "12-month deposit",
			Currency: h.LedgerCurrency, Principal: dec("120000"),
			StartDate: today.AddMonths(-2), TermMonths: 12,
			AnnualRatePercent: dec("16"), PayoutFrequency: "monthly",
		},
		{
			ID: "demo-deposit-2", Name: "6-month deposit",
			Currency: h.LedgerCurrency, Principal: dec("50000"),
			StartDate: today.AddMonths(-1), TermMonths: 6,
			AnnualRatePercent: dec("14"), PayoutFrequency: "at_maturity",
		},
	}
	for _, inst := range instruments {
		if err := h.Store.SaveInstrument(ctx, inst); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadRenewedDeposit(ctx context.Context) error {
	if err := h.seedTiers(ctx); err != nil {
		return err
	}

	// Started 14 months ago with a 12 month term: one renewal behind it,
	// so its effective rate comes from the schedule, not the contract.
	inst := engine.Instrument{
		ID: "demo-renewed", Name: "Rolled-over deposit",
		Currency: h.LedgerCurrency, Principal: dec("200000"),
		StartDate: engine.Today().AddMonths(-14), TermMonths: 12,
		AnnualRatePercent: dec("17"), AutoRenew: true,
	}
	return h.Store.SaveInstrument(ctx, inst)
}

func (h *Handler) loadMultiCurrency(ctx context.Context) error {
	if err := h.seedTiers(ctx); err != nil {
		return err
	}

	today := engine.Today()
	instruments := []engine.Instrument{
		{
			ID: "demo-local", Name: "Local deposit",
			Currency: h.LedgerCurrency, Principal: dec("300000"),
			StartDate: today.AddMonths(-3), TermMonths: 12,
			AnnualRatePercent: dec("15"),
		},
		{
			ID: "demo-usd", Name: "USD deposit",
			Currency: "USD", Principal: dec("1000"),
			StartDate: today.AddMonths(-3), TermMonths: 12,
			AnnualRatePercent: dec("4"),
		},
	}
	for _, inst := range instruments {
		if err := h.Store.SaveInstrument(ctx, inst); err != nil {
			return err
		}
	}

	return h.Store.SaveFXRate(ctx, engine.FXRate{
		From: "USD", To: h.LedgerCurrency,
		Rate: dec("400"), TimestampMs: time.Now().UnixMilli(),
	})
}

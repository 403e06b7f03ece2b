/*
handlers_test.go - HTTP-level tests for the API

Exercises the full request path (router, handlers, engine) against the
in-memory store. Fixtures are anchored to "today" so derived flows and
rate lookups stay stable regardless of when the tests run.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wealth-engine/engine"
	"github.com/warp/wealth-engine/engine/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer(t *testing.T) (*Handler, *httptest.Server) {
	t.Helper()
	h := NewHandler(store.NewMemory(), zerolog.Nop(), "AMD")
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return h, srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// depositRequest starts exactly three months ago, anchored to the first of
// the month so elapsed-month math does not depend on the day the tests run.
func depositRequest() SaveInstrumentRequest {
	today := engine.Today()
	start := engine.NewDate(today.Year(), today.Month(), 1).AddMonths(-3)
	return SaveInstrumentRequest{
		Name:              "Term deposit",
		Currency:          "AMD",
		Principal:         dec("120000"),
		StartDate:         start.String(),
		TermMonths:        12,
		AnnualRatePercent: dec("17"),
	}
}

// =============================================================================
// INSTRUMENTS
// =============================================================================

func TestCreateInstrument_GeneratesIDAndSyncsLedger(t *testing.T) {
	// GIVEN: A create request without an id
	// THEN: An id is assigned and the ledger is reconciled as a side effect

	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/instruments", depositRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[InstrumentDTO](t, resp)
	assert.NotEmpty(t, created.ID)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/flows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	flows := decodeBody[[]FlowDTO](t, resp)
	// investment + 12 interest + matured principal
	assert.Len(t, flows, 14)
	for _, f := range flows {
		assert.True(t, f.MachineOwned)
		assert.Equal(t, created.ID, f.InstrumentID)
	}
}

func TestCreateInstrument_MissingNameRejected(t *testing.T) {
	_, srv := newTestServer(t)

	req := depositRequest()
	req.Name = ""
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/instruments", req)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteInstrument_RemovesItsFlows(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/instruments", depositRequest())
	created := decodeBody[InstrumentDTO](t, resp)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/instruments/"+created.ID, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/flows", nil)
	flows := decodeBody[[]FlowDTO](t, resp)
	assert.Empty(t, flows)
}

func TestGetInstrument_NotFound(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/instruments/nope", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetInstrumentInterest_Summary(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/instruments", depositRequest())
	created := decodeBody[InstrumentDTO](t, resp)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/instruments/"+created.ID+"/interest?horizon=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeBody[InterestSummaryDTO](t, resp)

	// Three months in: still inside the original term, nominal pricing.
	assert.True(t, summary.MonthlyInterest.Equal(dec("1700")), "got %s", summary.MonthlyInterest)
	assert.True(t, summary.EffectiveAnnualRate.Equal(dec("17")))
	assert.Equal(t, 9, summary.RemainingTermMonths)
	assert.Equal(t, 3, summary.HorizonMonths)
	assert.True(t, summary.HorizonInterest.Equal(dec("5100")))
	assert.NotEmpty(t, summary.MaturityDate)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestCreateFlow_UserOwnedSurvivesSync(t *testing.T) {
	// GIVEN: A manually entered expense
	// WHEN: Forcing a reconcile
	// THEN: The entry is still there

	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/flows", CreateFlowRequest{
		Kind:        "expense",
		Date:        engine.Today().AddMonths(-1).String(),
		Amount:      dec("500"),
		Description: "groceries",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[FlowDTO](t, resp)
	assert.False(t, created.MachineOwned)
	assert.Equal(t, "AMD", created.Currency, "defaults to the ledger currency")

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/sync", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/flows", nil)
	flows := decodeBody[[]FlowDTO](t, resp)
	require.Len(t, flows, 1)
	assert.Equal(t, created.ID, flows[0].ID)
}

func TestCreateFlow_UnknownKindRejected(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/flows", CreateFlowRequest{
		Kind: "bribe", Date: "2025-01-01", Amount: dec("1"),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSync_SecondRunIsNoop(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/instruments", depositRequest())
	resp.Body.Close()

	// The create already reconciled; an explicit sync finds nothing to do.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/sync", nil)
	first := decodeBody[SyncResponseDTO](t, resp)
	assert.False(t, first.Changed)
	assert.Equal(t, 14, first.FlowCount)
}

// =============================================================================
// RATES
// =============================================================================

func TestRateSchedule_OverrideMarkedAndApplied(t *testing.T) {
	_, srv := newTestServer(t)
	year := engine.Today().Year() + 1

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/rates/overrides", SaveRateOverrideRequest{
		Year: year, AnnualRatePercent: dec("12.5"),
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/rates?horizon=3", nil)
	rows := decodeBody[[]RateYearDTO](t, resp)
	require.Len(t, rows, 3)

	assert.True(t, rows[0].AnnualRatePercent.Equal(dec("17")), "base year stays on the default")
	assert.False(t, rows[0].Overridden)
	assert.Equal(t, year, rows[1].Year)
	assert.True(t, rows[1].Overridden)
	assert.True(t, rows[1].AnnualRatePercent.Equal(dec("12.5")))
}

func TestRateOverride_YearOutOfRangeRejected(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/rates/overrides", SaveRateOverrideRequest{
		Year: 99, AnnualRatePercent: dec("12"),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateOverride_Delete(t *testing.T) {
	_, srv := newTestServer(t)
	year := engine.Today().Year() + 2

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/rates/overrides", SaveRateOverrideRequest{
		Year: year, AnnualRatePercent: dec("11"),
	})
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/rates/overrides/%d", srv.URL, year), nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/rates/overrides", nil)
	overrides := decodeBody[[]RateYearDTO](t, resp)
	assert.Empty(t, overrides)
}

// =============================================================================
// TIERS
// =============================================================================

func TestSaveTier_RejectsBrokenLadder(t *testing.T) {
	// GIVEN: An existing tier requiring 100000 savings
	// WHEN: Adding a higher tier requiring less
	// THEN: The save is rejected, the ladder stays intact

	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tiers", TierDTO{
		ID: "tier-a", Order: 1, DisplayName: "A", MinSavings: decPtr("100000"),
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tiers", TierDTO{
		ID: "tier-b", Order: 2, DisplayName: "B", MinSavings: decPtr("50000"),
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/tiers", nil)
	tiers := decodeBody[[]TierDTO](t, resp)
	assert.Len(t, tiers, 1)
}

func TestTierSnapshot_PlacesOnLadder(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/instruments", depositRequest())
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tiers", TierDTO{
		ID: "tier-a", Order: 1, DisplayName: "A",
	})
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tiers", TierDTO{
		ID: "tier-b", Order: 2, DisplayName: "B", MinSavings: decPtr("500000"),
	})
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/tiers/snapshot", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeBody[TierSnapshotDTO](t, resp)

	assert.True(t, snap.TotalSavings.Equal(dec("120000")))
	assert.True(t, snap.MonthlyPassiveIncome.Equal(dec("1700")))
	assert.Equal(t, "AMD", snap.Currency)
	assert.Equal(t, "tier-a", snap.CurrentTierID)
	assert.Equal(t, "tier-b", snap.NextTierID)
	assert.True(t, snap.SavingsGap.Equal(dec("380000")), "got %s", snap.SavingsGap)
}

// =============================================================================
// PROJECTIONS
// =============================================================================

func TestRunProjection_FixedHorizon(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/instruments", depositRequest())
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/projection", ProjectionRequest{Months: 12})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decodeBody[ProjectionDTO](t, resp)

	assert.Equal(t, 12, p.MonthsSimulated)
	assert.False(t, p.TargetReached)
	assert.NotEmpty(t, p.Years)
}

func TestRunProjection_TargetTier(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/instruments", depositRequest())
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tiers", TierDTO{
		ID: "tier-near", Order: 1, DisplayName: "Near", MinSavings: decPtr("121000"),
	})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/projection", ProjectionRequest{TargetTierID: "tier-near"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decodeBody[ProjectionDTO](t, resp)

	assert.True(t, p.TargetReached)
	assert.NotEmpty(t, p.ReachedAt)
}

func TestRunProjection_UnknownTargetTier(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/projection", ProjectionRequest{TargetTierID: "nope"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// FX
// =============================================================================

func TestSaveFXRate_RejectsNonPositiveRate(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/fx", FXRateDTO{From: "USD", To: "AMD", Rate: dec("0")})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaveFXRate_ConvertsForeignInstrumentFlows(t *testing.T) {
	// GIVEN: A USD deposit with no known rate (flows stay in USD)
	// WHEN: Storing a USD->AMD rate
	// THEN: The triggered resync rewrites the flows in AMD

	_, srv := newTestServer(t)

	req := depositRequest()
	req.Currency = "USD"
	req.Principal = dec("1000")
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/instruments", req)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/flows", nil)
	flows := decodeBody[[]FlowDTO](t, resp)
	require.NotEmpty(t, flows)
	assert.Equal(t, "USD", flows[0].Currency)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/fx", FXRateDTO{From: "USD", To: "AMD", Rate: dec("400")})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/flows", nil)
	flows = decodeBody[[]FlowDTO](t, resp)
	require.NotEmpty(t, flows)
	for _, f := range flows {
		assert.Equal(t, "AMD", f.Currency)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/fx", nil)
	rates := decodeBody[[]FXRateDTO](t, resp)
	require.Len(t, rates, 1)
	assert.True(t, rates[0].IsCached)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_ListAndLoad(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/scenarios", nil)
	available := decodeBody[[]ScenarioDTO](t, resp)
	require.NotEmpty(t, available)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load", LoadScenarioRequest{
		ScenarioID: "starter-portfolio",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/instruments", nil)
	instruments := decodeBody[[]InstrumentDTO](t, resp)
	assert.Len(t, instruments, 2)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/tiers", nil)
	tiers := decodeBody[[]TierDTO](t, resp)
	assert.Len(t, tiers, 4)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/flows", nil)
	flows := decodeBody[[]FlowDTO](t, resp)
	assert.NotEmpty(t, flows, "loading a scenario reconciles the ledger")
}

func TestScenarios_UnknownRejected(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

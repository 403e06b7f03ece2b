/*
handlers.go - HTTP API handlers for the wealth engine

PURPOSE:
  Exposes the projection and tier-placement engine via REST. Handles HTTP
  request/response, JSON serialization, and delegates every computation to
  the engine package.

ENDPOINTS:
  Instruments:
    GET    /api/instruments                 List deposits
    POST   /api/instruments                 Create deposit (triggers resync)
    GET    /api/instruments/{id}            Get one deposit
    PUT    /api/instruments/{id}            Update deposit (triggers resync)
    DELETE /api/instruments/{id}            Delete deposit (triggers resync)
    GET    /api/instruments/{id}/interest   Interest summary

  Ledger:
    GET    /api/flows                       Reconciled ledger
    POST   /api/flows                       Add user-owned entry
    POST   /api/sync                        Force a reconcile

  Rates:
    GET    /api/rates                       Resolved schedule (?horizon=N)
    GET    /api/rates/overrides             List overrides
    PUT    /api/rates/overrides             Pin a year
    DELETE /api/rates/overrides/{year}      Unpin a year

  Tiers:
    GET    /api/tiers                       The ladder
    POST   /api/tiers                       Create/update a tier
    DELETE /api/tiers/{id}                  Delete a tier
    GET    /api/tiers/snapshot              Current placement snapshot

  Projections:
    POST   /api/projection                  Run a simulation

  FX:
    GET    /api/fx                          Cached rates
    PUT    /api/fx                          Store a rate

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call engine (schedule, synchronizer, simulator, placement)
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scenarios.go: Demo data loaders
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/wealth-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store engine.Store
	Log   zerolog.Logger

	// LedgerCurrency is the canonical currency flows and totals are kept
	// in. Fixed at startup.
	LedgerCurrency string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store engine.Store, log zerolog.Logger, ledgerCurrency string) *Handler {
	return &Handler{Store: store, Log: log, LedgerCurrency: ledgerCurrency}
}

// scheduleFromStore builds the rate schedule anchored at the current year,
// with stored overrides applied. Read once per request: a value, not a
// live subscription.
func (h *Handler) scheduleFromStore(ctx context.Context) (engine.RateSchedule, error) {
	overrides, err := h.Store.ListRateOverrides(ctx)
	if err != nil {
		return engine.RateSchedule{}, err
	}
	return engine.NewRateSchedule(engine.Today().Year(),
		engine.DefaultBaseRatePercent, engine.DefaultFloorPercent, overrides), nil
}

// fxFromStore folds the cached FX rates into a context. Everything loaded
// here is by definition cached.
func (h *Handler) fxFromStore(ctx context.Context) (engine.FXContext, error) {
	rates, err := h.Store.ListFXRates(ctx)
	if err != nil {
		return engine.FXContext{}, err
	}
	fx := engine.NewFXContext(h.LedgerCurrency)
	for _, r := range rates {
		fx = fx.WithRate(r.From, r.To, engine.FXSnapshot{
			Rate:        r.Rate,
			TimestampMs: r.TimestampMs,
			IsCached:    true,
		})
	}
	return fx, nil
}

// =============================================================================
// LEDGER SYNC
// =============================================================================

// Resync reconciles the stored ledger against the current instrument list.
// Idempotent: when the reconciled set equals what is stored, nothing is
// written. Safe to call from handlers and from the periodic job.
func (h *Handler) Resync(ctx context.Context) (SyncResponseDTO, error) {
	instruments, err := h.Store.ListInstruments(ctx)
	if err != nil {
		return SyncResponseDTO{}, err
	}
	existing, err := h.Store.ListFlows(ctx)
	if err != nil {
		return SyncResponseDTO{}, err
	}
	schedule, err := h.scheduleFromStore(ctx)
	if err != nil {
		return SyncResponseDTO{}, err
	}
	fx, err := h.fxFromStore(ctx)
	if err != nil {
		return SyncResponseDTO{}, err
	}

	sync := engine.NewFlowSynchronizer(schedule, fx)
	next := sync.Reconcile(existing, instruments, engine.Today())

	current := make([]engine.LedgerFlow, len(existing))
	copy(current, existing)
	engine.SortFlows(current)

	resp := SyncResponseDTO{FlowCount: len(next)}
	if engine.EqualFlowSets(current, next) {
		return resp, nil
	}

	if err := h.Store.ReplaceFlows(ctx, next); err != nil {
		return SyncResponseDTO{}, err
	}
	resp.Changed = true
	h.Log.Info().Int("flows", len(next)).Int("instruments", len(instruments)).
		Msg("ledger reconciled")
	return resp, nil
}

// resyncAfter runs a reconcile after an instrument mutation. Failures are
// logged, not surfaced: the mutation itself succeeded and the periodic job
// will converge the ledger.
func (h *Handler) resyncAfter(ctx context.Context, action string) {
	if _, err := h.Resync(ctx); err != nil {
		h.Log.Error().Err(err).Str("after", action).Msg("ledger resync failed")
	}
}

// SyncFlows forces a reconcile.
func (h *Handler) SyncFlows(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Resync(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sync ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// INSTRUMENT ENDPOINTS
// =============================================================================

func (h *Handler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.Store.ListInstruments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list instruments", err)
		return
	}
	dtos := make([]InstrumentDTO, 0, len(instruments))
	for _, inst := range instruments {
		dtos = append(dtos, toInstrumentDTO(inst))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetInstrument(w http.ResponseWriter, r *http.Request) {
	id := engine.InstrumentID(chi.URLParam(r, "id"))
	inst, err := h.Store.GetInstrument(r.Context(), id)
	if engine.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Instrument not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get instrument", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstrumentDTO(inst))
}

func (h *Handler) CreateInstrument(w http.ResponseWriter, r *http.Request) {
	var req SaveInstrumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	h.saveInstrument(w, r, req)
}

func (h *Handler) UpdateInstrument(w http.ResponseWriter, r *http.Request) {
	var req SaveInstrumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ID = chi.URLParam(r, "id")
	h.saveInstrument(w, r, req)
}

func (h *Handler) saveInstrument(w http.ResponseWriter, r *http.Request, req SaveInstrumentRequest) {
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}
	if req.Currency == "" {
		writeError(w, http.StatusBadRequest, "Currency is required", nil)
		return
	}

	inst := engine.Instrument{
		ID:                engine.InstrumentID(req.ID),
		AccountID:         engine.AccountID(req.AccountID),
		Name:              req.Name,
		Currency:          req.Currency,
		Principal:         req.Principal,
		StartDate:         engine.ParseDate(req.StartDate),
		TermMonths:        req.TermMonths,
		AnnualRatePercent: req.AnnualRatePercent,
		PayoutFrequency:   req.PayoutFrequency,
		AutoRenew:         req.AutoRenew,
		Note:              req.Note,
	}.Sanitize()

	if err := h.Store.SaveInstrument(r.Context(), inst); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save instrument", err)
		return
	}
	h.resyncAfter(r.Context(), "instrument save")
	writeJSON(w, http.StatusCreated, toInstrumentDTO(inst))
}

func (h *Handler) DeleteInstrument(w http.ResponseWriter, r *http.Request) {
	id := engine.InstrumentID(chi.URLParam(r, "id"))
	err := h.Store.DeleteInstrument(r.Context(), id)
	if engine.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Instrument not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete instrument", err)
		return
	}
	h.resyncAfter(r.Context(), "instrument delete")
	w.WriteHeader(http.StatusNoContent)
}

// GetInstrumentInterest returns the interest summary for one instrument:
// current monthly interest, effective rate, remaining term, maturity and
// the estimate over a horizon (?horizon=N months, default 12).
func (h *Handler) GetInstrumentInterest(w http.ResponseWriter, r *http.Request) {
	id := engine.InstrumentID(chi.URLParam(r, "id"))
	inst, err := h.Store.GetInstrument(r.Context(), id)
	if engine.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Instrument not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get instrument", err)
		return
	}

	schedule, err := h.scheduleFromStore(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rate schedule", err)
		return
	}

	horizon := queryInt(r, "horizon", 12)
	today := engine.Today()
	model := engine.InterestModel{Rates: schedule}

	summary := InterestSummaryDTO{
		InstrumentID:        string(inst.ID),
		MonthlyInterest:     model.MonthlyInterest(inst, today),
		EffectiveAnnualRate: model.EffectiveAnnualRate(inst, today),
		RemainingTermMonths: engine.RemainingTermMonths(inst, today),
		HorizonInterest:     model.EstimateTotalInterestOverHorizon(inst, horizon, today),
		HorizonMonths:       horizon,
	}
	if maturity := engine.MaturityDate(inst); !maturity.IsZero() {
		summary.MaturityDate = maturity.String()
	}
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// LEDGER ENDPOINTS
// =============================================================================

func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := h.Store.ListFlows(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list flows", err)
		return
	}
	engine.SortFlows(flows)
	dtos := make([]FlowDTO, 0, len(flows))
	for _, f := range flows {
		dtos = append(dtos, toFlowDTO(f))
	}
	writeJSON(w, http.StatusOK, dtos)
}

var validFlowKinds = map[engine.FlowKind]bool{
	engine.FlowInvestment: true,
	engine.FlowInterest:   true,
	engine.FlowDeposit:    true,
	engine.FlowIncome:     true,
	engine.FlowWithdrawal: true,
	engine.FlowExpense:    true,
}

// CreateFlow adds a user-owned ledger entry. Entries created here are
// never linked to an instrument, so they survive every reconcile.
func (h *Handler) CreateFlow(w http.ResponseWriter, r *http.Request) {
	var req CreateFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind := engine.FlowKind(req.Kind)
	if !validFlowKinds[kind] {
		writeError(w, http.StatusBadRequest, "Unknown flow kind", nil)
		return
	}
	date := engine.ParseDate(req.Date)
	if date.IsZero() {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", nil)
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = h.LedgerCurrency
	}

	flow := engine.LedgerFlow{
		ID:          engine.FlowID(uuid.NewString()),
		Kind:        kind,
		Date:        date,
		Amount:      req.Amount,
		Currency:    currency,
		AccountID:   engine.AccountID(req.AccountID),
		Description: req.Description,
	}
	if err := h.Store.AppendFlow(r.Context(), flow); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save flow", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFlowDTO(flow))
}

// =============================================================================
// RATE ENDPOINTS
// =============================================================================

// GetRateSchedule returns the resolved schedule for ?horizon=N years
// (default 10), marking which years are overridden.
func (h *Handler) GetRateSchedule(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.Store.ListRateOverrides(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rate overrides", err)
		return
	}
	overridden := make(map[int]bool, len(overrides))
	for _, o := range overrides {
		overridden[o.Year] = true
	}

	schedule := engine.NewRateSchedule(engine.Today().Year(),
		engine.DefaultBaseRatePercent, engine.DefaultFloorPercent, overrides)

	horizon := queryInt(r, "horizon", 10)
	rows := schedule.DefaultSchedule(horizon)
	dtos := make([]RateYearDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, RateYearDTO{
			Year:              row.Year,
			AnnualRatePercent: row.AnnualRatePercent,
			Overridden:        overridden[row.Year],
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListRateOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.Store.ListRateOverrides(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rate overrides", err)
		return
	}
	dtos := make([]RateYearDTO, 0, len(overrides))
	for _, o := range overrides {
		dtos = append(dtos, RateYearDTO{Year: o.Year, AnnualRatePercent: o.AnnualRatePercent, Overridden: true})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveRateOverride(w http.ResponseWriter, r *http.Request) {
	var req SaveRateOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year < 1900 || req.Year > 3000 {
		writeError(w, http.StatusBadRequest, "Year out of range", nil)
		return
	}
	row := engine.RateYear{Year: req.Year, AnnualRatePercent: req.AnnualRatePercent}
	if err := h.Store.SaveRateOverride(r.Context(), row); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rate override", err)
		return
	}
	// Interest flows depend on the schedule; converge the ledger.
	h.resyncAfter(r.Context(), "rate override save")
	writeJSON(w, http.StatusOK, RateYearDTO{Year: row.Year, AnnualRatePercent: row.AnnualRatePercent, Overridden: true})
}

func (h *Handler) DeleteRateOverride(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	if err := h.Store.DeleteRateOverride(r.Context(), year); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete rate override", err)
		return
	}
	h.resyncAfter(r.Context(), "rate override delete")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TIER ENDPOINTS
// =============================================================================

func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.Store.ListTiers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tiers", err)
		return
	}
	dtos := make([]TierDTO, 0, len(tiers))
	for _, t := range tiers {
		dtos = append(dtos, toTierDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveTier(w http.ResponseWriter, r *http.Request) {
	var req TierDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "Display name is required", nil)
		return
	}

	tier := engine.TierDefinition{
		ID:                engine.TierID(req.ID),
		Order:             req.Order,
		DisplayName:       req.DisplayName,
		MinSavings:        req.MinSavings,
		MinMonthlyRevenue: req.MinMonthlyRevenue,
		Description:       req.Description,
	}

	// Validate the ladder as it would look after this save. The placement
	// scan assumes non-decreasing thresholds; reject ladders that break it.
	existing, err := h.Store.ListTiers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tiers", err)
		return
	}
	proposed := make([]engine.TierDefinition, 0, len(existing)+1)
	for _, t := range existing {
		if t.ID != tier.ID {
			proposed = append(proposed, t)
		}
	}
	proposed = append(proposed, tier)
	if err := engine.ValidateLadder(proposed); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tier ladder", err)
		return
	}

	if err := h.Store.SaveTier(r.Context(), tier); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save tier", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTierDTO(tier))
}

func (h *Handler) DeleteTier(w http.ResponseWriter, r *http.Request) {
	id := engine.TierID(chi.URLParam(r, "id"))
	err := h.Store.DeleteTier(r.Context(), id)
	if engine.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Tier not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete tier", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTierSnapshot computes the current ladder placement from instruments,
// ledger and FX. Always recomputed, never cached.
func (h *Handler) GetTierSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	instruments, err := h.Store.ListInstruments(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list instruments", err)
		return
	}
	flows, err := h.Store.ListFlows(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list flows", err)
		return
	}
	tiers, err := h.Store.ListTiers(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tiers", err)
		return
	}
	schedule, err := h.scheduleFromStore(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rate schedule", err)
		return
	}
	fx, err := h.fxFromStore(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load FX rates", err)
		return
	}

	snapshot := engine.BuildTierSnapshot(instruments, flows, tiers,
		engine.InterestModel{Rates: schedule}, fx, engine.Today())
	writeJSON(w, http.StatusOK, toSnapshotDTO(snapshot))
}

// =============================================================================
// PROJECTION ENDPOINT
// =============================================================================

// RunProjection simulates growth for a fixed horizon, an explicit target,
// or a target tier, whichever the request specifies (in that priority:
// tier, explicit target, months).
func (h *Handler) RunProjection(w http.ResponseWriter, r *http.Request) {
	var req ProjectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	instruments, err := h.Store.ListInstruments(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list instruments", err)
		return
	}
	schedule, err := h.scheduleFromStore(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rate schedule", err)
		return
	}

	sim := engine.NewSimulator(schedule)
	if req.ReinvestStep != nil && req.ReinvestStep.IsPositive() {
		sim.Config.ReinvestStep = *req.ReinvestStep
	}
	if req.ReinvestTermMonths > 0 {
		sim.Config.ReinvestTermMonths = req.ReinvestTermMonths
	}

	start := engine.Today()
	var projection engine.Projection

	switch {
	case req.TargetTierID != "":
		tiers, err := h.Store.ListTiers(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list tiers", err)
			return
		}
		var target *engine.Target
		for _, t := range tiers {
			if t.ID == engine.TierID(req.TargetTierID) {
				tt := engine.TargetForTier(t)
				target = &tt
				break
			}
		}
		if target == nil {
			writeError(w, http.StatusNotFound, "Target tier not found", nil)
			return
		}
		projection = sim.ProjectToTarget(instruments, *target, start)

	case req.TargetSavings != nil || req.TargetMonthlyRevenue != nil:
		projection = sim.ProjectToTarget(instruments, engine.Target{
			MinSavings:        req.TargetSavings,
			MinMonthlyRevenue: req.TargetMonthlyRevenue,
		}, start)

	default:
		months := req.Months
		if months <= 0 {
			months = 120
		}
		projection = sim.ProjectMonths(instruments, months, start)
	}

	writeJSON(w, http.StatusOK, toProjectionDTO(projection))
}

// =============================================================================
// FX ENDPOINTS
// =============================================================================

func (h *Handler) ListFXRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Store.ListFXRates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list FX rates", err)
		return
	}
	dtos := make([]FXRateDTO, 0, len(rates))
	for _, rt := range rates {
		dtos = append(dtos, FXRateDTO{
			From: rt.From, To: rt.To, Rate: rt.Rate,
			TimestampMs: rt.TimestampMs, IsCached: true,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveFXRate(w http.ResponseWriter, r *http.Request) {
	var req FXRateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.From == "" || req.To == "" || !req.Rate.IsPositive() {
		writeError(w, http.StatusBadRequest, "From, to and a positive rate are required", nil)
		return
	}
	if req.TimestampMs == 0 {
		req.TimestampMs = time.Now().UnixMilli()
	}
	rate := engine.FXRate{From: req.From, To: req.To, Rate: req.Rate, TimestampMs: req.TimestampMs}
	if err := h.Store.SaveFXRate(r.Context(), rate); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save FX rate", err)
		return
	}
	// Flow amounts are FX-converted; converge the ledger.
	h.resyncAfter(r.Context(), "fx rate save")
	req.IsCached = false
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// HELPERS
// =============================================================================

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

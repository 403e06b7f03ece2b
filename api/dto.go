/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DECIMALS:
  Monetary values are decimal.Decimal and marshal as quoted strings, so
  clients never see float rounding artifacts. Nullable thresholds are
  pointers and marshal as null when absent.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/wealth-engine/engine"
)

// =============================================================================
// INSTRUMENTS
// =============================================================================

// InstrumentDTO represents a deposit instrument in API responses.
type InstrumentDTO struct {
	ID                string          `json:"id"`
	AccountID         string          `json:"account_id,omitempty"`
	Name              string          `json:"name"`
	Currency          string          `json:"currency"`
	Principal         decimal.Decimal `json:"principal"`
	StartDate         string          `json:"start_date,omitempty"`
	TermMonths        int             `json:"term_months"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	PayoutFrequency   string          `json:"payout_frequency,omitempty"`
	AutoRenew         bool            `json:"auto_renew"`
	Note              string          `json:"note,omitempty"`
}

// SaveInstrumentRequest creates or updates an instrument. An empty id on
// create gets a generated one.
type SaveInstrumentRequest struct {
	ID                string          `json:"id"`
	AccountID         string          `json:"account_id"`
	Name              string          `json:"name"`
	Currency          string          `json:"currency"`
	Principal         decimal.Decimal `json:"principal"`
	StartDate         string          `json:"start_date"`
	TermMonths        int             `json:"term_months"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	PayoutFrequency   string          `json:"payout_frequency"`
	AutoRenew         bool            `json:"auto_renew"`
	Note              string          `json:"note"`
}

// InterestSummaryDTO is the per-instrument interest view.
type InterestSummaryDTO struct {
	InstrumentID        string          `json:"instrument_id"`
	MonthlyInterest     decimal.Decimal `json:"monthly_interest"`
	EffectiveAnnualRate decimal.Decimal `json:"effective_annual_rate_percent"`
	RemainingTermMonths int             `json:"remaining_term_months"`
	MaturityDate        string          `json:"maturity_date,omitempty"`
	HorizonInterest     decimal.Decimal `json:"horizon_interest"`
	HorizonMonths       int             `json:"horizon_months"`
}

// =============================================================================
// FLOWS
// =============================================================================

// FlowDTO represents one ledger entry.
type FlowDTO struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Date         string          `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	AccountID    string          `json:"account_id,omitempty"`
	InstrumentID string          `json:"instrument_id,omitempty"`
	Description  string          `json:"description,omitempty"`
	MachineOwned bool            `json:"machine_owned"`
}

// CreateFlowRequest adds a user-owned ledger entry. Machine-owned kinds
// linked to instruments are rejected; those belong to the synchronizer.
type CreateFlowRequest struct {
	Kind        string          `json:"kind"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	AccountID   string          `json:"account_id"`
	Description string          `json:"description"`
}

// SyncResponseDTO reports the outcome of a ledger reconcile.
type SyncResponseDTO struct {
	Changed   bool `json:"changed"`
	FlowCount int  `json:"flow_count"`
}

// =============================================================================
// RATES
// =============================================================================

// RateYearDTO is one (year, rate) row of the schedule.
type RateYearDTO struct {
	Year              int             `json:"year"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	Overridden        bool            `json:"overridden,omitempty"`
}

// SaveRateOverrideRequest pins one year's rate.
type SaveRateOverrideRequest struct {
	Year              int             `json:"year"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
}

// =============================================================================
// TIERS
// =============================================================================

// TierDTO represents one rung of the ladder.
type TierDTO struct {
	ID                string           `json:"id"`
	Order             int              `json:"order"`
	DisplayName       string           `json:"display_name"`
	MinSavings        *decimal.Decimal `json:"min_savings"`
	MinMonthlyRevenue *decimal.Decimal `json:"min_monthly_revenue"`
	Description       string           `json:"description,omitempty"`
}

// TierSnapshotDTO is the derived "where am I on the ladder" view.
type TierSnapshotDTO struct {
	TotalSavings         decimal.Decimal `json:"total_savings"`
	MonthlyPassiveIncome decimal.Decimal `json:"monthly_passive_income"`
	Currency             string          `json:"currency"`
	ExcludedInstruments  int             `json:"excluded_instruments"`

	CurrentTierID string          `json:"current_tier_id,omitempty"`
	NextTierID    string          `json:"next_tier_id,omitempty"`
	SavingsGap    decimal.Decimal `json:"savings_gap"`
	RevenueGap    decimal.Decimal `json:"revenue_gap"`

	EstimatedMonthlyExpenses decimal.Decimal `json:"estimated_monthly_expenses"`
	MonthsOfExpensesSaved    decimal.Decimal `json:"months_of_expenses_saved"`
	CoveragePercent          decimal.Decimal `json:"coverage_percent"`
}

// =============================================================================
// PROJECTIONS
// =============================================================================

// ProjectionRequest runs a simulation: either a fixed month horizon, an
// explicit target, or "until tier X is reached".
type ProjectionRequest struct {
	Months       int    `json:"months,omitempty"`
	TargetTierID string `json:"target_tier_id,omitempty"`

	TargetSavings        *decimal.Decimal `json:"target_savings,omitempty"`
	TargetMonthlyRevenue *decimal.Decimal `json:"target_monthly_revenue,omitempty"`

	ReinvestStep       *decimal.Decimal `json:"reinvest_step,omitempty"`
	ReinvestTermMonths int              `json:"reinvest_term_months,omitempty"`
}

// MonthRowDTO is one simulated month.
type MonthRowDTO struct {
	Year               int             `json:"year"`
	Month              int             `json:"month"`
	StartingBalance    decimal.Decimal `json:"starting_balance"`
	Revenue            decimal.Decimal `json:"revenue"`
	Invested           decimal.Decimal `json:"invested"`
	Bucket             decimal.Decimal `json:"bucket"`
	EndingBalance      decimal.Decimal `json:"ending_balance"`
	BlendedRatePercent decimal.Decimal `json:"blended_rate_percent"`
}

// YearRowDTO aggregates one calendar year, expandable into months.
type YearRowDTO struct {
	Year                int             `json:"year"`
	StartingBalance     decimal.Decimal `json:"starting_balance"`
	EndingDepositTotal  decimal.Decimal `json:"ending_deposit_total"`
	Invested            decimal.Decimal `json:"invested"`
	Revenue             decimal.Decimal `json:"revenue"`
	EndingBalance       decimal.Decimal `json:"ending_balance"`
	BlendedRatePercent  decimal.Decimal `json:"blended_rate_percent"`
	UninvestedRemainder decimal.Decimal `json:"uninvested_remainder"`
	Months              []MonthRowDTO   `json:"months"`
}

// ProjectionDTO is the simulation result. TargetReached is only true when
// a target was supplied and met within the horizon; a capped run reports
// false and clients must not infer success from the rows.
type ProjectionDTO struct {
	Years           []YearRowDTO `json:"years"`
	MonthsSimulated int          `json:"months_simulated"`
	TargetReached   bool         `json:"target_reached"`
	ReachedAt       string       `json:"reached_at,omitempty"`
}

// =============================================================================
// FX
// =============================================================================

// FXRateDTO is one cached conversion rate.
type FXRateDTO struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Rate        decimal.Decimal `json:"rate"`
	TimestampMs int64           `json:"timestamp_ms"`
	IsCached    bool            `json:"is_cached"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toInstrumentDTO(inst engine.Instrument) InstrumentDTO {
	startDate := ""
	if !inst.StartDate.IsZero() {
		startDate = inst.StartDate.String()
	}
	return InstrumentDTO{
		ID:                string(inst.ID),
		AccountID:         string(inst.AccountID),
		Name:              inst.Name,
		Currency:          inst.Currency,
		Principal:         inst.Principal,
		StartDate:         startDate,
		TermMonths:        inst.TermMonths,
		AnnualRatePercent: inst.AnnualRatePercent,
		PayoutFrequency:   inst.PayoutFrequency,
		AutoRenew:         inst.AutoRenew,
		Note:              inst.Note,
	}
}

func toFlowDTO(f engine.LedgerFlow) FlowDTO {
	return FlowDTO{
		ID:           string(f.ID),
		Kind:         string(f.Kind),
		Date:         f.Date.String(),
		Amount:       f.Amount,
		Currency:     f.Currency,
		AccountID:    string(f.AccountID),
		InstrumentID: string(f.InstrumentID),
		Description:  f.Description,
		MachineOwned: f.MachineOwned(),
	}
}

func toTierDTO(t engine.TierDefinition) TierDTO {
	return TierDTO{
		ID:                string(t.ID),
		Order:             t.Order,
		DisplayName:       t.DisplayName,
		MinSavings:        t.MinSavings,
		MinMonthlyRevenue: t.MinMonthlyRevenue,
		Description:       t.Description,
	}
}

func toProjectionDTO(p engine.Projection) ProjectionDTO {
	dto := ProjectionDTO{
		MonthsSimulated: p.MonthsSimulated,
		TargetReached:   p.TargetReached,
		Years:           make([]YearRowDTO, 0, len(p.Years)),
	}
	if p.TargetReached {
		dto.ReachedAt = p.ReachedAt.String()
	}
	for _, yr := range p.Years {
		yearDTO := YearRowDTO{
			Year:                yr.Year,
			StartingBalance:     yr.StartingBalance,
			EndingDepositTotal:  yr.EndingDepositTotal,
			Invested:            yr.Invested,
			Revenue:             yr.Revenue,
			EndingBalance:       yr.EndingBalance,
			BlendedRatePercent:  yr.BlendedRatePercent,
			UninvestedRemainder: yr.UninvestedRemainder,
			Months:              make([]MonthRowDTO, 0, len(yr.Months)),
		}
		for _, mr := range yr.Months {
			yearDTO.Months = append(yearDTO.Months, MonthRowDTO{
				Year:               mr.Year,
				Month:              int(mr.Month),
				StartingBalance:    mr.StartingBalance,
				Revenue:            mr.Revenue,
				Invested:           mr.Invested,
				Bucket:             mr.Bucket,
				EndingBalance:      mr.EndingBalance,
				BlendedRatePercent: mr.BlendedRatePercent,
			})
		}
		dto.Years = append(dto.Years, yearDTO)
	}
	return dto
}

func toSnapshotDTO(s engine.TierSnapshot) TierSnapshotDTO {
	dto := TierSnapshotDTO{
		TotalSavings:             s.Savings,
		MonthlyPassiveIncome:     s.MonthlyRevenue,
		Currency:                 s.Totals.Currency,
		ExcludedInstruments:      s.ExcludedInstruments,
		SavingsGap:               s.SavingsGap,
		RevenueGap:               s.RevenueGap,
		EstimatedMonthlyExpenses: s.EstimatedMonthlyExpenses,
		MonthsOfExpensesSaved:    s.MonthsOfExpensesSaved,
		CoveragePercent:          s.CoveragePercent,
	}
	if s.Current != nil {
		dto.CurrentTierID = string(s.Current.ID)
	}
	if s.Next != nil {
		dto.NextTierID = string(s.Next.ID)
	}
	return dto
}

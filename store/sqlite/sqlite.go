/*
Package sqlite provides a SQLite-backed implementation of the engine
storage interfaces.

PURPOSE:
  Implements engine.Store (instruments, ledger flows, rate overrides,
  tiers, cached FX rates) using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  instruments:    Fixed-term deposits (the engine only reads these)
  flows:          The ledger; machine-owned rows are fully replaced on sync
  rate_overrides: Sparse year -> percent pins over the default decay
  tiers:          The ordered tier ladder
  fx_rates:       Most recent cached conversion rate per currency pair

FLOW REPLACEMENT:
  ReplaceFlows deletes and rewrites the flows table inside one
  transaction. The reconciled set is computed by the engine as a full
  replacement, so there is no partial-failure state to recover from: a
  rolled-back sync simply leaves the previous ledger in place.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block, single writer at a time, better crash recovery.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Reconcile runs are idempotent, so
  overlapping syncs coalesce on last-write-wins.

USAGE:
  store, err := sqlite.New("./data/wealth.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/wealth-engine/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Fixed-term deposit instruments
	CREATE TABLE IF NOT EXISTS instruments (
		id TEXT PRIMARY KEY,
		account_id TEXT,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		principal TEXT NOT NULL,
		start_date TEXT,
		term_months INTEGER NOT NULL DEFAULT 0,
		annual_rate_percent TEXT NOT NULL,
		payout_frequency TEXT,
		auto_renew INTEGER NOT NULL DEFAULT 0,
		note TEXT
	);

	-- Ledger flows. Machine-owned rows (investment/interest/deposit linked
	-- to an instrument) are replaced wholesale on every sync.
	CREATE TABLE IF NOT EXISTS flows (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		account_id TEXT,
		instrument_id TEXT,
		description TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_flows_date ON flows(date);
	CREATE INDEX IF NOT EXISTS idx_flows_instrument ON flows(instrument_id)
		WHERE instrument_id IS NOT NULL AND instrument_id != '';

	-- User overrides of the default rate decay, one row per year
	CREATE TABLE IF NOT EXISTS rate_overrides (
		year INTEGER PRIMARY KEY,
		annual_rate_percent TEXT NOT NULL
	);

	-- Tier ladder; 'tier_order' is the walk order and must be unique
	CREATE TABLE IF NOT EXISTS tiers (
		id TEXT PRIMARY KEY,
		tier_order INTEGER NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		min_savings TEXT,
		min_monthly_revenue TEXT,
		description TEXT
	);

	-- Most recent cached FX rate per pair
	CREATE TABLE IF NOT EXISTS fx_rates (
		from_currency TEXT NOT NULL,
		to_currency TEXT NOT NULL,
		rate TEXT NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		PRIMARY KEY (from_currency, to_currency)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// INSTRUMENTS
// =============================================================================

func (s *Store) ListInstruments(ctx context.Context) ([]engine.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, name, currency, principal, start_date,
		       term_months, annual_rate_percent, payout_frequency, auto_renew, note
		FROM instruments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Instrument
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (s *Store) GetInstrument(ctx context.Context, id engine.InstrumentID) (engine.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, name, currency, principal, start_date,
		       term_months, annual_rate_percent, payout_frequency, auto_renew, note
		FROM instruments WHERE id = ?`, string(id))

	inst, err := scanInstrument(row)
	if err == sql.ErrNoRows {
		return engine.Instrument{}, engine.ErrInstrumentNotFound
	}
	return inst, err
}

func (s *Store) SaveInstrument(ctx context.Context, inst engine.Instrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	startDate := ""
	if !inst.StartDate.IsZero() {
		startDate = inst.StartDate.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instruments
			(id, account_id, name, currency, principal, start_date,
			 term_months, annual_rate_percent, payout_frequency, auto_renew, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			name = excluded.name,
			currency = excluded.currency,
			principal = excluded.principal,
			start_date = excluded.start_date,
			term_months = excluded.term_months,
			annual_rate_percent = excluded.annual_rate_percent,
			payout_frequency = excluded.payout_frequency,
			auto_renew = excluded.auto_renew,
			note = excluded.note`,
		string(inst.ID), string(inst.AccountID), inst.Name, inst.Currency,
		inst.Principal.String(), startDate, inst.TermMonths,
		inst.AnnualRatePercent.String(), inst.PayoutFrequency,
		boolToInt(inst.AutoRenew), inst.Note)
	return err
}

func (s *Store) DeleteInstrument(ctx context.Context, id engine.InstrumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM instruments WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return engine.ErrInstrumentNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstrument(row rowScanner) (engine.Instrument, error) {
	var (
		inst      engine.Instrument
		id        string
		accountID string
		principal string
		startDate string
		rate      string
		autoRenew int
	)
	err := row.Scan(&id, &accountID, &inst.Name, &inst.Currency, &principal,
		&startDate, &inst.TermMonths, &rate, &inst.PayoutFrequency, &autoRenew, &inst.Note)
	if err != nil {
		return engine.Instrument{}, err
	}

	inst.ID = engine.InstrumentID(id)
	inst.AccountID = engine.AccountID(accountID)
	inst.Principal = parseDecimal(principal)
	inst.StartDate = engine.ParseDate(startDate)
	inst.AnnualRatePercent = parseDecimal(rate)
	inst.AutoRenew = autoRenew != 0
	return inst, nil
}

// =============================================================================
// FLOWS
// =============================================================================

func (s *Store) ListFlows(ctx context.Context) ([]engine.LedgerFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, date, amount, currency, account_id, instrument_id, description
		FROM flows ORDER BY date, kind, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.LedgerFlow
	for rows.Next() {
		var (
			f            engine.LedgerFlow
			id           string
			kind         string
			date         string
			amount       string
			accountID    string
			instrumentID string
		)
		if err := rows.Scan(&id, &kind, &date, &amount, &f.Currency,
			&accountID, &instrumentID, &f.Description); err != nil {
			return nil, err
		}
		f.ID = engine.FlowID(id)
		f.Kind = engine.FlowKind(kind)
		f.Date = engine.ParseDate(date)
		f.Amount = parseDecimal(amount)
		f.AccountID = engine.AccountID(accountID)
		f.InstrumentID = engine.InstrumentID(instrumentID)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) ReplaceFlows(ctx context.Context, flows []engine.LedgerFlow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM flows`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO flows (id, kind, date, amount, currency, account_id, instrument_id, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range flows {
		if _, err := stmt.ExecContext(ctx, string(f.ID), string(f.Kind),
			f.Date.String(), f.Amount.String(), f.Currency,
			string(f.AccountID), string(f.InstrumentID), f.Description); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) AppendFlow(ctx context.Context, flow engine.LedgerFlow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flows (id, kind, date, amount, currency, account_id, instrument_id, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(flow.ID), string(flow.Kind), flow.Date.String(),
		flow.Amount.String(), flow.Currency,
		string(flow.AccountID), string(flow.InstrumentID), flow.Description)
	return err
}

// =============================================================================
// RATE OVERRIDES
// =============================================================================

func (s *Store) ListRateOverrides(ctx context.Context) ([]engine.RateYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT year, annual_rate_percent FROM rate_overrides ORDER BY year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.RateYear
	for rows.Next() {
		var (
			row  engine.RateYear
			rate string
		)
		if err := rows.Scan(&row.Year, &rate); err != nil {
			return nil, err
		}
		row.AnnualRatePercent = parseDecimal(rate)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) SaveRateOverride(ctx context.Context, row engine.RateYear) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_overrides (year, annual_rate_percent) VALUES (?, ?)
		ON CONFLICT(year) DO UPDATE SET annual_rate_percent = excluded.annual_rate_percent`,
		row.Year, row.AnnualRatePercent.String())
	return err
}

func (s *Store) DeleteRateOverride(ctx context.Context, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM rate_overrides WHERE year = ?`, year)
	return err
}

// =============================================================================
// TIERS
// =============================================================================

func (s *Store) ListTiers(ctx context.Context) ([]engine.TierDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tier_order, display_name, min_savings, min_monthly_revenue, description
		FROM tiers ORDER BY tier_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.TierDefinition
	for rows.Next() {
		var (
			tier       engine.TierDefinition
			id         string
			minSavings sql.NullString
			minRevenue sql.NullString
		)
		if err := rows.Scan(&id, &tier.Order, &tier.DisplayName,
			&minSavings, &minRevenue, &tier.Description); err != nil {
			return nil, err
		}
		tier.ID = engine.TierID(id)
		tier.MinSavings = parseNullableDecimal(minSavings)
		tier.MinMonthlyRevenue = parseNullableDecimal(minRevenue)
		out = append(out, tier)
	}
	return out, rows.Err()
}

func (s *Store) SaveTier(ctx context.Context, tier engine.TierDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tiers (id, tier_order, display_name, min_savings, min_monthly_revenue, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tier_order = excluded.tier_order,
			display_name = excluded.display_name,
			min_savings = excluded.min_savings,
			min_monthly_revenue = excluded.min_monthly_revenue,
			description = excluded.description`,
		string(tier.ID), tier.Order, tier.DisplayName,
		nullableDecimal(tier.MinSavings), nullableDecimal(tier.MinMonthlyRevenue),
		tier.Description)
	return err
}

func (s *Store) DeleteTier(ctx context.Context, id engine.TierID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tiers WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return engine.ErrTierNotFound
	}
	return nil
}

// =============================================================================
// FX RATES
// =============================================================================

func (s *Store) ListFXRates(ctx context.Context) ([]engine.FXRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT from_currency, to_currency, rate, timestamp_ms
		FROM fx_rates ORDER BY from_currency, to_currency`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.FXRate
	for rows.Next() {
		var (
			r    engine.FXRate
			rate string
		)
		if err := rows.Scan(&r.From, &r.To, &rate, &r.TimestampMs); err != nil {
			return nil, err
		}
		r.Rate = parseDecimal(rate)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SaveFXRate(ctx context.Context, rate engine.FXRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fx_rates (from_currency, to_currency, rate, timestamp_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(from_currency, to_currency) DO UPDATE SET
			rate = excluded.rate,
			timestamp_ms = excluded.timestamp_ms`,
		rate.From, rate.To, rate.Rate.String(), rate.TimestampMs)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseNullableDecimal(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	d := parseDecimal(ns.String)
	return &d
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

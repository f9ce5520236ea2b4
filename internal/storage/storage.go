// Package storage provides SQLite-backed persistence for wallet activity,
// market metadata, and scoring reports.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/piyushhhxyz/insider-detect/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db         *sql.DB
	maxReports int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/insider-detect/data.db.
func New(dbPath string, maxReports int) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "insider-detect", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Storage{db: db, maxReports: maxReports}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id        TEXT PRIMARY KEY,
			wallet    TEXT NOT NULL,
			market_id TEXT NOT NULL,
			side      TEXT NOT NULL,
			price     REAL NOT NULL,
			size      REAL NOT NULL,
			ts        INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS funding_events (
			id        TEXT PRIMARY KEY,
			wallet    TEXT NOT NULL,
			direction TEXT NOT NULL,
			amount    REAL NOT NULL,
			ts        INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS redemptions (
			id        TEXT PRIMARY KEY,
			wallet    TEXT NOT NULL,
			market_id TEXT NOT NULL,
			amount    REAL NOT NULL,
			ts        INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS markets (
			id              TEXT PRIMARY KEY,
			question        TEXT,
			slug            TEXT,
			start_time      INTEGER NOT NULL DEFAULT 0,
			end_time        INTEGER NOT NULL DEFAULT 0,
			resolution_time INTEGER NOT NULL DEFAULT 0,
			resolved        INTEGER NOT NULL DEFAULT 0,
			winning_outcome TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS market_tokens (
			token_id  TEXT PRIMARY KEY,
			market_id TEXT NOT NULL REFERENCES markets(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id          TEXT PRIMARY KEY,
			wallet      TEXT NOT NULL,
			composite   REAL NOT NULL,
			tier        TEXT NOT NULL,
			report_json TEXT NOT NULL,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_wallet ON trades(wallet, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_funding_wallet ON funding_events(wallet, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_redemptions_wallet ON redemptions(wallet, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_composite ON reports(composite DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertTrades inserts trades, ignoring records already present, and returns
// the number of new rows.
func (s *Storage) InsertTrades(trades []models.Trade) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	inserted := 0
	for _, t := range trades {
		res, err := tx.Exec(`
			INSERT OR IGNORE INTO trades (id, wallet, market_id, side, price, size, ts)
			VALUES (?,?,?,?,?,?,?)`,
			t.ID, t.Wallet, t.MarketID, string(t.Side), t.Price, t.Size, toNano(t.Timestamp),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert trade %s: %w", t.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, tx.Commit()
}

// InsertFundingEvents inserts funding events, ignoring duplicates.
func (s *Storage) InsertFundingEvents(events []models.FundingEvent) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	inserted := 0
	for _, f := range events {
		res, err := tx.Exec(`
			INSERT OR IGNORE INTO funding_events (id, wallet, direction, amount, ts)
			VALUES (?,?,?,?,?)`,
			f.ID, f.Wallet, string(f.Direction), f.Amount, toNano(f.Timestamp),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert funding event %s: %w", f.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, tx.Commit()
}

// InsertRedemptions inserts redemptions, ignoring duplicates.
func (s *Storage) InsertRedemptions(redemptions []models.Redemption) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	inserted := 0
	for _, r := range redemptions {
		res, err := tx.Exec(`
			INSERT OR IGNORE INTO redemptions (id, wallet, market_id, amount, ts)
			VALUES (?,?,?,?,?)`,
			r.ID, r.Wallet, r.MarketID, r.Amount, toNano(r.Timestamp),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert redemption %s: %w", r.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, tx.Commit()
}

// UpsertMarket stores market metadata and its token mappings.
func (s *Storage) UpsertMarket(m *models.Market) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid market: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO markets
			(id, question, slug, start_time, end_time, resolution_time, resolved, winning_outcome)
		VALUES (?,?,?,?,?,?,?,?)`,
		m.ID, m.Question, m.Slug,
		toNano(m.StartTime), toNano(m.EndTime), toNano(m.ResolutionTime),
		boolToInt(m.Resolved), m.WinningOutcome,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert market: %w", err)
	}
	for _, tokenID := range m.TokenIDs {
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO market_tokens (token_id, market_id) VALUES (?,?)`,
			tokenID, m.ID,
		); err != nil {
			return fmt.Errorf("failed to map token %s: %w", tokenID, err)
		}
	}
	return tx.Commit()
}

// MarketByToken returns the market owning the given token/outcome identifier.
// The identifier may also be a market ID directly.
func (s *Storage) MarketByToken(tokenID string) (*models.Market, error) {
	row := s.db.QueryRow(`
		SELECT m.id, m.question, m.slug, m.start_time, m.end_time,
		       m.resolution_time, m.resolved, m.winning_outcome
		FROM markets m
		LEFT JOIN market_tokens t ON t.market_id = m.id
		WHERE t.token_id = ? OR m.id = ?
		LIMIT 1`, tokenID, tokenID)

	var m models.Market
	var startNano, endNano, resolutionNano int64
	var resolved int
	err := row.Scan(&m.ID, &m.Question, &m.Slug, &startNano, &endNano,
		&resolutionNano, &resolved, &m.WinningOutcome)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: market for token %s", ErrNotFound, tokenID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up market: %w", err)
	}
	m.StartTime = fromNano(startNano)
	m.EndTime = fromNano(endNano)
	m.ResolutionTime = fromNano(resolutionNano)
	m.Resolved = resolved != 0

	rows, err := s.db.Query(`SELECT token_id FROM market_tokens WHERE market_id = ? ORDER BY token_id`, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load token mappings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan token mapping: %w", err)
		}
		m.TokenIDs = append(m.TokenIDs, token)
	}
	return &m, rows.Err()
}

// UnmappedTokenIDs returns the distinct token identifiers referenced by
// trades or redemptions that have no market mapping yet.
func (s *Storage) UnmappedTokenIDs() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT market_id FROM (
			SELECT market_id FROM trades
			UNION
			SELECT market_id FROM redemptions
		)
		WHERE market_id NOT IN (SELECT token_id FROM market_tokens)
		  AND market_id NOT IN (SELECT id FROM markets)
		ORDER BY market_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unmapped tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// WalletEvents loads one wallet's complete event set, ordered
// chronologically.
func (s *Storage) WalletEvents(wallet string) (*models.WalletEvents, error) {
	events := &models.WalletEvents{Wallet: wallet}

	rows, err := s.db.Query(`
		SELECT id, wallet, market_id, side, price, size, ts
		FROM trades WHERE wallet = ? ORDER BY ts, id`, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Trade
		var side string
		var tsNano int64
		if err := rows.Scan(&t.ID, &t.Wallet, &t.MarketID, &side, &t.Price, &t.Size, &tsNano); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Side = models.Side(side)
		t.Timestamp = fromNano(tsNano)
		events.Trades = append(events.Trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := s.db.Query(`
		SELECT id, wallet, direction, amount, ts
		FROM funding_events WHERE wallet = ? ORDER BY ts, id`, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query funding events: %w", err)
	}
	defer frows.Close()
	for frows.Next() {
		var f models.FundingEvent
		var direction string
		var tsNano int64
		if err := frows.Scan(&f.ID, &f.Wallet, &direction, &f.Amount, &tsNano); err != nil {
			return nil, fmt.Errorf("failed to scan funding event: %w", err)
		}
		f.Direction = models.Direction(direction)
		f.Timestamp = fromNano(tsNano)
		events.Funding = append(events.Funding, f)
	}
	if err := frows.Err(); err != nil {
		return nil, err
	}

	rrows, err := s.db.Query(`
		SELECT id, wallet, market_id, amount, ts
		FROM redemptions WHERE wallet = ? ORDER BY ts, id`, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}
	defer rrows.Close()
	for rrows.Next() {
		var r models.Redemption
		var tsNano int64
		if err := rrows.Scan(&r.ID, &r.Wallet, &r.MarketID, &r.Amount, &tsNano); err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		r.Timestamp = fromNano(tsNano)
		events.Redemptions = append(events.Redemptions, r)
	}
	return events, rrows.Err()
}

// Wallets returns every wallet with at least one stored trade.
func (s *Storage) Wallets() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT wallet FROM trades ORDER BY wallet`)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// SaveReport persists a scoring report, keeping at most maxReports newest
// rows.
func (s *Storage) SaveReport(r *models.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO reports (id, wallet, composite, tier, report_json, created_at)
		VALUES (?,?,?,?,?,?)`,
		uuid.New().String(), r.Wallet, r.Composite, string(r.Tier), string(payload),
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	if _, err := tx.Exec(`
		DELETE FROM reports WHERE id NOT IN (
			SELECT id FROM reports ORDER BY created_at DESC LIMIT ?
		)`, s.maxReports); err != nil {
		return fmt.Errorf("failed to enforce report cap: %w", err)
	}
	return tx.Commit()
}

// TopReports returns the k highest-composite reports.
func (s *Storage) TopReports(k int) ([]models.Report, error) {
	rows, err := s.db.Query(`
		SELECT report_json FROM reports ORDER BY composite DESC, wallet LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		var r models.Report
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func toNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

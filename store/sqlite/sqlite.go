/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface (ledger.Store, catalog.Store,
  requisition.TxStore) on a single SQLite database.

INTERFACES IMPLEMENTED:
  ledger.Store:          Append-only stock transactions
  catalog.Store:         Products, participants, notifier settings
  requisition.TxStore:   Requisitions, plus WithTx spanning both tables

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on stock_transactions
  - No DELETE statements on stock_transactions
  - Corrections are new entries (see requisition revert)

KEY TABLES:
  stock_transactions: Immutable ledger, ordered by (ts, seq)
  requisitions:       Requests with product name/unit snapshots
  products:           Catalog, variants stored as JSON
  participants:       Authority + organizations, username UNIQUE
  settings:           Key/value JSON (notifier config)

CONNECTIONS:
  The pool is limited to one connection. ":memory:" databases are
  per-connection, and SQLite serializes writers anyway. Code running inside
  WithTx must only use the tx view it was handed.

USAGE:
  store, err := sqlite.New("./data/supply.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  l := ledger.NewLedger(store)

SEE ALSO:
  - store/memory: In-memory implementation for tests
  - ledger/store.go, catalog/store.go, requisition/store.go: Interfaces
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/requisition"
)

// Fixed-width so lexical order in SQL matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const notifierSettingKey = "notifier"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

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

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	-- Stock transactions (append-only ledger)
	CREATE TABLE IF NOT EXISTS stock_transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		owner_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		variant TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL,
		direction TEXT NOT NULL CHECK (direction IN ('IN', 'OUT')),
		ts TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		related_requisition_id TEXT
	);

	-- Balance derivation (hot path)
	CREATE INDEX IF NOT EXISTS idx_stock_tx_owner_ts
		ON stock_transactions(owner_id, ts, seq);

	-- Requisition audit trail
	CREATE INDEX IF NOT EXISTS idx_stock_tx_requisition
		ON stock_transactions(related_requisition_id) WHERE related_requisition_id IS NOT NULL;

	-- Requisitions
	CREATE TABLE IF NOT EXISTS requisitions (
		id TEXT PRIMARY KEY,
		requester_id TEXT NOT NULL,
		requester_name TEXT NOT NULL,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		unit TEXT NOT NULL,
		variant TEXT NOT NULL DEFAULT '',
		blood_group TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requisitions_requester
		ON requisitions(requester_id);
	CREATE INDEX IF NOT EXISTS idx_requisitions_status
		ON requisitions(status);

	-- Products
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		variants_json TEXT NOT NULL DEFAULT '[]'
	);

	-- Participants (Authority + organizations)
	CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL
	);

	-- Settings
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value_json TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER (ledger.Store interface)
// =============================================================================

// Append adds a transaction to the ledger.
func (s *Store) Append(ctx context.Context, tx ledger.StockTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return appendTx(ctx, s.db, tx)
}

// AppendBatch adds multiple transactions atomically.
func (s *Store) AppendBatch(ctx context.Context, txs []ledger.StockTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, tx := range txs {
		if err := appendTx(ctx, sqlTx, tx); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

func appendTx(ctx context.Context, db dbtx, tx ledger.StockTransaction) error {
	query := `
		INSERT INTO stock_transactions
		(id, owner_id, product_id, product_name, variant, quantity, direction, ts, comment, related_requisition_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		tx.ID,
		tx.OwnerID,
		tx.ProductID,
		tx.ProductName,
		tx.Variant,
		tx.Quantity,
		tx.Direction,
		tx.Timestamp.UTC().Format(timeLayout),
		tx.Comment,
		nullString(tx.RelatedRequisitionID),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

const selectTransactions = `
	SELECT id, owner_id, product_id, product_name, variant, quantity, direction, ts, comment, related_requisition_id
	FROM stock_transactions
`

// LoadByOwner returns all transactions of one owner, oldest first.
func (s *Store) LoadByOwner(ctx context.Context, owner ledger.OwnerID) ([]ledger.StockTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryTransactions(ctx, s.db, selectTransactions+" WHERE owner_id = ? ORDER BY ts ASC, seq ASC", owner)
}

// LoadByRequisition returns the entries written for one requisition, oldest first.
func (s *Store) LoadByRequisition(ctx context.Context, requisitionID string) ([]ledger.StockTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryTransactions(ctx, s.db, selectTransactions+" WHERE related_requisition_id = ? ORDER BY ts ASC, seq ASC", requisitionID)
}

// LoadAll returns the whole ledger, oldest first.
func (s *Store) LoadAll(ctx context.Context) ([]ledger.StockTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryTransactions(ctx, s.db, selectTransactions+" ORDER BY ts ASC, seq ASC")
}

func queryTransactions(ctx context.Context, db dbtx, query string, args ...any) ([]ledger.StockTransaction, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []ledger.StockTransaction
	for rows.Next() {
		var (
			tx        ledger.StockTransaction
			ts        string
			related   sql.NullString
			direction string
		)
		if err := rows.Scan(
			&tx.ID, &tx.OwnerID, &tx.ProductID, &tx.ProductName, &tx.Variant,
			&tx.Quantity, &direction, &ts, &tx.Comment, &related,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Direction = ledger.Direction(direction)
		tx.Timestamp, _ = time.Parse(timeLayout, ts)
		tx.RelatedRequisitionID = related.String
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

// =============================================================================
// REQUISITIONS (requisition.Store interface)
// =============================================================================

// SaveRequisition inserts or replaces a requisition.
func (s *Store) SaveRequisition(ctx context.Context, r requisition.Requisition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveRequisition(ctx, s.db, r)
}

func saveRequisition(ctx context.Context, db dbtx, r requisition.Requisition) error {
	query := `
		INSERT INTO requisitions
		(id, requester_id, requester_name, product_id, product_name, unit, variant,
		 blood_group, quantity, comment, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			product_id = excluded.product_id,
			product_name = excluded.product_name,
			unit = excluded.unit,
			variant = excluded.variant,
			blood_group = excluded.blood_group,
			quantity = excluded.quantity,
			comment = excluded.comment,
			status = excluded.status
	`

	_, err := db.ExecContext(ctx, query,
		r.ID, r.RequesterID, r.RequesterName,
		r.ProductID, r.ProductName, r.Unit, r.Variant,
		r.BloodGroup, r.Quantity, r.Comment,
		r.CreatedAt.UTC().Format(timeLayout),
		r.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to save requisition: %w", err)
	}
	return nil
}

const selectRequisitions = `
	SELECT id, requester_id, requester_name, product_id, product_name, unit, variant,
	       blood_group, quantity, comment, created_at, status
	FROM requisitions
`

// GetRequisition retrieves a requisition by ID, or nil if absent.
func (s *Store) GetRequisition(ctx context.Context, id string) (*requisition.Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getRequisition(ctx, s.db, id)
}

func getRequisition(ctx context.Context, db dbtx, id string) (*requisition.Requisition, error) {
	list, err := queryRequisitions(ctx, db, selectRequisitions+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// ListRequisitions returns matching requisitions, newest first.
func (s *Store) ListRequisitions(ctx context.Context, f requisition.Filter) ([]requisition.Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return listRequisitions(ctx, s.db, f)
}

func listRequisitions(ctx context.Context, db dbtx, f requisition.Filter) ([]requisition.Requisition, error) {
	var (
		where []string
		args  []any
	)
	if f.RequesterID != "" {
		where = append(where, "requester_id = ?")
		args = append(args, f.RequesterID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	query := selectRequisitions
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	return queryRequisitions(ctx, db, query, args...)
}

func queryRequisitions(ctx context.Context, db dbtx, query string, args ...any) ([]requisition.Requisition, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requisitions: %w", err)
	}
	defer rows.Close()

	var list []requisition.Requisition
	for rows.Next() {
		var (
			r         requisition.Requisition
			createdAt string
			status    string
		)
		if err := rows.Scan(
			&r.ID, &r.RequesterID, &r.RequesterName, &r.ProductID, &r.ProductName,
			&r.Unit, &r.Variant, &r.BloodGroup, &r.Quantity, &r.Comment,
			&createdAt, &status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan requisition: %w", err)
		}
		r.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		r.Status = requisition.Status(status)
		list = append(list, r)
	}
	return list, rows.Err()
}

// DeleteRequisition removes a requisition. Its ledger entries stay.
func (s *Store) DeleteRequisition(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM requisitions WHERE id = ?", id)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (requisition.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. Both stores handed to
// fn write through the same *sql.Tx.
func (s *Store) WithTx(ctx context.Context, fn func(requisition.Store, ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	view := &txStore{tx: sqlTx}
	if err := fn(view, view); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Append(ctx context.Context, tx ledger.StockTransaction) error {
	return appendTx(ctx, ts.tx, tx)
}

func (ts *txStore) AppendBatch(ctx context.Context, txs []ledger.StockTransaction) error {
	for _, tx := range txs {
		if err := appendTx(ctx, ts.tx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (ts *txStore) LoadByOwner(ctx context.Context, owner ledger.OwnerID) ([]ledger.StockTransaction, error) {
	return queryTransactions(ctx, ts.tx, selectTransactions+" WHERE owner_id = ? ORDER BY ts ASC, seq ASC", owner)
}

func (ts *txStore) LoadByRequisition(ctx context.Context, requisitionID string) ([]ledger.StockTransaction, error) {
	return queryTransactions(ctx, ts.tx, selectTransactions+" WHERE related_requisition_id = ? ORDER BY ts ASC, seq ASC", requisitionID)
}

func (ts *txStore) LoadAll(ctx context.Context) ([]ledger.StockTransaction, error) {
	return queryTransactions(ctx, ts.tx, selectTransactions+" ORDER BY ts ASC, seq ASC")
}

func (ts *txStore) SaveRequisition(ctx context.Context, r requisition.Requisition) error {
	return saveRequisition(ctx, ts.tx, r)
}

func (ts *txStore) GetRequisition(ctx context.Context, id string) (*requisition.Requisition, error) {
	return getRequisition(ctx, ts.tx, id)
}

func (ts *txStore) ListRequisitions(ctx context.Context, f requisition.Filter) ([]requisition.Requisition, error) {
	return listRequisitions(ctx, ts.tx, f)
}

func (ts *txStore) DeleteRequisition(ctx context.Context, id string) error {
	_, err := ts.tx.ExecContext(ctx, "DELETE FROM requisitions WHERE id = ?", id)
	return err
}

// =============================================================================
// PRODUCTS (catalog.Store interface)
// =============================================================================

// SaveProduct inserts or updates a product. Insertion order is kept.
func (s *Store) SaveProduct(ctx context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	variants := p.Variants
	if variants == nil {
		variants = []string{}
	}
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return fmt.Errorf("failed to encode variants: %w", err)
	}

	query := `
		INSERT INTO products (id, name, unit, variants_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			unit = excluded.unit,
			variants_json = excluded.variants_json
	`
	_, err = s.db.ExecContext(ctx, query, p.ID, p.Name, p.Unit, string(variantsJSON))
	return err
}

// GetProduct retrieves a product by ID, or nil if absent.
func (s *Store) GetProduct(ctx context.Context, id ledger.ProductID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.queryProducts(ctx, "SELECT id, name, unit, variants_json FROM products WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// ListProducts returns the catalog in insertion order.
func (s *Store) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryProducts(ctx, "SELECT id, name, unit, variants_json FROM products ORDER BY rowid")
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var (
			p            catalog.Product
			variantsJSON string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &variantsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if err := json.Unmarshal([]byte(variantsJSON), &p.Variants); err != nil {
			return nil, fmt.Errorf("failed to decode variants of %s: %w", p.ID, err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// DeleteProduct removes a product. Ledger rows referencing it stay.
func (s *Store) DeleteProduct(ctx context.Context, id ledger.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	return err
}

// =============================================================================
// PARTICIPANTS (catalog.Store interface)
// =============================================================================

// SaveParticipant inserts or updates a participant. A username already
// used by another participant yields catalog.ErrDuplicateUsername.
func (s *Store) SaveParticipant(ctx context.Context, p catalog.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO participants (id, username, password, name, role)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			password = excluded.password,
			name = excluded.name,
			role = excluded.role
	`
	_, err := s.db.ExecContext(ctx, query, p.ID, p.Username, p.Password, p.Name, p.Role)
	if isUniqueConstraintError(err) {
		return catalog.ErrDuplicateUsername
	}
	return err
}

const selectParticipants = "SELECT id, username, password, name, role FROM participants"

// GetParticipant retrieves a participant by ID, or nil if absent.
func (s *Store) GetParticipant(ctx context.Context, id string) (*catalog.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getParticipant(ctx, selectParticipants+" WHERE id = ?", id)
}

// FindParticipantByUsername retrieves a participant by login, or nil if absent.
func (s *Store) FindParticipantByUsername(ctx context.Context, username string) (*catalog.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getParticipant(ctx, selectParticipants+" WHERE username = ?", username)
}

func (s *Store) getParticipant(ctx context.Context, query string, arg any) (*catalog.Participant, error) {
	var (
		p    catalog.Participant
		role string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&p.ID, &p.Username, &p.Password, &p.Name, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Role = catalog.Role(role)
	return &p, nil
}

// ListParticipants returns all participants in insertion order.
func (s *Store) ListParticipants(ctx context.Context) ([]catalog.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectParticipants+" ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []catalog.Participant
	for rows.Next() {
		var (
			p    catalog.Participant
			role string
		)
		if err := rows.Scan(&p.ID, &p.Username, &p.Password, &p.Name, &role); err != nil {
			return nil, err
		}
		p.Role = catalog.Role(role)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// DeleteParticipant removes a participant. Their requisitions and ledger rows stay.
func (s *Store) DeleteParticipant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM participants WHERE id = ?", id)
	return err
}

// =============================================================================
// SETTINGS
// =============================================================================

// LoadNotifierConfig returns the stored notifier settings, zero if unset.
func (s *Store) LoadNotifierConfig(ctx context.Context) (catalog.NotifierConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		cfg   catalog.NotifierConfig
		value string
	)
	err := s.db.QueryRowContext(ctx, "SELECT value_json FROM settings WHERE key = ?", notifierSettingKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal([]byte(value), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode notifier settings: %w", err)
	}
	return cfg, nil
}

// SaveNotifierConfig stores the notifier settings.
func (s *Store) SaveNotifierConfig(ctx context.Context, cfg catalog.NotifierConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value_json) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value_json = excluded.value_json
	`, notifierSettingKey, string(value))
	return err
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears every table. Used by the demo data loader.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"stock_transactions", "requisitions", "products", "participants", "settings"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

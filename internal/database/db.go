// Package database is a write-only journal of executed trades and
// emitted signals. The core never reads it back; it exists for audit
// and offline analysis.
package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/avolkov/signalfusion/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trade_executions (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			fees DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			executed_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trading_signals (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			action TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			sentiment DOUBLE PRECISION NOT NULL,
			risk_level TEXT NOT NULL,
			reasoning TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// RecordTrade appends one execution to the journal.
func (db *DB) RecordTrade(exec *models.TradeExecution) error {
	_, err := db.Exec(`
		INSERT INTO trade_executions (id, symbol, side, amount, price, fees, status, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`,
		exec.ID, exec.Symbol, exec.Side, exec.Amount, exec.Price, exec.Fees, exec.Status, exec.Timestamp)
	return err
}

// RecordSignal appends one emitted signal to the journal.
func (db *DB) RecordSignal(signal *models.TradingSignal) error {
	_, err := db.Exec(`
		INSERT INTO trading_signals (symbol, action, confidence, price, sentiment, risk_level, reasoning, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		signal.Symbol, signal.Action, signal.Confidence, signal.Price,
		signal.SentimentScore, signal.RiskLevel, strings.Join(signal.Reasoning, "; "), signal.Timestamp)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TickerWatch/internal/domain/models"
	domrepo "TickerWatch/internal/domain/repository"
	applogger "TickerWatch/pkg/logger"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS alerts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	ts         INTEGER NOT NULL, -- unix nanoseconds, UTC
	ticker     TEXT NOT NULL,
	conditions TEXT NOT NULL,
	rsi        REAL NOT NULL,
	message    TEXT NOT NULL,
	status     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_ticker_ts ON alerts (ticker, ts);
`

// SQLiteAlertArchive keeps alert history in a local SQLite file.
type SQLiteAlertArchive struct {
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.AlertArchive = (*SQLiteAlertArchive)(nil)

// NewSQLiteAlertArchive opens (or creates) the database at path.
func NewSQLiteAlertArchive(path string) (*SQLiteAlertArchive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// a single writer avoids SQLITE_BUSY and keeps :memory: on one connection
	db.SetMaxOpenConns(1)
	return &SQLiteAlertArchive{db: db, l: applogger.Nop()}, nil
}

// SetLogger injects a structured logger.
func (s *SQLiteAlertArchive) SetLogger(l *applogger.Logger) { s.l = l }

func (s *SQLiteAlertArchive) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *SQLiteAlertArchive) Record(ctx context.Context, rec models.AlertRecord) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO alerts (ts, ticker, conditions, rsi, message, status) VALUES (?, ?, ?, ?, ?, ?)",
		rec.Timestamp.UnixNano(),
		rec.Ticker,
		strings.Join(rec.Conditions, ","),
		rec.RSI,
		rec.Message,
		string(rec.Status),
	)
	if err != nil {
		s.l.Error("sqlite record alert error", applogger.String("ticker", rec.Ticker), applogger.Error(err))
		return fmt.Errorf("record alert: %w", err)
	}
	return nil
}

func (s *SQLiteAlertArchive) Query(ctx context.Context, f domrepo.HistoryFilter) ([]models.AlertRecord, error) {
	start := time.Now()
	q, args := historyQuery("alerts", f, unixNanos)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []models.AlertRecord
	for rows.Next() {
		var (
			rec        models.AlertRecord
			ts         int64
			conditions string
			status     string
		)
		if err := rows.Scan(&ts, &rec.Ticker, &conditions, &rec.RSI, &rec.Message, &status); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		rec.Timestamp = time.Unix(0, ts).UTC()
		if conditions != "" {
			rec.Conditions = strings.Split(conditions, ",")
		}
		rec.Status = models.DeliveryStatus(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("sqlite alert history ok",
		applogger.String("ticker", f.Ticker),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *SQLiteAlertArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteAlertArchive) Close() error {
	return s.db.Close()
}

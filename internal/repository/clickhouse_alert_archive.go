package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TickerWatch/internal/domain/models"
	domrepo "TickerWatch/internal/domain/repository"
	pkgch "TickerWatch/pkg/clickhouse"
	applogger "TickerWatch/pkg/logger"
)

// CHAlertArchive implements AlertArchive backed by ClickHouse.
type CHAlertArchive struct {
	ch       *pkgch.Client
	db       *sql.DB
	database string
	table    string
	l        *applogger.Logger
}

var _ domrepo.AlertArchive = (*CHAlertArchive)(nil)

func NewCHAlertArchive(ch *pkgch.Client, database string) *CHAlertArchive {
	return &CHAlertArchive{ch: ch, db: ch.DB(), database: database, table: database + ".alerts", l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CHAlertArchive) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHAlertArchive) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, pkgch.AlertSchema(s.database, "alerts"))
}

func (s *CHAlertArchive) Record(ctx context.Context, rec models.AlertRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, ticker, conditions, rsi, message, status) VALUES (?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		rec.Timestamp.UTC(),
		rec.Ticker,
		rec.Conditions,
		rec.RSI,
		rec.Message,
		string(rec.Status),
	)
	if err != nil {
		s.l.Error("clickhouse record alert error",
			applogger.String("table", s.table),
			applogger.String("ticker", rec.Ticker),
			applogger.Error(err),
		)
		return fmt.Errorf("record alert: %w", err)
	}
	return nil
}

func (s *CHAlertArchive) Query(ctx context.Context, f domrepo.HistoryFilter) ([]models.AlertRecord, error) {
	start := time.Now()
	q, args := historyQuery(s.table, f, utcTime)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse alert history query error",
			applogger.String("table", s.table),
			applogger.String("ticker", f.Ticker),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]models.AlertRecord, 0, f.Limit)
	for rows.Next() {
		var (
			rec    models.AlertRecord
			status string
		)
		if err := rows.Scan(&rec.Timestamp, &rec.Ticker, &rec.Conditions, &rec.RSI, &rec.Message, &status); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		rec.Status = models.DeliveryStatus(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse alert history ok",
		applogger.String("ticker", f.Ticker),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHAlertArchive) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHAlertArchive) Close() error {
	return s.ch.Close()
}

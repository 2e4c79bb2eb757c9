package repository

import (
	"fmt"
	"strings"
	"time"

	domrepo "TickerWatch/internal/domain/repository"
)

const defaultHistoryLimit = 50

// tsArg encodes a time bound the way an archive stores ts.
type tsArg func(time.Time) any

func utcTime(t time.Time) any { return t.UTC() }

// unixNanos matches the INTEGER ts column of the SQLite archive, which keeps
// range filters and ordering numeric.
func unixNanos(t time.Time) any { return t.UnixNano() }

// historyQuery renders the SELECT shared by the SQL archives. Both drivers
// take positional "?" placeholders.
func historyQuery(table string, f domrepo.HistoryFilter, ts tsArg) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Ticker != "" {
		where = append(where, "ticker = ?")
		args = append(args, f.Ticker)
	}
	if !f.From.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, ts(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, ts(f.To))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	q := fmt.Sprintf("SELECT ts, ticker, conditions, rsi, message, status FROM %s", table)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)
	return q, args
}

package usecase

import (
	"context"
	"errors"
	"fmt"

	"TickerWatch/internal/domain/models"
	domrepo "TickerWatch/internal/domain/repository"
	"TickerWatch/pkg/util"
)

// ErrInvalidQuery marks a history request that cannot be executed.
var ErrInvalidQuery = errors.New("invalid history query")

// ErrNoArchive is returned when no archive backend is configured.
var ErrNoArchive = errors.New("alert archive not configured")

// AlertHistory serves archived alert records.
type AlertHistory struct {
	archive domrepo.AlertArchive
}

func NewAlertHistory(archive domrepo.AlertArchive) *AlertHistory {
	return &AlertHistory{archive: archive}
}

// Query converts a request into an archive filter and runs it.
func (h *AlertHistory) Query(ctx context.Context, req models.AlertHistoryRequest) ([]models.AlertRecord, error) {
	if h.archive == nil {
		return nil, ErrNoArchive
	}
	f := domrepo.HistoryFilter{Ticker: util.NormalizeTicker(req.Ticker), Limit: req.Limit}
	if req.From != "" {
		t, ok := util.ParseTime(req.From)
		if !ok {
			return nil, fmt.Errorf("%w: from %q", ErrInvalidQuery, req.From)
		}
		f.From = t
	}
	if req.To != "" {
		t, ok := util.ParseTime(req.To)
		if !ok {
			return nil, fmt.Errorf("%w: to %q", ErrInvalidQuery, req.To)
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return nil, fmt.Errorf("%w: from after to", ErrInvalidQuery)
	}
	return h.archive.Query(ctx, f)
}

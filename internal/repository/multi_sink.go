package repository

import (
	"context"
	"errors"

	"TickerWatch/internal/domain/models"
	domrepo "TickerWatch/internal/domain/repository"
)

// MultiSink fans a record out to every sink. One failing sink does not
// stop the others; their errors are joined.
type MultiSink []domrepo.AlertSink

var _ domrepo.AlertSink = MultiSink(nil)

func (m MultiSink) Record(ctx context.Context, rec models.AlertRecord) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

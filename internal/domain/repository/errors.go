package repository

import "errors"

var (
	// ErrNoData means the provider returned an empty result for the ticker.
	ErrNoData = errors.New("market data: no data returned")
	// ErrRateLimited means the publisher asked us to back off and retry.
	ErrRateLimited = errors.New("publisher: rate limited")
)

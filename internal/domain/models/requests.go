package models

// Requests for the status HTTP endpoints. Defined in domain for consistency and reuse.

type AlertHistoryRequest struct {
	Ticker string `query:"ticker" json:"ticker"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
}

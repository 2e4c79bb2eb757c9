package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	models "TickerWatch/internal/domain/models"
	icache "TickerWatch/internal/service/cache"
	"TickerWatch/internal/service/metrics"
	"TickerWatch/internal/service/ratelimit"
	"TickerWatch/internal/usecase"
	xhttp "TickerWatch/pkg/http"
	xlogger "TickerWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusSource exposes monitor progress.
type StatusSource interface {
	Status() usecase.MonitorStatus
}

// AlertsEchoHandler serves watchlist state and alert history.
type AlertsEchoHandler struct {
	logger  *xlogger.Logger
	history *usecase.AlertHistory
	watch   *usecase.Watchlist
	monitor StatusSource
	cache   icache.BytesCache
	ttl     time.Duration
	rl      *ratelimit.Limiter
}

func NewAlertsEchoHandler(logger *xlogger.Logger, history *usecase.AlertHistory, watch *usecase.Watchlist, monitor StatusSource) *AlertsEchoHandler {
	metrics.Register()
	return &AlertsEchoHandler{logger: logger, history: history, watch: watch, monitor: monitor, rl: ratelimit.New()}
}

// SetCache enables response caching of history queries for ttl.
func (h *AlertsEchoHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	h.ttl = ttl
}

func (h *AlertsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/watchlist", h.Watchlist)
	g.GET("/alerts", h.Alerts)
}

type healthResponse struct {
	Status    string                `json:"status"`
	Watchlist int                   `json:"watchlist"`
	Monitor   usecase.MonitorStatus `json:"monitor"`
}

func (h *AlertsEchoHandler) Health(c echo.Context) error {
	res := healthResponse{Status: "ok", Watchlist: h.watch.Len()}
	if h.monitor != nil {
		res.Monitor = h.monitor.Status()
	}
	return xhttp.SuccessResponse(c, res)
}

type watchlistResponse struct {
	Tickers []string                `json:"tickers"`
	Removed []usecase.RemovedTicker `json:"removed"`
}

func (h *AlertsEchoHandler) Watchlist(c echo.Context) error {
	return xhttp.SuccessResponse(c, watchlistResponse{Tickers: h.watch.Tickers(), Removed: h.watch.Removed()})
}

func (h *AlertsEchoHandler) Alerts(c echo.Context) error {
	start := time.Now()
	const endpoint = "alerts"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if !h.rl.Allow(c.RealIP()+":alerts", 10, 5) {
		h.logger.Warn("alerts rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	req := &models.AlertHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := fmt.Sprintf("alerts:%s:%d:%s:%s", req.Ticker, req.Limit, req.From, req.To)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("alerts cache_get_error", xlogger.Error(err))
		} else if ok {
			h.logger.Debug("alerts cache_hit", xlogger.String("key", cacheKey))
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	rows, err := h.history.Query(c.Request().Context(), *req)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		switch {
		case errors.Is(err, usecase.ErrInvalidQuery):
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		case errors.Is(err, usecase.ErrNoArchive):
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError(err.Error()))
		}
		h.logger.Error("alerts usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if rows == nil {
		rows = []models.AlertRecord{}
	}

	b, err := json.Marshal(xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    xhttp.ListDataResponse{Rows: rows, Total: int64(len(rows))},
	})
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(cacheKey, b, h.ttl); err != nil {
			h.logger.Warn("alerts cache_set_error", xlogger.Error(err))
		}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, fmt.Sprintf("private, max-age=%d", int(h.ttl.Seconds())))
	return c.JSONBlob(http.StatusOK, b)
}

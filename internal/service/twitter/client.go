package twitter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	drepo "TickerWatch/internal/domain/repository"
	xhttp "TickerWatch/pkg/http"
	"TickerWatch/pkg/logger"

	"github.com/dghubble/oauth1"
)

// Config holds user-context credentials for the v2 tweets endpoint.
type Config struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
	BaseURL           string
	Timeout           time.Duration
}

// Client posts alert messages as tweets.
type Client struct {
	baseURL string
	http    *xhttp.Client
	log     *logger.Logger
}

var _ drepo.Publisher = (*Client)(nil)

// New creates a publisher signing requests with OAuth 1.0a.
func New(cfg Config) *Client {
	oc := oauth1.NewConfig(cfg.APIKey, cfg.APISecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)
	return newClient(cfg.BaseURL, oc.Client(context.Background(), token), cfg.Timeout)
}

func newClient(baseURL string, hc *http.Client, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithHTTPClient(hc), xhttp.WithTimeout(timeout)),
		log:     logger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *logger.Logger) { c.log = l }

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Publish posts text. A 429 maps to ErrRateLimited so the caller can back off.
func (c *Client) Publish(ctx context.Context, ticker, text string) error {
	var out tweetResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/2/tweets",
		Body:   tweetRequest{Text: text},
	}, &out)
	if err != nil {
		if xhttp.IsStatus(err, http.StatusTooManyRequests) {
			return drepo.ErrRateLimited
		}
		return fmt.Errorf("post tweet for %s: %w", ticker, err)
	}
	c.log.Debug("tweet posted", logger.String("ticker", ticker), logger.String("id", out.Data.ID))
	return nil
}

func (c *Client) Close() error { return nil }

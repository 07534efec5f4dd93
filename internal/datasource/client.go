package datasource

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/config"
	"wallet-strategy-lab/internal/domain"
)

// Client fetches wallet position history over HTTP.
type Client struct {
	http     *resty.Client
	pageSize int
	log      *logrus.Logger
}

// NewClient builds a client from config. Retries honor a Retry-After header
// when the API rate-limits.
func NewClient(cfg config.DataAPIConfig, log *logrus.Logger) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.MaxRetryWait).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp.StatusCode() == 429 {
				// Retry-After is delta-seconds here; the HTTP-date form
				// falls through to the default wait.
				if secs, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil && secs >= 0 {
					return time.Duration(secs) * time.Second, nil
				}
				return 10 * time.Second, nil
			}
			return 0, nil
		}).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() == 429 || resp.StatusCode() >= 500
		})

	return &Client{http: http, pageSize: cfg.PageSize, log: log}
}

// Events fetches the full position history for a wallet and normalizes it.
// Histories are paginated; wallets with 60k+ positions take many pages.
func (c *Client) Events(ctx context.Context, walletID string) ([]domain.TradeEvent, error) {
	var raw []RawPosition

	for offset := 0; ; offset += c.pageSize {
		var page positionsPage
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("wallet", walletID).
			SetQueryParam("offset", fmt.Sprint(offset)).
			SetQueryParam("limit", fmt.Sprint(c.pageSize)).
			SetResult(&page).
			ForceContentType("application/json").
			Get("/wallets/{wallet}/positions")
		if err != nil {
			return nil, fmt.Errorf("fetch positions page at offset %d: %w", offset, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("positions endpoint returned %s for wallet %s", resp.Status(), walletID)
		}

		raw = append(raw, page.Positions...)

		c.log.WithFields(logrus.Fields{
			"wallet": walletID,
			"offset": offset,
			"page":   len(page.Positions),
			"total":  page.Total,
		}).Debug("positions page fetched")

		if len(page.Positions) < c.pageSize || (page.Total > 0 && len(raw) >= page.Total) {
			break
		}
	}

	return Normalize(walletID, raw), nil
}

// Profile fetches leaderboard context for a wallet. A missing profile is not
// an error; the zero profile means the wallet is unranked.
func (c *Client) Profile(ctx context.Context, walletID string) (WalletProfile, error) {
	var profile WalletProfile
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("wallet", walletID).
		SetResult(&profile).
		ForceContentType("application/json").
		Get("/wallets/{wallet}/profile")
	if err != nil {
		return WalletProfile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if resp.StatusCode() == 404 {
		return WalletProfile{}, nil
	}
	if resp.IsError() {
		return WalletProfile{}, fmt.Errorf("profile endpoint returned %s for wallet %s", resp.Status(), walletID)
	}
	return profile, nil
}

// Package coinapi is the market-data boundary: a REST client for the CoinAPI
// /v1/assets endpoint with classified failures. The price cache treats every
// failure kind uniformly as "fetch failed" for retry purposes.
package coinapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"crypto_wallet/internal/domain"
	"crypto_wallet/internal/infra"
)

const assetsPath = "/v1/assets"

// Classified fetch failures.
var (
	ErrBadRequest       = errors.New("coinapi: bad request")
	ErrUnauthorized     = errors.New("coinapi: unauthorized, check the API key")
	ErrForbidden        = errors.New("coinapi: forbidden, insufficient API key privileges")
	ErrTooManyRequests  = errors.New("coinapi: rate limit exceeded")
	ErrNoData           = errors.New("coinapi: no data available")
	ErrUnexpectedStatus = errors.New("coinapi: unexpected response status")
)

// Client fetches the asset list from CoinAPI.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new CoinAPI client from the application config.
func NewClient(cfg *infra.Config) *Client {
	return &Client{
		baseURL: cfg.API.CoinAPI.BaseURL,
		apiKey:  cfg.API.CoinAPI.Key,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "coinapi_client"),
	}
}

// FetchAssets retrieves the full asset list. The caller filters it.
func (c *Client) FetchAssets(ctx context.Context) ([]domain.Asset, error) {
	url := fmt.Sprintf("%s%s?apikey=%s", c.baseURL, assetsPath, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coinapi request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coinapi read failed: %w", err)
	}

	var assets []domain.Asset
	if err := json.Unmarshal(body, &assets); err != nil {
		return nil, fmt.Errorf("coinapi decode failed: %w", err)
	}

	if len(assets) == 0 {
		return nil, ErrNoData
	}

	c.logger.Debug("fetched assets", slog.Int("count", len(assets)))
	return assets, nil
}

// classifyStatus maps CoinAPI status codes to the failure vocabulary.
// 550 is CoinAPI's "no data" code.
func classifyStatus(code int) error {
	switch code {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	case 550:
		return ErrNoData
	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
}

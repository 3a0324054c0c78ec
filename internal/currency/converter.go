// Package currency converts amounts between currencies using the
// openexchangerates.org latest rates.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/shopchat/internal/shared"
	"github.com/containerd/errdefs"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public openexchangerates API root.
const DefaultBaseURL = "https://openexchangerates.org/api"

// ErrConversionFailed is returned when the rates could not be fetched. The
// underlying cause is logged, not returned.
var ErrConversionFailed = fmt.Errorf("failed to convert currencies: %w", errdefs.ErrUnavailable)

// Config holds the converter settings.
type Config struct {
	AppID   string
	BaseURL string
	Timeout time.Duration
}

// Converter fetches fresh rates on every call. Rates are quoted against USD,
// so any pair converts through that base.
type Converter struct {
	appID   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewConverter creates a Converter. A nil client gets one with cfg.Timeout.
func NewConverter(cfg Config, client *http.Client, logger *slog.Logger) *Converter {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Converter{
		appID:   cfg.AppID,
		baseURL: strings.TrimRight(base, "/"),
		client:  client,
		logger:  logger,
	}
}

type latestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Convert returns "<amount> <FROM> = <converted> <TO>". Codes are matched
// case-insensitively but echoed upper-cased. The converted value is rounded
// half away from zero to two decimals, working on the shortest decimal form
// of the float so 1.005 becomes 1.01.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (string, error) {
	if c.appID == "" {
		return "", fmt.Errorf("%w: OPEN_EXCHANGE_APP_ID is not set", shared.ErrConfiguration)
	}

	rates, err := c.fetchRates(ctx)
	if err != nil {
		c.logger.Error("Failed to fetch exchange rates", "error", err)
		return "", ErrConversionFailed
	}

	fromCode := strings.ToUpper(from)
	toCode := strings.ToUpper(to)
	rateFrom := rates[fromCode]
	rateTo := rates[toCode]
	if rateFrom == 0 || rateTo == 0 {
		return "", fmt.Errorf("%w: invalid currency code(s): %s, %s", shared.ErrInvalidArgument, from, to)
	}

	converted := decimal.NewFromFloat(amount / rateFrom * rateTo)
	return fmt.Sprintf("%s %s = %s %s",
		strconv.FormatFloat(amount, 'f', -1, 64), fromCode,
		converted.StringFixed(2), toCode,
	), nil
}

func (c *Converter) fetchRates(ctx context.Context) (map[string]float64, error) {
	endpoint := c.baseURL + "/latest.json?app_id=" + url.QueryEscape(c.appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request rates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates API returned status %d", resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if body.Rates == nil {
		return nil, fmt.Errorf("rates missing from response")
	}
	return body.Rates, nil
}

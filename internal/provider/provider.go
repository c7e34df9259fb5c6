// Package provider wraps the Yahoo Finance quote API. Raw payloads are
// decoded into typed results at this boundary; callers never see untyped
// JSON.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://query2.finance.yahoo.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Client fetches stock profiles and earnings history from Yahoo Finance.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a Client with the given options applied.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithClient sets the HTTP client.
func WithClient(h *http.Client) Option {
	return func(c *Client) { c.client = h }
}

// quoteResponse represents the v7 quote API response.
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			LongName         string `json:"longName"`
			ShortName        string `json:"shortName"`
			Exchange         string `json:"exchange"`
			FullExchangeName string `json:"fullExchangeName"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteResponse"`
}

// earningsResponse represents the v10 quoteSummary earningsHistory response.
type earningsResponse struct {
	QuoteSummary struct {
		Result []struct {
			EarningsHistory struct {
				History []earningsRow `json:"history"`
			} `json:"earningsHistory"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type earningsRow struct {
	Quarter         rawValue `json:"quarter"`
	EpsEstimate     rawValue `json:"epsEstimate"`
	EpsActual       rawValue `json:"epsActual"`
	EpsDifference   rawValue `json:"epsDifference"`
	SurprisePercent rawValue `json:"surprisePercent"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// GetProfile fetches the current profile metadata for a ticker
func (c *Client) GetProfile(ctx context.Context, ticker string) (*Profile, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker cannot be empty")
	}

	reqURL := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(ticker))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var res quoteResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &FormatError{Ticker: ticker, Reason: fmt.Sprintf("decode quote response: %v", err)}
	}
	if res.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote API error for %s: %s", ticker, res.QuoteResponse.Error.Description)
	}
	if len(res.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote result for %s", ticker)
	}

	r := res.QuoteResponse.Result[0]
	return &Profile{
		LongName:         r.LongName,
		ShortName:        r.ShortName,
		Exchange:         r.Exchange,
		FullExchangeName: r.FullExchangeName,
	}, nil
}

// GetEarningsHistory fetches historical earnings events for a ticker.
// A nil slice with a nil error means the provider has no earnings data.
func (c *Client) GetEarningsHistory(ctx context.Context, ticker string) ([]EarningsEvent, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker cannot be empty")
	}

	reqURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=earningsHistory",
		c.baseURL, url.PathEscape(ticker))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var res earningsResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &FormatError{Ticker: ticker, Reason: fmt.Sprintf("decode earnings response: %v", err)}
	}
	if res.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quoteSummary API error for %s: %s", ticker, res.QuoteSummary.Error.Description)
	}
	if len(res.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	history := res.QuoteSummary.Result[0].EarningsHistory.History
	if len(history) == 0 {
		return nil, nil
	}

	events := make([]EarningsEvent, 0, len(history))
	for _, row := range history {
		events = append(events, EarningsEvent{
			Quarter:         row.Quarter.Fmt,
			EpsEstimate:     row.EpsEstimate.Decimal(),
			EpsActual:       row.EpsActual.Decimal(),
			EpsDifference:   row.EpsDifference.Decimal(),
			SurprisePercent: row.SurprisePercent.Decimal(),
		})
	}
	return events, nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		// Network level failures are expected to be retriable.
		return nil, &TransientError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests {
		return nil, &TransientError{Err: fmt.Errorf("provider returned HTTP %d", res.StatusCode)}
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned HTTP %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("read response: %w", err)}
	}
	return body, nil
}

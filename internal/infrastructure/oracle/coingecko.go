package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coinsentry/internal/domain/model"
)

// Client talks to the CoinGecko REST API. Every request carries the
// client's timeout; non-200 responses and malformed payloads surface as
// errors, which callers treat as "no data".
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SpotPrices queries /simple/price for all ids in one batch. Instruments
// the upstream does not quote in the currency are absent from the result.
func (c *Client) SpotPrices(ctx context.Context, ids []string, currency string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", strings.ToLower(currency))

	body, err := c.get(ctx, "/simple/price", params)
	if err != nil {
		return nil, err
	}

	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("simple/price decode: %w", err)
	}

	cur := strings.ToLower(currency)
	prices := make(map[string]float64, len(payload))
	for id, quotes := range payload {
		if price, ok := quotes[cur]; ok {
			prices[id] = price
		}
	}
	return prices, nil
}

// RankByMarketCap queries /coins/markets ordered by market cap descending.
func (c *Client) RankByMarketCap(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("ids", strings.Join(ids, ","))
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(len(ids)))

	body, err := c.get(ctx, "/coins/markets", params)
	if err != nil {
		return nil, err
	}

	var payload []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("coins/markets decode: %w", err)
	}

	ranked := make([]string, 0, len(payload))
	for _, entry := range payload {
		ranked = append(ranked, entry.ID)
	}
	return ranked, nil
}

// ListInstruments queries /coins/list, the full upstream directory.
func (c *Client) ListInstruments(ctx context.Context) ([]model.Instrument, error) {
	body, err := c.get(ctx, "/coins/list", nil)
	if err != nil {
		return nil, err
	}

	var payload []struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("coins/list decode: %w", err)
	}

	instruments := make([]model.Instrument, 0, len(payload))
	for _, entry := range payload {
		instruments = append(instruments, model.Instrument{
			ID:     entry.ID,
			Symbol: entry.Symbol,
			Name:   entry.Name,
		})
	}
	return instruments, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle http %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

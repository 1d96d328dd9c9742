package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rates is a base currency plus its quoted rates, as served by
// exchangerate-api style endpoints.
type Rates struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Client fetches exchange rates over HTTP, caches them in Redis, and falls
// back to a static table when both fail. Implements the expense usecase's
// Converter interface.
type Client struct {
	baseURL string
	http    *http.Client
	rdb     *redis.Client
	ttl     time.Duration
}

func NewClient(baseURL string, rdb *redis.Client, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (c *Client) Convert(ctx context.Context, amount float64, from, to string) (float64, float64, error) {
	if from == to {
		return round2(amount), 1, nil
	}
	rates, err := c.getRates(ctx, from)
	if err != nil {
		return 0, 0, err
	}
	rate, ok := rates.Rates[to]
	if !ok || rate <= 0 {
		return 0, 0, fmt.Errorf("no rate from %s to %s", from, to)
	}
	return round2(amount * rate), rate, nil
}

func (c *Client) getRates(ctx context.Context, base string) (*Rates, error) {
	key := "rates:" + base

	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
			var r Rates
			if json.Unmarshal(raw, &r) == nil && len(r.Rates) > 0 {
				return &r, nil
			}
		}
	}

	r, err := c.fetch(ctx, base)
	if err != nil {
		log.Printf("currency: fetch rates for %s failed, using fallback: %v", base, err)
		return fallbackRates(base)
	}

	if c.rdb != nil {
		if raw, err := json.Marshal(r); err == nil {
			if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				log.Printf("currency: cache rates for %s failed: %v", base, err)
			}
		}
	}
	return r, nil
}

func (c *Client) fetch(ctx context.Context, base string) (*Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+base, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange rate API returned %d", resp.StatusCode)
	}

	var r Rates
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, err
	}
	if len(r.Rates) == 0 {
		return nil, fmt.Errorf("exchange rate API returned no rates")
	}
	return &r, nil
}

// fallbackUSD quotes common currencies against USD. Stale by definition;
// only consulted when both the cache and the API are unavailable.
var fallbackUSD = map[string]float64{
	"USD": 1,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 149.50,
	"INR": 83.10,
	"AUD": 1.52,
	"CAD": 1.36,
	"SGD": 1.34,
	"CNY": 7.24,
}

func fallbackRates(base string) (*Rates, error) {
	baseRate, ok := fallbackUSD[base]
	if !ok {
		return nil, fmt.Errorf("no fallback rates for base %s", base)
	}
	out := make(map[string]float64, len(fallbackUSD))
	for cur, usdRate := range fallbackUSD {
		out[cur] = round6(usdRate / baseRate)
	}
	return &Rates{Base: base, Date: time.Now().UTC().Format("2006-01-02"), Rates: out}, nil
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
func round6(f float64) float64 { return math.Round(f*1e6) / 1e6 }

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"price-alerts/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches crypto prices from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a new provider with built-in rate limiting.
// Rate limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer, baseURL string, timeout time.Duration) *CoinGeckoProvider {
	if baseURL == "" {
		baseURL = coingeckoBaseURL
	}
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// FetchPrice makes a single simple/price request for symbol. The symbol is
// resolved through domain.CryptoIDs; unknown symbols are queried as-is.
func (p *CoinGeckoProvider) FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-price")
	defer span.End()

	id := domain.CoinGeckoID(symbol)
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("coingecko.id", id))

	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	q.Set("include_24hr_vol", "true")

	body, err := p.doRequest(ctx, p.baseURL+"/simple/price?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch price for %s: %w", symbol, err)
	}

	// Response shape: {"bitcoin": {"usd": 97000, "usd_24h_vol": 45000000000, "usd_24h_change": 2.34}}
	var raw map[string]map[string]*float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse price for %s: %w", symbol, err)
	}

	data, ok := raw[id]
	if !ok {
		return nil, fmt.Errorf("symbol not found: %s", symbol)
	}
	price := data["usd"]
	if price == nil {
		return nil, fmt.Errorf("no usd price for %s", symbol)
	}

	return &domain.PriceSnapshot{
		Price:     *price,
		Timestamp: time.Now().UTC(),
		Change24h: data["usd_24h_change"],
		Volume:    data["usd_24h_vol"],
	}, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

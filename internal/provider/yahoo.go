package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"price-alerts/internal/domain"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	yahooBaseURL   = "https://query2.finance.yahoo.com"
	yahooUserAgent = "Mozilla/5.0 (compatible; price-alerts/1.0)"
)

// Price fields in the quoteSummary response, highest priority first.
var quoteSummaryPriceFields = []string{
	"quoteSummary.result.0.financialData.currentPrice.raw",
	"quoteSummary.result.0.price.regularMarketPrice.raw",
	"quoteSummary.result.0.summaryDetail.previousClose.raw",
}

var chartPriceFields = []string{
	"chart.result.0.meta.regularMarketPrice",
	"chart.result.0.meta.chartPreviousClose",
}

// YahooProvider fetches stock quotes from Yahoo Finance.
type YahooProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewYahooProvider(tracer trace.Tracer, baseURL string, timeout time.Duration) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		tracer:  tracer,
	}
}

// FetchPrice reads the quote summary for symbol and falls back to the chart
// endpoint when the summary request fails or carries no usable price.
func (p *YahooProvider) FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-price")
	defer span.End()

	symbol = domain.NormalizedSymbol(domain.AssetStock, symbol)
	span.SetAttributes(attribute.String("symbol", symbol))

	summaryURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=financialData,price,summaryDetail",
		p.baseURL, url.PathEscape(symbol))
	body, summaryErr := p.doRequest(ctx, summaryURL)
	if summaryErr == nil {
		if price, ok := firstUsable(body, quoteSummaryPriceFields); ok {
			snap := &domain.PriceSnapshot{
				Price:     price,
				Timestamp: time.Now().UTC(),
				Volume:    optionalFloat(body, "quoteSummary.result.0.summaryDetail.volume.raw", "quoteSummary.result.0.price.regularMarketVolume.raw"),
			}
			// Yahoo reports the change as a fraction.
			if change := optionalFloat(body, "quoteSummary.result.0.price.regularMarketChangePercent.raw"); change != nil {
				snap.Change24h = domain.Float64Ptr(*change * 100)
			}
			return snap, nil
		}
		span.AddEvent("quote summary had no usable price, falling back to chart")
	} else {
		summaryErr = fmt.Errorf("fetch quote summary for %s: %w", symbol, summaryErr)
		span.AddEvent("quote summary request failed, falling back to chart",
			trace.WithAttributes(attribute.String("error", summaryErr.Error())))
	}

	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", p.baseURL, url.PathEscape(symbol))
	body, err := p.doRequest(ctx, chartURL)
	if err != nil {
		return nil, errors.Join(summaryErr, fmt.Errorf("fetch chart for %s: %w", symbol, err))
	}

	price, ok := firstUsable(body, chartPriceFields)
	if !ok {
		return nil, errors.Join(summaryErr, fmt.Errorf("no usable price for %s", symbol))
	}
	return &domain.PriceSnapshot{
		Price:     price,
		Timestamp: time.Now().UTC(),
		Volume:    optionalFloat(body, "chart.result.0.meta.regularMarketVolume"),
	}, nil
}

func (p *YahooProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("yahoo API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// firstUsable returns the first numeric, non-zero value among paths.
func firstUsable(body []byte, paths []string) (float64, bool) {
	for _, path := range paths {
		r := gjson.GetBytes(body, path)
		if r.Type != gjson.Number {
			continue
		}
		if v := r.Float(); v > 0 {
			return v, true
		}
	}
	return 0, false
}

func optionalFloat(body []byte, paths ...string) *float64 {
	for _, path := range paths {
		r := gjson.GetBytes(body, path)
		if r.Type == gjson.Number {
			return domain.Float64Ptr(r.Float())
		}
	}
	return nil
}

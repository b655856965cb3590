package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"price-alerts/internal/domain"
	"price-alerts/internal/timeutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PriceSource performs a single, uncached price lookup.
type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
}

type PriceCache interface {
	Get(key string) (*domain.PriceSnapshot, bool)
	Set(key string, snapshot domain.PriceSnapshot) error
}

// PriceService resolves prices cache-first and retries the upstream source
// with exponential backoff on a miss.
type PriceService struct {
	tracer     trace.Tracer
	logger     *zap.Logger
	cache      PriceCache
	stocks     PriceSource
	crypto     PriceSource
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewPriceService(
	tracer trace.Tracer,
	logger *zap.Logger,
	cache PriceCache,
	stocks PriceSource,
	crypto PriceSource,
	maxRetries int,
) *PriceService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &PriceService{
		tracer:     tracer,
		logger:     logger,
		cache:      cache,
		stocks:     stocks,
		crypto:     crypto,
		maxRetries: maxRetries,
		sleep:      timeutil.Sleep,
	}
}

// GetPrice dispatches on the asset type.
func (s *PriceService) GetPrice(ctx context.Context, assetType domain.AssetType, symbol string) (*domain.PriceSnapshot, error) {
	switch assetType {
	case domain.AssetStock:
		return s.FetchStock(ctx, symbol)
	case domain.AssetCrypto:
		return s.FetchCrypto(ctx, symbol)
	default:
		return nil, fmt.Errorf("unsupported asset type: %q", assetType)
	}
}

func (s *PriceService) FetchStock(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	return s.fetch(ctx, domain.AssetStock, symbol, s.stocks)
}

func (s *PriceService) FetchCrypto(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	return s.fetch(ctx, domain.AssetCrypto, symbol, s.crypto)
}

// ValidateSymbol makes one uncached request to check that the provider knows symbol.
func (s *PriceService) ValidateSymbol(ctx context.Context, assetType domain.AssetType, symbol string) error {
	source, err := s.sourceFor(assetType)
	if err != nil {
		return err
	}
	if _, err := source.FetchPrice(ctx, domain.NormalizedSymbol(assetType, symbol)); err != nil {
		return &domain.RetrievalError{Symbol: symbol, AssetType: assetType, Attempts: 1, Err: err}
	}
	return nil
}

func (s *PriceService) sourceFor(assetType domain.AssetType) (PriceSource, error) {
	switch assetType {
	case domain.AssetStock:
		return s.stocks, nil
	case domain.AssetCrypto:
		return s.crypto, nil
	default:
		return nil, fmt.Errorf("unsupported asset type: %q", assetType)
	}
}

func (s *PriceService) fetch(ctx context.Context, assetType domain.AssetType, symbol string, source PriceSource) (*domain.PriceSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.fetch")
	defer span.End()

	symbol = domain.NormalizedSymbol(assetType, symbol)
	key := domain.CacheKey(assetType, symbol)
	span.SetAttributes(attribute.String("asset_type", string(assetType)), attribute.String("symbol", symbol))

	if cached, ok := s.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		attempts++
		snap, err := source.FetchPrice(ctx, symbol)
		if err == nil {
			if err := s.cache.Set(key, *snap); err != nil {
				s.logger.Warn("price cache write failed", zap.String("key", key), zap.Error(err))
			}
			return snap, nil
		}

		lastErr = err
		s.logger.Warn("price fetch attempt failed",
			zap.String("symbol", symbol),
			zap.String("asset_type", string(assetType)),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		if attempt < s.maxRetries-1 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			if err := s.sleep(ctx, backoff); err != nil {
				lastErr = err
				break
			}
		}
	}

	retrievalErr := &domain.RetrievalError{Symbol: symbol, AssetType: assetType, Attempts: attempts, Err: lastErr}
	span.RecordError(retrievalErr)
	span.SetStatus(codes.Error, "price retrieval failed")
	return nil, retrievalErr
}

package handler

import (
	"context"

	"price-alerts/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type PriceService interface {
	GetPrice(ctx context.Context, assetType domain.AssetType, symbol string) (*domain.PriceSnapshot, error)
	ValidateSymbol(ctx context.Context, assetType domain.AssetType, symbol string) error
}

type AlertMonitor interface {
	Items() []domain.WatchlistItem
	Statuses() []domain.AlertStatus
}

// Handler serves read-only views of the monitor's state.
type Handler struct {
	tracer       trace.Tracer
	priceService PriceService
	monitor      AlertMonitor
}

func New(tracer trace.Tracer, priceService PriceService, monitor AlertMonitor) *Handler {
	return &Handler{
		tracer:       tracer,
		priceService: priceService,
		monitor:      monitor,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/prices/:type/:symbol", h.GetPrice)
	api.GET("/validate/:type/:symbol", h.ValidateSymbol)
	api.GET("/watchlist", h.GetWatchlist)
	api.GET("/alerts", h.GetAlerts)
}

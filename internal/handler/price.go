package handler

import (
	"errors"
	"net/http"

	"price-alerts/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetPrice returns the cached or freshly fetched snapshot for one symbol.
func (h *Handler) GetPrice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-price")
	defer span.End()

	assetType, err := domain.ParseAssetType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           err.Error(),
			"supported_types": []domain.AssetType{domain.AssetStock, domain.AssetCrypto},
		})
		return
	}
	symbol := domain.NormalizedSymbol(assetType, c.Param("symbol"))
	span.SetAttributes(attribute.String("asset_type", string(assetType)), attribute.String("symbol", symbol))

	snapshot, err := h.priceService.GetPrice(ctx, assetType, symbol)
	if err != nil {
		status := http.StatusInternalServerError
		var re *domain.RetrievalError
		if errors.As(err, &re) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":   symbol,
		"type":     assetType,
		"snapshot": snapshot,
	})
}

// ValidateSymbol checks with the provider whether a symbol can be priced.
func (h *Handler) ValidateSymbol(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.validate-symbol")
	defer span.End()

	assetType, err := domain.ParseAssetType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	symbol := domain.NormalizedSymbol(assetType, c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	if err := h.priceService.ValidateSymbol(ctx, assetType, symbol); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "message": "symbol is valid"})
}

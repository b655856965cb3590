package domain

import (
	"fmt"
	"strings"
	"time"
)

type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
)

func (a AssetType) IsValid() bool {
	return a == AssetStock || a == AssetCrypto
}

// ParseAssetType accepts "stock"/"crypto" in any case.
func ParseAssetType(s string) (AssetType, error) {
	a := AssetType(strings.ToLower(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", fmt.Errorf("unsupported asset type: %q", s)
	}
	return a, nil
}

type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

func (d Direction) IsValid() bool {
	return d == DirectionAbove || d == DirectionBelow
}

// WatchlistItem is a single user-defined threshold alert.
type WatchlistItem struct {
	Symbol    string    `json:"symbol"`
	Type      AssetType `json:"type"`
	Direction Direction `json:"direction"`
	Threshold float64   `json:"threshold"`
}

// NormalizedSymbol returns the symbol in the case the providers expect:
// upper for stocks, lower for crypto.
func NormalizedSymbol(assetType AssetType, symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if assetType == AssetCrypto {
		return strings.ToLower(symbol)
	}
	return strings.ToUpper(symbol)
}

// CacheKey builds the "<assetType>_<symbol>" key used by the price cache.
func CacheKey(assetType AssetType, symbol string) string {
	return string(assetType) + "_" + NormalizedSymbol(assetType, symbol)
}

// AlertStatus is the outcome of the most recent evaluation of one watchlist item.
type AlertStatus struct {
	Item      WatchlistItem  `json:"item"`
	Snapshot  *PriceSnapshot `json:"snapshot,omitempty"`
	Triggered bool           `json:"triggered"`
	Notified  bool           `json:"notified"`
	Error     string         `json:"error,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

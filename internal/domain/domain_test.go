package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestCacheKey(t *testing.T) {
	tests := []struct {
		assetType AssetType
		symbol    string
		want      string
	}{
		{AssetStock, "aapl", "stock_AAPL"},
		{AssetStock, " MSFT ", "stock_MSFT"},
		{AssetCrypto, "BTC", "crypto_btc"},
		{AssetCrypto, "xyz", "crypto_xyz"},
	}
	for _, tt := range tests {
		if got := CacheKey(tt.assetType, tt.symbol); got != tt.want {
			t.Errorf("CacheKey(%s, %q) = %q, want %q", tt.assetType, tt.symbol, got, tt.want)
		}
	}
}

func TestCoinGeckoID(t *testing.T) {
	if got := CoinGeckoID("BTC"); got != "bitcoin" {
		t.Fatalf("expected bitcoin, got %s", got)
	}
	if got := CoinGeckoID("avax"); got != "avalanche-2" {
		t.Fatalf("expected avalanche-2, got %s", got)
	}
	if got := CoinGeckoID("xyz"); got != "xyz" {
		t.Fatalf("unmapped symbol should pass through, got %s", got)
	}
	if got := CoinGeckoID("XYZ"); got != "xyz" {
		t.Fatalf("unmapped symbol should be lower-cased, got %s", got)
	}
}

func TestParseAssetType(t *testing.T) {
	if a, err := ParseAssetType("Stock"); err != nil || a != AssetStock {
		t.Fatalf("expected stock, got %q (%v)", a, err)
	}
	if a, err := ParseAssetType("crypto"); err != nil || a != AssetCrypto {
		t.Fatalf("expected crypto, got %q (%v)", a, err)
	}
	if _, err := ParseAssetType("bond"); err == nil {
		t.Fatal("expected error for unknown asset type")
	}
}

func TestDirectionIsValid(t *testing.T) {
	if !DirectionAbove.IsValid() || !DirectionBelow.IsValid() {
		t.Fatal("above/below should be valid")
	}
	if Direction("sideways").IsValid() {
		t.Fatal("unexpected valid direction")
	}
}

func TestRetrievalError(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&RetrievalError{Symbol: "AAPL", AssetType: AssetStock, Attempts: 3, Err: cause})

	if !strings.Contains(err.Error(), "AAPL") {
		t.Fatalf("error should name the symbol: %s", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause")
	}
	var re *RetrievalError
	if !errors.As(err, &re) || re.Attempts != 3 {
		t.Fatalf("expected RetrievalError with 3 attempts, got %+v", re)
	}
}

package domain

import (
	"fmt"
	"time"
)

// PriceSnapshot is the last known price of an asset. Never mutated after creation.
type PriceSnapshot struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Change24h *float64  `json:"change_24h"`
	Volume    *float64  `json:"volume"`
}

// RetrievalError is returned once every fetch attempt for a symbol has failed.
type RetrievalError struct {
	Symbol    string
	AssetType AssetType
	Attempts  int
	Err       error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("could not retrieve %s price for %s after %d attempt(s): %v",
		e.AssetType, e.Symbol, e.Attempts, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// CryptoIDs maps lower-case ticker symbols to CoinGecko API identifiers.
var CryptoIDs = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"ada":   "cardano",
	"sol":   "solana",
	"doge":  "dogecoin",
	"matic": "matic-network",
	"link":  "chainlink",
	"dot":   "polkadot",
	"xrp":   "ripple",
	"ltc":   "litecoin",
	"bch":   "bitcoin-cash",
	"xlm":   "stellar",
	"avax":  "avalanche-2",
	"uni":   "uniswap",
	"atom":  "cosmos",
	"algo":  "algorand",
	"bnb":   "binancecoin",
	"ftm":   "fantom",
	"near":  "near",
	"sand":  "the-sandbox",
}

// CoinGeckoID resolves a crypto symbol to its provider id. Unknown symbols
// are passed through lower-cased.
func CoinGeckoID(symbol string) string {
	sym := NormalizedSymbol(AssetCrypto, symbol)
	if id, ok := CryptoIDs[sym]; ok {
		return id
	}
	return sym
}

// Float64Ptr is a small helper for the optional snapshot fields.
func Float64Ptr(v float64) *float64 {
	return &v
}

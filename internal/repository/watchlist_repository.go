package repository

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"price-alerts/internal/domain"

	"go.uber.org/zap"
)

// WatchlistRepository reads the user's alert definitions from a JSON file.
// The monitor never writes to it.
type WatchlistRepository struct {
	path   string
	logger *zap.Logger
}

func NewWatchlistRepository(path string, logger *zap.Logger) *WatchlistRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchlistRepository{path: path, logger: logger}
}

// Load returns the watchlist in file order. A missing or malformed file
// yields an empty list; invalid records are skipped.
func (r *WatchlistRepository) Load() []domain.WatchlistItem {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("watchlist file not found, nothing to monitor", zap.String("path", r.path))
		} else {
			r.logger.Warn("watchlist unreadable", zap.String("path", r.path), zap.Error(err))
		}
		return []domain.WatchlistItem{}
	}

	var raw []domain.WatchlistItem
	if err := json.Unmarshal(data, &raw); err != nil {
		r.logger.Warn("watchlist malformed", zap.String("path", r.path), zap.Error(err))
		return []domain.WatchlistItem{}
	}

	items := make([]domain.WatchlistItem, 0, len(raw))
	for i, item := range raw {
		item.Symbol = strings.TrimSpace(item.Symbol)
		item.Type = domain.AssetType(strings.ToLower(string(item.Type)))
		item.Direction = domain.Direction(strings.ToLower(string(item.Direction)))

		if item.Symbol == "" || !item.Type.IsValid() || !item.Direction.IsValid() {
			r.logger.Warn("skipping invalid watchlist entry",
				zap.Int("index", i),
				zap.String("symbol", item.Symbol),
				zap.String("type", string(item.Type)),
				zap.String("direction", string(item.Direction)),
			)
			continue
		}
		items = append(items, item)
	}

	r.logger.Info("watchlist loaded", zap.Int("items", len(items)), zap.String("path", r.path))
	return items
}

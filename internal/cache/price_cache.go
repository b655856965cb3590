package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"price-alerts/internal/domain"

	"go.uber.org/zap"
)

// Zone-less ISO 8601, as written by older cache files. Read as local time.
const naiveTimestampLayout = "2006-01-02T15:04:05.999999999"

func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err == nil {
		return ts, nil
	}
	if naive, naiveErr := time.ParseInLocation(naiveTimestampLayout, value, time.Local); naiveErr == nil {
		return naive, nil
	}
	return time.Time{}, err
}

// PriceCache holds the last known snapshot per key and mirrors the whole
// map to a JSON file on every write.
type PriceCache struct {
	mu      sync.RWMutex
	path    string
	ttl     time.Duration
	entries map[string]domain.PriceSnapshot
	logger  *zap.Logger
	now     func() time.Time
}

// entryRecord is the on-disk shape of one cache entry.
type entryRecord struct {
	Price     float64  `json:"price"`
	Timestamp string   `json:"timestamp"`
	Change24h *float64 `json:"change_24h"`
	Volume    *float64 `json:"volume"`
}

// NewPriceCache loads path if it exists. A missing or unreadable file yields
// an empty cache.
func NewPriceCache(path string, ttl time.Duration, logger *zap.Logger) *PriceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &PriceCache{
		path:    path,
		ttl:     ttl,
		entries: make(map[string]domain.PriceSnapshot),
		logger:  logger,
		now:     time.Now,
	}
	c.load()
	return c
}

func (c *PriceCache) load() {
	if c.path == "" {
		return
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("price cache unreadable, starting empty", zap.String("path", c.path), zap.Error(err))
		}
		return
	}

	var raw map[string]entryRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Warn("price cache malformed, starting empty", zap.String("path", c.path), zap.Error(err))
		return
	}

	for key, rec := range raw {
		if rec.Timestamp == "" {
			continue
		}
		ts, err := parseTimestamp(rec.Timestamp)
		if err != nil {
			c.logger.Debug("dropping cache entry with bad timestamp", zap.String("key", key), zap.String("timestamp", rec.Timestamp))
			continue
		}
		c.entries[key] = domain.PriceSnapshot{
			Price:     rec.Price,
			Timestamp: ts,
			Change24h: rec.Change24h,
			Volume:    rec.Volume,
		}
	}
	c.logger.Debug("price cache loaded", zap.Int("entries", len(c.entries)))
}

// Get returns the snapshot for key only while it is younger than the TTL.
// Expired entries stay in memory but are never returned.
func (c *PriceCache) Get(key string) (*domain.PriceSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.entries[key]
	if !ok || c.now().Sub(snap.Timestamp) >= c.ttl {
		return nil, false
	}
	return &snap, true
}

// Set replaces the entry for key and rewrites the cache file. The in-memory
// entry is updated even when persisting fails.
func (c *PriceCache) Set(key string, snapshot domain.PriceSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = snapshot
	return c.persist()
}

// Snapshots returns a copy of every entry, expired or not.
func (c *PriceCache) Snapshots() map[string]domain.PriceSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]domain.PriceSnapshot, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// persist must be called with mu held.
func (c *PriceCache) persist() error {
	if c.path == "" {
		return nil
	}

	raw := make(map[string]entryRecord, len(c.entries))
	for key, snap := range c.entries {
		raw[key] = entryRecord{
			Price:     snap.Price,
			Timestamp: snap.Timestamp.Format(time.RFC3339Nano),
			Change24h: snap.Change24h,
			Volume:    snap.Volume,
		}
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode price cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write price cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write price cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write price cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write price cache: %w", err)
	}
	return nil
}

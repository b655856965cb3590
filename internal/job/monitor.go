package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"price-alerts/internal/domain"
	"price-alerts/internal/notify"
	"price-alerts/internal/timeutil"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	secondsPerDay       = 86400
	minCheckInterval    = 10 * time.Second
	defaultChecksPerDay = 1440
)

type PriceFetcher interface {
	GetPrice(ctx context.Context, assetType domain.AssetType, symbol string) (*domain.PriceSnapshot, error)
}

type AlertNotifier interface {
	Notify(ctx context.Context, symbol, subject, body string) bool
}

// Monitor checks every watchlist item once per interval and emails when a
// threshold is crossed.
type Monitor struct {
	tracer   trace.Tracer
	logger   *zap.Logger
	fetcher  PriceFetcher
	notifier AlertNotifier
	items    []domain.WatchlistItem
	interval time.Duration
	now      func() time.Time
	wait     func(ctx context.Context, d time.Duration) error

	mu       sync.RWMutex
	statuses []domain.AlertStatus
}

func NewMonitor(
	tracer trace.Tracer,
	logger *zap.Logger,
	fetcher PriceFetcher,
	notifier AlertNotifier,
	items []domain.WatchlistItem,
	checksPerDay int,
) *Monitor {
	return &Monitor{
		tracer:   tracer,
		logger:   logger,
		fetcher:  fetcher,
		notifier: notifier,
		items:    append([]domain.WatchlistItem(nil), items...),
		interval: CheckInterval(checksPerDay),
		now:      time.Now,
		wait:     timeutil.Sleep,
	}
}

// CheckInterval spreads checksPerDay evenly over a day, never more often
// than every 10 seconds.
func CheckInterval(checksPerDay int) time.Duration {
	if checksPerDay <= 0 {
		checksPerDay = defaultChecksPerDay
	}
	interval := time.Duration(secondsPerDay/checksPerDay) * time.Second
	if interval < minCheckInterval {
		return minCheckInterval
	}
	return interval
}

// Triggered reports whether price satisfies the item's condition. Equality
// counts as a crossing in both directions.
func Triggered(item domain.WatchlistItem, price float64) bool {
	p := decimal.NewFromFloat(price)
	threshold := decimal.NewFromFloat(item.Threshold)
	switch item.Direction {
	case domain.DirectionAbove:
		return p.GreaterThanOrEqual(threshold)
	case domain.DirectionBelow:
		return p.LessThanOrEqual(threshold)
	default:
		return false
	}
}

// Start runs a cycle immediately and then once per interval. Blocks until
// ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("price monitor starting",
		zap.Int("items", len(m.items)),
		zap.Duration("interval", m.interval),
	)

	for {
		m.RunCycle(ctx)
		if err := m.wait(ctx, m.interval); err != nil {
			m.logger.Info("price monitor stopped")
			return
		}
	}
}

// RunCycle evaluates every item once, sequentially. A failing item never
// stops the others.
func (m *Monitor) RunCycle(ctx context.Context) {
	ctx, span := m.tracer.Start(ctx, "monitor.cycle")
	defer span.End()
	span.SetAttributes(attribute.Int("items", len(m.items)))

	statuses := make([]domain.AlertStatus, 0, len(m.items))
	triggered := 0
	for _, item := range m.items {
		if ctx.Err() != nil {
			break
		}
		status := m.checkItem(ctx, item)
		if status.Triggered {
			triggered++
		}
		statuses = append(statuses, status)
	}

	m.mu.Lock()
	m.statuses = statuses
	m.mu.Unlock()

	m.logger.Debug("monitor cycle complete", zap.Int("checked", len(statuses)), zap.Int("triggered", triggered))
}

func (m *Monitor) checkItem(ctx context.Context, item domain.WatchlistItem) domain.AlertStatus {
	status := domain.AlertStatus{Item: item, CheckedAt: m.now().UTC()}

	snap, err := m.fetcher.GetPrice(ctx, item.Type, item.Symbol)
	if err != nil {
		var re *domain.RetrievalError
		if errors.As(err, &re) {
			m.logger.Error("price retrieval failed, skipping this cycle",
				zap.String("symbol", re.Symbol),
				zap.String("asset_type", string(re.AssetType)),
				zap.Int("attempts", re.Attempts),
				zap.Error(re.Err),
			)
		} else {
			m.logger.Error("price retrieval failed, skipping this cycle", zap.String("symbol", item.Symbol), zap.Error(err))
		}
		status.Error = err.Error()
		return status
	}

	status.Snapshot = snap
	status.Triggered = Triggered(item, snap.Price)
	if !status.Triggered {
		return status
	}

	symbol := domain.NormalizedSymbol(item.Type, item.Symbol)
	m.logger.Info("alert triggered",
		zap.String("symbol", symbol),
		zap.String("direction", string(item.Direction)),
		zap.Float64("threshold", item.Threshold),
		zap.Float64("price", snap.Price),
	)

	subject, body := notify.AlertMessage(item, snap)
	status.Notified = m.notifier.Notify(ctx, symbol, subject, body)
	return status
}

// Statuses returns the outcome of the latest completed cycle.
func (m *Monitor) Statuses() []domain.AlertStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.AlertStatus(nil), m.statuses...)
}

func (m *Monitor) Items() []domain.WatchlistItem {
	return append([]domain.WatchlistItem(nil), m.items...)
}

func (m *Monitor) Interval() time.Duration {
	return m.interval
}

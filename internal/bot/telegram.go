package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"price-alerts/internal/domain"
	"price-alerts/internal/notify"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 30 * time.Second

type PriceService interface {
	GetPrice(ctx context.Context, assetType domain.AssetType, symbol string) (*domain.PriceSnapshot, error)
}

type AlertMonitor interface {
	Statuses() []domain.AlertStatus
}

// StartTelegramBot starts long polling in the background. It returns nil when
// no token is configured.
func StartTelegramBot(token string, priceService PriceService, monitor AlertMonitor, logger *zap.Logger) *tele.Bot {
	if token == "" {
		logger.Info("telegram bot token not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		logger.Error("failed to create Telegram bot", zap.Error(err))
		return nil
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) < 2 {
			return c.Send(priceUsage)
		}
		assetType, err := domain.ParseAssetType(args[0])
		if err != nil {
			return c.Send(priceUsage)
		}
		symbol := domain.NormalizedSymbol(assetType, args[1])

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		snapshot, err := priceService.GetPrice(ctx, assetType, symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %v", strings.ToUpper(symbol), err))
		}
		return c.Send(priceMessage(symbol, snapshot))
	})

	b.Handle("/alerts", func(c tele.Context) error {
		return c.Send(alertsMessage(monitor.Statuses()))
	})

	logger.Info("telegram bot started")
	go b.Start()
	return b
}

const priceUsage = "Usage: /price <stock|crypto> <SYMBOL>\nExample: /price crypto BTC"

func priceMessage(symbol string, snapshot *domain.PriceSnapshot) string {
	return fmt.Sprintf(
		"%s\nPrice: %s\n24h Change: %s\nVolume: %s",
		strings.ToUpper(symbol),
		notify.FormatPrice(snapshot.Price),
		notify.FormatChange(snapshot.Change24h),
		notify.FormatVolume(snapshot.Volume),
	)
}

func alertsMessage(statuses []domain.AlertStatus) string {
	if len(statuses) == 0 {
		return "No alerts evaluated yet."
	}

	var b strings.Builder
	for _, s := range statuses {
		symbol := strings.ToUpper(s.Item.Symbol)
		condition := fmt.Sprintf("%s %s", s.Item.Direction, notify.FormatPrice(s.Item.Threshold))
		switch {
		case s.Error != "":
			fmt.Fprintf(&b, "⚠️ %s (%s): price unavailable\n", symbol, condition)
		case s.Triggered:
			fmt.Fprintf(&b, "🔔 %s %s (%s)\n", symbol, notify.FormatPrice(s.Snapshot.Price), condition)
		default:
			fmt.Fprintf(&b, "⏳ %s %s (%s)\n", symbol, notify.FormatPrice(s.Snapshot.Price), condition)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

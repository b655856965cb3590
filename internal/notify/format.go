package notify

import (
	"fmt"
	"strings"
	"time"

	"price-alerts/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatPrice renders large prices without decimals and sub-dollar prices
// with six.
func FormatPrice(price float64) string {
	d := decimal.NewFromFloat(price)
	switch {
	case price >= 1000:
		return printer.Sprintf("$%d", d.Round(0).IntPart())
	case price >= 1:
		return "$" + d.StringFixed(2)
	default:
		return "$" + d.StringFixed(6)
	}
}

func FormatChange(change *float64) string {
	if change == nil {
		return "—"
	}
	arrow := "—"
	if *change > 0 {
		arrow = "▲"
	} else if *change < 0 {
		arrow = "▼"
	}
	return arrow + " " + decimal.NewFromFloat(*change).Abs().StringFixed(2) + "%"
}

func FormatVolume(volume *float64) string {
	if volume == nil {
		return "—"
	}
	v := decimal.NewFromFloat(*volume)
	switch {
	case *volume >= 1e9:
		return "$" + v.Shift(-9).StringFixed(2) + "B"
	case *volume >= 1e6:
		return "$" + v.Shift(-6).StringFixed(2) + "M"
	case *volume >= 1e3:
		return "$" + v.Shift(-3).StringFixed(2) + "K"
	default:
		return "$" + v.StringFixed(2)
	}
}

// AlertMessage builds the email subject and body for a triggered alert.
func AlertMessage(item domain.WatchlistItem, snap *domain.PriceSnapshot) (string, string) {
	symbol := domain.NormalizedSymbol(item.Type, item.Symbol)
	display := strings.ToUpper(symbol)

	subject := fmt.Sprintf("Price alert: %s is %s %s", display, item.Direction, FormatPrice(item.Threshold))

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) crossed your alert threshold.\n\n", display, item.Type)
	fmt.Fprintf(&b, "Current price: %s\n", FormatPrice(snap.Price))
	fmt.Fprintf(&b, "Condition:     %s %s\n", item.Direction, FormatPrice(item.Threshold))
	fmt.Fprintf(&b, "24h change:    %s\n", FormatChange(snap.Change24h))
	fmt.Fprintf(&b, "Volume:        %s\n", FormatVolume(snap.Volume))
	fmt.Fprintf(&b, "Checked at:    %s\n", snap.Timestamp.UTC().Format(time.RFC1123))
	return subject, b.String()
}

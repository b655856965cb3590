package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SMTPConfig holds the credentials needed to deliver mail.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	To   string
}

// Complete reports whether every credential needed to send is present.
func (c SMTPConfig) Complete() bool {
	return c.User != "" && c.Pass != "" && c.To != ""
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, cfg SMTPConfig, subject, body string) error
}

// Notifier sends email alerts, at most once per cooldown window per symbol.
// Last-notified times live in memory only.
type Notifier struct {
	cfg      SMTPConfig
	cooldown time.Duration
	sender   Sender
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	last     map[string]time.Time
	inFlight map[string]bool
}

func NewNotifier(cfg SMTPConfig, cooldown time.Duration, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		cfg:      cfg,
		cooldown: cooldown,
		sender:   &SMTPSender{},
		logger:   logger,
		now:      time.Now,
		last:     make(map[string]time.Time),
		inFlight: make(map[string]bool),
	}
}

// CanNotify is true if symbol was never notified or the cooldown has elapsed.
func (n *Notifier) CanNotify(symbol string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.canNotifyLocked(symbol)
}

func (n *Notifier) canNotifyLocked(symbol string) bool {
	last, ok := n.last[symbol]
	if !ok {
		return true
	}
	return n.now().Sub(last) > n.cooldown
}

// SendEmail reports whether the message was handed to the SMTP server.
func (n *Notifier) SendEmail(ctx context.Context, subject, body string) bool {
	if !n.cfg.Complete() {
		n.logger.Warn("email configuration incomplete, skipping notification",
			zap.Bool("smtp_user_set", n.cfg.User != ""),
			zap.Bool("smtp_pass_set", n.cfg.Pass != ""),
			zap.Bool("email_to_set", n.cfg.To != ""),
		)
		return false
	}

	if err := n.sender.Send(ctx, n.cfg, subject, body); err != nil {
		n.logger.Error("sending email failed", zap.String("subject", subject), zap.Error(err))
		return false
	}

	n.logger.Info("email sent", zap.String("subject", subject))
	return true
}

// Notify sends unless symbol is cooling down or already being sent, and
// starts a new cooldown on success. The lock is not held during the send.
func (n *Notifier) Notify(ctx context.Context, symbol, subject, body string) bool {
	n.mu.Lock()
	if n.inFlight[symbol] || !n.canNotifyLocked(symbol) {
		n.mu.Unlock()
		return false
	}
	n.inFlight[symbol] = true
	n.mu.Unlock()

	sent := n.SendEmail(ctx, subject, body)

	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.inFlight, symbol)
	if sent {
		n.last[symbol] = n.now()
	}
	return sent
}

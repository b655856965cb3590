package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fullConfig = SMTPConfig{Host: "smtp.example.com", Port: 465, User: "me@example.com", Pass: "secret", To: "you@example.com"}

type stubSender struct {
	err      error
	calls    int
	subjects []string
}

func (s *stubSender) Send(ctx context.Context, cfg SMTPConfig, subject, body string) error {
	s.calls++
	s.subjects = append(s.subjects, subject)
	return s.err
}

func newTestNotifier(cfg SMTPConfig, cooldown time.Duration) (*Notifier, *stubSender, *time.Time, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewNotifier(cfg, cooldown, zap.New(core))
	sender := &stubSender{}
	n.sender = sender
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }
	return n, sender, &now, logs
}

func TestNotifierCooldown(t *testing.T) {
	n, sender, now, _ := newTestNotifier(fullConfig, 300*time.Second)
	ctx := context.Background()

	if !n.CanNotify("AAPL") {
		t.Fatal("never-notified symbol should be notifiable")
	}
	if !n.Notify(ctx, "AAPL", "s", "b") {
		t.Fatal("first notify should send")
	}
	if n.CanNotify("AAPL") {
		t.Fatal("symbol should be cooling down right after notify")
	}
	if n.Notify(ctx, "AAPL", "s", "b") {
		t.Fatal("notify during cooldown should be a no-op")
	}

	*now = now.Add(300 * time.Second)
	if n.CanNotify("AAPL") {
		t.Fatal("cooldown requires strictly more than the configured seconds")
	}

	*now = now.Add(time.Second)
	if !n.CanNotify("AAPL") {
		t.Fatal("cooldown should have elapsed")
	}
	if sender.calls != 1 {
		t.Fatalf("expected one send, got %d", sender.calls)
	}
}

func TestNotifierCooldownIsPerSymbol(t *testing.T) {
	n, _, _, _ := newTestNotifier(fullConfig, time.Hour)
	ctx := context.Background()

	n.Notify(ctx, "btc", "s", "b")
	if !n.CanNotify("eth") {
		t.Fatal("other symbols should not share the cooldown")
	}
}

type blockingSender struct {
	started chan string
	release chan struct{}
}

func (s *blockingSender) Send(ctx context.Context, cfg SMTPConfig, subject, body string) error {
	s.started <- subject
	<-s.release
	return nil
}

func TestNotifierSendDoesNotBlockOtherSymbols(t *testing.T) {
	n, _, _, _ := newTestNotifier(fullConfig, time.Hour)
	sender := &blockingSender{started: make(chan string, 2), release: make(chan struct{})}
	n.sender = sender
	ctx := context.Background()

	done := make(chan bool, 1)
	go func() { done <- n.Notify(ctx, "AAPL", "aapl", "b") }()

	select {
	case <-sender.started:
	case <-time.After(time.Second):
		t.Fatal("send did not start")
	}

	checked := make(chan bool, 1)
	go func() { checked <- n.CanNotify("MSFT") }()
	select {
	case ok := <-checked:
		if !ok {
			t.Fatal("other symbol should be notifiable")
		}
	case <-time.After(time.Second):
		t.Fatal("CanNotify blocked behind an in-flight send")
	}

	if n.Notify(ctx, "AAPL", "aapl", "b") {
		t.Fatal("a symbol already being sent should not be sent again")
	}

	close(sender.release)
	select {
	case ok := <-done:
		if !ok {
			t.Fatal("first notify should report success")
		}
	case <-time.After(time.Second):
		t.Fatal("notify did not finish")
	}
	if n.CanNotify("AAPL") {
		t.Fatal("symbol should be cooling down after the send completes")
	}
}

func TestNotifierIncompleteConfig(t *testing.T) {
	cfg := fullConfig
	cfg.Pass = ""
	n, sender, _, logs := newTestNotifier(cfg, time.Minute)

	if n.Notify(context.Background(), "AAPL", "s", "b") {
		t.Fatal("incomplete config should never send")
	}
	if sender.calls != 0 {
		t.Fatalf("sender should not be called, got %d", sender.calls)
	}
	if !n.CanNotify("AAPL") {
		t.Fatal("failed notify should not start a cooldown")
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 1 {
		t.Fatalf("expected one warning, got %v", logs.All())
	}
}

func TestNotifierSendFailure(t *testing.T) {
	n, sender, _, logs := newTestNotifier(fullConfig, time.Minute)
	sender.err = errors.New("535 authentication failed")

	if n.SendEmail(context.Background(), "s", "b") {
		t.Fatal("transport failure should report false")
	}
	if n.Notify(context.Background(), "AAPL", "s", "b") {
		t.Fatal("notify should fail when send fails")
	}
	if !n.CanNotify("AAPL") {
		t.Fatal("failed send should not start a cooldown")
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() != 2 {
		t.Fatalf("expected error logs, got %v", logs.All())
	}
}

func TestNotifierSendEmailSuccess(t *testing.T) {
	n, sender, _, logs := newTestNotifier(fullConfig, time.Minute)

	if !n.SendEmail(context.Background(), "hello", "body") {
		t.Fatal("expected send to succeed")
	}
	if len(sender.subjects) != 1 || sender.subjects[0] != "hello" {
		t.Fatalf("unexpected subjects: %v", sender.subjects)
	}
	if logs.FilterMessage("email sent").Len() != 1 {
		t.Fatalf("expected info log, got %v", logs.All())
	}
}

func TestSMTPConfigComplete(t *testing.T) {
	if !fullConfig.Complete() {
		t.Fatal("full config should be complete")
	}
	for _, cfg := range []SMTPConfig{
		{User: "u", Pass: "p"},
		{User: "u", To: "t"},
		{Pass: "p", To: "t"},
	} {
		if cfg.Complete() {
			t.Fatalf("expected incomplete: %+v", cfg)
		}
	}
}

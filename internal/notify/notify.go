// Package notify sends desktop notifications about applied changes.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

// Level indicates the urgency of a notification.
type Level int

const (
	// LevelInfo is for informational messages (low urgency).
	LevelInfo Level = iota
	// LevelWarning is for warning messages (normal urgency).
	LevelWarning
	// LevelError is for error messages (critical urgency).
	LevelError
)

// Message is a single notification request.
type Message struct {
	AppName       string
	AppIcon       string
	Summary       string
	Body          string
	Hints         map[string]dbus.Variant
	ExpireTimeout int32
}

// Sender delivers a Message and returns the server-assigned id.
type Sender interface {
	Send(ctx context.Context, m Message) (uint32, error)
}

// BusSender calls org.freedesktop.Notifications.Notify on the session bus.
type BusSender struct {
	conn *dbus.Conn
}

// NewBusSender connects to the session bus.
func NewBusSender() (*BusSender, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &BusSender{conn: conn}, nil
}

// Send implements Sender.
func (s *BusSender) Send(ctx context.Context, m Message) (uint32, error) {
	obj := s.conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")

	var id uint32
	err := obj.CallWithContext(ctx, "org.freedesktop.Notifications.Notify", 0,
		m.AppName, uint32(0), m.AppIcon, m.Summary, m.Body,
		[]string{}, m.Hints, m.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}

// Notifier rate-limits notifications per key.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	sender Sender

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	enabled        bool

	now func() time.Time
}

// New creates a Notifier. A nil sender disables delivery.
func New(sender Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger:         logger,
		sender:         sender,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
		now:            time.Now,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications sharing a key.
func (n *Notifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless disabled or rate-limited.
// It reports whether a notification was sent.
func (n *Notifier) Notify(ctx context.Context, key, summary, body string, level Level) bool {
	n.mu.Lock()
	if !n.enabled || n.sender == nil {
		n.mu.Unlock()
		n.logger.Debug("notification skipped", "summary", summary)
		return false
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("notification rate-limited", "key", key, "summary", summary)
		return false
	}
	n.lastNotifyTime[key] = now
	sender := n.sender
	n.mu.Unlock()

	urgency := byte(1)
	icon := "dialog-warning"
	switch level {
	case LevelInfo:
		urgency = 0
		icon = "preferences-desktop-theme"
	case LevelError:
		urgency = 2
		icon = "dialog-error"
	}

	msg := Message{
		AppName: "loom",
		AppIcon: icon,
		Summary: summary,
		Body:    body,
		Hints: map[string]dbus.Variant{
			"urgency":   dbus.MakeVariant(urgency),
			"transient": dbus.MakeVariant(true),
		},
		ExpireTimeout: 4000,
	}

	if _, err := sender.Send(ctx, msg); err != nil {
		n.logger.Warn("failed to send notification", "summary", summary, "error", err)
		return false
	}
	return true
}

// Applied announces a successful change.
func (n *Notifier) Applied(ctx context.Context, kind, value string) bool {
	return n.Notify(ctx, "applied-"+kind, "Appearance updated", kind+": "+value, LevelInfo)
}

// Failed announces a failed change.
func (n *Notifier) Failed(ctx context.Context, kind string, err error) bool {
	return n.Notify(ctx, "failed-"+kind, "Could not apply "+kind, err.Error(), LevelWarning)
}

// Package whatsapp owns the connection to the WhatsApp messaging
// provider: connect/reconnect, outbound sends, keepalive and inbound
// message dispatch.
package whatsapp

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SeveN7Igor7/pedefacil/internal/domain"
	"github.com/SeveN7Igor7/pedefacil/internal/logger"
	"github.com/SeveN7Igor7/pedefacil/internal/phone"
)

// State is the adapter's connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Events receives connection and message events from the transport.
type Events interface {
	Connected(selfJID string)
	Disconnected(err error, loggedOut bool)
	Message(from, text string, fromMe bool)
	QR(code string)
}

// Transport is the wire connection to the messaging provider. Connect
// returns once the transport is established; the provider session is
// open when Connected fires on the registered Events.
type Transport interface {
	Connect(ctx context.Context, ev Events) error
	Send(jid, text string) error
	Presence() error
	Logout() error
	Close() error
}

// MessageHandler consumes inbound text messages.
type MessageHandler interface {
	HandleIncoming(ctx context.Context, rawAddress, text string)
}

// Config holds the adapter's connection policy.
type Config struct {
	AuthDir        string
	ConnectTimeout time.Duration
	ReconnectDelay time.Duration
	MaxReconnects  int
	Keepalive      time.Duration
}

// Status is the connection status snapshot exposed to the dashboard.
type Status struct {
	Connected         bool   `json:"connected"`
	Phone             string `json:"phone,omitempty"`
	ReconnectAttempts int    `json:"reconnectAttempts"`
}

// Adapter manages the provider connection lifecycle. Reconnection uses a
// fixed delay with a capped attempt counter; exhausting the attempt
// budget clears the persisted auth material and restarts the cycle from
// a clean slate (fresh QR handshake).
type Adapter struct {
	transport Transport
	cfg       Config

	mu       sync.Mutex
	state    State
	selfJID  string
	attempts int
	stopped  bool
	handler  MessageHandler

	keepaliveOnce sync.Once
	log           *logrus.Entry
}

// NewAdapter creates the adapter in the disconnected state.
func NewAdapter(transport Transport, cfg Config) *Adapter {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 60 * time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = 5
	}
	if cfg.Keepalive <= 0 {
		cfg.Keepalive = 30 * time.Second
	}
	return &Adapter{
		transport: transport,
		cfg:       cfg,
		state:     StateDisconnected,
		log:       logger.New("whatsapp"),
	}
}

// SetHandler registers the inbound message handler. Registered after
// construction because the router depends on the notification bus that
// is wired later.
func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	a.handler = h
	a.mu.Unlock()
}

// Initialize starts (or restarts) the connect cycle.
func (a *Adapter) Initialize() {
	a.mu.Lock()
	if a.state == StateConnected || a.state == StateConnecting {
		a.mu.Unlock()
		return
	}
	a.state = StateConnecting
	a.stopped = false
	a.mu.Unlock()

	a.log.Info("Initializing WhatsApp connection...")

	if err := os.MkdirAll(a.cfg.AuthDir, 0o755); err != nil {
		a.log.Errorf("Failed to create auth directory: %v", err)
	}

	a.keepaliveOnce.Do(func() {
		go a.keepaliveLoop()
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ConnectTimeout)
		defer cancel()

		if err := a.transport.Connect(ctx, a); err != nil {
			a.log.Errorf("Failed to connect: %v", err)
			a.mu.Lock()
			a.state = StateDisconnected
			a.mu.Unlock()
			a.scheduleReconnect()
		}
	}()
}

// Connected implements Events.
func (a *Adapter) Connected(selfJID string) {
	a.mu.Lock()
	a.state = StateConnected
	a.selfJID = selfJID
	a.attempts = 0
	a.mu.Unlock()
	a.log.Infof("WhatsApp connected (%s)", selfJID)
}

// Disconnected implements Events. A logged-out close invalidates the
// persisted credentials, so the next cycle starts with a fresh QR
// handshake.
func (a *Adapter) Disconnected(err error, loggedOut bool) {
	a.mu.Lock()
	a.state = StateDisconnected
	a.selfJID = ""
	stopped := a.stopped
	a.mu.Unlock()

	a.log.Warnf("WhatsApp connection closed: %v", err)

	if loggedOut {
		a.log.Info("Logged out. QR scan will be required again.")
		a.clearAuth()
	}
	if !stopped {
		a.scheduleReconnect()
	}
}

// Message implements Events. Self-originated and empty (non-text)
// messages are ignored.
func (a *Adapter) Message(from, text string, fromMe bool) {
	if fromMe || text == "" {
		return
	}

	a.mu.Lock()
	handler := a.handler
	a.mu.Unlock()
	if handler == nil {
		return
	}

	handler.HandleIncoming(context.Background(), phone.FromJID(from), text)
}

// QR implements Events.
func (a *Adapter) QR(code string) {
	a.log.Infof("QR code received, scan to authenticate:\n%s", code)
}

// scheduleReconnect arms the next connection attempt after the fixed
// delay. Exhausting the attempt budget resets the counter and clears
// the auth session before continuing.
func (a *Adapter) scheduleReconnect() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	if a.attempts >= a.cfg.MaxReconnects {
		a.log.Warnf("Max reconnect attempts reached (%d), restarting connection cycle", a.cfg.MaxReconnects)
		a.attempts = 0
		a.mu.Unlock()
		a.clearAuth()
		a.mu.Lock()
	}
	a.attempts++
	attempt := a.attempts
	a.mu.Unlock()

	a.log.Infof("Reconnect attempt %d/%d in %s", attempt, a.cfg.MaxReconnects, a.cfg.ReconnectDelay)
	time.AfterFunc(a.cfg.ReconnectDelay, a.Initialize)
}

// clearAuth removes the persisted credential/session material.
func (a *Adapter) clearAuth() {
	if err := os.RemoveAll(a.cfg.AuthDir); err != nil {
		a.log.Errorf("Failed to clear auth session: %v", err)
		return
	}
	a.log.Info("Auth session cleared")
}

// SendMessage sends text to a phone number. It returns false
// immediately when not connected; transport errors are converted to a
// false return, never propagated.
func (a *Adapter) SendMessage(phoneNumber, text string) bool {
	a.mu.Lock()
	connected := a.state == StateConnected
	a.mu.Unlock()

	if !connected {
		a.log.Warn("WhatsApp not connected, message not sent")
		return false
	}

	if err := a.transport.Send(phone.ToJID(phoneNumber), text); err != nil {
		a.log.Errorf("Failed to send message to %s: %v", phoneNumber, err)
		return false
	}
	return true
}

// SendOrderNotification formats and sends an order status message to
// the customer. Best-effort, like SendMessage.
func (a *Adapter) SendOrderNotification(phoneNumber string, order *domain.OrderSnapshot, status, deliveryTime string) bool {
	return a.SendMessage(phoneNumber, FormatOrderMessage(order, status, deliveryTime))
}

// GetStatus returns the connection status snapshot.
func (a *Adapter) GetStatus() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{
		Connected:         a.state == StateConnected,
		Phone:             a.selfJID,
		ReconnectAttempts: a.attempts,
	}
}

// State returns the current connection state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Disconnect logs out explicitly. No reconnect is scheduled; Initialize
// starts a new cycle.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	a.stopped = true
	a.state = StateDisconnected
	a.selfJID = ""
	a.mu.Unlock()

	if err := a.transport.Logout(); err != nil {
		a.log.Errorf("Logout failed: %v", err)
	}
	a.log.Info("WhatsApp disconnected")
}

// keepaliveLoop signals presence on a fixed interval while connected.
// Best-effort, no failure escalation.
func (a *Adapter) keepaliveLoop() {
	ticker := time.NewTicker(a.cfg.Keepalive)
	defer ticker.Stop()

	for range ticker.C {
		if a.State() != StateConnected {
			continue
		}
		if err := a.transport.Presence(); err != nil {
			a.log.Debugf("Presence update failed: %v", err)
		}
	}
}

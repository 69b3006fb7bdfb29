package whatsapp

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/SeveN7Igor7/pedefacil/internal/logger"
)

// gatewayFrame is one JSON frame on the gateway socket, in both
// directions.
type gatewayFrame struct {
	Type      string `json:"type"`
	JID       string `json:"jid,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Text      string `json:"text,omitempty"`
	Kind      string `json:"kind,omitempty"`
	FromMe    bool   `json:"fromMe,omitempty"`
	Code      string `json:"code,omitempty"`
	Status    string `json:"status,omitempty"`
	Reason    string `json:"reason,omitempty"`
	LoggedOut bool   `json:"loggedOut,omitempty"`
}

const gatewayWriteTimeout = 10 * time.Second

// GatewayTransport is a Transport over a WebSocket connection to the
// WhatsApp gateway bridge, which holds the actual provider session.
type GatewayTransport struct {
	url            string
	connectTimeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
	log  *logrus.Entry
}

// NewGatewayTransport creates a transport for the given gateway URL.
func NewGatewayTransport(url string, connectTimeout time.Duration) *GatewayTransport {
	return &GatewayTransport{
		url:            url,
		connectTimeout: connectTimeout,
		log:            logger.New("whatsapp-gateway"),
	}
}

// Connect dials the gateway and starts the event loop. Events arrive on
// ev until the connection drops.
func (t *GatewayTransport) Connect(ctx context.Context, ev Events) error {
	dialer := websocket.Dialer{HandshakeTimeout: t.connectTimeout}
	conn, _, err := dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	go t.readLoop(conn, ev)
	return nil
}

// readLoop delivers gateway frames to the registered events observer.
func (t *GatewayTransport) readLoop(conn *websocket.Conn, ev Events) {
	for {
		var frame gatewayFrame
		if err := conn.ReadJSON(&frame); err != nil {
			ev.Disconnected(err, false)
			return
		}

		switch frame.Type {
		case "open":
			ev.Connected(frame.JID)
		case "qr":
			ev.QR(frame.Code)
		case "message":
			if frame.Kind != "" && frame.Kind != "text" {
				// Only plain text messages are routed
				continue
			}
			ev.Message(frame.From, frame.Text, frame.FromMe)
		case "close":
			conn.Close()
			ev.Disconnected(errors.New(frame.Reason), frame.LoggedOut)
			return
		default:
			t.log.Debugf("Ignoring gateway frame type %q", frame.Type)
		}
	}
}

// Send writes an outbound text message frame.
func (t *GatewayTransport) Send(jid, text string) error {
	return t.write(gatewayFrame{Type: "send", To: jid, Text: text, Kind: "text"})
}

// Presence signals availability to the provider.
func (t *GatewayTransport) Presence() error {
	return t.write(gatewayFrame{Type: "presence", Status: "available"})
}

// Logout asks the gateway to invalidate the provider session and closes
// the socket.
func (t *GatewayTransport) Logout() error {
	err := t.write(gatewayFrame{Type: "logout"})
	t.Close()
	return err
}

// Close closes the gateway socket.
func (t *GatewayTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *GatewayTransport) write(frame gatewayFrame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return errors.New("gateway not connected")
	}
	t.conn.SetWriteDeadline(time.Now().Add(gatewayWriteTimeout))
	return t.conn.WriteJSON(frame)
}

// Package client is the dashboard-side subscription manager: it owns
// one WebSocket connection to the realtime service, joins the signed-in
// restaurant's topic and dispatches incoming notifications to local
// handlers.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/SeveN7Igor7/pedefacil/internal/logger"
	"github.com/SeveN7Igor7/pedefacil/internal/protocol"
)

// DefaultReconnectDelay is the pause between automatic reconnect
// attempts after a remote-initiated drop.
const DefaultReconnectDelay = 5 * time.Second

// Handler receives one notification envelope.
type Handler func(env *protocol.Envelope)

// Options configures a Client.
type Options struct {
	// ReconnectDelay between automatic reconnect attempts. Zero means
	// DefaultReconnectDelay.
	ReconnectDelay time.Duration

	OnOrder  Handler
	OnChat   Handler
	OnCustom Handler

	// OnConnectionChange is invoked with the new connectivity state,
	// for a connected/disconnected indicator.
	OnConnectionChange func(connected bool)
}

// Client manages the live connection for one restaurant dashboard.
type Client struct {
	url          string
	restaurantID int
	opts         Options

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	gen       int // bumped on manual reconnect to retire stale read loops

	log *logrus.Entry
}

// New creates a client for the given websocket URL (e.g.
// "ws://localhost:3001/ws") and restaurant.
func New(url string, restaurantID int, opts Options) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	return &Client{
		url:          url,
		restaurantID: restaurantID,
		opts:         opts,
		log:          logger.New("client"),
	}
}

// Connect dials the service, joins the restaurant topic and starts the
// read loop. After a remote-initiated drop the client reconnects on its
// own; after Close it does not.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.closed = false
	c.mu.Unlock()

	if err := c.dial(ctx); err != nil {
		return err
	}
	go c.readLoop()
	return nil
}

// dial establishes the connection and sends the join message.
func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	join := protocol.ClientMessage{
		Event:        protocol.EventJoinRestaurant,
		RestaurantID: c.restaurantID,
	}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return fmt.Errorf("join restaurant %d: %w", c.restaurantID, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.setConnectedLocked(true)
	c.mu.Unlock()

	c.log.Infof("Connected, joined restaurant %d", c.restaurantID)
	return nil
}

// readLoop consumes frames until the connection drops, then reconnects
// unless the client was closed locally.
func (c *Client) readLoop() {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	for {
		c.mu.Lock()
		stale := c.gen != gen
		conn := c.conn
		c.mu.Unlock()
		if stale || conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.setConnectedLocked(false)
			closed := c.closed
			c.mu.Unlock()

			if closed {
				return
			}
			c.log.Warnf("Connection lost: %v", err)
			if !c.reconnectLoop(gen) {
				return
			}
			continue
		}

		c.dispatch(data)
	}
}

// reconnectLoop redials until it succeeds, the client is closed, or the
// read loop was retired by a manual reconnect. Returns true when the
// caller should keep reading.
func (c *Client) reconnectLoop(gen int) bool {
	for {
		time.Sleep(c.opts.ReconnectDelay)

		c.mu.Lock()
		done := c.closed || c.gen != gen
		c.mu.Unlock()
		if done {
			return false
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		err := c.dial(ctx)
		cancel()
		if err == nil {
			return true
		}
		c.log.Warnf("Reconnect failed: %v", err)
	}
}

// dispatch routes a server frame to the registered handlers.
// Unrecognized frames are logged and dropped.
func (c *Client) dispatch(data []byte) {
	var frame protocol.ServerFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.log.Warnf("Dropping unparseable frame: %v", err)
		return
	}

	switch frame.Event {
	case protocol.EventOrderNotification:
		c.invoke(c.opts.OnOrder, frame.Notification)
	case protocol.EventChatNotification:
		c.invoke(c.opts.OnChat, frame.Notification)
	case protocol.EventCustomNotification:
		c.invoke(c.opts.OnCustom, frame.Notification)
	case protocol.EventJoined, protocol.EventLeft:
		c.log.Debugf("Membership ack: %s restaurant %d", frame.Event, frame.RestaurantID)
	case protocol.EventError:
		c.log.Warnf("Server error: %s", frame.Message)
	default:
		c.log.Warnf("Dropping unknown frame event %q", frame.Event)
	}
}

func (c *Client) invoke(h Handler, env *protocol.Envelope) {
	if h == nil || env == nil {
		return
	}
	h(env)
}

// Reconnect forces a new connection attempt, for UI-driven recovery.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.closed = false
	c.setConnectedLocked(false)
	c.mu.Unlock()

	if err := c.dial(ctx); err != nil {
		return err
	}
	go c.readLoop()
	return nil
}

// IsConnected reports current connectivity.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close leaves the restaurant topic and closes the connection. No
// reconnect follows a local close.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.setConnectedLocked(false)
	if c.conn == nil {
		return nil
	}

	leave := protocol.ClientMessage{
		Event:        protocol.EventLeaveRestaurant,
		RestaurantID: c.restaurantID,
	}
	c.conn.WriteJSON(leave)

	err := c.conn.Close()
	c.conn = nil
	return err
}

// setConnectedLocked updates connectivity and fires the change
// callback. Caller must hold the mutex.
func (c *Client) setConnectedLocked(connected bool) {
	if c.connected == connected {
		return
	}
	c.connected = connected
	if c.opts.OnConnectionChange != nil {
		go c.opts.OnConnectionChange(connected)
	}
}

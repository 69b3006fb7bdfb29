package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/SeveN7Igor7/pedefacil/internal/config"
	"github.com/SeveN7Igor7/pedefacil/internal/hub"
	"github.com/SeveN7Igor7/pedefacil/internal/protocol"
)

func newTestServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	cfg := &config.Config{
		PingInterval:   time.Minute,
		WriteTimeout:   5 * time.Second,
		ReadTimeout:    time.Minute,
		MaxMessageSize: 65536,
	}
	h := hub.NewHub()
	go h.Run()

	e := echo.New()
	e.GET("/ws", NewServer(cfg, h).HandleWebSocket)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return ts, h
}

func dialTestServer(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) protocol.ServerFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame protocol.ServerFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame failed: %v", err)
	}
	return frame
}

func join(t *testing.T, conn *websocket.Conn, restaurantID int) {
	t.Helper()
	msg := protocol.ClientMessage{Event: protocol.EventJoinRestaurant, RestaurantID: restaurantID}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write join failed: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Event != protocol.EventJoined || frame.RestaurantID != restaurantID {
		t.Fatalf("unexpected join ack: %+v", frame)
	}
}

func TestJoinAndReceiveBroadcast(t *testing.T) {
	ts, h := newTestServer(t)
	conn := dialTestServer(t, ts)

	join(t, conn, 3)

	if err := h.BroadcastJSON(3, protocol.ServerFrame{Event: protocol.EventOrderNotification}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Event != protocol.EventOrderNotification {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestLeaveStopsReceiving(t *testing.T) {
	ts, h := newTestServer(t)
	conn := dialTestServer(t, ts)

	join(t, conn, 3)

	leave := protocol.ClientMessage{Event: protocol.EventLeaveRestaurant, RestaurantID: 3}
	if err := conn.WriteJSON(leave); err != nil {
		t.Fatalf("write leave failed: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Event != protocol.EventLeft {
		t.Fatalf("unexpected leave ack: %+v", frame)
	}

	h.Broadcast(3, []byte(`{"event":"order-notification"}`))

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var late protocol.ServerFrame
	if err := conn.ReadJSON(&late); err == nil {
		t.Fatalf("expected no frame after leave, got %+v", late)
	}
}

func TestJoinRequiresRestaurantID(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dialTestServer(t, ts)

	msg := protocol.ClientMessage{Event: protocol.EventJoinRestaurant}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Event != protocol.EventError {
		t.Fatalf("expected error frame, got %+v", frame)
	}
}

func TestUnknownEventReturnsError(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dialTestServer(t, ts)

	if err := conn.WriteJSON(protocol.ClientMessage{Event: "subscribe"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Event != protocol.EventError {
		t.Fatalf("expected error frame, got %+v", frame)
	}
}

func TestInvalidJSONReturnsError(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dialTestServer(t, ts)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Event != protocol.EventError {
		t.Fatalf("expected error frame, got %+v", frame)
	}
}

func TestDisconnectCleansUpMembership(t *testing.T) {
	ts, h := newTestServer(t)
	conn := dialTestServer(t, ts)

	join(t, conn, 3)
	if !h.HasSubscribers(3) {
		t.Fatal("expected a subscriber after join")
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.HasSubscribers(3) {
		if time.Now().After(deadline) {
			t.Fatal("membership not cleaned up after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"herd-alerts/internal/catalog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// alertServer upgrades one connection, pushes the given payloads, then keeps
// the connection open until the peer closes it.
func alertServer(t *testing.T, payloads []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for _, payload := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialFailure(t *testing.T) {
	opts := Options{URL: "ws://127.0.0.1:1/ws", HandshakeTimeout: 200 * time.Millisecond}
	if _, err := Dial(context.Background(), opts, noopLogger()); err == nil {
		t.Fatal("dial to a dead endpoint should fail")
	}
}

func TestDialRequiresURL(t *testing.T) {
	if _, err := Dial(context.Background(), Options{}, noopLogger()); err == nil {
		t.Fatal("empty stream url should fail")
	}
}

func TestListenEmitsOnlyWellFormedAlerts(t *testing.T) {
	srv := alertServer(t, []string{
		`{not json`,
		`{"alert": false, "product_id": 7}`,
		`{"alert": true}`,
		`{"alert": true, "product_id": 101, "score": 0.9}`,
		`{"alert": true, "product_id": "abc-7"}`,
	})
	defer srv.Close()

	client, err := Dial(context.Background(), Options{URL: wsURL(srv), HandshakeTimeout: time.Second}, noopLogger())
	if err != nil {
		t.Fatalf("dial should succeed: %v", err)
	}

	received := make(chan catalog.ProductID, 8)
	listenDone := make(chan error, 1)
	go func() {
		listenDone <- client.Listen(func(id catalog.ProductID) {
			received <- id
		})
	}()

	want := []catalog.ProductID{"101", "abc-7"}
	for _, expected := range want {
		select {
		case got := <-received:
			if got != expected {
				t.Fatalf("expected product %s, got %s", expected, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for product %s", expected)
		}
	}

	select {
	case got := <-received:
		t.Fatalf("unexpected extra alert for product %s", got)
	case <-time.After(100 * time.Millisecond):
	}

	if err := client.Close(); err != nil {
		t.Fatalf("close should succeed: %v", err)
	}

	select {
	case err := <-listenDone:
		if err != nil {
			t.Fatalf("listen after close should return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("listen did not return after close")
	}
}

func TestListenSurfacesTransportError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Drop the connection without a close handshake.
		conn.UnderlyingConn().Close()
	}))
	defer srv.Close()

	client, err := Dial(context.Background(), Options{URL: wsURL(srv), HandshakeTimeout: time.Second}, noopLogger())
	if err != nil {
		t.Fatalf("dial should succeed: %v", err)
	}
	defer client.Close()

	if err := client.Listen(func(catalog.ProductID) {}); err == nil {
		t.Fatal("listen should surface the transport error")
	}
}

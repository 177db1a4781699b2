package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"coinsentry/internal/application/port"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

func TestHubBroadcastsToClient(t *testing.T) {
	hub := NewHub()
	conn, done := dialHub(t, hub)
	defer done()

	// the server registers the client after the upgrade returns
	waitForClients(t, hub, 1)

	if err := hub.Send(context.Background(), 7, "bitcoin is above 50000", port.EmphasisCritical); err != nil {
		t.Fatalf("send: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg alertMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.UserID != 7 || msg.Text != "bitcoin is above 50000" || !msg.Critical {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestHubConcurrentSendsSerializeWrites(t *testing.T) {
	hub := NewHub()
	conn, done := dialHub(t, hub)
	defer done()

	waitForClients(t, hub, 1)

	const senders = 8
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			_ = hub.Send(context.Background(), n, "portfolio moved", port.EmphasisNormal)
		}(int64(i))
	}
	wg.Wait()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < senders; i++ {
		var msg alertMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if msg.Text != "portfolio moved" {
			t.Errorf("read %d: corrupted frame %+v", i, msg)
		}
	}
}

func TestHubDropsClientAfterWriteFailure(t *testing.T) {
	hub := NewHub()
	conn, done := dialHub(t, hub)
	defer done()

	waitForClients(t, hub, 1)
	_ = conn.Close()

	// the first write after the close fails and evicts the client
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_ = hub.Send(context.Background(), 1, "eviction check", port.EmphasisNormal)
		if clientCount(hub) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client still registered after write failure")
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if clientCount(hub) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d connected clients", want)
}

func clientCount(hub *Hub) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients)
}

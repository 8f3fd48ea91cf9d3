package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/models"
)

func startFeed(t *testing.T, filter Filter) (*Hub, *websocket.Conn, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	handler := NewHandler(hub, []string{"*"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := handler.Serve(w, r, filter); err != nil {
			t.Errorf("serve: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		cancel()
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("client was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return hub, conn, cancel
}

func readEvent(t *testing.T, conn *websocket.Conn) models.ChangeEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var event models.ChangeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return event
}

func TestHubDeliversMatchingEvents(t *testing.T) {
	hub, conn, cancel := startFeed(t, Filter{StudentID: 7})
	defer cancel()

	hub.Publish(models.ChangeEvent{Entity: models.EntityEnrollment, Kind: models.ChangeCreated, StudentID: 8, CourseID: 1})
	hub.Publish(models.ChangeEvent{Entity: models.EntityCourse, Kind: models.ChangeUpdated, ID: 1})
	hub.Publish(models.ChangeEvent{Entity: models.EntityEnrollment, Kind: models.ChangeUpdated, StudentID: 7, CourseID: 1, Version: 2})

	event := readEvent(t, conn)
	if event.StudentID != 7 || event.Kind != models.ChangeUpdated || event.Version != 2 {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	hub, conn, cancel := startFeed(t, Filter{})
	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}

	<-hub.done
	if hub.ClientCount() != 0 {
		t.Fatalf("expected no clients after shutdown, got %d", hub.ClientCount())
	}
	// Publishing after shutdown is a no-op
	hub.Publish(models.ChangeEvent{Entity: models.EntityStudent, Kind: models.ChangeDeleted, ID: 1})
}

func TestCheckOrigin(t *testing.T) {
	h := NewHandler(NewHub(zerolog.Nop()), []string{"http://app.example.com"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if !h.upgrader.CheckOrigin(req) {
		t.Fatal("requests without an origin should pass")
	}
	req.Header.Set("Origin", "http://app.example.com")
	if !h.upgrader.CheckOrigin(req) {
		t.Fatal("listed origin should pass")
	}
	req.Header.Set("Origin", "http://evil.example.com")
	if h.upgrader.CheckOrigin(req) {
		t.Fatal("unlisted origin should be rejected")
	}
}

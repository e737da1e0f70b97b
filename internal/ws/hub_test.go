package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"frontdesk-order-services/internal/auth"
	"frontdesk-order-services/internal/effects"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestResolveRooms(t *testing.T) {
	rooms, err := ResolveRooms(4, []string{"kitchen", " station:bar", "floor:2", "captain", "printer:tandoor"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"kitchen:4", "station:4:bar", "floor:4:2", "captain:4", "printer:4:tandoor"}
	if strings.Join(rooms, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected %v, got %v", expected, rooms)
	}

	for _, bad := range [][]string{{"floor:x"}, {"station:"}, {"lobby"}, {""}} {
		if _, err := ResolveRooms(4, bad); err == nil {
			t.Fatalf("expected %v to be rejected", bad)
		}
	}
}

func dial(t *testing.T, srv *httptest.Server, token, rooms string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token + "&rooms=" + rooms
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func waitSubscribers(t *testing.T, hub *Hub, room string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(room) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers in %s, got %d", n, room, hub.Subscribers(room))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubDeliversToRooms(t *testing.T) {
	hub := NewHub(zap.NewNop(), "secret", time.Minute)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	outlet := "1"
	token, err := auth.IssueAccessToken(auth.Claims{UserID: "5", Role: auth.RoleKitchen, OutletID: &outlet}, "secret", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kitchen := dial(t, srv, token, "kitchen,station:bar")
	defer kitchen.Close()
	if msg := readType(t, kitchen); msg["type"] != "subscribed" {
		t.Fatalf("expected subscribed ack, got %v", msg)
	}
	captain := dial(t, srv, token, "captain")
	defer captain.Close()
	readType(t, captain)
	waitSubscribers(t, hub, "kitchen:1", 1)
	waitSubscribers(t, hub, "captain:1", 1)

	err = hub.PublishEvent(context.Background(), effects.Event{
		ID:      "e1",
		Name:    effects.EventKOTCreated,
		Rooms:   []string{"kitchen:1", "station:1:bar"},
		Payload: map[string]any{"kotNumber": "KOT-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := readType(t, kitchen)
	if msg["type"] != effects.EventKOTCreated || msg["id"] != "e1" {
		t.Fatalf("unexpected message: %v", msg)
	}

	// captain is not in either room and must only see its own events
	_ = hub.PublishEvent(context.Background(), effects.Event{ID: "e2", Name: effects.EventKOTReady, Rooms: []string{"captain:1"}})
	if msg := readType(t, captain); msg["id"] != "e2" {
		t.Fatalf("expected captain to receive e2 first, got %v", msg)
	}
}

func TestSubmitPrintNeedsAgent(t *testing.T) {
	hub := NewHub(zap.NewNop(), "secret", time.Minute)
	err := hub.SubmitPrint(context.Background(), effects.PrintJob{ID: "p1", Kind: effects.PrintBill, OutletID: 1})
	if err == nil {
		t.Fatal("expected error without a connected print agent")
	}
}

func TestRejectsBadToken(t *testing.T) {
	hub := NewHub(zap.NewNop(), "secret", time.Minute)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "nope", "kitchen")
	defer conn.Close()
	if msg := readType(t, conn); msg["type"] != "error" {
		t.Fatalf("expected error message, got %v", msg)
	}
}

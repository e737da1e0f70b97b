package ws

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"frontdesk-order-services/internal/auth"
	"frontdesk-order-services/internal/effects"
	"frontdesk-order-services/internal/middleware"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// Hub fans events out to websocket clients subscribed to rooms. It is the
// local end of the event pipeline and implements effects.EventPublisher.
type Hub struct {
	logger    *zap.Logger
	jwtSecret string
	heartbeat time.Duration

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub(logger *zap.Logger, jwtSecret string, heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Hub{
		logger:    logger,
		jwtSecret: jwtSecret,
		heartbeat: heartbeat,
		rooms:     make(map[string]map[*client]struct{}),
	}
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(value)
}

func (c *client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (h *Hub) subscribe(rooms []string, c *client) (unsubscribe func()) {
	h.mu.Lock()
	for _, room := range rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*client]struct{})
		}
		h.rooms[room][c] = struct{}{}
	}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		for _, room := range rooms {
			h.dropLocked(room, c)
		}
		h.mu.Unlock()
	}
}

func (h *Hub) dropLocked(room string, c *client) {
	clients := h.rooms[room]
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
}

// Subscribers returns how many clients are in room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// broadcast writes message once to every client in any of rooms.
func (h *Hub) broadcast(rooms []string, message any) int {
	h.mu.RLock()
	seen := make(map[*client]struct{})
	targets := make([]*client, 0)
	for _, room := range rooms {
		for c := range h.rooms[room] {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			h.mu.Lock()
			for _, room := range rooms {
				h.dropLocked(room, c)
			}
			h.mu.Unlock()
			continue
		}
		delivered++
	}
	return delivered
}

type message struct {
	Type       string    `json:"type"`
	ID         string    `json:"id,omitempty"`
	Data       any       `json:"data,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (h *Hub) PublishEvent(ctx context.Context, event effects.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.broadcast(event.Rooms, message{Type: event.Name, ID: event.ID, Data: event.Payload, OccurredAt: event.OccurredAt})
	return nil
}

// SubmitPrint pushes a job to the outlet's print agents. Bills go to the
// "bill" printer room; kitchen jobs go to their station's printer.
func (h *Hub) SubmitPrint(ctx context.Context, job effects.PrintJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	station := job.Station
	if job.Kind == effects.PrintBill || station == "" {
		station = "bill"
	}
	room := effects.PrintRoom(job.OutletID, station)
	if h.broadcast([]string{room}, message{Type: "print:" + string(job.Kind), ID: job.ID, Data: job, OccurredAt: job.CreatedAt}) == 0 {
		return fmt.Errorf("no print agent connected to %s", room)
	}
	return nil
}

// ResolveRooms maps the requested room names onto outlet-scoped rooms.
// Accepted forms: kitchen, captain, station:<name>, floor:<id>, printer:<name>.
func ResolveRooms(outletID int64, requested []string) ([]string, error) {
	out := make([]string, 0, len(requested))
	for _, raw := range requested {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		kind, arg, _ := strings.Cut(name, ":")
		switch kind {
		case "kitchen":
			out = append(out, effects.KitchenRoom(outletID))
		case "captain":
			out = append(out, effects.CaptainRoom(outletID))
		case "station":
			if arg == "" {
				return nil, fmt.Errorf("station room needs a name")
			}
			out = append(out, effects.StationRoom(outletID, arg))
		case "floor":
			floorID, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid floor %q", arg)
			}
			out = append(out, effects.FloorRoom(outletID, floorID))
		case "printer":
			if arg == "" {
				return nil, fmt.Errorf("printer room needs a station")
			}
			out = append(out, effects.PrintRoom(outletID, arg))
		default:
			return nil, fmt.Errorf("unknown room %q", name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one room is required")
	}
	return out, nil
}

// ServeHTTP upgrades the request and subscribes the client to the rooms listed
// in the "rooms" query parameter. Tokens come from the "token" parameter
// because browsers cannot set headers on websocket requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	token := r.URL.Query().Get("token")
	if bearer := auth.ParseBearerToken(token); bearer != "" {
		token = bearer
	}
	claims, err := auth.VerifyAccessToken(token, h.jwtSecret)
	if err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "unauthorized"})
		return
	}
	authCtx, err := middleware.ClaimsToAuthContext(claims)
	if err != nil || authCtx.OutletID == 0 {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "outlet required"})
		return
	}

	rooms, err := ResolveRooms(authCtx.OutletID, strings.Split(r.URL.Query().Get("rooms"), ","))
	if err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": err.Error()})
		return
	}

	c := &client{conn: conn}
	unsubscribe := h.subscribe(rooms, c)
	defer unsubscribe()

	h.logger.Debug("ws client subscribed", zap.Int64("userId", authCtx.UserID), zap.Strings("rooms", rooms))
	_ = c.writeJSON(map[string]any{"type": "subscribed", "rooms": rooms})

	pongWait := h.heartbeat * 2
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

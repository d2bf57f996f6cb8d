package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const heartbeatInterval = 30 * time.Second

// ChangeHandler receives a row-change event for a subscribed table.
type ChangeHandler func(event ChangeEvent)

// ChangeEvent is a single row change pushed by the backend.
type ChangeEvent struct {
	Table  string          `json:"table"`
	Type   string          `json:"type"` // INSERT, UPDATE, DELETE
	Record json.RawMessage `json:"record"`
}

// RealtimeClient subscribes to row-change notifications over a websocket.
// The UI uses it to refresh invitation lists without polling.
type RealtimeClient struct {
	mu       sync.Mutex
	url      string
	apiKey   string
	conn     *websocket.Conn
	handlers map[string][]ChangeHandler
	done     chan struct{}
	ref      int
	log      *zap.Logger
}

// Realtime returns a realtime client for this backend.
func (c *Client) Realtime() *RealtimeClient {
	wsURL := c.baseURL
	if strings.HasPrefix(wsURL, "https") {
		wsURL = "wss" + wsURL[len("https"):]
	} else if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL += "/realtime/v1/websocket?apikey=" + c.apiKey

	return &RealtimeClient{
		url:      wsURL,
		apiKey:   c.apiKey,
		handlers: make(map[string][]ChangeHandler),
		done:     make(chan struct{}),
		log:      c.log,
	}
}

// Connect establishes the websocket connection and starts the read loop.
func (r *RealtimeClient) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil // Already connected
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	r.conn = conn
	r.done = make(chan struct{})

	go r.readLoop(conn)
	go r.heartbeat()

	r.log.Info("Realtime connection established")
	return nil
}

// Subscribe registers a handler for changes to the given table. Connect
// must have been called first.
func (r *RealtimeClient) Subscribe(table string, handler ChangeHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return fmt.Errorf("realtime client is not connected")
	}

	r.handlers[table] = append(r.handlers[table], handler)

	r.ref++
	join := map[string]any{
		"topic":   "realtime:" + table,
		"event":   "phx_join",
		"payload": map[string]any{},
		"ref":     strconv.Itoa(r.ref),
	}
	if err := r.conn.WriteJSON(join); err != nil {
		return fmt.Errorf("join channel: %w", err)
	}

	return nil
}

// Close shuts the connection down.
func (r *RealtimeClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}

	close(r.done)
	err := r.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	r.conn.Close()
	r.conn = nil
	if err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	return nil
}

// readLoop owns conn for reads. Close never touches it; it unblocks the
// pending read by closing the socket.
func (r *RealtimeClient) readLoop(conn *websocket.Conn) {
	for {
		var msg struct {
			Topic   string      `json:"topic"`
			Event   string      `json:"event"`
			Payload ChangeEvent `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-r.done:
			default:
				r.log.Warn("Realtime read failed", zap.Error(err))
			}
			return
		}

		if msg.Event == "phx_reply" || msg.Event == "heartbeat" {
			continue
		}

		table := strings.TrimPrefix(msg.Topic, "realtime:")
		if msg.Payload.Table == "" {
			msg.Payload.Table = table
		}

		r.mu.Lock()
		handlers := append([]ChangeHandler(nil), r.handlers[table]...)
		r.mu.Unlock()

		for _, h := range handlers {
			h(msg.Payload)
		}
	}
}

func (r *RealtimeClient) heartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.mu.Lock()
			conn := r.conn
			if conn != nil {
				r.ref++
				conn.WriteJSON(map[string]any{
					"topic":   "phoenix",
					"event":   "heartbeat",
					"payload": map[string]any{},
					"ref":     strconv.Itoa(r.ref),
				})
			}
			r.mu.Unlock()
		}
	}
}

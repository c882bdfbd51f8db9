// Package websocket pushes board changes to connected browsers. Clients
// subscribe to topics and receive events broadcast to those topics.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	sendBuffer     = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

// Event tells subscribers that the board changed and which treatment the
// change was about. Clients re-read the board on receipt.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Topic       string    `json:"topic"`
	Operation   string    `json:"operation"`
	TreatmentID int       `json:"treatment_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// ClientMessage is what a browser may send: {"action":"subscribe","topics":[...]}.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// EventPublisher is implemented by anything that can fan an event out.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Client is one connected browser. Send is closed by the hub on unregister.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

func newClient(topics []string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		Topics: append([]string{}, topics...),
		Send:   make(chan []byte, sendBuffer),
	}
}

// Hub tracks connected clients by topic. Safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
	all    map[*Client]struct{}
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Client]struct{}),
		all:    make(map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.all[client] = struct{}{}
	h.join(client, client.Topics)
	h.logger.Debug().Str("client_id", client.ID).Strs("topics", client.Topics).Msg("websocket client connected")
}

// Unregister drops the client and closes its Send channel. Calling it twice
// is safe.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.all[client]; !ok {
		return
	}
	h.leave(client, client.Topics)
	delete(h.all, client)
	close(client.Send)
	h.logger.Debug().Str("client_id", client.ID).Msg("websocket client disconnected")
}

func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.join(client, topics)
	client.Topics = append(client.Topics, topics...)
}

func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(client, topics)

	drop := make(map[string]bool, len(topics))
	for _, t := range topics {
		drop[t] = true
	}
	kept := client.Topics[:0]
	for _, t := range client.Topics {
		if !drop[t] {
			kept = append(kept, t)
		}
	}
	client.Topics = kept
}

// join and leave expect h.mu to be held.
func (h *Hub) join(client *Client, topics []string) {
	for _, topic := range topics {
		set, ok := h.topics[topic]
		if !ok {
			set = make(map[*Client]struct{})
			h.topics[topic] = set
		}
		set[client] = struct{}{}
	}
}

func (h *Hub) leave(client *Client, topics []string) {
	for _, topic := range topics {
		set, ok := h.topics[topic]
		if !ok {
			continue
		}
		delete(set, client)
		if len(set) == 0 {
			delete(h.topics, topic)
		}
	}
}

// ProcessMessage applies a subscribe or unsubscribe request. Unknown actions
// are ignored.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	}
}

// Broadcast sends event to the clients subscribed to topic.
func (h *Hub) Broadcast(topic string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(data, h.topics[topic])
}

// BroadcastAll sends event to every client regardless of topic.
func (h *Hub) BroadcastAll(event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(data, h.all)
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", event.Topic).Msg("marshal websocket event")
		return nil, false
	}
	return data, true
}

// deliver never blocks. A client whose buffer is full misses the event.
func (h *Hub) deliver(data []byte, clients map[*Client]struct{}) {
	for client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn().Str("client_id", client.ID).Msg("websocket client buffer full, event dropped")
		}
	}
}

// Publish stamps the event with an id and time if missing and broadcasts it
// on its topic.
func (h *Hub) Publish(_ context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	h.Broadcast(event.Topic, event)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// WebSocketHandler upgrades /ws requests and runs one read and one write
// pump per connection.
type WebSocketHandler struct {
	hub           *Hub
	upgrader      gorillawebsocket.Upgrader
	defaultTopics []string
}

// NewWebSocketHandler binds a handler to hub. Origins lists the browser
// origins allowed to connect; "*" or an empty list allows any. New clients
// start subscribed to defaultTopics.
func NewWebSocketHandler(hub *Hub, origins []string, defaultTopics ...string) *WebSocketHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
		},
		defaultTopics: defaultTopics,
	}
}

func (wsh *WebSocketHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wsh.HandleConnect)
}

func (wsh *WebSocketHandler) HandleConnect(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(wsh.defaultTopics)
	wsh.hub.Register(client)

	go wsh.writePump(client, ws)
	go wsh.readPump(client, ws)
	return nil
}

// readPump applies subscription messages until the connection drops, then
// unregisters the client, which stops the write pump.
func (wsh *WebSocketHandler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		wsh.hub.Unregister(client)
		ws.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		wsh.hub.ProcessMessage(client, msg)
	}
}

func (wsh *WebSocketHandler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case data, ok := <-client.Send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(gorillawebsocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

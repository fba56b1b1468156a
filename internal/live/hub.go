package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ksred/auction-api/internal/events"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin from the storefront
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans accepted-bid events out to websocket clients watching a lot.
// It implements events.Publisher so the bidding service can treat it like
// any other event sink.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Client]bool // lotID -> clients
}

// Client is one websocket connection watching a single lot
type Client struct {
	id    string
	lotID string
	conn  *websocket.Conn
	send  chan []byte
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[*Client]bool)}
}

// PublishBidAccepted broadcasts the event to every client watching the lot
func (h *Hub) PublishBidAccepted(_ context.Context, event events.BidEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.subscribers[event.LotID]))
	for client := range h.subscribers[event.LotID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- payload:
		default:
			// Slow client: drop it rather than block the fanout
			h.unregister(client)
		}
	}
	return nil
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[client.lotID] == nil {
		h.subscribers[client.lotID] = make(map[*Client]bool)
	}
	h.subscribers[client.lotID][client] = true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	clients, ok := h.subscribers[client.lotID]
	if ok {
		if _, present := clients[client]; present {
			delete(clients, client)
			close(client.send)
		}
		if len(clients) == 0 {
			delete(h.subscribers, client.lotID)
		}
	}
	h.mu.Unlock()
}

// SubscriberCount returns the number of clients watching a lot
func (h *Hub) SubscriberCount(lotID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[lotID])
}

// ServeHandler upgrades GET requests to a websocket streaming the lot's
// accepted bids
func (h *Hub) ServeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := &Client{
			id:    uuid.New().String(),
			lotID: c.Param("lot_id"),
			conn:  conn,
			send:  make(chan []byte, 16),
		}

		h.register(client)
		log.Debug().
			Str("client_id", client.id).
			Str("lot_id", client.lotID).
			Msg("live feed client connected")

		go client.writePump()
		go client.readPump(h)
	}
}

// writePump pumps queued events to the connection, pinging to keep it alive
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames until the connection drops; the feed is
// one-way, inbound frames are discarded
func (c *Client) readPump(h *Hub) {
	defer h.unregister(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("client_id", c.id).Msg("live feed client error")
			}
			return
		}
	}
}

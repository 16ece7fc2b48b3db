package services

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event is one entry on the dashboard's live feed.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type EventClient struct {
	ID   string
	Conn *websocket.Conn
	Send chan Event
	Hub  *EventHub
}

// EventHub fans entity-change events out to connected dashboard clients.
// Services publish; the hub never blocks a publisher on a slow client.
type EventHub struct {
	clients    map[string]*EventClient
	broadcast  chan Event
	register   chan *EventClient
	unregister chan *EventClient
	mutex      sync.RWMutex
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the dashboard is same-host; no origin allowlist yet
	},
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:    make(map[string]*EventClient),
		broadcast:  make(chan Event, 64),
		register:   make(chan *EventClient),
		unregister: make(chan *EventClient),
	}
}

func (h *EventHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()
			logrus.Infof("Event client %s connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				logrus.Infof("Event client %s disconnected", client.ID)
			}
			h.mutex.Unlock()

		case event := <-h.broadcast:
			h.mutex.Lock()
			for id, client := range h.clients {
				select {
				case client.Send <- event:
				default:
					close(client.Send)
					delete(h.clients, id)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish queues an event for all connected clients. Drops the event when
// the feed is saturated rather than stalling the calling service.
func (h *EventHub) Publish(eventType string, data interface{}) {
	select {
	case h.broadcast <- Event{Type: eventType, Data: data, Timestamp: time.Now()}:
	default:
		logrus.Warnf("event feed full, dropping %s", eventType)
	}
}

func (h *EventHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Error("WebSocket upgrade failed:", err)
		return
	}

	client := &EventClient{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan Event, 256),
		Hub:  h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *EventHub) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// readPump discards client payloads; the feed is one-way. It exists to see
// close frames and keep the pong deadline fresh.
func (c *EventClient) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket error: %v", err)
			}
			break
		}
	}
}

func (c *EventClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				logrus.Error("marshal event:", err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logrus.Error("write event:", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

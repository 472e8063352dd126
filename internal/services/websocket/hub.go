package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"anomalydash/internal/dto"
	"anomalydash/internal/logger"
	"anomalydash/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 4096
	sendQueueSize  = 32
)

// Client is one attached viewer. Messages are queued on send and written by the
// client's own write pump.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
}

// HubService fans messages out to every attached viewer. A viewer whose queue is
// full is dropped rather than slowing the others down.
type HubService struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewHubService(logger *logger.Logger, m *metrics.Metrics) *HubService {
	return &HubService{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
	}
}

// Run owns the client set until ctx is done, then disconnects every viewer.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.metrics.SetViewers(0)
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.metrics.SetViewers(count)
			h.logger.Info("Viewer %s connected. Total: %d", client.ID, count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.metrics.SetViewers(count)
			h.logger.Info("Viewer %s disconnected. Total: %d", client.ID, count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warning("Viewer %s is not keeping up, dropping it", client.ID)
					delete(h.clients, client)
					close(client.send)
				}
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.metrics.SetViewers(count)
		}
	}
}

// Serve attaches conn as a viewer and blocks until it goes away.
func (h *HubService) Serve(conn *websocket.Conn) {
	client := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(client)
	h.readPump(client)

	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues message for every viewer. It returns immediately once the hub
// has stopped.
func (h *HubService) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// BroadcastEvent encodes e as JSON and broadcasts it.
func (h *HubService) BroadcastEvent(e dto.Event) {
	message, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("Error encoding %s event: %v", e.Type, err)
		return
	}
	h.Broadcast(message)
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// readPump discards viewer input and keeps the read deadline alive.
func (h *HubService) readPump(client *Client) {
	defer client.conn.Close()

	client.conn.SetReadLimit(maxInboundSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warning("Viewer %s read error: %v", client.ID, err)
			}
			return
		}
	}
}

func (h *HubService) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("Error sending message to viewer %s: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

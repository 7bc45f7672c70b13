// Package websocket fans upload progress out to the browsers and terminals
// following an upload on /ws/uploads/{upload_id}.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"aula-lms/internal/domain"
	"aula-lms/internal/observability"
)

// progressMessage is one progress event addressed to the subscribers of an upload
type progressMessage struct {
	uploadID string
	data     []byte
	done     bool
}

// Hub tracks subscribers per upload and delivers progress events to them
type Hub struct {
	// Subscribers by upload ID
	clients map[string]map[*Client]bool

	// Latest event per running upload, replayed to late subscribers
	latest map[string][]byte

	broadcast  chan *progressMessage
	register   chan *Client
	unregister chan *Client

	done chan struct{}
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		latest:     make(map[string][]byte),
		broadcast:  make(chan *progressMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			slog.Info("hub shutting down gracefully")
			return ctx.Err()

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	if h.clients[client.uploadID] == nil {
		h.clients[client.uploadID] = make(map[*Client]bool)
	}
	h.clients[client.uploadID][client] = true
	observability.WebSocketConnectionsActive.Inc()
	slog.Info("progress subscriber registered", slog.String("upload_id", client.uploadID))

	if data, ok := h.latest[client.uploadID]; ok {
		h.send(client, data, "replay")
	}
}

func (h *Hub) deliver(msg *progressMessage) {
	if msg.done {
		delete(h.latest, msg.uploadID)
	} else {
		h.latest[msg.uploadID] = msg.data
	}

	for client := range h.clients[msg.uploadID] {
		h.send(client, msg.data, "progress")
		// The final event ends the stream; queued events still drain first.
		if msg.done {
			h.unregisterClient(client)
		}
	}
}

// send queues data for client, dropping the client when its buffer is full
func (h *Hub) send(client *Client, data []byte, kind string) {
	select {
	case client.send <- data:
		observability.WebSocketMessagesSent.WithLabelValues(kind).Inc()
	default:
		h.unregisterClient(client)
	}
}

// unregisterClient removes a client and closes its send channel. Only the
// hub closes send channels, and only for clients it still holds.
func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.clients[client.uploadID]
	if !ok || !clients[client] {
		return
	}

	delete(clients, client)
	close(client.send)
	observability.WebSocketConnectionsActive.Dec()
	slog.Info("progress subscriber unregistered", slog.String("upload_id", client.uploadID))

	if len(clients) == 0 {
		delete(h.clients, client.uploadID)
	}
}

// shutdown closes every subscriber
func (h *Hub) shutdown() {
	close(h.done)

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
			observability.WebSocketConnectionsActive.Dec()
		}
	}
	h.clients = make(map[string]map[*Client]bool)

	slog.Info("hub shutdown complete")
}

// Publish sends a progress event to every subscriber of its upload. It
// never blocks once the hub has stopped.
func (h *Hub) Publish(p domain.UploadProgress) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Error("failed to marshal progress", slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- &progressMessage{uploadID: p.UploadID, data: data, done: p.Done || p.Error != ""}:
	case <-h.done:
	}
}

// Register registers a client with the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

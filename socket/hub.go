package socket

import (
	"context"
	"encoding/json"
	"sync"

	"postboard/internal/post/model"
	"postboard/pkg/logger"
)

const (
	SnapshotType = "SNAPSHOT" // Sent once to a viewer right after it connects

	sendBufferSize      = 256
	broadcastBufferSize = 64
)

// WSMessage is the only frame the feed ever writes. Viewers receive them; anything
// a viewer sends is ignored.
type WSMessage struct {
	Type   string      `json:"type"`
	PostID int64       `json:"post_id,omitempty"`
	Count  int         `json:"count,omitempty"`
	Stats  model.Stats `json:"stats"`
}

// StatsFunc returns the current collection statistics for snapshots.
type StatsFunc func() model.Stats

// Hub fans committed post changes out to every connected viewer.
type Hub struct {
	Clients    map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client

	stats StatsFunc
	mu    sync.Mutex
	done  chan struct{}
}

func NewHub(stats StatsFunc) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan WSMessage, broadcastBufferSize),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stats:      stats,
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every viewer.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client] = true
			h.mu.Unlock()
			logger.Sugar.Infof("Viewer %s connected (%d online)", client.ID, h.ClientCount())

			snapshot := WSMessage{Type: SnapshotType}
			if h.stats != nil {
				snapshot.Stats = h.stats()
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling snapshot: %v", err)
				continue
			}
			h.deliver(client, payload)

		case client := <-h.Unregister:
			h.remove(client)

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Clients))
			for client := range h.Clients {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				h.deliver(client, payload)
			}
		}
	}
}

// Publish queues a change for broadcast. It never blocks: when the hub falls
// behind, the event is dropped and viewers catch up on the next one.
func (h *Hub) Publish(ev model.ChangeEvent) {
	msg := WSMessage{Type: string(ev.Type), PostID: ev.PostID, Count: ev.Count, Stats: ev.Stats}
	select {
	case h.Broadcast <- msg:
	default:
		logger.Sugar.Warnf("Broadcast queue full, dropping %s event", ev.Type)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Clients)
}

// deliver hands payload to the client's writer. A full buffer means the viewer is
// lagging, so it is disconnected rather than allowed to stall the hub.
func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		logger.Sugar.Warnf("Viewer %s's send buffer is full. Disconnecting.", client.ID)
		h.remove(client)
	}
}

// remove must only be called from the Run goroutine.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.Clients[client]
	if ok {
		delete(h.Clients, client)
		close(client.Send)
	}
	h.mu.Unlock()
	if ok {
		logger.Sugar.Infof("Viewer %s disconnected", client.ID)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	for client := range h.Clients {
		delete(h.Clients, client)
		close(client.Send)
	}
	h.mu.Unlock()
	close(h.done)
}

// Package feed pushes mission change notifications to connected clients.
// Events travel through a redis channel so every API instance sees changes
// committed by any of them, then fan out over websockets. Payloads carry only
// the mission id, its status and what happened; clients refetch the lists
// they display.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the redis pub/sub channel carrying mission events.
const Channel = "missions:events"

// Event is the wire format of a mission change notification.
type Event struct {
	MissionID string    `json:"mission_id"`
	Statut    string    `json:"statut"`
	Action    string    `json:"action"`
	At        time.Time `json:"at"`
}

// Publisher sends mission events into the redis channel. It satisfies the
// missions module's EventPublisherInterface.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a feed publisher.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// PublishMissionEvent serializes and publishes one event. Callers treat a
// failure as non-fatal: the database write already happened.
func (p *Publisher) PublishMissionEvent(ctx context.Context, missionID, statut, action string) error {
	payload, err := json.Marshal(Event{
		MissionID: missionID,
		Statut:    statut,
		Action:    action,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("feed.PublishMissionEvent: %w", err)
	}
	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("feed.PublishMissionEvent: %w", err)
	}
	return nil
}

// Hub subscribes to the redis channel and rebroadcasts every event to all
// registered websocket clients.
type Hub struct {
	rdb *redis.Client

	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		rdb:     rdb,
		clients: make(map[chan []byte]struct{}),
	}
}

// Run consumes the redis subscription until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	sub := h.rdb.Subscribe(ctx, Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c <- payload:
		default:
			// Slow consumer; drop the event rather than block the hub. The
			// client refetches on its next notification anyway.
			log.Println("feed: dropping event for slow subscriber")
		}
	}
}

// Subscribe registers a client and returns its event channel plus an
// unsubscribe function.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	c := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	return c, func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}
}

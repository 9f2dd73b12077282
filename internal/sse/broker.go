// Package sse fans property events out to server-sent event streams across
// server instances through Redis pub/sub.
package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/colivhub/portal-server-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
	clientBufferSize  = 32
)

const EventContentUpdated = "content.updated"

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals data into an Event of the given type.
func NewEvent(eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: raw}, nil
}

type Client struct {
	PropertyID string
	Events     chan Event
	Done       chan struct{}
}

type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool // propertyID -> set of clients
	stops   map[string]context.CancelFunc
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		stops:   make(map[string]context.CancelFunc),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Subscribe registers a stream for propertyID. The first subscriber of a
// property opens the Redis subscription.
func (b *Broker) Subscribe(propertyID string) *Client {
	client := &Client{
		PropertyID: propertyID,
		Events:     make(chan Event, clientBufferSize),
		Done:       make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[propertyID] == nil {
		b.clients[propertyID] = make(map[*Client]bool)
		subCtx, stop := context.WithCancel(b.ctx)
		b.stops[propertyID] = stop
		go b.subscribeToRedis(subCtx, propertyID)
	}
	b.clients[propertyID][client] = true
	clientCount := len(b.clients[propertyID])
	b.mu.Unlock()

	log.Debug().
		Str("propertyId", propertyID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, ok := b.clients[client.PropertyID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Done)

	if len(clients) == 0 {
		delete(b.clients, client.PropertyID)
		if stop, ok := b.stops[client.PropertyID]; ok {
			stop()
			delete(b.stops, client.PropertyID)
		}
	}

	log.Debug().
		Str("propertyId", client.PropertyID).
		Int("clientCount", len(clients)).
		Msg("sse client unsubscribed")
}

func (b *Broker) Publish(ctx context.Context, propertyID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.ContentChannel(propertyID)
	return b.redis.Publish(ctx, channel, data).Err()
}

func (b *Broker) subscribeToRedis(ctx context.Context, propertyID string) {
	channel := redisclient.ContentChannel(propertyID)
	pubsub := b.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("propertyId", propertyID).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(propertyID, event)
		}
	}
}

func (b *Broker) broadcast(propertyID string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients[propertyID] {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("propertyId", propertyID).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
	b.stops = make(map[string]context.CancelFunc)
}

func (b *Broker) ClientCount(propertyID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[propertyID])
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}

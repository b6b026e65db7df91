// Package realtime pushes new chat messages and new posts to WebSocket
// clients. Postgres notifications are relayed into Redis by a Listener and
// every Hub fans the Redis messages out to its local connections.
package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis"

	"github.com/envelope-app/segora-backend/log"
)

const (
	ChatPattern  = "chat:*"
	PostsPattern = "posts:*"

	// PostsTopic carries every newly published post.
	PostsTopic = "posts:new"
)

// ErrHubClosed is returned when attaching a client to a stopped hub.
var ErrHubClosed = errors.New("hub is not running")

// ChatTopic is the Redis channel for one chat's messages.
func ChatTopic(chatID string) string {
	return "chat:" + chatID
}

// Message is a payload addressed to every client on a topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Hub tracks clients by topic. All of its state is owned by the goroutine
// running Run.
type Hub struct {
	rc *redis.Client

	topics     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
}

// NewHub creates a hub. With a nil client it only delivers what is passed to
// Broadcast.
func NewHub(rc *redis.Client) *Hub {
	return &Hub{
		rc:         rc,
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
	}
}

// Run subscribes to the chat and post channels and serves clients until ctx
// is cancelled. Every client's send channel is closed on the way out.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	var feed <-chan *redis.Message
	if h.rc != nil {
		ps := h.rc.PSubscribe(ChatPattern, PostsPattern)
		if _, err := ps.Receive(); err != nil {
			ps.Close()
			return fmt.Errorf("psubscribe: %w", err)
		}
		defer ps.Close()
		feed = ps.Channel()
		log.Info.Printf("Hub subscribed to %s and %s\n", ChatPattern, PostsPattern)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case msg, ok := <-feed:
			if !ok {
				log.Warn.Printf("hub: redis subscription closed\n")
				feed = nil
				continue
			}
			h.fanout(&Message{Topic: msg.Channel, Payload: []byte(msg.Payload)})

		case c := <-h.register:
			if h.topics[c.topic] == nil {
				h.topics[c.topic] = make(map[*Client]bool)
			}
			h.topics[c.topic][c] = true

		case c := <-h.unregister:
			h.remove(c)

		case m := <-h.broadcast:
			h.fanout(m)
		}
	}
}

func (h *Hub) fanout(m *Message) {
	for c := range h.topics[m.Topic] {
		if c.filter != nil && !c.filter(m.Payload) {
			continue
		}
		select {
		case c.send <- m.Payload:
		default:
			// slow client
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.topics[c.topic]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.topics, c.topic)
	}
}

func (h *Hub) closeAll() {
	for topic, clients := range h.topics {
		for c := range clients {
			close(c.send)
		}
		delete(h.topics, topic)
	}
}

// Register attaches a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast delivers a payload to this hub's clients without going through
// Redis.
func (h *Hub) Broadcast(topic string, payload []byte) {
	select {
	case h.broadcast <- &Message{Topic: topic, Payload: payload}:
	case <-h.done:
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/jackc/pgx/v5"

	"github.com/envelope-app/segora-backend/log"
)

// Notification channels raised by the database triggers.
const (
	MessagesChannel = "messages_inserted"
	PostsChannel    = "posts_inserted"
)

const retryDelay = 3 * time.Second

// Listener relays Postgres notifications into Redis pub/sub. It holds one
// dedicated connection for LISTEN, reconnecting when it drops. When Redis
// refuses a publish the payload still reaches the local hub's clients.
type Listener struct {
	url   string
	rc    *redis.Client
	local *Hub
}

func NewListener(postgresURL string, rc *redis.Client, local *Hub) *Listener {
	return &Listener{url: postgresURL, rc: rc, local: local}
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn.Printf("listener: %v, retrying in %s\n", err, retryDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.url)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	for _, ch := range []string{MessagesChannel, PostsChannel} {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			return fmt.Errorf("listen %s: %w", ch, err)
		}
	}
	log.Info.Printf("Listening for %s and %s\n", MessagesChannel, PostsChannel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		if err := l.relay(n.Channel, n.Payload); err != nil {
			log.Warn.Printf("listener: %v\n", err)
		}
	}
}

func (l *Listener) relay(channel, payload string) error {
	topic, err := Route(channel, payload)
	if err != nil {
		return err
	}
	if err := l.rc.Publish(topic, payload).Err(); err != nil {
		if l.local == nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
		l.local.Broadcast(topic, []byte(payload))
		return fmt.Errorf("publish %s, delivered locally only: %w", topic, err)
	}
	return nil
}

// Route maps a database notification to the Redis topic it is published on.
// Message payloads too large for a notification arrive without content and
// with "truncated" set; clients refetch those.
func Route(channel, payload string) (string, error) {
	switch channel {
	case MessagesChannel:
		var m struct {
			ChatID string `json:"chat_id"`
		}
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return "", fmt.Errorf("decode %s payload: %w", channel, err)
		}
		if m.ChatID == "" {
			return "", fmt.Errorf("%s payload without chat_id", channel)
		}
		return ChatTopic(m.ChatID), nil
	case PostsChannel:
		return PostsTopic, nil
	}
	return "", fmt.Errorf("unexpected channel %q", channel)
}

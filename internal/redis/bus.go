package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// feedChannel carries feed state-change events between server instances.
const feedChannel = "quorum:feed:events"

// EventBus is a thin pub/sub wrapper implementing feed.Bus.
type EventBus struct {
	client *goredis.Client
}

func NewEventBus(client *goredis.Client) *EventBus {
	return &EventBus{client: client}
}

func (b *EventBus) Publish(ctx context.Context, payload []byte) error {
	return b.client.Publish(ctx, feedChannel, payload).Err()
}

// Subscribe blocks delivering messages to handler until ctx is cancelled or
// the connection drops.
func (b *EventBus) Subscribe(ctx context.Context, handler func(payload []byte)) error {
	sub := b.client.Subscribe(ctx, feedChannel)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		handler([]byte(msg.Payload))
	}
}

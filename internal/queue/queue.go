// Package queue carries cleanup work from the API to the worker. The only
// message type today is an asset destroy; the Type field exists so the worker
// can skip anything it does not recognize.
package queue

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TypeAssetDestroy asks the worker to delete one stored photo asset. The body
// is the asset's public id.
const TypeAssetDestroy = "asset.destroy"

const defaultKey = "rollcall:cleanup"

// Message is one unit of work.
type Message struct {
	Type string
	Body []byte
}

// Queue abstracts the backend so dev setups run without Redis.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory is a bounded channel-backed queue for dev and tests. Messages do
// not survive a restart.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates an in-memory queue holding at most size messages.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues a message, blocking when the buffer is full.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel that closes when ctx is cancelled.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				out <- msg
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue is a Redis list used as a queue with LPUSH/BRPOP, so messages
// survive API restarts and several workers can share the load.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a queue on the given list key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = defaultKey
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	return q.client.LPush(ctx, q.key, serialize(msg)).Err()
}

// Consume streams messages via blocking pops. Transient Redis errors are
// retried; the channel closes when ctx is cancelled.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				continue
			}
			if len(res) != 2 {
				continue
			}
			out <- deserialize(res[1])
		}
	}()
	return out, nil
}

// Messages travel as "type|body". Bodies are asset public ids, which may
// themselves contain the separator, so only the first one splits.
func serialize(msg Message) string {
	return msg.Type + "|" + string(msg.Body)
}

func deserialize(s string) Message {
	typ, body, found := strings.Cut(s, "|")
	if !found {
		return Message{Body: []byte(s)}
	}
	return Message{Type: typ, Body: []byte(body)}
}

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/logger"
)

const channelPrefix = "chat:"

// Channel is the pub/sub channel that carries a conversation's turns.
func Channel(id chat.ConversationID) string { return channelPrefix + string(id) }

// Redis is a chat.Feed over Redis pub/sub so every API replica sees every turn.
type Redis struct {
	log *logger.Logger
	rdb *redis.Client

	mu            sync.Mutex
	live          int
	OnSubscribers func(n int)
}

// NewRedis connects to addr and pings it before returning.
func NewRedis(ctx context.Context, addr, password string, db int, log *logger.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisFromClient(rdb, log), nil
}

func NewRedisFromClient(rdb *redis.Client, log *logger.Logger) *Redis {
	return &Redis{log: log.With("component", "chat_feed"), rdb: rdb}
}

func (r *Redis) Publish(ctx context.Context, t chat.Turn) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, Channel(t.ConversationID), raw).Err()
}

func (r *Redis) Subscribe(ctx context.Context, id chat.ConversationID) (<-chan chat.Turn, func(), error) {
	sub := r.rdb.Subscribe(ctx, Channel(id))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}
	r.adjust(1)

	out := make(chan chat.Turn, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() { once.Do(func() { close(done) }) }

	go func() {
		defer func() {
			_ = sub.Close()
			close(out)
			r.adjust(-1)
		}()
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case m, ok := <-in:
				if !ok || m == nil {
					return
				}
				var t chat.Turn
				if err := json.Unmarshal([]byte(m.Payload), &t); err != nil {
					r.log.Warn("bad chat feed payload", "error", err, "channel", m.Channel)
					continue
				}
				select {
				case out <- t:
				default:
				}
			}
		}
	}()
	return out, cancel, nil
}

func (r *Redis) Check(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

func (r *Redis) adjust(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live += delta
	if r.OnSubscribers != nil {
		r.OnSubscribers(r.live)
	}
}

package feed

import (
	"context"
	"sync"

	"github.com/bryanwahyu/skillscope/internal/domain/chat"
)

// subscriberBuffer bounds each subscriber queue. Slow readers lose turns rather
// than blocking publishers; clients re-read the durable history on reconnect.
const subscriberBuffer = 32

// Broker is an in-process chat.Feed.
type Broker struct {
	mu   sync.Mutex
	subs map[chat.ConversationID]map[*subscriber]struct{}
	// OnSubscribers reports the live subscriber count after every change.
	OnSubscribers func(n int)
}

type subscriber struct {
	ch   chan chat.Turn
	done chan struct{}
	once sync.Once
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chat.ConversationID]map[*subscriber]struct{})}
}

func (b *Broker) Publish(_ context.Context, t chat.Turn) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs[t.ConversationID] {
		select {
		case s.ch <- t:
		default:
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, id chat.ConversationID) (<-chan chat.Turn, func(), error) {
	s := &subscriber{ch: make(chan chat.Turn, subscriberBuffer), done: make(chan struct{})}

	b.mu.Lock()
	set := b.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		b.subs[id] = set
	}
	set[s] = struct{}{}
	b.report()
	b.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			b.mu.Lock()
			delete(b.subs[id], s)
			if len(b.subs[id]) == 0 {
				delete(b.subs, id)
			}
			close(s.ch)
			close(s.done)
			b.report()
			b.mu.Unlock()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-s.done:
		}
	}()
	return s.ch, cancel, nil
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count()
}

func (b *Broker) count() int {
	n := 0
	for _, set := range b.subs {
		n += len(set)
	}
	return n
}

// report must be called with mu held.
func (b *Broker) report() {
	if b.OnSubscribers != nil {
		b.OnSubscribers(b.count())
	}
}

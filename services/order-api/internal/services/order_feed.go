package services

import (
	"context"
	"sync"

	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/observability"
	"go.uber.org/zap"
)

// OrderFeed fans order events out to blotter stream subscribers. A subscriber whose
// buffer is full is disconnected; clients resync by listing orders after reconnecting.
type OrderFeed struct {
	logger *zap.Logger
	buffer int

	mu          sync.Mutex
	nextID      uint64
	subscribers map[uint64]chan views.OrderEvent
	closed      bool
}

func NewOrderFeed(logger *zap.Logger, buffer int) *OrderFeed {
	if buffer <= 0 {
		buffer = 64
	}
	return &OrderFeed{
		logger:      logger,
		buffer:      buffer,
		subscribers: make(map[uint64]chan views.OrderEvent),
	}
}

func (f *OrderFeed) Name() string { return "stream" }

// Subscribe returns the event channel and a cancel func. The channel is closed on cancel,
// on overflow and when the feed shuts down.
func (f *OrderFeed) Subscribe() (<-chan views.OrderEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan views.OrderEvent, f.buffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.nextID
	f.nextID++
	f.subscribers[id] = ch
	observability.StreamSubscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			f.drop(id)
			f.mu.Unlock()
		})
	}
}

func (f *OrderFeed) PublishOrderEvent(_ context.Context, event views.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			f.logger.Warn("order_stream_subscriber_dropped", zap.Uint64("subscriber", id))
			f.drop(id)
		}
	}
	return nil
}

func (f *OrderFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

func (f *OrderFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id := range f.subscribers {
		f.drop(id)
	}
}

// drop must be called with mu held.
func (f *OrderFeed) drop(id uint64) {
	ch, ok := f.subscribers[id]
	if !ok {
		return
	}
	delete(f.subscribers, id)
	close(ch)
	observability.StreamSubscribers.Dec()
}

package events

import (
	"sync"
	"time"

	"github.com/cuemby/statekeep/pkg/metrics"
)

// EventType names one kind of domain event a broker distributes.
type EventType string

const (
	EventTransactionAccepted EventType = "transaction.accepted"
	EventTransactionRejected EventType = "transaction.rejected"
	EventInstanceSnapshotted EventType = "instance.snapshotted"
	EventInstanceMigrated    EventType = "instance.migrated"
)

// Event is one occurrence published to every subscriber of a Broker.
type Event struct {
	ID         string
	Type       EventType
	Timestamp  time.Time
	InstanceID string
	Message    string
	Metadata   map[string]string
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// defaultQueueDepth bounds the broker's intake queue when NewBroker is
// called without a positive size.
const defaultQueueDepth = 100

// defaultSubscriberDepth is each subscriber's buffer size unless
// WithSubscriberDepth sets another one.
const defaultSubscriberDepth = 50

// Broker fans a stream of Events out to every current Subscriber.
// Publish never blocks on a slow subscriber: a subscriber whose buffer
// is full has the event dropped for it rather than stalling every
// other subscriber or the publisher.
type Broker struct {
	subscribers     map[Subscriber]bool
	mu              sync.RWMutex
	eventCh         chan *Event
	stopCh          chan struct{}
	subscriberDepth int
}

// NewBroker creates a broker whose intake queue holds queueDepth
// events before Publish starts blocking on a slow run loop. A
// non-positive queueDepth falls back to defaultQueueDepth.
func NewBroker(queueDepth ...int) *Broker {
	depth := defaultQueueDepth
	if len(queueDepth) > 0 && queueDepth[0] > 0 {
		depth = queueDepth[0]
	}
	return &Broker{
		subscribers:     make(map[Subscriber]bool),
		eventCh:         make(chan *Event, depth),
		stopCh:          make(chan struct{}),
		subscriberDepth: defaultSubscriberDepth,
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel, buffered
// to the broker's configured subscriber depth (see WithSubscriberDepth).
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, b.subscriberDepth)
	b.subscribers[sub] = true
	return sub
}

// WithSubscriberDepth overrides the per-subscriber buffer size used by
// Subscribe calls made afterward. depth must be positive.
func (b *Broker) WithSubscriberDepth(depth int) *Broker {
	if depth > 0 {
		b.subscriberDepth = depth
	}
	return b
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish queues event for distribution to every current subscriber,
// stamping its Timestamp if the caller left it zero.
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

// broadcast delivers event to every subscriber whose buffer has room.
// A full subscriber buffer means that subscriber is falling behind; the
// event is dropped for it and counted rather than blocking the other
// subscribers waiting on the same broadcast.
func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			metrics.EventsDroppedTotal.WithLabelValues(string(event.Type)).Inc()
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/checkout"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	pkgkafka "github.com/khalifgfrz/coffee-shop-storefront/pkg/kafka"
)

// Kafka topic constants for checkout events.
const (
	TopicCheckoutUpdated = "storefront.checkout.updated"
	TopicCheckoutCleared = "storefront.checkout.cleared"
)

// Aggregate type constant.
const AggregateTypeCheckout = "checkout"

// Source identifier for events originating from the storefront.
const SourceStorefront = "storefront"

const publishTimeout = 5 * time.Second

var eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "storefront_checkout_events_dropped_total",
	Help: "Total number of checkout events dropped because the publish queue was full.",
})

// CheckoutUpdatedData is the payload for a checkout.updated event.
type CheckoutUpdatedData struct {
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id,omitempty"`
	Items     []domain.LineItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Total     int64             `json:"total"`
}

// CheckoutClearedData is the payload for a checkout.cleared event.
type CheckoutClearedData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
}

// Publisher sends an event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

type job struct {
	topic string
	event *pkgkafka.Event
}

// Producer publishes checkout events. Store listeners only enqueue; a single
// worker publishes in order so a slow broker never blocks a checkout.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
	queue  chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewProducer creates a new event producer with a queue of queueSize events.
func NewProducer(kafka Publisher, logger *slog.Logger, queueSize int) *Producer {
	if queueSize <= 0 {
		queueSize = 256
	}
	p := &Producer{
		kafka:  kafka,
		logger: logger,
		queue:  make(chan job, queueSize),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// CheckoutListener returns a store listener publishing the collections of
// one session. userID is read on each publication.
func (p *Producer) CheckoutListener(sessionID string, userID func() string) checkout.Listener {
	return func(items []domain.LineItem) {
		uid := ""
		if userID != nil {
			uid = userID()
		}

		var (
			evt   *pkgkafka.Event
			topic string
			err   error
		)
		if len(items) == 0 {
			topic = TopicCheckoutCleared
			evt, err = pkgkafka.NewEvent(TopicCheckoutCleared, sessionID, AggregateTypeCheckout, SourceStorefront,
				CheckoutClearedData{SessionID: sessionID, UserID: uid})
		} else {
			topic = TopicCheckoutUpdated
			evt, err = pkgkafka.NewEvent(TopicCheckoutUpdated, sessionID, AggregateTypeCheckout, SourceStorefront,
				updatedData(sessionID, uid, items))
		}
		if err != nil {
			p.logger.Error("failed to build checkout event",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
			return
		}
		evt.WithMetadata("user_id", uid)

		p.enqueue(job{topic: topic, event: evt})
	}
}

func updatedData(sessionID, userID string, items []domain.LineItem) CheckoutUpdatedData {
	data := CheckoutUpdatedData{SessionID: sessionID, UserID: userID, Items: items}
	for _, it := range items {
		data.ItemCount += it.Count
		data.Total += it.Subtotal()
	}
	return data
}

func (p *Producer) enqueue(j job) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	select {
	case p.queue <- j:
	default:
		eventsDropped.Inc()
		p.logger.Warn("checkout event queue full, dropping event",
			slog.String("topic", j.topic),
			slog.String("session_id", j.event.AggregateID),
		)
	}
}

func (p *Producer) run() {
	defer p.wg.Done()
	for j := range p.queue {
		if err := p.publish(j); err != nil {
			p.logger.Error("failed to publish checkout event",
				slog.String("topic", j.topic),
				slog.String("session_id", j.event.AggregateID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (p *Producer) publish(j job) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.kafka.Publish(ctx, j.topic, j.event); err != nil {
		return fmt.Errorf("publish %s event: %w", j.topic, err)
	}

	p.logger.Debug("published checkout event",
		slog.String("topic", j.topic),
		slog.String("session_id", j.event.AggregateID),
	)
	return nil
}

// Close stops accepting events and waits for queued ones to be published.
func (p *Producer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// Package messaging announces stored assignments to other systems.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/facility-coordinator/internal/application"
)

// DefaultQueue receives AssignmentCreated events.
const DefaultQueue = "assignment.created"

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("messaging: publisher closed")

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dialer opens a channel to the broker and returns a function that releases it.
type Dialer func(url string) (Channel, func() error, error)

// DefaultDialTimeout bounds the TCP dial and AMQP handshake of DialAMQP.
const DefaultDialTimeout = 5 * time.Second

// DialAMQP opens a connection and channel with amqp091-go, giving up after
// DefaultDialTimeout.
func DialAMQP(url string) (Channel, func() error, error) {
	return DialAMQPTimeout(DefaultDialTimeout)(url)
}

// DialAMQPTimeout returns a Dialer whose connection attempt, handshake
// included, fails after timeout.
func DialAMQPTimeout(timeout time.Duration) Dialer {
	return func(url string) (Channel, func() error, error) {
		conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(timeout)})
		if err != nil {
			return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("open channel: %w", err)
		}
		return ch, conn.Close, nil
	}
}

// AMQPPublisher sends each event as a persistent JSON message to a durable
// queue on the default exchange. A connection is opened per publish, which
// suits the low rate of assignment submissions.
type AMQPPublisher struct {
	url    string
	queue  string
	dial   Dialer
	now    func() time.Time
	logger *slog.Logger
	closed atomic.Bool
}

// AMQPOption configures an AMQPPublisher.
type AMQPOption func(*AMQPPublisher)

// WithDialer replaces DialAMQP.
func WithDialer(dial Dialer) AMQPOption {
	return func(p *AMQPPublisher) {
		p.dial = dial
	}
}

// WithClock sets the clock used for message timestamps.
func WithClock(now func() time.Time) AMQPOption {
	return func(p *AMQPPublisher) {
		p.now = now
	}
}

// NewAMQPPublisher returns a publisher for url and queue. An empty queue
// selects DefaultQueue.
func NewAMQPPublisher(url, queue string, logger *slog.Logger, opts ...AMQPOption) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &AMQPPublisher{
		url:    url,
		queue:  queue,
		dial:   DialAMQP,
		now:    time.Now,
		logger: logger.With("component", "amqp_publisher", "queue", queue),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishAssignmentCreated implements application.EventPublisher.
func (p *AMQPPublisher) PublishAssignmentCreated(ctx context.Context, event application.AssignmentCreatedEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ch, release, err := p.dial(p.url)
	if err != nil {
		return err
	}
	defer func() {
		_ = ch.Close()
		if release != nil {
			_ = release()
		}
	}()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.AssignmentID,
		Timestamp:    p.now().UTC(),
		Type:         "assignment.created",
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	p.logger.DebugContext(ctx, "assignment event published", "assignment_id", event.AssignmentID)
	return nil
}

// Close stops further publishing.
func (p *AMQPPublisher) Close() error {
	p.closed.Store(true)
	return nil
}

// NoopPublisher drops events. It is used when no broker is configured.
type NoopPublisher struct {
	Logger *slog.Logger
}

// PublishAssignmentCreated implements application.EventPublisher.
func (p NoopPublisher) PublishAssignmentCreated(ctx context.Context, event application.AssignmentCreatedEvent) error {
	if p.Logger != nil {
		p.Logger.DebugContext(ctx, "assignment event dropped, no broker configured", "assignment_id", event.AssignmentID)
	}
	return nil
}

var (
	_ application.EventPublisher = (*AMQPPublisher)(nil)
	_ application.EventPublisher = NoopPublisher{}
)

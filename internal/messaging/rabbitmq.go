// Package messaging carries LMS domain events over RabbitMQ. Every event
// goes to one fanout exchange; each watcher binds its own throwaway queue.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"aula-lms/internal/domain"
)

// EventsExchange is the fanout exchange every domain event is published to
const EventsExchange = "lms.events"

// Event types published by this module
const (
	EventUploadCompleted = "upload.completed"
)

// Event is a change notice for one backend domain. Domain matches the
// query cache key domains ("courses", "lessons", ...).
type Event struct {
	Type      string          `json:"type"`
	Domain    string          `json:"domain"`
	ID        string          `json:"id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	// amqp channels must not be used for concurrent publishes
	publishMu sync.Mutex
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:    conn,
		channel: ch,
	}

	if err := rmq.Setup(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

// NewRabbitMQWithRetry keeps dialing with exponential backoff until the
// broker answers or ctx ends. Brokers often start after the services that
// use them.
func NewRabbitMQWithRetry(ctx context.Context, url string) (*RabbitMQ, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.MaxInterval = 10 * time.Second
	exp.MaxElapsedTime = 0

	attempt := 0
	return backoff.RetryNotifyWithData(func() (*RabbitMQ, error) {
		attempt++
		return NewRabbitMQ(url)
	}, backoff.WithContext(exp, ctx), func(err error, wait time.Duration) {
		slog.Warn("rabbitmq not reachable, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
	})
}

// Setup declares the events exchange
func (r *RabbitMQ) Setup() error {
	if err := r.channel.ExchangeDeclare(
		EventsExchange, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return fmt.Errorf("failed to declare events exchange: %w", err)
	}

	slog.Info("rabbitmq setup completed successfully", slog.String("exchange", EventsExchange))
	return nil
}

// Publish sends ev to the events exchange, stamping it when needed
func (r *RabbitMQ) Publish(ctx context.Context, ev *Event) error {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	r.publishMu.Lock()
	err = r.channel.PublishWithContext(
		ctx,
		EventsExchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	r.publishMu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Info("published event",
		slog.String("type", ev.Type),
		slog.String("domain", ev.Domain),
		slog.String("id", ev.ID))
	return nil
}

// PublishUploadCompleted announces a file the CDN accepted. Lessons are
// the domain that references uploaded media.
func (r *RabbitMQ) PublishUploadCompleted(ctx context.Context, uploadID string, result *domain.UploadResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal upload result: %w", err)
	}
	return r.Publish(ctx, &Event{
		Type:   EventUploadCompleted,
		Domain: "lessons",
		ID:     uploadID,
		Data:   data,
	})
}

func (r *RabbitMQ) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

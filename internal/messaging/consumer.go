package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
)

// EventHandler reacts to one event
type EventHandler interface {
	HandleEvent(ctx context.Context, ev Event)
}

// EventHandlerFunc adapts a function to EventHandler
type EventHandlerFunc func(ctx context.Context, ev Event)

func (f EventHandlerFunc) HandleEvent(ctx context.Context, ev Event) { f(ctx, ev) }

// EventConsumer feeds events from a private queue bound to the events
// exchange into a handler.
type EventConsumer struct {
	rmq     *RabbitMQ
	handler EventHandler
	done    chan struct{}
}

func NewEventConsumer(rmq *RabbitMQ, handler EventHandler) *EventConsumer {
	return &EventConsumer{
		rmq:     rmq,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start binds the queue and consumes in the background until ctx ends or
// the broker closes the delivery channel.
func (c *EventConsumer) Start(ctx context.Context) error {
	queue, err := c.rmq.channel.QueueDeclare(
		"",    // auto-generated name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	if err := c.rmq.channel.QueueBind(
		queue.Name,     // queue name
		"",             // routing key
		EventsExchange, // exchange
		false,
		nil,
	); err != nil {
		return err
	}

	msgs, err := c.rmq.channel.Consume(
		queue.Name, // queue
		"",         // consumer
		true,       // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return err
	}

	slog.Info("started consuming events",
		slog.String("queue", queue.Name),
		slog.String("exchange", EventsExchange))

	go func() {
		defer close(c.done)
		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping event consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Warn("event consumer channel closed")
					return
				}

				var ev Event
				if err := json.Unmarshal(msg.Body, &ev); err != nil {
					slog.Error("error unmarshaling event",
						slog.String("error", err.Error()),
						slog.Int("body_size", len(msg.Body)))
					continue
				}

				c.handler.HandleEvent(ctx, ev)
			}
		}
	}()

	return nil
}

// Done is closed once the consumer goroutine has stopped
func (c *EventConsumer) Done() <-chan struct{} {
	return c.done
}

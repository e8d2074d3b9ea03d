package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	amqp "github.com/streadway/amqp"
)

// UserEventsQueue is the durable queue user lifecycle events are published to.
const UserEventsQueue = "user_events"

const (
	EventUserRegistered = "user.registered"
	EventUserLoggedIn   = "user.logged_in"
)

// UserEvent describes something that happened to an account.
// It never carries credentials.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mu      sync.Mutex // serializes publishes on the shared channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string // defaults to UserEventsQueue
}

// NewClient connects to RabbitMQ, opens a channel and declares the events queue.
func NewClient(cfg Config) (*Client, error) {
	queue := cfg.Queue
	if queue == "" {
		queue = UserEventsQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("queue", queue).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   queue,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return q, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// EncodeUserEvent renders an event as the JSON message body.
func EncodeUserEvent(event UserEvent) ([]byte, error) {
	if event.Type == "" {
		return nil, fmt.Errorf("user event type is required")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user event: %w", err)
	}
	return body, nil
}

// DecodeUserEvent parses a message body produced by EncodeUserEvent.
func DecodeUserEvent(body []byte) (UserEvent, error) {
	var event UserEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return UserEvent{}, fmt.Errorf("failed to unmarshal user event: %w", err)
	}
	if event.Type == "" {
		return UserEvent{}, fmt.Errorf("user event without type")
	}
	return event, nil
}

// PublishUserEvent publishes a persistent JSON message to the events queue.
func (c *Client) PublishUserEvent(event UserEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := EncodeUserEvent(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	log.Debug().Str("event.type", event.Type).Str("user.id", event.UserID).Msg("Published user event")
	return nil
}

// ConsumeUserEvents delivers every event on the queue to handler in a background goroutine.
// Messages are acked when handler returns nil. Undecodable messages are dropped,
// handler failures are requeued.
func (c *Client) ConsumeUserEvents(handler func(UserEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			settle(msg, handleDelivery(msg.Body, handler))
		}
		log.Info().Str("queue", c.queue).Msg("User event consumer stopped")
	}()
	return nil
}

type outcome int

const (
	ack outcome = iota
	requeue
	drop
)

func handleDelivery(body []byte, handler func(UserEvent) error) outcome {
	event, err := DecodeUserEvent(body)
	if err != nil {
		log.Error().Err(err).Msg("Dropping malformed user event")
		return drop
	}
	if err := handler(event); err != nil {
		log.Error().Err(err).Str("event.type", event.Type).Msg("Error processing user event")
		return requeue
	}
	return ack
}

func settle(msg amqp.Delivery, o outcome) {
	var err error
	switch o {
	case ack:
		err = msg.Ack(false)
	case requeue:
		err = msg.Nack(false, true)
	case drop:
		err = msg.Nack(false, false)
	}
	if err != nil {
		log.Error().Err(err).Uint64("delivery.tag", msg.DeliveryTag).Msg("Error settling message")
	}
}

// LogUserEvent is the audit handler used by the service: it records each event in the log.
func LogUserEvent(event UserEvent) error {
	log.Info().
		Str("event.type", event.Type).
		Str("user.id", event.UserID).
		Str("user.name", event.Name).
		Time("event.time", event.OccurredAt).
		Msg("User event received")
	return nil
}

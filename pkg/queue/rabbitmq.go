package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"content-planner/pkg/config"
	"content-planner/pkg/logger"
	"content-planner/pkg/tagcache"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange       = "planner.events"
	InvalidateRoutingKey = "cache.invalidate"
)

// InvalidationEvent carries the tags one mutation invalidated.
type InvalidationEvent struct {
	Source string         `json:"source"`
	Tags   []tagcache.Tag `json:"tags"`
	At     time.Time      `json:"at"`
}

// publisher is the part of amqp.Channel that PublishInvalidation needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Client publishes and consumes on separate channels: a channel is not safe
// for concurrent use, and the consumer goroutine must not share one with
// request handlers that publish.
type Client struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	publishCh *amqp.Channel
	publisher publisher
	logger    *logger.Logger
	instance  string
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		EventsExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	publishCh, err := conn.Channel()
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:      conn,
		channel:   channel,
		publishCh: publishCh,
		publisher: publishCh,
		logger:    log,
		instance:  uuid.New().String(),
	}, nil
}

func (c *Client) Close() error {
	if c.publishCh != nil {
		c.publishCh.Close()
	}
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Instance identifies this client as the source of the events it publishes.
func (c *Client) Instance() string {
	return c.instance
}

func (c *Client) PublishInvalidation(ctx context.Context, tags []tagcache.Tag) error {
	body, err := encodeInvalidation(InvalidationEvent{Source: c.instance, Tags: tags, At: time.Now().UTC()})
	if err != nil {
		return err
	}

	err = c.publisher.PublishWithContext(ctx,
		EventsExchange,       // exchange
		InvalidateRoutingKey, // routing key
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish message to exchange=%s, routing_key=%s: %v", EventsExchange, InvalidateRoutingKey, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published invalidation of %d tag(s) to exchange=%s", len(tags), EventsExchange)
	return nil
}

// ConsumeInvalidations binds a private queue to the events exchange and calls
// handler for every event published by another instance. The queue goes away
// with the connection, so a stopped consumer misses events instead of
// replaying them.
func (c *Client) ConsumeInvalidations(handler func(event InvalidationEvent) error) error {
	queue, err := c.channel.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		queue.Name,           // queue name
		InvalidateRoutingKey, // routing key
		EventsExchange,       // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer
		false,      // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming invalidations from queue: %s", queue.Name)

	go func() {
		for msg := range msgs {
			switch c.handle(msg.Body, handler) {
			case deliveryAck:
				msg.Ack(false)
			case deliveryDrop:
				msg.Nack(false, false)
			case deliveryRetry:
				msg.Nack(false, true)
			}
		}
		c.logger.Info("[RABBITMQ] Invalidation consumer stopped")
	}()

	return nil
}

type deliveryOutcome int

const (
	deliveryAck deliveryOutcome = iota
	deliveryDrop
	deliveryRetry
)

func (c *Client) handle(body []byte, handler func(event InvalidationEvent) error) deliveryOutcome {
	event, err := decodeInvalidation(body)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to unmarshal invalidation event: %v, body=%s", err, string(body))
		return deliveryDrop
	}
	if event.Source == c.instance {
		return deliveryAck
	}
	if err := handler(event); err != nil {
		c.logger.Error("[RABBITMQ] Handler failed to process invalidation event: %v", err)
		return deliveryRetry
	}
	return deliveryAck
}

func encodeInvalidation(event InvalidationEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return body, nil
}

func decodeInvalidation(body []byte) (InvalidationEvent, error) {
	var event InvalidationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, err
	}
	if len(event.Tags) == 0 {
		return event, fmt.Errorf("event carries no tags")
	}
	return event, nil
}

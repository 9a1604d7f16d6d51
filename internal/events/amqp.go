package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/smarttrack/internal/model"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Defaults for the exchange and queue names.
const (
	DefaultExchange = "smarttrack"
	DefaultQueue    = "transactions.created"
)

// Handler processes one decoded message. Returning an error requeues it.
type Handler func(ctx context.Context, msg TransactionCreated) error

// Client publishes and consumes transaction events on a durable direct
// exchange bound to one queue.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	logger   *slog.Logger
	now      func() time.Time
	exchange string
	queue    string
}

// NewClient dials url and declares the exchange, queue and binding.
func NewClient(url, exchange, queue string, logger *slog.Logger) (*Client, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:     conn,
		channel:  channel,
		logger:   logger.With("component", "events"),
		now:      time.Now,
		exchange: exchange,
		queue:    queue,
	}

	if err := client.setup(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := c.channel.QueueBind(c.queue, c.queue, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	// One unacknowledged message at a time keeps sheet rows in order.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// PublishTransactionCreated publishes a persistent transaction.created message.
func (c *Client) PublishTransactionCreated(ctx context.Context, txn model.Transaction) error {
	body, err := NewTransactionCreated(txn, c.now()).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchange, c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Type:         TypeTransactionCreated,
		MessageId:    txn.ID,
		DeliveryMode: amqp.Persistent,
		Timestamp:    c.now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.logger.DebugContext(ctx, "Published transaction event",
		"id", txn.ID,
		"exchange", c.exchange,
		"queue", c.queue)
	return nil
}

// Consume delivers messages to handler until ctx is canceled or the channel
// closes.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming transaction events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("message channel closed")
			}
			handleDelivery(ctx, c.logger, delivery, delivery.Body, handler)
		}
	}
}

// acknowledger is the part of amqp.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// handleDelivery drops undecodable messages, requeues handler failures and
// acks everything else.
func handleDelivery(ctx context.Context, logger *slog.Logger, ack acknowledger, body []byte, handler Handler) {
	msg, err := TransactionCreatedFromJSON(body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to decode message", "error", err)
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to handle message", "error", err, "id", msg.ID)
		_ = ack.Nack(false, true)
		return
	}

	_ = ack.Ack(false)
	logger.DebugContext(ctx, "Processed transaction event", "id", msg.ID)
}

// Close closes the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

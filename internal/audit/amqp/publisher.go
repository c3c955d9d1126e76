// Package amqp publishes rollover carry events to a RabbitMQ exchange.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/tinoosan/budget/internal/audit"
	"github.com/tinoosan/budget/internal/ledger"
)

// Channel is the subset of *amqp091.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type Publisher struct {
	conn         *amqp091.Connection
	channel      Channel
	exchangeName string
	queueName    string
	log          *slog.Logger
}

// Dial connects to url and declares a durable direct exchange bound to a
// durable queue, using the queue name as routing key.
func Dial(url, exchangeName, queueName string, log *slog.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := New(channel, exchangeName, queueName, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// New wraps an open channel and declares the topology.
func New(ch Channel, exchangeName, queueName string, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{channel: ch, exchangeName: exchangeName, queueName: queueName, log: log}
	if err := p.setup(); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return p, nil
}

func (p *Publisher) setup() error {
	// Declare exchange
	err := p.channel.ExchangeDeclare(
		p.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := p.channel.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name
	if err := p.channel.QueueBind(p.queueName, p.queueName, p.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Publish sends one persistent JSON message per event.
func (p *Publisher) Publish(ctx context.Context, events []ledger.CarryEvent) error {
	for _, ev := range events {
		body, err := audit.NewMessage(ev).ToJSON()
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}

		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.channel.PublishWithContext(
			pctx,
			p.exchangeName, // exchange
			p.queueName,    // routing key
			false,          // mandatory
			false,          // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp091.Persistent,
				Timestamp:    ev.At,
				Type:         string(ev.Kind),
				Body:         body,
			},
		)
		cancel()
		if err != nil {
			return fmt.Errorf("publish carry event %s: %w", ev.CategoryID, err)
		}

		p.log.InfoContext(ctx, "published carry event",
			"kind", string(ev.Kind),
			"category_id", ev.CategoryID,
			"exchange", p.exchangeName,
			"queue", p.queueName)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

var _ audit.Sink = (*Publisher)(nil)

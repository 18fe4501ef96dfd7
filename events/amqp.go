// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the part of *amqp.Channel the publisher needs
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type dialFunc func() (channel, func() error, error)

// AMQPPublisher publishes persistent JSON messages to a durable queue.
// The connection and channel stay open and are reopened after a failure.
type AMQPPublisher struct {
	queue  string
	dial   dialFunc
	logger *slog.Logger

	mu        sync.Mutex
	ch        channel
	closeConn func() error
}

// NewAMQPPublisher dials url and declares queue
func NewAMQPPublisher(url, queue string, logger *slog.Logger) (*AMQPPublisher, error) {
	dial := func() (channel, func() error, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
		}
		return ch, conn.Close, nil
	}
	return newAMQPPublisher(queue, dial, logger)
}

func newAMQPPublisher(queue string, dial dialFunc, logger *slog.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &AMQPPublisher{queue: queue, dial: dial, logger: logger}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect opens a channel and declares the queue. Callers hold mu or own p.
func (p *AMQPPublisher) connect() error {
	ch, closeConn, err := p.dial()
	if err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		if closeConn != nil {
			closeConn()
		}
		return fmt.Errorf("rabbitmq queue declare %s: %w", p.queue, err)
	}
	p.ch = ch
	p.closeConn = closeConn
	return nil
}

func (p *AMQPPublisher) PublishScan(ctx context.Context, event ScanRecorded) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal scan event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    time.Now().UTC(),
		Type:         "scan.recorded",
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		p.logger.Info("reconnecting to rabbitmq", "queue", p.queue)
		p.release()
		if err := p.connect(); err != nil {
			return err
		}
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) release() {
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.closeConn != nil {
		p.closeConn()
		p.closeConn = nil
	}
}

// Close shuts the channel and connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.release()
	return nil
}

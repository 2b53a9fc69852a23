package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPPublisher publishes events as JSON to a durable topic exchange with
// routing key "retail.<company>.<type>".
type AMQPPublisher struct {
	url        string
	exchange   string
	retryCount int
	retryDelay time.Duration
	log        *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// DialAMQP connects and declares the exchange, retrying a few times.
func DialAMQP(url, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		url:        url,
		exchange:   exchange,
		retryCount: 3,
		retryDelay: 2 * time.Second,
		log:        log,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	for i := 0; i < p.retryCount; i++ {
		p.conn, err = amqp.Dial(p.url)
		if err != nil {
			p.log.Warn("amqp connection failed", zap.Int("attempt", i+1), zap.Error(err))
			if i < p.retryCount-1 {
				time.Sleep(p.retryDelay)
			}
			continue
		}

		p.channel, err = p.conn.Channel()
		if err != nil {
			p.conn.Close()
			return fmt.Errorf("failed to open amqp channel: %w", err)
		}

		err = p.channel.ExchangeDeclare(
			p.exchange, // name
			"topic",    // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			p.channel.Close()
			p.conn.Close()
			return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
		}
		p.log.Info("connected to amqp broker", zap.String("exchange", p.exchange))
		return nil
	}
	return fmt.Errorf("failed to connect to amqp broker: %w", err)
}

// RoutingKey is the topic an event is published under.
func RoutingKey(e Event) string {
	return fmt.Sprintf("retail.%s.%s", e.CompanyCode, e.Type)
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	p.mu.Lock()
	ch := p.channel
	closed := p.conn == nil || p.conn.IsClosed()
	p.mu.Unlock()
	if closed {
		if err := p.connect(); err != nil {
			return err
		}
		p.mu.Lock()
		ch = p.channel
		p.mu.Unlock()
	}

	err = ch.Publish(
		p.exchange,
		RoutingKey(e),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Timestamp:    e.Timestamp,
			Headers: amqp.Table{
				"company_code": e.CompanyCode,
				"event_type":   string(e.Type),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ErrPublisherClosed is returned by Send after Close.
var ErrPublisherClosed = errors.New("mail: queue publisher closed")

// QueuePublisher is a Sender that enqueues messages on a durable RabbitMQ
// queue. A Consumer on the other side performs the actual delivery.
//
// One connection and channel are shared by every Send. They are dialled on
// first use and dropped when the broker closes the connection, so the next
// Send reconnects.
type QueuePublisher struct {
	url   string
	queue string

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

// NewQueuePublisher returns a publisher for the given broker and queue.
func NewQueuePublisher(url, queue string) (*QueuePublisher, error) {
	if url == "" || queue == "" {
		return nil, errors.New("mail: AMQP url and queue are required")
	}
	return &QueuePublisher{url: url, queue: queue}, nil
}

// Send publishes msg as a persistent JSON message.
func (p *QueuePublisher) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.dropLocked()
		return fmt.Errorf("publish mail message: %w", err)
	}
	return nil
}

// Close shuts the shared connection. Later calls to Send fail.
func (p *QueuePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

// channelLocked returns the live channel, dialling a new connection when
// there is none. p.mu must be held.
func (p *QueuePublisher) channelLocked() (*amqp.Channel, error) {
	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.dropLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := declareQueue(ch, p.queue); err != nil {
		_ = conn.Close()
		return nil, err
	}

	closes := conn.NotifyClose(make(chan *amqp.Error, 1))
	go p.watch(conn, closes)

	p.conn, p.ch = conn, ch
	return ch, nil
}

// watch forgets conn once the broker or Close shuts it down.
func (p *QueuePublisher) watch(conn *amqp.Connection, closes <-chan *amqp.Error) {
	if err, ok := <-closes; ok && err != nil {
		logrus.WithError(err).Warn("mail publisher: broker connection lost")
	}
	p.forget(conn)
}

// forget clears the cached connection if it is still conn. A newer
// connection dialled in the meantime is left alone.
func (p *QueuePublisher) forget(conn *amqp.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		p.conn, p.ch = nil, nil
	}
}

func (p *QueuePublisher) dropLocked() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("declare queue %s: %w", name, err)
	}
	return q, nil
}

// Consumer drains the mail queue and hands each message to a Sender.
type Consumer struct {
	url    string
	queue  string
	sender Sender
}

// NewConsumer builds a consumer delivering through sender.
func NewConsumer(url, queue string, sender Sender) *Consumer {
	return &Consumer{url: url, queue: queue, sender: sender}
}

// Run connects and consumes until ctx is cancelled, reconnecting with
// exponential backoff when the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			logrus.WithError(err).Warnf("mail consumer: dial failed, retrying in %s", backoff)
			if !sleepContext(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logrus.WithError(err).Warn("mail consumer: loop ended, reconnecting")
		if !sleepContext(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("mail consumer: set QoS failed")
	}
	if _, err := declareQueue(ch, c.queue); err != nil {
		return err
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				logrus.WithError(err).Error("mail consumer: delivery failed")
				// Dropped rather than requeued to avoid a hot loop on a bad message.
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal mail message: %w", err)
	}
	sendCtx, cancel := context.WithTimeout(ctx, defaultSendTimeout)
	defer cancel()
	return c.sender.Send(sendCtx, msg)
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

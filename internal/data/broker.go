package data

import (
	"crypto/tls"
	"crypto/x509"
	stderrors "errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"sync"
	"time"

	"linkshrink/internal/conf"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-kratos/kratos/v2/log"
	amqp091 "github.com/rabbitmq/amqp091-go"
	"github.com/samber/lo"
)

var (
	errBrokerUnavailable = stderrors.New("message broker unavailable")
	errPublisherClosed   = stderrors.New("publisher closed")
)

// amqpURI builds the broker URI from the queue settings.
func amqpURI(q *conf.Data_Queue) string {
	u := url.URL{
		Scheme: lo.Ternary(bool(q.TLS), "amqps", "amqp"),
		User:   url.UserPassword(q.Username, q.Password),
		Host:   net.JoinHostPort(q.Host, q.Port),
		Path:   "/" + q.VHost,
	}
	return u.String()
}

func amqpTLSConfig(q *conf.Data_Queue) (*tls.Config, error) {
	if !q.TLS {
		return nil, nil
	}
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: q.Host,
	}
	if q.CAFile != "" {
		pem, err := os.ReadFile(q.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read broker CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("broker CA file %s contains no certificates", q.CAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// newAMQPConfig returns a durable-queue configuration: the queue is named
// after the topic, bound to the default exchange, declared durable, and
// messages are sent with persistent delivery mode.
func newAMQPConfig(q *conf.Data_Queue) (amqp.Config, error) {
	tlsConfig, err := amqpTLSConfig(q)
	if err != nil {
		return amqp.Config{}, err
	}

	cfg := amqp.NewDurableQueueConfig(amqpURI(q))
	cfg.Connection.TLSConfig = tlsConfig
	cfg.Marshaler = amqp.DefaultMarshaler{
		PostprocessPublishing: func(p amqp091.Publishing) amqp091.Publishing {
			p.ContentType = "application/json"
			return p
		},
	}
	return cfg, nil
}

// brokerPublisher is a message.Publisher that dials the broker lazily and
// redials at most once per retry interval, so a broker outage at startup or
// at runtime only costs failed publishes.
type brokerPublisher struct {
	dial  func() (message.Publisher, error)
	retry time.Duration
	log   *log.Helper

	mu          sync.Mutex
	pub         message.Publisher
	lastAttempt time.Time
	closed      bool
}

// NewBrokerPublisher creates the AMQP publisher used for click events.
func NewBrokerPublisher(c *conf.Data, wmLogger watermill.LoggerAdapter, logger log.Logger) (message.Publisher, error) {
	cfg, err := newAMQPConfig(c.Queue)
	if err != nil {
		return nil, err
	}

	p := newBrokerPublisher(func() (message.Publisher, error) {
		return dialPublisher(cfg, c.Queue.Name, wmLogger)
	}, c.Queue.RetryInterval.Std(), logger)

	if _, err := p.publisher(); err != nil {
		p.log.Errorf("could not connect to message broker at %s: %v", net.JoinHostPort(c.Queue.Host, c.Queue.Port), err)
	}
	return p, nil
}

// dialPublisher connects to the broker and declares the queue behind topic.
// Publishing goes through the default exchange, which drops messages for a
// queue that does not exist yet.
func dialPublisher(cfg amqp.Config, topic string, wmLogger watermill.LoggerAdapter) (message.Publisher, error) {
	pub, err := amqp.NewPublisher(cfg, wmLogger)
	if err != nil {
		return nil, err
	}

	ch, err := pub.Connection().Channel()
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := declareQueue(ch, cfg, topic); err != nil {
		_ = pub.Close()
		return nil, err
	}
	return pub, nil
}

type queueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
}

func declareQueue(ch queueDeclarer, cfg amqp.Config, topic string) error {
	name := cfg.Queue.GenerateName(topic)
	q := cfg.Queue
	if _, err := ch.QueueDeclare(name, q.Durable, q.AutoDelete, q.Exclusive, q.NoWait, q.Arguments); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

func newBrokerPublisher(dial func() (message.Publisher, error), retry time.Duration, logger log.Logger) *brokerPublisher {
	return &brokerPublisher{
		dial:  dial,
		retry: retry,
		log:   log.NewHelper(log.With(logger, "module", "data/broker")),
	}
}

func (p *brokerPublisher) publisher() (message.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errPublisherClosed
	}
	if p.pub != nil {
		return p.pub, nil
	}
	if !p.lastAttempt.IsZero() && time.Since(p.lastAttempt) < p.retry {
		return nil, errBrokerUnavailable
	}

	p.lastAttempt = time.Now()
	pub, err := p.dial()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBrokerUnavailable, err)
	}
	p.pub = pub
	p.log.Info("connected to message broker")
	return pub, nil
}

func (p *brokerPublisher) Publish(topic string, messages ...*message.Message) error {
	pub, err := p.publisher()
	if err != nil {
		return err
	}
	return pub.Publish(topic, messages...)
}

func (p *brokerPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.pub == nil {
		return nil
	}
	return p.pub.Close()
}

// ClickSubscriber dials subscriptions to the click queue.
type ClickSubscriber struct {
	config amqp.Config
	logger watermill.LoggerAdapter
	queue  string
	retry  time.Duration
}

// NewClickSubscriber prepares the AMQP subscriber settings for the analytics consumer.
func NewClickSubscriber(c *conf.Data, wmLogger watermill.LoggerAdapter) (*ClickSubscriber, error) {
	cfg, err := newAMQPConfig(c.Queue)
	if err != nil {
		return nil, err
	}
	return &ClickSubscriber{
		config: cfg,
		logger: wmLogger,
		queue:  c.Queue.Name,
		retry:  c.Queue.RetryInterval.Std(),
	}, nil
}

// Dial connects to the broker and returns a subscriber for the queue.
func (s *ClickSubscriber) Dial() (message.Subscriber, error) {
	sub, err := amqp.NewSubscriber(s.config, s.logger)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Queue is the name of the durable click queue.
func (s *ClickSubscriber) Queue() string {
	return s.queue
}

// RetryInterval is the pause between failed dial attempts.
func (s *ClickSubscriber) RetryInterval() time.Duration {
	return s.retry
}

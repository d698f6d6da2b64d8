package server

import (
	"context"
	"sync"
	"time"

	"linkshrink/internal/service"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
)

const clickHandlerName = "click_consumer"

// SubscriberDialer opens subscriptions to the click queue.
type SubscriberDialer interface {
	Dial() (message.Subscriber, error)
	Queue() string
	RetryInterval() time.Duration
}

var _ transport.Server = (*ConsumerServer)(nil)

// ConsumerServer runs a Watermill router over the click queue as a kratos
// transport server. The broker connection is retried until it succeeds or
// the server is stopped.
type ConsumerServer struct {
	dialer   SubscriberDialer
	consumer *service.ClickConsumer
	router   *message.Router
	log      *log.Helper

	mu  sync.Mutex
	sub message.Subscriber
}

func NewConsumerServer(dialer SubscriberDialer, consumer *service.ClickConsumer, wmLogger watermill.LoggerAdapter, logger log.Logger) (*ConsumerServer, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, err
	}
	router.AddMiddleware(middleware.Recoverer)

	return &ConsumerServer{
		dialer:   dialer,
		consumer: consumer,
		router:   router,
		log:      log.NewHelper(log.With(logger, "module", "server/consumer")),
	}, nil
}

// Start blocks until the router stops.
func (s *ConsumerServer) Start(ctx context.Context) error {
	sub, err := s.dial(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	s.router.AddNoPublisherHandler(clickHandlerName, s.dialer.Queue(), sub, s.consumer.Handle)
	s.log.Infof("[AMQP] waiting for click events on queue %s", s.dialer.Queue())
	return s.router.Run(ctx)
}

func (s *ConsumerServer) Stop(_ context.Context) error {
	s.log.Info("[AMQP] consumer stopping")
	err := s.router.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		if cerr := s.sub.Close(); cerr != nil && err == nil {
			err = cerr
		}
		s.sub = nil
	}
	return err
}

// Running is closed once the router has started handling messages.
func (s *ConsumerServer) Running() chan struct{} {
	return s.router.Running()
}

func (s *ConsumerServer) dial(ctx context.Context) (message.Subscriber, error) {
	for {
		sub, err := s.dialer.Dial()
		if err == nil {
			return sub, nil
		}
		s.log.Warnf("connection to message broker failed, retrying in %s: %v", s.dialer.RetryInterval(), err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.dialer.RetryInterval()):
		}
	}
}

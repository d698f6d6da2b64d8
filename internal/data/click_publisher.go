package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"linkshrink/internal/biz"
	"linkshrink/internal/conf"
	"linkshrink/internal/metrics"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	defaultPublishTimeout = 2 * time.Second
	defaultDrainTimeout   = 5 * time.Second
)

// Compile-time interface check
var _ biz.ClickPublisher = (*clickPublisher)(nil)

// clickPublisher queues click events in a bounded buffer that background
// workers drain to the broker. Publish never blocks: a full buffer drops the
// event.
type clickPublisher struct {
	publisher message.Publisher
	topic     string
	timeout   time.Duration
	events    chan biz.ClickEvent
	done      chan struct{}
	abort     chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	log       *log.Helper
}

// NewClickPublisher starts the publish workers. The returned cleanup drains
// the buffer and closes the broker publisher, giving up after the drain
// timeout.
func NewClickPublisher(c *conf.Data, publisher message.Publisher, logger log.Logger) (biz.ClickPublisher, func()) {
	p := newClickPublisher(publisher, c.Queue.Name, c.Queue.PublishTimeout.Std(), c.Queue.Buffer, c.Queue.Workers, logger)
	drain := lo.CoalesceOrEmpty(c.Queue.DrainTimeout.Std(), defaultDrainTimeout)
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		p.close(ctx)
	}
	return p, cleanup
}

func newClickPublisher(publisher message.Publisher, topic string, timeout time.Duration, buffer, workers int, logger log.Logger) *clickPublisher {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	p := &clickPublisher{
		publisher: publisher,
		topic:     topic,
		timeout:   timeout,
		events:    make(chan biz.ClickEvent, buffer),
		done:      make(chan struct{}),
		abort:     make(chan struct{}),
		log:       log.NewHelper(log.With(logger, "module", "data/click_publisher")),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

// Publish hands the event to the background workers.
func (p *clickPublisher) Publish(ctx context.Context, event biz.ClickEvent) {
	select {
	case <-p.done:
		p.log.WithContext(ctx).Warnf("publisher closed, dropping click event for %s", event.ShortCode)
		metrics.RecordClickEvent(metrics.PublishDropped)
		return
	default:
	}

	select {
	case p.events <- event:
	default:
		p.log.WithContext(ctx).Warnf("click buffer full, dropping click event for %s", event.ShortCode)
		metrics.RecordClickEvent(metrics.PublishDropped)
	}
}

func (p *clickPublisher) run() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.events:
			p.send(event)
		case <-p.done:
			p.drain()
			return
		}
	}
}

func (p *clickPublisher) drain() {
	for {
		select {
		case <-p.abort:
			return
		default:
		}
		select {
		case event := <-p.events:
			p.send(event)
		default:
			return
		}
	}
}

func newClickMessage(event biz.ClickEvent) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	msg := message.NewMessage(uuid.Must(uuid.NewV7()).String(), payload)
	msg.Metadata.Set("short_code", event.ShortCode)
	return msg, nil
}

// send publishes one event. The broker client does not honour contexts, so
// the call is abandoned once the publish timeout expires.
func (p *clickPublisher) send(event biz.ClickEvent) {
	msg, err := newClickMessage(event)
	if err != nil {
		p.log.Errorf("could not encode click event for %s: %v", event.ShortCode, err)
		metrics.RecordClickEvent(metrics.PublishFailed)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	msg.SetContext(ctx)

	result := make(chan error, 1)
	go func() {
		result <- p.publisher.Publish(p.topic, msg)
	}()

	select {
	case err = <-result:
	case <-ctx.Done():
		err = fmt.Errorf("publish timed out after %s: %w", p.timeout, ctx.Err())
	}
	if err != nil {
		p.log.Errorf("could not publish click event for %s: %v", event.ShortCode, err)
		metrics.RecordClickEvent(metrics.PublishFailed)
		return
	}
	p.log.Debugf("published click event for %s", event.ShortCode)
	metrics.RecordClickEvent(metrics.PublishPublished)
}

// close stops accepting events, flushes the buffer and closes the broker
// publisher. Whatever is still pending when ctx expires is dropped.
func (p *clickPublisher) close(ctx context.Context) {
	p.closeOnce.Do(func() {
		close(p.done)

		drained := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-ctx.Done():
			close(p.abort)
			p.log.Warnf("click buffer not drained before shutdown, dropping %d events: %v", len(p.events), ctx.Err())
		}

		closed := make(chan error, 1)
		go func() {
			closed <- p.publisher.Close()
		}()
		select {
		case err := <-closed:
			if err != nil {
				p.log.Errorf("failed to close click publisher: %v", err)
			}
		case <-ctx.Done():
			p.log.Warnf("gave up closing click publisher: %v", ctx.Err())
		}
	})
}

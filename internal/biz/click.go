package biz

import (
	"context"

	"linkshrink/internal/metrics"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// ErrInvalidClickEvent is returned for events that can never be recorded.
var ErrInvalidClickEvent = errors.BadRequest("INVALID_CLICK_EVENT", "click event has no short code")

// ClickCounter keeps a running click total per short code.
type ClickCounter interface {
	Increment(ctx context.Context, shortCode string) (int64, error)
}

// ClickUsecase records click events consumed from the analytics queue.
type ClickUsecase struct {
	counter ClickCounter
	log     *log.Helper
}

func NewClickUsecase(counter ClickCounter, logger log.Logger) *ClickUsecase {
	return &ClickUsecase{
		counter: counter,
		log:     log.NewHelper(log.With(logger, "module", "biz/click")),
	}
}

// Record increments the click total for the event's short code.
func (uc *ClickUsecase) Record(ctx context.Context, evt ClickEvent) error {
	if evt.ShortCode == "" {
		return ErrInvalidClickEvent
	}

	total, err := uc.counter.Increment(ctx, evt.ShortCode)
	if err != nil {
		return err
	}

	metrics.RecordClickStored()
	uc.log.WithContext(ctx).Infof("received click event for %s at %s (total %d)",
		evt.ShortCode, evt.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), total)
	return nil
}

package service

import (
	"encoding/json"

	"linkshrink/internal/biz"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// ClickConsumer turns queue messages into recorded clicks.
type ClickConsumer struct {
	uc  *biz.ClickUsecase
	log *log.Helper
}

func NewClickConsumer(uc *biz.ClickUsecase, logger log.Logger) *ClickConsumer {
	return &ClickConsumer{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "service/click")),
	}
}

// Handle records one click event. Messages that can never succeed are
// logged and acked; storage failures return an error so the message is
// redelivered.
func (c *ClickConsumer) Handle(msg *message.Message) error {
	var evt biz.ClickEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		c.log.Warnf("dropping malformed click event %s: %v", msg.UUID, err)
		return nil
	}

	if err := c.uc.Record(msg.Context(), evt); err != nil {
		if errors.IsBadRequest(err) {
			c.log.Warnf("dropping click event %s: %v", msg.UUID, err)
			return nil
		}
		c.log.Errorf("failed to record click event %s for %s: %v", msg.UUID, evt.ShortCode, err)
		return err
	}
	return nil
}

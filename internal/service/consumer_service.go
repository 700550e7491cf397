// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"ml-segregation-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService forwards in-process ingestion nudges to the
// orchestrator so a collecting pipeline re-checks the threshold right
// away instead of waiting for its poll interval.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	nudger    Nudger
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	nudger Nudger,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		nudger:    nudger,
		logger:    log,
	}
}

// Consume blocks until the context is cancelled.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	for msg := range messages {
		cs.processMessage(msg)
	}
	return ctx.Err()
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload SessionIngestedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to unmarshal nudge message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Debug("ConsumerService", "Ingestion nudge received", map[string]interface{}{
		"stored": payload.Stored,
	})
	cs.nudger.Nudge()
	msg.Ack()
}

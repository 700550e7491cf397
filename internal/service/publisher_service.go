package service

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// SessionIngestedMessage is the in-process nudge published after a batch
// of sessions is stored.
type SessionIngestedMessage struct {
	Stored   int       `json:"stored"`
	StoredAt time.Time `json:"stored_at"`
}

type IPublisherService interface {
	PublishSessionsIngested(stored int) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) PublishSessionsIngested(stored int) error {
	payload, err := json.Marshal(SessionIngestedMessage{
		Stored:   stored,
		StoredAt: time.Now(),
	})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	return ps.pubSub.Publish(ps.topicName, msg)
}

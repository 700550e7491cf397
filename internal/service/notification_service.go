package service

import (
	"context"
	"strings"
	"time"

	"ml-segregation-be/internal/config"
	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/internal/pkg/mailer"
	"ml-segregation-be/pkg/events"
	pktNats "ml-segregation-be/pkg/nats" // Renamed to avoid collision
)

// FeedDelivery pushes real-time pipeline updates to connected reviewer
// sessions. Typically implemented by the WebSocket Hub.
type FeedDelivery interface {
	Broadcast(message interface{})
}

// FeedMessage is the envelope the hub broadcasts for every pipeline event.
type FeedMessage struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NotificationService bridges pipeline events to the reviewer: every event
// goes onto the live feed, and the two events that require or summarize
// human action additionally go out as email.
type NotificationService struct {
	subscriber   *pktNats.Subscriber
	delivery     FeedDelivery
	emailService mailer.IEmailService
	authCfg      config.AuthConfig
	smtpCfg      config.SMTPConfig
	logger       logger.ILogger
}

func NewNotificationService(
	sub *pktNats.Subscriber,
	delivery FeedDelivery,
	emailService mailer.IEmailService,
	authCfg config.AuthConfig,
	smtpCfg config.SMTPConfig,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		subscriber:   sub,
		delivery:     delivery,
		emailService: emailService,
		authCfg:      authCfg,
		smtpCfg:      smtpCfg,
		logger:       log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "pipeline-feed-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start feed subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Feed service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// The NATS subject includes the stream prefix; strip it back to the
	// bare type code.
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	s.logger.Debug("NotificationService", "Processing pipeline event", map[string]interface{}{"type": typeCode})

	if s.delivery != nil {
		s.delivery.Broadcast(FeedMessage{
			Type:       typeCode,
			Data:       event.Payload(),
			OccurredAt: time.Now(),
		})
	}

	switch typeCode {
	case events.TypeReviewRequested:
		s.emailReviewRequested(event.Payload())
	case events.TypeSetsDispatched:
		s.emailSetsDispatched(event.Payload())
	}

	return nil
}

func (s *NotificationService) emailReviewRequested(payload map[string]interface{}) {
	if !s.emailConfigured() {
		return
	}

	gate, _ := payload["gate"].(string)
	artifactPath, _ := payload["artifact_path"].(string)
	total := asInt64(payload["total"])

	go func() {
		if err := s.emailService.SendReviewRequested(s.authCfg.AnalystEmail, gate, artifactPath, total); err != nil {
			s.logger.Warn("NotificationService", "Failed to send review request email", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (s *NotificationService) emailSetsDispatched(payload map[string]interface{}) {
	if !s.emailConfigured() {
		return
	}

	train := int(asInt64(payload["train"]))
	validation := int(asInt64(payload["validation"]))
	test := int(asInt64(payload["test"]))

	go func() {
		if err := s.emailService.SendSetsDispatched(s.authCfg.AnalystEmail, train, validation, test); err != nil {
			s.logger.Warn("NotificationService", "Failed to send dispatch summary email", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (s *NotificationService) emailConfigured() bool {
	return s.emailService != nil && s.smtpCfg.Host != "" && s.authCfg.AnalystEmail != ""
}

// asInt64 tolerates the float64 that numbers become after a JSON round
// trip through the bus.
func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"lingorelay/internal/models"
)

// Relay event channels. Dashboard consumers subscribe to these to
// observe traffic live instead of polling MongoDB.
const (
	ChannelTranslations = "relay:translations"
	ChannelReplies      = "relay:replies"
)

// RelayEvent is the message shape published on the relay channels.
type RelayEvent struct {
	Type            string    `json:"type"` // "message_translated" or "reply_delivered"
	InstanceID      string    `json:"instanceId"`
	ChatID          int64     `json:"chatId"`
	SourceMessageID int64     `json:"sourceMessageId"`
	PostedMessageID int64     `json:"postedMessageId"`
	SourceLanguage  string    `json:"sourceLanguage"`
	Timestamp       time.Time `json:"timestamp"`
}

// PubSubService publishes relay events to Redis for live dashboard
// consumers. Publishing is fire-and-forget; a failed publish is logged
// and never blocks the pipeline.
type PubSubService struct {
	redis      *RedisService
	instanceID string
}

// NewPubSubService creates a publish-only pub/sub service.
func NewPubSubService(redisService *RedisService) *PubSubService {
	return &PubSubService{
		redis:      redisService,
		instanceID: uuid.New().String(),
	}
}

// PublishTranslated announces a newly posted translation.
func (s *PubSubService) PublishTranslated(ctx context.Context, rec *models.TranslationRecord) {
	s.publish(ctx, ChannelTranslations, RelayEvent{
		Type:            "message_translated",
		InstanceID:      s.instanceID,
		ChatID:          rec.ChatID,
		SourceMessageID: rec.SourceMessageID,
		PostedMessageID: rec.PostedMessageID,
		SourceLanguage:  rec.SourceLanguage,
		Timestamp:       time.Now().UTC(),
	})
}

// PublishReplyDelivered announces a delivered agent reply.
func (s *PubSubService) PublishReplyDelivered(ctx context.Context, rec *models.TranslationRecord) {
	s.publish(ctx, ChannelReplies, RelayEvent{
		Type:            "reply_delivered",
		InstanceID:      s.instanceID,
		ChatID:          rec.ChatID,
		SourceMessageID: rec.SourceMessageID,
		PostedMessageID: rec.PostedMessageID,
		SourceLanguage:  rec.SourceLanguage,
		Timestamp:       time.Now().UTC(),
	})
}

func (s *PubSubService) publish(ctx context.Context, channel string, event RelayEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ [PUBSUB] Failed to marshal event: %v", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.redis.Client().Publish(pubCtx, channel, payload).Err(); err != nil {
		log.Printf("⚠️ [PUBSUB] Failed to publish to %s: %v", channel, err)
	}
}

package services

import (
	"context"
	"errors"
	"log"
	"time"

	"lingorelay/internal/logging"
	"lingorelay/internal/models"
)

// Detector identifies the language of a text with a confidence score.
type Detector interface {
	Detect(text string) (lang string, confidence float64, err error)
}

// Translator translates text between two languages.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// PostOptions controls how a message is posted to a chat.
type PostOptions struct {
	ReplyToMessageID         int64
	DisableNotification      bool
	AllowSendingWithoutReply bool
}

// Transport posts messages into chats and reports the posted message ID.
type Transport interface {
	PostMessage(ctx context.Context, chatID int64, text string, opts PostOptions) (int64, error)
}

// RouterService drives the relay pipeline: it decides for every
// inbound event whether to detect, translate, forward, or ignore, and
// it owns all correlation store writes.
type RouterService struct {
	detector   Detector
	translator Translator
	transport  Transport
	store      *CorrelationStore
	analytics  *AnalyticsService // optional
	events     *PubSubService    // optional
	threshold  float64
	metrics    *Metrics
}

// NewRouterService creates the relay orchestrator. analytics and
// events may be nil when those backends are not configured.
func NewRouterService(
	detector Detector,
	translator Translator,
	transport Transport,
	store *CorrelationStore,
	analytics *AnalyticsService,
	events *PubSubService,
	threshold float64,
	metrics *Metrics,
) *RouterService {
	return &RouterService{
		detector:   detector,
		translator: translator,
		transport:  transport,
		store:      store,
		analytics:  analytics,
		events:     events,
		threshold:  threshold,
		metrics:    metrics,
	}
}

// HandleInbound processes a new (non-reply) chat message: detect the
// language, translate to English when foreign and confidently
// detected, post the translation threaded to the original, and
// register the correlation record. Failures drop the message from the
// pipeline; the original stays untouched.
func (s *RouterService) HandleInbound(ctx context.Context, msg *models.TelegramMessage) {
	if msg == nil || msg.Text == "" || msg.Chat == nil || msg.From == nil {
		return
	}

	// Redelivery of an already-handled message must not double-post.
	seen, err := s.store.SeenSource(msg.Chat.ID, msg.MessageID)
	if err != nil {
		log.Printf("❌ [ROUTER] Dedupe check failed for message %d: %v", msg.MessageID, err)
		s.metrics.Error("store")
		return
	}
	if seen {
		log.Printf("🔁 [ROUTER] Message %d in chat %d already handled, skipping", msg.MessageID, msg.Chat.ID)
		s.metrics.Ignored("duplicate")
		return
	}

	lang, confidence, err := s.detector.Detect(msg.Text)
	if err != nil {
		log.Printf("❌ [ROUTER] Language detection failed for message %d: %v", msg.MessageID, err)
		s.metrics.Error("detection")
		return
	}

	logger := logging.WithMessage(msg.Chat.ID, msg.MessageID, lang)

	if lang == "en" {
		logger.Debug("message already in English, ignoring")
		s.metrics.Ignored("english")
		return
	}
	if confidence < s.threshold {
		logger.Debug("detection confidence below threshold, ignoring", "confidence", confidence, "threshold", s.threshold)
		s.metrics.Ignored("low_confidence")
		return
	}

	logger.Info("translating message to English", "confidence", confidence)

	translated, err := s.translator.Translate(ctx, msg.Text, lang, "en")
	if err != nil {
		logger.Error("translation failed, message dropped", "error", err)
		s.metrics.Error("translation")
		return
	}

	postedID, err := s.transport.PostMessage(ctx, msg.Chat.ID, translated, PostOptions{
		ReplyToMessageID:         msg.MessageID,
		DisableNotification:      true,
		AllowSendingWithoutReply: true,
	})
	if err != nil {
		logger.Error("failed to post translation", "error", err)
		s.metrics.Error("transport")
		return
	}

	rec := &models.TranslationRecord{
		PostedMessageID: postedID,
		SourceMessageID: msg.MessageID,
		ChatID:          msg.Chat.ID,
		UserID:          msg.From.ID,
		SourceLanguage:  lang,
		OriginalText:    msg.Text,
		TranslatedText:  translated,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.store.Put(rec); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			// Should never happen with correct dedupe; treat as handled.
			logger.Error("duplicate posted message id, event treated as already handled", "posted_id", postedID)
		} else {
			logger.Error("failed to store correlation record", "error", err)
			s.metrics.Error("store")
		}
		return
	}

	logger.Info("stored translation record", "posted_id", postedID)
	s.metrics.Translated()

	if s.analytics != nil {
		if err := s.analytics.StoreMessage(ctx, msg, lang, translated); err != nil {
			logger.Error("failed to mirror message to analytics", "error", err)
		}
	}
	if s.events != nil {
		s.events.PublishTranslated(ctx, rec)
	}
}

// HandleReply processes an agent reply. When the replied-to message is
// one of the relay's posted translations, the reply is translated back
// to the original sender's language and posted threaded to their
// original message. Replies to anything else are ignored.
func (s *RouterService) HandleReply(ctx context.Context, msg *models.TelegramMessage) {
	if msg == nil || msg.Text == "" || msg.Chat == nil || !msg.IsReply() {
		return
	}

	repliedToID := msg.ReplyToMessage.MessageID
	logger := logging.WithReply(msg.Chat.ID, repliedToID)

	rec, err := s.store.Get(repliedToID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Debug("reply does not target a known translation thread, ignoring")
			s.metrics.Unresolved()
		} else {
			logger.Error("correlation lookup failed", "error", err)
			s.metrics.Error("store")
		}
		return
	}

	// Telegram message IDs are scoped per chat; a same-ID message from
	// another chat must not resolve this thread.
	if rec.ChatID != msg.Chat.ID {
		logger.Debug("record belongs to a different chat, ignoring")
		s.metrics.Unresolved()
		return
	}

	logger.Info("agent replying to translated message", "original_language", rec.SourceLanguage)

	// Agent replies are assumed to be English.
	translated, err := s.translator.Translate(ctx, msg.Text, "en", rec.SourceLanguage)
	if err != nil {
		logger.Error("reply translation failed", "error", err)
		s.metrics.Error("translation")
		return
	}

	_, err = s.transport.PostMessage(ctx, rec.ChatID, translated, PostOptions{
		ReplyToMessageID: rec.SourceMessageID,
	})
	if err != nil {
		logger.Error("failed to post translated reply", "error", err)
		s.metrics.Error("transport")
		return
	}

	logger.Info("delivered translated reply", "target_language", rec.SourceLanguage)
	s.metrics.Delivered()

	if s.events != nil {
		s.events.PublishReplyDelivered(ctx, rec)
	}
}

package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithMessage returns a logger with inbound message context fields attached.
// Use this for all logging while relaying a single message.
func WithMessage(chatID, messageID int64, lang string) *slog.Logger {
	return slog.With(
		"chat_id", chatID,
		"message_id", messageID,
		"language", lang,
	)
}

// WithReply returns a logger scoped to an agent reply being resolved.
func WithReply(chatID, repliedToID int64) *slog.Logger {
	return slog.With(
		"chat_id", chatID,
		"replied_to_id", repliedToID,
	)
}

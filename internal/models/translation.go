package models

import "time"

// TranslationRecord binds a posted translation message to the original
// message it was produced from. PostedMessageID is the sole key used to
// resolve an agent reply back onto the original thread. Records are
// immutable after creation - replies only read them.
type TranslationRecord struct {
	PostedMessageID int64  // ID of the translated message the relay posted
	SourceMessageID int64  // ID of the user's original message
	ChatID          int64  // chat the reply must be posted into
	UserID          int64  // original author
	SourceLanguage  string // detected ISO 639-1 code
	OriginalText    string
	TranslatedText  string
	CreatedAt       time.Time
}

// MessageDocument is the analytics mirror of a relayed message, stored
// in MongoDB for the dashboard. Mirrors the durable record plus user
// identity and the English rendering of the message.
type MessageDocument struct {
	User struct {
		UserID    int64  `bson:"user_id"`
		Username  string `bson:"username,omitempty"`
		FirstName string `bson:"first_name,omitempty"`
		LastName  string `bson:"last_name,omitempty"`
	} `bson:"user"`
	Message struct {
		ChatID       int64  `bson:"chat_id"`
		MessageID    int64  `bson:"message_id"`
		OriginalText string `bson:"original_text"`
		OriginalLang string `bson:"original_lang"`
		EnglishText  string `bson:"english_text"`
	} `bson:"message"`
	Timestamp time.Time `bson:"timestamp"`
	CreatedAt time.Time `bson:"created_at"`
}

// LanguageStat is one bucket of the per-language message aggregation.
type LanguageStat struct {
	Language string `bson:"_id" json:"language"`
	Count    int64  `bson:"count" json:"count"`
}

// RelayStats is the aggregate view served by the stats API.
type RelayStats struct {
	TotalMessages int64          `json:"totalMessages"`
	UniqueUsers   int64          `json:"uniqueUsers"`
	Languages     []LanguageStat `json:"languages"`
}

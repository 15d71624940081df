package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"lingorelay/internal/models"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection at the given path.
// The parent directory is created if it does not exist.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; serialize access through one connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("✅ SQLite database opened at %s", path)

	return &DB{db}, nil
}

// Initialize creates all required tables
func (db *DB) Initialize() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS translated_messages (
			translated_message_id INTEGER PRIMARY KEY,
			original_message_id   INTEGER NOT NULL,
			chat_id               INTEGER NOT NULL,
			user_id               INTEGER NOT NULL,
			original_language     TEXT NOT NULL,
			original_text         TEXT NOT NULL,
			translated_text       TEXT NOT NULL,
			created_at            INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_translated_messages_original
			ON translated_messages (chat_id, original_message_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Println("✅ Database initialized successfully")
	return nil
}

// InsertTranslation stores a translation record. The primary key on
// translated_message_id rejects duplicate posted-message IDs.
func (db *DB) InsertTranslation(rec *models.TranslationRecord) error {
	_, err := db.Exec(`
		INSERT INTO translated_messages (
			translated_message_id, original_message_id, chat_id, user_id,
			original_language, original_text, translated_text, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.PostedMessageID, rec.SourceMessageID, rec.ChatID, rec.UserID,
		rec.SourceLanguage, rec.OriginalText, rec.TranslatedText, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert translation: %w", err)
	}
	return nil
}

// GetByPostedID retrieves the record keyed by a posted translation
// message ID. Returns (nil, nil) when no row exists.
func (db *DB) GetByPostedID(postedMessageID int64) (*models.TranslationRecord, error) {
	row := db.QueryRow(`
		SELECT translated_message_id, original_message_id, chat_id, user_id,
		       original_language, original_text, translated_text, created_at
		FROM translated_messages
		WHERE translated_message_id = ?
	`, postedMessageID)

	var rec models.TranslationRecord
	var createdAt int64
	err := row.Scan(
		&rec.PostedMessageID, &rec.SourceMessageID, &rec.ChatID, &rec.UserID,
		&rec.SourceLanguage, &rec.OriginalText, &rec.TranslatedText, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query translation: %w", err)
	}

	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rec, nil
}

// HasSource reports whether a record already exists for the given
// original message. Used by the dedupe check on redelivery. Message
// IDs are scoped per chat, so both are matched.
func (db *DB) HasSource(chatID, sourceMessageID int64) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM translated_messages
		WHERE chat_id = ? AND original_message_id = ?
	`, chatID, sourceMessageID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check source message: %w", err)
	}
	return count > 0, nil
}

// DeleteOlderThan removes rows created before now-age and returns the
// number of rows deleted. Irreversible.
func (db *DB) DeleteOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).Unix()
	result, err := db.Exec(`DELETE FROM translated_messages WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old translations: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

package database

import (
	"path/filepath"
	"testing"
	"time"

	"lingorelay/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	return db
}

func TestInsertAndGetTranslation(t *testing.T) {
	db := openTestDB(t)

	rec := &models.TranslationRecord{
		PostedMessageID: 501,
		SourceMessageID: 1,
		ChatID:          -100,
		UserID:          42,
		SourceLanguage:  "es",
		OriginalText:    "Hola, necesito ayuda",
		TranslatedText:  "Hello, I need help",
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}

	if err := db.InsertTranslation(rec); err != nil {
		t.Fatalf("InsertTranslation failed: %v", err)
	}

	got, err := db.GetByPostedID(501)
	if err != nil {
		t.Fatalf("GetByPostedID failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected record, got nil")
	}
	if got.SourceMessageID != 1 || got.ChatID != -100 || got.UserID != 42 {
		t.Errorf("Record identity fields wrong: %+v", got)
	}
	if got.SourceLanguage != "es" || got.OriginalText != rec.OriginalText || got.TranslatedText != rec.TranslatedText {
		t.Errorf("Record content fields wrong: %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt mismatch: want %v, got %v", rec.CreatedAt, got.CreatedAt)
	}
}

func TestGetByPostedIDMissing(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetByPostedID(999)
	if err != nil {
		t.Fatalf("GetByPostedID failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing row, got %+v", got)
	}
}

func TestInsertDuplicatePostedIDFails(t *testing.T) {
	db := openTestDB(t)

	rec := &models.TranslationRecord{
		PostedMessageID: 501,
		SourceMessageID: 1,
		ChatID:          -100,
		UserID:          42,
		SourceLanguage:  "es",
		OriginalText:    "a",
		TranslatedText:  "b",
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.InsertTranslation(rec); err != nil {
		t.Fatalf("InsertTranslation failed: %v", err)
	}
	if err := db.InsertTranslation(rec); err == nil {
		t.Fatal("Expected primary key violation on duplicate posted ID")
	}
}

func TestHasSource(t *testing.T) {
	db := openTestDB(t)

	rec := &models.TranslationRecord{
		PostedMessageID: 501,
		SourceMessageID: 1,
		ChatID:          -100,
		UserID:          42,
		SourceLanguage:  "es",
		OriginalText:    "a",
		TranslatedText:  "b",
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.InsertTranslation(rec); err != nil {
		t.Fatalf("InsertTranslation failed: %v", err)
	}

	found, err := db.HasSource(-100, 1)
	if err != nil {
		t.Fatalf("HasSource failed: %v", err)
	}
	if !found {
		t.Error("Expected source (-100, 1) to exist")
	}

	found, err = db.HasSource(-200, 1)
	if err != nil {
		t.Fatalf("HasSource failed: %v", err)
	}
	if found {
		t.Error("Same message ID in a different chat must not match")
	}
}

func TestDeleteOlderThan(t *testing.T) {
	db := openTestDB(t)

	old := &models.TranslationRecord{
		PostedMessageID: 501,
		SourceMessageID: 1,
		ChatID:          -100,
		UserID:          42,
		SourceLanguage:  "es",
		OriginalText:    "a",
		TranslatedText:  "b",
		CreatedAt:       time.Now().Add(-48 * time.Hour).UTC(),
	}
	fresh := &models.TranslationRecord{
		PostedMessageID: 502,
		SourceMessageID: 2,
		ChatID:          -100,
		UserID:          42,
		SourceLanguage:  "fr",
		OriginalText:    "c",
		TranslatedText:  "d",
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.InsertTranslation(old); err != nil {
		t.Fatalf("InsertTranslation failed: %v", err)
	}
	if err := db.InsertTranslation(fresh); err != nil {
		t.Fatalf("InsertTranslation failed: %v", err)
	}

	deleted, err := db.DeleteOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted row, got %d", deleted)
	}

	got, err := db.GetByPostedID(501)
	if err != nil || got != nil {
		t.Errorf("Old row should be gone, got %+v (err %v)", got, err)
	}
	got, err = db.GetByPostedID(502)
	if err != nil || got == nil {
		t.Errorf("Fresh row should survive, got %+v (err %v)", got, err)
	}
}

package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"lingorelay/internal/models"
)

func TestTelegram_PostMessage(t *testing.T) {
	var received map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"message_id": 501},
		})
	}))
	defer server.Close()

	svc := NewTelegramService("test-token", 30)
	svc.apiBase = server.URL

	postedID, err := svc.PostMessage(context.Background(), -100, "Hello, I need help", PostOptions{
		ReplyToMessageID:         1,
		DisableNotification:      true,
		AllowSendingWithoutReply: true,
	})
	if err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}
	if postedID != 501 {
		t.Errorf("Expected posted message ID 501, got %d", postedID)
	}

	if received["text"] != "Hello, I need help" {
		t.Errorf("Unexpected text %v", received["text"])
	}
	if received["reply_to_message_id"] != float64(1) {
		t.Errorf("Expected reply_to_message_id 1, got %v", received["reply_to_message_id"])
	}
	if received["disable_notification"] != true {
		t.Error("Expected disable_notification true")
	}
	if received["allow_sending_without_reply"] != true {
		t.Error("Expected allow_sending_without_reply true")
	}
}

func TestTelegram_PostMessageAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	svc := NewTelegramService("test-token", 30)
	svc.apiBase = server.URL

	_, err := svc.PostMessage(context.Background(), -100, "hi", PostOptions{})
	if err == nil {
		t.Fatal("Expected error from API failure")
	}
}

func TestTelegram_DispatchRouting(t *testing.T) {
	svc := NewTelegramService("test-token", 30)

	var mu sync.Mutex
	var inbound, replies int

	svc.SetHandlers(
		func(ctx context.Context, msg *models.TelegramMessage) {
			mu.Lock()
			inbound++
			mu.Unlock()
		},
		func(ctx context.Context, msg *models.TelegramMessage) {
			mu.Lock()
			replies++
			mu.Unlock()
		},
	)

	user := &models.TelegramUser{ID: 42, FirstName: "Ana"}
	chat := &models.TelegramChat{ID: -100, Type: "group"}

	svc.dispatch(&models.TelegramMessage{MessageID: 1, From: user, Chat: chat, Text: "Hola"})
	svc.dispatch(&models.TelegramMessage{
		MessageID: 2, From: user, Chat: chat, Text: "We can help",
		ReplyToMessage: &models.TelegramMessage{MessageID: 501},
	})
	// Commands and bot senders are dropped.
	svc.dispatch(&models.TelegramMessage{MessageID: 3, From: user, Chat: chat, Text: "/start"})
	svc.dispatch(&models.TelegramMessage{
		MessageID: 4,
		From:      &models.TelegramUser{ID: 99, IsBot: true},
		Chat:      chat, Text: "bot noise",
	})

	svc.wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if inbound != 1 {
		t.Errorf("Expected 1 inbound dispatch, got %d", inbound)
	}
	if replies != 1 {
		t.Errorf("Expected 1 reply dispatch, got %d", replies)
	}
}

func TestTelegram_GetMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"username": "relay_bot"},
		})
	}))
	defer server.Close()

	svc := NewTelegramService("test-token", 30)
	svc.apiBase = server.URL

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	username, err := svc.GetMe(ctx)
	if err != nil {
		t.Fatalf("GetMe failed: %v", err)
	}
	if username != "relay_bot" {
		t.Errorf("Expected relay_bot, got %q", username)
	}
}

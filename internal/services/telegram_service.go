package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"lingorelay/internal/models"
)

const telegramAPIBase = "https://api.telegram.org"

// MessageHandler processes one inbound Telegram message.
type MessageHandler func(ctx context.Context, msg *models.TelegramMessage)

// TelegramService speaks the Telegram Bot API directly over HTTP:
// long polling for updates in, sendMessage out. It implements the
// Transport interface consumed by the router.
type TelegramService struct {
	botToken    string
	pollTimeout int
	apiBase     string

	httpClient    *http.Client
	pollingClient *http.Client

	// Bot API allows ~30 messages/second overall; stay under it.
	limiter *rate.Limiter

	inboundHandler MessageHandler
	replyHandler   MessageHandler

	mu         sync.Mutex
	running    bool
	stopChan   chan struct{}
	wg         sync.WaitGroup
	lastOffset int64
}

// NewTelegramService creates the transport for the given bot token.
// pollTimeout is the long-polling timeout in seconds.
func NewTelegramService(botToken string, pollTimeout int) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		pollTimeout: pollTimeout,
		apiBase:     telegramAPIBase,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		// Long-polling requests block up to pollTimeout server-side.
		pollingClient: &http.Client{Timeout: time.Duration(pollTimeout+15) * time.Second},
		limiter:       rate.NewLimiter(rate.Limit(25), 5),
	}
}

// SetHandlers registers the two event sinks: non-reply text messages
// go to inbound, threaded replies go to reply.
func (s *TelegramService) SetHandlers(inbound, reply MessageHandler) {
	s.inboundHandler = inbound
	s.replyHandler = reply
}

// GetMe verifies the bot token and returns the bot's username.
func (s *TelegramService) GetMe(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/bot%s/getMe", s.apiBase, s.botToken)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach Telegram API: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK     bool `json:"ok"`
		Result struct {
			Username string `json:"username"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode getMe response: %w", err)
	}
	if !result.OK {
		return "", fmt.Errorf("invalid bot token")
	}

	return result.Result.Username, nil
}

// PostMessage sends a text message to a chat and returns the posted
// message ID. Reply threading and notification behavior come from
// opts.
func (s *TelegramService) PostMessage(ctx context.Context, chatID int64, text string, opts PostOptions) (int64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)

	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if opts.ReplyToMessageID != 0 {
		payload["reply_to_message_id"] = opts.ReplyToMessageID
	}
	if opts.DisableNotification {
		payload["disable_notification"] = true
	}
	if opts.AllowSendingWithoutReply {
		payload["allow_sending_without_reply"] = true
	}

	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send Telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("Telegram API error: %s", string(bodyBytes))
	}

	var result struct {
		OK     bool                    `json:"ok"`
		Result *models.TelegramMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode sendMessage response: %w", err)
	}
	if !result.OK || result.Result == nil {
		return 0, fmt.Errorf("Telegram API returned not OK")
	}

	return result.Result.MessageID, nil
}

// StartPolling begins the long-polling loop. Each message is handled
// on its own goroutine so one slow translation never stalls messages
// from other chats.
func (s *TelegramService) StartPolling() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runPoller()

	log.Println("📡 [POLLING] Polling loop started")
}

// Stop terminates the polling loop and waits for in-flight handlers.
func (s *TelegramService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	log.Println("📡 [POLLING] Poller stopped")
}

func (s *TelegramService) runPoller() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		default:
			updates, err := s.getUpdates()
			if err != nil {
				log.Printf("⚠️ [POLLING] Error getting updates: %v", err)
				time.Sleep(5 * time.Second)
				continue
			}

			for _, update := range updates {
				if update.UpdateID >= s.lastOffset {
					s.lastOffset = update.UpdateID + 1
				}
				if update.Message != nil {
					s.dispatch(update.Message)
				}
			}
		}
	}
}

// dispatch routes a message to the inbound or reply handler.
func (s *TelegramService) dispatch(msg *models.TelegramMessage) {
	if msg.Text == "" || msg.From == nil || msg.From.IsBot {
		return
	}
	// Bot commands are not chat content.
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	handler := s.inboundHandler
	if msg.IsReply() {
		handler = s.replyHandler
	}
	if handler == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		handler(context.Background(), msg)
	}()
}

// getUpdates fetches updates using long polling
func (s *TelegramService) getUpdates() ([]*models.TelegramUpdate, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates?timeout=%d&allowed_updates=[\"message\"]",
		s.apiBase, s.botToken, s.pollTimeout)
	if s.lastOffset > 0 {
		url += fmt.Sprintf("&offset=%d", s.lastOffset)
	}

	req, _ := http.NewRequest("GET", url, nil)

	resp, err := s.pollingClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get updates: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK     bool                     `json:"ok"`
		Result []*models.TelegramUpdate `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("Telegram API returned not OK")
	}

	return result.Result, nil
}

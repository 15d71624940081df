package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// TranslationService translates text between languages using an
// OpenAI-compatible chat-completions endpoint.
type TranslationService struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewTranslationService creates a translation gateway against the
// given base URL (Groq, OpenAI, or any compatible endpoint).
func NewTranslationService(baseURL, apiKey, model string, timeout time.Duration) *TranslationService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "translator",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("⚡ [TRANSLATOR] Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	log.Printf("✅ Translation gateway initialized (model: %s)", model)

	return &TranslationService{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		breaker: breaker,
	}
}

// Translate translates text from sourceLang to targetLang. Identical
// source and target short-circuit to the input unchanged. Failures and
// timeouts surface as ErrTranslation; the message is not retried here.
func (s *TranslationService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == targetLang {
		return text, nil
	}

	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s:\n\n%q\n\n"+
			"Provide ONLY the translated text without any additional explanations, notes, or quotation marks around the text.",
		sourceLang, targetLang, text,
	)

	result, err := s.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		resp, err := s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no choices in response")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranslation, err)
	}

	return result.(string), nil
}

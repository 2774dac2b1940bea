// Package llm wraps an OpenAI-compatible chat completion and speech API.
// All AI-backed features (quiz generation, voice Q&A, teach-back, roadmap
// planning, TTS) go through this single client so the base URL can point at
// any compatible provider.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/luminalearn/lumina-backend/internal/config"
)

// ErrDisabled is returned when no API key is configured. Callers either
// degrade (extractive quiz generation) or surface a capability error.
var ErrDisabled = errors.New("llm: no API key configured")

const (
	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

// Role is a chat message role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client is a thin chat/TTS client with transient-error retry.
type Client struct {
	api      *openai.Client
	model    string
	ttsModel string
	ttsVoice string
	enabled  bool
}

// NewClient builds a client from config. A missing API key yields a
// disabled client rather than an error so the server still boots.
func NewClient(cfg *config.Config) *Client {
	c := &Client{
		model:    cfg.LLMModel,
		ttsModel: cfg.TTSModel,
		ttsVoice: cfg.TTSVoice,
	}
	if cfg.LLMAPIKey == "" {
		return c
	}

	apiCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		apiCfg.BaseURL = cfg.LLMBaseURL
	}
	c.api = openai.NewClientWithConfig(apiCfg)
	c.enabled = true
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Complete runs one chat completion over the given history.
func (c *Client) Complete(ctx context.Context, system string, history []Message) (string, error) {
	return c.complete(ctx, system, history, nil)
}

// CompleteJSON runs a completion constrained to a JSON object response and
// returns the raw message for the caller to decode.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	content, err := c.complete(ctx, system, []Message{{Role: RoleUser, Content: user}}, format)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(content), nil
}

func (c *Client) complete(ctx context.Context, system string, history []Message, format *openai.ChatCompletionResponseFormat) (string, error) {
	if !c.enabled {
		return "", ErrDisabled
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: format,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("llm: empty completion response")
			}
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err
		if !isTransient(err) || attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryBackoff << attempt):
		}
	}
	return "", fmt.Errorf("llm: completion failed: %w", lastErr)
}

// Synthesize converts text to speech. Returns the audio bytes and MIME type.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if !c.enabled {
		return nil, "", ErrDisabled
	}

	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.ttsModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.ttsVoice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, "", fmt.Errorf("llm: speech synthesis failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, "", fmt.Errorf("llm: read speech stream: %w", err)
	}
	return audio, "audio/mpeg", nil
}

// isTransient reports whether an API error is worth retrying.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return false
}

package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/luminalearn/lumina-backend/internal/config"
	"github.com/luminalearn/lumina-backend/internal/llm"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/repository"
)

// ErrLLMUnavailable is returned when a chat feature needs the LLM but no
// API key is configured.
var ErrLLMUnavailable = errors.New("ai backend not configured")

const (
	chatHistoryLimit = 20
	chatSessionTTL   = 2 * time.Hour
)

const chatSystemPrompt = "You are a friendly study tutor. Answer the learner's question clearly and " +
	"concisely in plain spoken language, suitable for being read aloud. Keep answers under 120 words."

const interviewSystemPrompt = "You are a technical interviewer. Ask one probing follow-up question after " +
	"briefly evaluating the candidate's answer. Stay on the current topic and keep responses under 80 words."

// VoiceService runs chat/interview turns and speech synthesis.
type VoiceService struct {
	llm      *llm.Client
	rdb      *redis.Client
	chatRepo *repository.ChatRepository
}

// NewVoiceService creates a new VoiceService.
func NewVoiceService(client *llm.Client, rdb *redis.Client, chatRepo *repository.ChatRepository) *VoiceService {
	return &VoiceService{llm: client, rdb: rdb, chatRepo: chatRepo}
}

// Answer runs one conversation turn. Session history lives in Redis so
// follow-up questions keep their context; each turn is also persisted to
// Postgres for the history endpoints.
func (s *VoiceService) Answer(ctx context.Context, userID *int, req *model.VoiceQARequest) (*model.VoiceQAResponse, error) {
	if !s.llm.Enabled() {
		return nil, ErrLLMUnavailable
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	system := chatSystemPrompt
	chatContext := "voice_qa"
	if req.Mode == "interview" {
		system = interviewSystemPrompt
		chatContext = "interview"
	}

	history, err := s.loadHistory(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("load chat history failed")
		history = nil
	}
	history = append(history, llm.Message{Role: llm.RoleUser, Content: req.Question})

	answer, err := s.llm.Complete(ctx, system, history)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	history = append(history, llm.Message{Role: llm.RoleAssistant, Content: answer})
	if err := s.storeHistory(ctx, sessionID, history); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("store chat history failed")
	}

	// Turns are persisted through the chat queue so a slow Postgres never
	// stalls a conversation. If Redis is down, fall back to a direct write.
	if err := s.queueTurn(ctx, userID, sessionID, req.Question, answer, chatContext); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("queue chat turn failed, writing directly")
		msg := &model.ChatMessage{
			UserID:      userID,
			SessionID:   sessionID,
			UserMessage: req.Question,
			AIResponse:  answer,
			Context:     chatContext,
		}
		if err := s.chatRepo.Create(ctx, msg); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("persist chat turn failed")
		}
	}

	resp := &model.VoiceQAResponse{Answer: answer, SessionID: sessionID}
	if req.TTS {
		audio, mime, err := s.llm.Synthesize(ctx, answer)
		if err != nil {
			// The text answer is still useful without audio.
			log.Warn().Err(err).Msg("tts synthesis failed")
		} else {
			resp.AudioBase64 = base64.StdEncoding.EncodeToString(audio)
			resp.AudioMime = mime
		}
	}
	return resp, nil
}

// chatTurnPayload is the queue entry consumed by the chat worker.
type chatTurnPayload struct {
	UserID      *int   `json:"user_id"`
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
	AIResponse  string `json:"ai_response"`
	Context     string `json:"context"`
	Timestamp   int64  `json:"timestamp"`
}

func (s *VoiceService) queueTurn(ctx context.Context, userID *int, sessionID, question, answer, chatContext string) error {
	payload, err := json.Marshal(chatTurnPayload{
		UserID:      userID,
		SessionID:   sessionID,
		UserMessage: question,
		AIResponse:  answer,
		Context:     chatContext,
		Timestamp:   time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, config.WorkerKey.PersistChatsQueue, payload).Err()
}

// Synthesize converts standalone text to speech.
func (s *VoiceService) Synthesize(ctx context.Context, text string) (*model.TTSResponse, error) {
	if !s.llm.Enabled() {
		return nil, ErrLLMUnavailable
	}
	audio, mime, err := s.llm.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	return &model.TTSResponse{
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		AudioMime:   mime,
	}, nil
}

// SaveTurn persists a client-recorded conversation turn.
func (s *VoiceService) SaveTurn(ctx context.Context, userID *int, req *model.SaveChatRequest) (*model.ChatMessage, error) {
	msg := &model.ChatMessage{
		UserID:      userID,
		SessionID:   req.SessionID,
		UserMessage: req.UserMessage,
		AIResponse:  req.AIResponse,
		Context:     req.Context,
	}
	if err := s.chatRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("save chat turn: %w", err)
	}
	return msg, nil
}

// SessionHistory returns the persisted turns of one conversation.
func (s *VoiceService) SessionHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return s.chatRepo.ListBySession(ctx, sessionID)
}

// UserHistory returns a user's recent turns across sessions.
func (s *VoiceService) UserHistory(ctx context.Context, userID, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.chatRepo.ListByUser(ctx, userID, limit)
}

// SummarizeTranscript condenses a spoken transcript into study notes.
func (s *VoiceService) SummarizeTranscript(ctx context.Context, transcript string) (string, error) {
	if !s.llm.Enabled() {
		return "", ErrLLMUnavailable
	}
	system := "Summarize the following transcript into concise study notes with short bullet points. " +
		"Keep the learner's terminology."
	return s.llm.Complete(ctx, system, []llm.Message{{Role: llm.RoleUser, Content: transcript}})
}

func (s *VoiceService) loadHistory(ctx context.Context, sessionID string) ([]llm.Message, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.ChatSessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var history []llm.Message
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *VoiceService) storeHistory(ctx context.Context, sessionID string, history []llm.Message) error {
	// Keep only the most recent turns to bound prompt size.
	if len(history) > chatHistoryLimit {
		history = history[len(history)-chatHistoryLimit:]
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, config.CacheKey.ChatSessionKey(sessionID), raw, chatSessionTTL).Err()
}

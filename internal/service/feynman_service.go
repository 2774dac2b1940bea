package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/luminalearn/lumina-backend/internal/config"
	"github.com/luminalearn/lumina-backend/internal/llm"
	"github.com/luminalearn/lumina-backend/internal/model"
)

// ErrFeynmanSessionNotFound is returned for expired or unknown sessions.
var ErrFeynmanSessionNotFound = errors.New("teach-back session not found")

const (
	feynmanSessionTTL = 2 * time.Hour
	defaultPersona    = "Curious 5-Year-Old"
)

// feynmanState is the Redis-held session record.
type feynmanState struct {
	Topic   string        `json:"topic"`
	Persona string        `json:"persona"`
	History []llm.Message `json:"history"`
}

// FeynmanService runs teach-back sessions: the learner explains a topic to
// an AI persona who asks probing questions, then gets a graded report.
type FeynmanService struct {
	llm *llm.Client
	rdb *redis.Client
}

// NewFeynmanService creates a new FeynmanService.
func NewFeynmanService(client *llm.Client, rdb *redis.Client) *FeynmanService {
	return &FeynmanService{llm: client, rdb: rdb}
}

// Start opens a session and returns the persona's opening line.
func (s *FeynmanService) Start(ctx context.Context, req *model.FeynmanStartRequest) (*model.FeynmanStartResponse, error) {
	if !s.llm.Enabled() {
		return nil, ErrLLMUnavailable
	}

	persona := req.Persona
	if persona == "" {
		persona = defaultPersona
	}

	greeting, err := s.llm.Complete(ctx, s.personaPrompt(req.Topic, persona), []llm.Message{{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Greet me in character and ask me to start explaining %s to you. One or two sentences.", req.Topic),
	}})
	if err != nil {
		return nil, fmt.Errorf("opening turn: %w", err)
	}

	state := &feynmanState{
		Topic:   req.Topic,
		Persona: persona,
		History: []llm.Message{{Role: llm.RoleAssistant, Content: greeting}},
	}
	sessionID := uuid.New().String()
	if err := s.storeState(ctx, sessionID, state); err != nil {
		return nil, err
	}
	return &model.FeynmanStartResponse{SessionID: sessionID, Greeting: greeting}, nil
}

// Chat runs one teaching turn: the learner explains, the persona reacts.
func (s *FeynmanService) Chat(ctx context.Context, req *model.FeynmanChatRequest) (*model.FeynmanChatResponse, error) {
	if !s.llm.Enabled() {
		return nil, ErrLLMUnavailable
	}

	state, err := s.loadState(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	state.History = append(state.History, llm.Message{Role: llm.RoleUser, Content: req.Message})
	reply, err := s.llm.Complete(ctx, s.personaPrompt(state.Topic, state.Persona), state.History)
	if err != nil {
		return nil, fmt.Errorf("chat turn: %w", err)
	}

	state.History = append(state.History, llm.Message{Role: llm.RoleAssistant, Content: reply})
	if err := s.storeState(ctx, req.SessionID, state); err != nil {
		return nil, err
	}
	return &model.FeynmanChatResponse{Response: reply}, nil
}

// Evaluate grades the whole session and closes it.
func (s *FeynmanService) Evaluate(ctx context.Context, req *model.FeynmanEvaluateRequest) (*model.FeynmanReport, error) {
	if !s.llm.Enabled() {
		return nil, ErrLLMUnavailable
	}

	state, err := s.loadState(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	var transcript string
	for _, m := range state.History {
		speaker := "Student"
		if m.Role == llm.RoleUser {
			speaker = "Teacher"
		}
		transcript += fmt.Sprintf("%s: %s\n", speaker, m.Content)
	}

	system := fmt.Sprintf(`You are grading how well someone taught the topic "%s" using the Feynman technique.
Output strict JSON only: {"score":0-100,"clarity_score":0-100,"depth_score":0-100,"feedback":"..."}
Score clarity (simple language, good analogies), depth (accuracy, completeness), and overall quality.
Feedback is 2-4 sentences naming what was strong and what to improve.`, state.Topic)

	raw, err := s.llm.CompleteJSON(ctx, system, transcript)
	if err != nil {
		return nil, fmt.Errorf("evaluate session: %w", err)
	}

	report := &model.FeynmanReport{}
	if err := json.Unmarshal(raw, report); err != nil {
		return nil, fmt.Errorf("decode report json: %w", err)
	}

	// Session is done, drop the state.
	_ = s.rdb.Del(ctx, config.CacheKey.FeynmanSessionKey(req.SessionID)).Err()
	return report, nil
}

func (s *FeynmanService) personaPrompt(topic, persona string) string {
	return fmt.Sprintf(`You are roleplaying as a "%s" being taught about "%s".
Stay fully in character. React to the explanation, point out what confuses you, and ask one probing
question per turn that tests whether the teacher really understands the topic. Keep replies under 60 words.`, persona, topic)
}

func (s *FeynmanService) loadState(ctx context.Context, sessionID string) (*feynmanState, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.FeynmanSessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrFeynmanSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	state := &feynmanState{}
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return state, nil
}

func (s *FeynmanService) storeState(ctx context.Context, sessionID string, state *feynmanState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, config.CacheKey.FeynmanSessionKey(sessionID), raw, feynmanSessionTTL).Err()
}

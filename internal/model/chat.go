package model

import "time"

// ChatMessage is one turn of a saved conversation (voice Q&A or interview).
type ChatMessage struct {
	ID          int       `json:"id"`
	UserID      *int      `json:"user_id,omitempty"`
	SessionID   string    `json:"session_id"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	Context     string    `json:"context,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// VoiceQARequest is a single chat/interview turn.
type VoiceQARequest struct {
	Question   string `json:"question" binding:"required,min=1"`
	SessionID  string `json:"session_id" binding:"omitempty,max=255"`
	DocumentID string `json:"document_id" binding:"omitempty,max=255"`
	Mode       string `json:"mode" binding:"omitempty,oneof=chat interview"`
	TTS        bool   `json:"tts"`
}

// VoiceQAResponse carries the answer and, when requested, synthesized audio.
type VoiceQAResponse struct {
	Answer      string `json:"answer"`
	SessionID   string `json:"session_id"`
	AudioBase64 string `json:"audioBase64,omitempty"`
	AudioMime   string `json:"audioMime,omitempty"`
}

// TTSRequest synthesizes standalone speech for a message.
type TTSRequest struct {
	Text string `json:"text" binding:"required,min=1,max=4096"`
}

// TTSResponse is the synthesized audio payload.
type TTSResponse struct {
	AudioBase64 string `json:"audioBase64"`
	AudioMime   string `json:"audioMime"`
}

// SaveChatRequest persists one conversation turn.
type SaveChatRequest struct {
	SessionID   string `json:"session_id" binding:"required,max=255"`
	UserMessage string `json:"user_message" binding:"required"`
	AIResponse  string `json:"ai_response" binding:"required"`
	Context     string `json:"context" binding:"omitempty,max=100"`
}

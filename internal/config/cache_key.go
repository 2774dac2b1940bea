package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session (JTI).
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// AttemptQuestionsKey returns the cache key for an attempt's question set.
func (r *CacheKeyStruct) AttemptQuestionsKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:questions", attemptID)
}

// AttemptAnswersKey returns the cache key for an attempt's autosaved answers.
func (r *CacheKeyStruct) AttemptAnswersKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:answers", attemptID)
}

// AttemptViolationsKey returns the cache key for an attempt's visibility
// violation count.
func (r *CacheKeyStruct) AttemptViolationsKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:violations", attemptID)
}

// AttemptStartKey returns the cache key for an attempt's start timestamp.
func (r *CacheKeyStruct) AttemptStartKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:start", attemptID)
}

// VerifyCodeKey returns the cache key for a pending email verification code.
func (r *CacheKeyStruct) VerifyCodeKey(email string) string {
	return fmt.Sprintf("verify:%s", email)
}

// ResetCodeKey returns the cache key for a pending password reset code.
func (r *CacheKeyStruct) ResetCodeKey(email string) string {
	return fmt.Sprintf("reset:%s", email)
}

// FeynmanSessionKey returns the cache key for a teach-back session's state.
func (r *CacheKeyStruct) FeynmanSessionKey(sessionID string) string {
	return fmt.Sprintf("feynman:%s", sessionID)
}

// ChatSessionKey returns the cache key for a voice Q&A conversation buffer.
func (r *CacheKeyStruct) ChatSessionKey(sessionID string) string {
	return fmt.Sprintf("chat:%s:messages", sessionID)
}

var CacheKey = NewCacheKeyStruct()

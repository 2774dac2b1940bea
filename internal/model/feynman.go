package model

// FeynmanStartRequest opens a teach-back session.
type FeynmanStartRequest struct {
	Topic   string `json:"topic" binding:"required,min=2,max=255"`
	Persona string `json:"persona" binding:"omitempty,max=100"`
}

// FeynmanStartResponse carries the session handle and the persona's opener.
type FeynmanStartResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

// FeynmanChatRequest is one teaching turn.
type FeynmanChatRequest struct {
	SessionID string `json:"session_id" binding:"required,max=255"`
	Message   string `json:"message" binding:"required,min=1"`
}

// FeynmanChatResponse is the persona's reply.
type FeynmanChatResponse struct {
	Response string `json:"response"`
}

// FeynmanEvaluateRequest asks for the final teach-back report.
type FeynmanEvaluateRequest struct {
	SessionID string `json:"session_id" binding:"required,max=255"`
}

// FeynmanReport grades how well the learner taught the topic.
type FeynmanReport struct {
	Score        int    `json:"score"`
	ClarityScore int    `json:"clarity_score"`
	DepthScore   int    `json:"depth_score"`
	Feedback     string `json:"feedback"`
}

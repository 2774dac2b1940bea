package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	// Proctored attempt stream.
	ActionAutosave   Action = "autosave"
	ActionVisibility Action = "visibility"
	ActionFullscreen Action = "fullscreen"
	ActionSubmit     Action = "submit"
	ActionPing       Action = "ping"

	// Voice stream.
	ActionVoiceStart  Action = "voice_start"
	ActionVoiceResult Action = "voice_result"
	ActionVoiceStop   Action = "voice_stop"
	ActionVoiceEnd    Action = "voice_end"
	ActionVoiceError  Action = "voice_error"
	ActionPlay        Action = "play"
	ActionPlayReady   Action = "play_ready"
	ActionPlayFailed  Action = "play_failed"
	ActionPlayDone    Action = "play_done"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest saves a single answer choice.
type AutosaveRequest struct {
	Action        Action `json:"action"`
	QuestionIndex int    `json:"q_idx"`
	OptionIndex   int    `json:"opt_idx"`
}

// VisibilityRequest reports a visibility loss (tab switch, window blur).
type VisibilityRequest struct {
	Action Action `json:"action"`
}

// FullscreenRequest reports the outcome of a fullscreen change.
type FullscreenRequest struct {
	Action Action `json:"action"`
	Active bool   `json:"active"`
}

// SubmitRequest finishes and grades the attempt.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// VoiceStartRequest begins a capture session. Supported reports whether the
// client's speech engine is available at all.
type VoiceStartRequest struct {
	Action    Action `json:"action"`
	Supported bool   `json:"supported"`
}

// VoiceResultRequest carries one recognition result from the client engine.
type VoiceResultRequest struct {
	Action  Action `json:"action"`
	Final   string `json:"final"`
	Interim string `json:"interim"`
}

// VoiceStopRequest is the user pressing stop.
type VoiceStopRequest struct {
	Action Action `json:"action"`
}

// VoiceEndRequest reports the client engine ending on its own.
type VoiceEndRequest struct {
	Action Action `json:"action"`
}

// VoiceErrorRequest reports a client engine error by code.
type VoiceErrorRequest struct {
	Action Action `json:"action"`
	Code   string `json:"code"`
}

// PlayRequest toggles playback of one audio response.
type PlayRequest struct {
	Action Action `json:"action"`
	ID     string `json:"id"`
}

// PlayStateRequest reports a load/finish transition for one audio response.
type PlayStateRequest struct {
	Action Action `json:"action"`
	ID     string `json:"id"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError        Event = "error"
	EventSuccess      Event = "success"
	EventState        Event = "state"
	EventWarning      Event = "warning"
	EventDisqualified Event = "disqualified"
	EventGraded       Event = "graded"
	EventTick         Event = "tick"
	EventPong         Event = "pong"

	EventListening  Event = "listening"
	EventTranscript Event = "transcript"
	EventStopped    Event = "stopped"
	EventRestarted  Event = "restarted"
	EventPlayback   Event = "playback"
)

// StateResponse is the initial sync after connecting to an attempt stream.
type StateResponse struct {
	Event          Event       `json:"event"`
	Status         string      `json:"status"`
	Answers        map[int]int `json:"answers"`
	TabSwitchCount int         `json:"tab_switch_count"`
	ElapsedMs      int64       `json:"elapsed_ms"`
}

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// WarningResponse is sent on a non-terminal visibility loss.
type WarningResponse struct {
	Event     Event `json:"event"`
	Count     int   `json:"count"`
	Remaining int   `json:"remaining"`
}

// DisqualifiedResponse is sent exactly once when the attempt terminates.
// ExitFullscreen tells the client to leave fullscreen, best effort.
type DisqualifiedResponse struct {
	Event          Event  `json:"event"`
	Reason         string `json:"reason"`
	ExitFullscreen bool   `json:"exit_fullscreen"`
}

type GradedResponse struct {
	Event  Event   `json:"event"`
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

// TickResponse syncs the server-held elapsed time, once per second.
type TickResponse struct {
	Event     Event `json:"event"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// ListeningResponse reports the capture state after start/restart.
type ListeningResponse struct {
	Event     Event `json:"event"`
	Listening bool  `json:"listening"`
}

// TranscriptResponse mirrors the merged transcript back to the client.
type TranscriptResponse struct {
	Event   Event  `json:"event"`
	Final   string `json:"final"`
	Interim string `json:"interim"`
}

// StoppedResponse reports capture stop with the full final transcript.
type StoppedResponse struct {
	Event  Event  `json:"event"`
	Reason string `json:"reason"`
	Final  string `json:"final"`
}

// PlaybackResponse tells the client what to do with an audio response.
type PlaybackResponse struct {
	Event     Event  `json:"event"`
	ID        string `json:"id"`
	Command   string `json:"command"` // "load" or "stop"
	PlayingID string `json:"playing_id,omitempty"`
}

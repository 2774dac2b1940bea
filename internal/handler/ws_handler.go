package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/luminalearn/lumina-backend/internal/config"
	"github.com/luminalearn/lumina-backend/internal/middleware"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/proctor"
	"github.com/luminalearn/lumina-backend/internal/service"
	"github.com/luminalearn/lumina-backend/internal/voice"
	ws "github.com/luminalearn/lumina-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// wsConn serializes writes: the tick goroutine and the read loop both send.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = ws.WriteError(w.conn, msg)
}

// WSHandler handles the proctored attempt stream and the voice stream.
type WSHandler struct {
	cfg            *config.Config
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(cfg *config.Config, attemptService *service.AttemptService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		cfg:            cfg,
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(cfg.AllowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/quiz-attempts/:attempt_id/stream
// Drives the proctoring state machine with client events: answer autosave,
// visibility losses, fullscreen changes, and submission. The server ticks
// the elapsed timer once per second.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer rawConn.Close()
	conn := &wsConn{conn: rawConn}

	ctx := c.Request.Context()
	attempt, err := h.attemptService.Get(ctx, claims.UserID, attemptID)
	if err != nil {
		conn.writeError("attempt not found")
		return
	}
	if attempt.Status != model.AttemptStatusActive {
		conn.writeError("attempt is already finished")
		return
	}

	questions, err := h.attemptService.Questions(ctx, attemptID)
	if err != nil {
		conn.writeError("attempt data expired")
		return
	}

	session := proctor.NewSession(proctor.WithMaxViolations(h.cfg.MaxViolations))
	if err := session.Start(questions); err != nil {
		conn.writeError("attempt has no questions")
		return
	}

	// Replay autosaved answers so a reconnect resumes where it left off.
	saved, err := h.attemptService.SavedAnswers(ctx, attemptID)
	if err == nil {
		for qi, oi := range saved {
			session.RecordAnswer(qi, oi)
		}
	}

	// Rehydrate the violation count: reconnecting must not renew the
	// violation allowance.
	if count, err := h.attemptService.ViolationCount(ctx, attemptID); err == nil && count > 0 {
		if v := session.RestoreViolations(count); v.Terminal {
			if err := h.attemptService.Disqualify(ctx, attemptID, count, session.Elapsed().Milliseconds()); err != nil {
				h.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Persist disqualification failed")
			}
			_ = conn.write(ws.DisqualifiedResponse{
				Event:          ws.EventDisqualified,
				Reason:         "too many visibility losses",
				ExitFullscreen: true,
			})
			return
		}
	}

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("attempt_id", attemptID.String()).
		Logger()
	wsLog.Info().Msg("Attempt stream connected")

	_ = conn.write(ws.StateResponse{
		Event:          ws.EventState,
		Status:         string(attempt.Status),
		Answers:        saved,
		TabSwitchCount: session.TabSwitchCount(),
		ElapsedMs:      session.Elapsed().Milliseconds(),
	})

	// Server-side 1Hz timer sync.
	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				if session.State() != proctor.StateActive {
					return
				}
				session.Tick()
				_ = conn.write(ws.TickResponse{
					Event:     ws.EventTick,
					ElapsedMs: session.Elapsed().Milliseconds(),
				})
			}
		}
	}()

	for {
		raw, err := ws.ReadRaw(rawConn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			conn.writeError("malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, session, attemptID, raw)
		case ws.ActionVisibility:
			h.handleVisibility(conn, wsLog, session, attemptID, claims.UserID)
		case ws.ActionFullscreen:
			h.handleFullscreen(conn, session, attemptID, claims.UserID, raw)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, session, attemptID)
		case ws.ActionPing:
			_ = conn.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			conn.writeError("unknown action: " + string(envelope.Action))
		}
	}
}

func (h *WSHandler) handleAutosave(conn *wsConn, session *proctor.Session, attemptID uuid.UUID, raw []byte) {
	var req ws.AutosaveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		conn.writeError("malformed autosave")
		return
	}

	session.RecordAnswer(req.QuestionIndex, req.OptionIndex)
	if err := h.attemptService.SaveAnswer(context.Background(), attemptID, req.QuestionIndex, req.OptionIndex); err != nil {
		h.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Autosave Redis error")
		conn.writeError("save failed")
		return
	}
	_ = conn.write(ws.AutosaveResponse{Event: ws.EventSuccess, Status: "saved"})
}

func (h *WSHandler) handleVisibility(conn *wsConn, wsLog zerolog.Logger, session *proctor.Session, attemptID uuid.UUID, userID int) {
	v := session.RecordVisibilityLoss()
	ctx := context.Background()

	if err := h.attemptService.RecordViolationCount(ctx, attemptID, v.Count); err != nil {
		wsLog.Error().Err(err).Msg("Persist violation count failed")
	}

	if v.Terminal {
		// Persist disqualification synchronously so a reconnect is rejected
		// even if the violation worker is behind.
		if err := h.attemptService.Disqualify(ctx, attemptID, session.TabSwitchCount(), session.Elapsed().Milliseconds()); err != nil {
			wsLog.Error().Err(err).Msg("Persist disqualification failed")
		}
		_ = h.attemptService.QueueViolation(ctx, attemptID, userID, "disqualified", v.Count)
		wsLog.Info().Int("count", v.Count).Msg("Attempt disqualified")
		_ = conn.write(ws.DisqualifiedResponse{
			Event:          ws.EventDisqualified,
			Reason:         "too many visibility losses",
			ExitFullscreen: true,
		})
		return
	}

	if v.Remaining > 0 {
		_ = h.attemptService.QueueViolation(ctx, attemptID, userID, "visibility_loss", v.Count)
		_ = conn.write(ws.WarningResponse{
			Event:     ws.EventWarning,
			Count:     v.Count,
			Remaining: v.Remaining,
		})
		return
	}

	// Terminal session already; the event is ignored.
	_ = conn.write(ws.AutosaveResponse{Event: ws.EventSuccess, Status: "ignored"})
}

func (h *WSHandler) handleFullscreen(conn *wsConn, session *proctor.Session, attemptID uuid.UUID, userID int, raw []byte) {
	var req ws.FullscreenRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		conn.writeError("malformed fullscreen")
		return
	}

	session.SetFullscreen(req.Active)
	// Leaving fullscreen is recorded for review but never disqualifies.
	if !req.Active {
		_ = h.attemptService.QueueViolation(context.Background(), attemptID, userID, "fullscreen_exit", session.TabSwitchCount())
	}
	_ = conn.write(ws.AutosaveResponse{Event: ws.EventSuccess, Status: "ok"})
}

func (h *WSHandler) handleSubmit(conn *wsConn, wsLog zerolog.Logger, session *proctor.Session, attemptID uuid.UUID) {
	var score float64
	_, err := session.Submit(func(handoff proctor.Handoff) error {
		var persistErr error
		score, persistErr = h.attemptService.PersistSubmission(context.Background(), attemptID, handoff)
		return persistErr
	})
	if err != nil {
		switch {
		case errors.Is(err, proctor.ErrIncompleteAnswers):
			conn.writeError("all questions must be answered before submitting")
		case errors.Is(err, proctor.ErrNotActive):
			conn.writeError("attempt is not active")
		default:
			// The attempt stays active and resumable after a persist failure.
			wsLog.Error().Err(err).Msg("Submission persist failed")
			conn.writeError("submission failed, please retry")
		}
		return
	}

	wsLog.Info().Float64("score", score).Msg("Attempt submitted and graded")
	_ = conn.write(ws.GradedResponse{
		Event:  ws.EventGraded,
		Status: "completed",
		Score:  score,
	})
}

// VoiceStream godoc
// WS /ws/voice/stream
// Drives the speech-capture and playback state machines with client engine
// events. Capture stops after the configured silence window; at most one
// audio response plays at a time.
func (h *WSHandler) VoiceStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer rawConn.Close()
	conn := &wsConn{conn: rawConn}

	wsLog := h.log.With().Int("user_id", claims.UserID).Logger()
	wsLog.Info().Msg("Voice stream connected")

	capture := voice.NewCapture(true, voice.WithSilenceTimeout(h.cfg.SilenceTimeout))
	playback := voice.NewPlayback()

	// Silence watchdog: checks the deadline twice a second while listening.
	watchCtx, stopWatch := context.WithCancel(c.Request.Context())
	defer stopWatch()
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				if capture.OnSilenceTimeout() {
					_ = conn.write(ws.StoppedResponse{
						Event:  ws.EventStopped,
						Reason: "silence",
						Final:  capture.FinalText(),
					})
				}
			}
		}
	}()

	for {
		raw, err := ws.ReadRaw(rawConn)
		if err != nil {
			wsLog.Debug().Msg("Connection closed")
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			conn.writeError("malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionVoiceStart:
			var req ws.VoiceStartRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				conn.writeError("malformed voice_start")
				continue
			}
			// The client reports engine availability up front; an unsupported
			// platform never enters the listening state.
			if !req.Supported {
				conn.writeError("speech recognition is not supported on this device")
				continue
			}
			if err := capture.StartListening(); err != nil {
				conn.writeError("speech recognition is not supported on this device")
				continue
			}
			_ = conn.write(ws.ListeningResponse{Event: ws.EventListening, Listening: true})

		case ws.ActionVoiceResult:
			var req ws.VoiceResultRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				conn.writeError("malformed voice_result")
				continue
			}
			capture.OnSpeechResult(req.Final, req.Interim)
			_ = conn.write(ws.TranscriptResponse{
				Event:   ws.EventTranscript,
				Final:   capture.FinalText(),
				Interim: capture.InterimText(),
			})

		case ws.ActionVoiceStop:
			capture.StopListening()
			_ = conn.write(ws.StoppedResponse{
				Event:  ws.EventStopped,
				Reason: "user",
				Final:  capture.FinalText(),
			})

		case ws.ActionVoiceEnd:
			// The engine ended on its own; restart transparently. The client
			// restarts its engine when told listening is still true.
			err := capture.OnRecognitionEnd(false, func() error { return nil })
			if err != nil {
				_ = conn.write(ws.StoppedResponse{
					Event:  ws.EventStopped,
					Reason: "engine_end",
					Final:  capture.FinalText(),
				})
				continue
			}
			_ = conn.write(ws.ListeningResponse{Event: ws.EventRestarted, Listening: capture.IsListening()})

		case ws.ActionVoiceError:
			var req ws.VoiceErrorRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				conn.writeError("malformed voice_error")
				continue
			}
			switch err := capture.OnError(req.Code); {
			case err == nil:
				// no-speech and aborted need no client action.
			case errors.Is(err, voice.ErrPermissionDenied):
				_ = conn.write(ws.StoppedResponse{
					Event:  ws.EventStopped,
					Reason: "permission_denied",
					Final:  capture.FinalText(),
				})
			default:
				wsLog.Warn().Str("code", req.Code).Msg("Recognition engine error")
				_ = conn.write(ws.StoppedResponse{
					Event:  ws.EventStopped,
					Reason: "engine_error",
					Final:  capture.FinalText(),
				})
			}

		case ws.ActionPlay:
			var req ws.PlayRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				conn.writeError("malformed play")
				continue
			}
			action, err := playback.Play(req.ID)
			if err != nil {
				conn.writeError("another audio response is still loading")
				continue
			}
			command := "stop"
			if action == voice.ActionLoad {
				command = "load"
			}
			_ = conn.write(ws.PlaybackResponse{
				Event:     ws.EventPlayback,
				ID:        req.ID,
				Command:   command,
				PlayingID: playback.PlayingID(),
			})

		case ws.ActionPlayReady:
			var req ws.PlayStateRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				continue
			}
			playback.Ready(req.ID)
			_ = conn.write(ws.PlaybackResponse{
				Event:     ws.EventPlayback,
				ID:        req.ID,
				Command:   "playing",
				PlayingID: playback.PlayingID(),
			})

		case ws.ActionPlayFailed:
			var req ws.PlayStateRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				continue
			}
			playback.Failed(req.ID)

		case ws.ActionPlayDone:
			var req ws.PlayStateRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				continue
			}
			playback.Completed(req.ID)

		case ws.ActionPing:
			_ = conn.write(ws.PongResponse{Event: ws.EventPong})

		default:
			conn.writeError("unknown action: " + string(envelope.Action))
		}
	}
}

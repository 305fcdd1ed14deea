package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/PeriniM/realtime-api-langgraph/internal/background"
	"github.com/PeriniM/realtime-api-langgraph/internal/providers/llm"
	"github.com/PeriniM/realtime-api-langgraph/internal/realtime"
	"github.com/PeriniM/realtime-api-langgraph/internal/services"
	"github.com/PeriniM/realtime-api-langgraph/internal/utils"
)

const (
	clientReadTimeout = 60 * time.Second
	keepaliveInterval = 30 * time.Second
)

// WSHandler bridges a frontend WebSocket to the realtime voice engine. One
// connection is one conversation: it owns its own result buffer, delivery
// gate, and turn coordinator, while the task store and analysis worker are
// shared with the rest of the app.
type WSHandler struct {
	sessions services.SessionService
	convos   services.ConversationService
	tasks    services.TaskService
	worker   background.Worker
	chat     llm.Provider

	rtCfg        realtime.Config
	pollInterval time.Duration
	log          *logrus.Logger
	upgrader     websocket.Upgrader
}

func NewWSHandler(
	sessions services.SessionService,
	convos services.ConversationService,
	tasks services.TaskService,
	worker background.Worker,
	chat llm.Provider,
	rtCfg realtime.Config,
	pollInterval time.Duration,
	log *logrus.Logger,
) *WSHandler {
	if log == nil {
		log = logrus.New()
	}
	return &WSHandler{
		sessions:     sessions,
		convos:       convos,
		tasks:        tasks,
		worker:       worker,
		chat:         chat,
		rtCfg:        rtCfg,
		pollInterval: pollInterval,
		log:          log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type  string `json:"type"` // audio_data|chat|end_session
	Audio string `json:"audio"`
	Text  string `json:"text"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteJSON(v)
}

func (w *wsConn) writePing() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
}

// clientSink delivers buffered analysis results: the frontend gets an
// agent_result frame, and the engine gets a system item so the assistant can
// reference the findings on its next turn.
type clientSink struct {
	wc     *wsConn
	engine *realtime.Client
	closed atomic.Bool
}

func (s *clientSink) IsOpen() bool { return !s.closed.Load() }

func (s *clientSink) Deliver(message string) error {
	if err := s.wc.writeJSON(gin.H{"type": "agent_result", "message": message}); err != nil {
		return err
	}
	return s.engine.CreateSystemItem(message)
}

func (h *WSHandler) SessionWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.SessionWS", "missing session_id", nil))
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "WSHandler.SessionWS", "forbidden", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()
	wc := &wsConn{c: conn}

	log := h.log.WithFields(logrus.Fields{"session_id": sessionID, "user_id": userID})

	engine, err := realtime.Dial(c.Request.Context(), h.rtCfg, h.log)
	if err != nil {
		log.WithError(err).Error("failed to connect to voice engine")
		_ = wc.writeJSON(gin.H{"type": "error", "message": "voice engine unavailable"})
		return
	}
	defer engine.Close()

	// per-connection coordination plumbing
	buffer := background.NewResultBuffer()
	coordinator := background.NewTurnCoordinator(h.tasks, h.worker, buffer, h.log)
	coordinator.SetPollInterval(h.pollInterval)

	sink := &clientSink{wc: wc, engine: engine}
	gate := background.NewDeliveryGate(buffer, sink, h.log)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	_ = wc.writeJSON(gin.H{"type": "session_ready", "session_id": sessionID})
	log.Info("session bridge established")

	g, gctx := errgroup.WithContext(ctx)

	// a clean client exit (end_session) returns nil, which does not cancel
	// the group by itself; cancel explicitly so the other pumps unwind
	g.Go(func() error {
		defer cancel()
		return h.pumpClient(gctx, wc, conn, engine, coordinator, gate, userID, sessionID, log)
	})
	g.Go(func() error {
		defer cancel()
		return h.pumpEngine(gctx, wc, engine, coordinator, gate, userID, sessionID, log)
	})
	g.Go(func() error {
		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := wc.writePing(); err != nil {
					return err
				}
			}
		}
	})

	// unblock both readers when either side drops
	g.Go(func() error {
		<-gctx.Done()
		sink.closed.Store(true)
		_ = conn.Close()
		_ = engine.Close()
		return nil
	})

	err = g.Wait()

	// results that never found a quiet moment are stale once the bridge is
	// gone; drop them rather than leak them into a later connection
	if n := buffer.Discard(); n > 0 {
		log.WithField("discarded", n).Warn("dropped undelivered analysis results on disconnect")
	}

	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.WithError(err).Info("session bridge closed")
	} else {
		log.Info("session bridge closed")
	}
}

// pumpClient moves frontend frames upstream: microphone audio to the engine,
// chat text through the LLM, end_session to the session service.
func (h *WSHandler) pumpClient(
	ctx context.Context,
	wc *wsConn,
	conn *websocket.Conn,
	engine *realtime.Client,
	coordinator *background.TurnCoordinator,
	gate *background.DeliveryGate,
	userID, sessionID string,
	log *logrus.Entry,
) error {
	_ = conn.SetReadDeadline(time.Now().Add(clientReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(clientReadTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(clientReadTimeout))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(gin.H{"type": "error", "code": utils.CodeInvalidArgument, "message": "invalid json"})
			continue
		}

		switch msg.Type {
		case "audio_data":
			if msg.Audio == "" {
				continue
			}
			if err := engine.AppendAudio(msg.Audio); err != nil {
				return err
			}

		case "chat":
			if msg.Text == "" {
				_ = wc.writeJSON(gin.H{"type": "error", "code": utils.CodeInvalidArgument, "message": "chat text required"})
				continue
			}
			h.handleChat(ctx, wc, coordinator, gate, userID, sessionID, msg.Text, log)

		case "end_session":
			if _, err := h.sessions.End(ctx, sessionID); err != nil {
				log.WithError(err).Warn("failed to end session")
			}
			_ = wc.writeJSON(gin.H{"type": "session_ended", "session_id": sessionID})
			return nil

		default:
			_ = wc.writeJSON(gin.H{"type": "error", "code": utils.CodeInvalidArgument, "message": "unknown message type"})
		}
	}
}

// handleChat is the text-mode turn: stream an answer back, record the turn,
// and schedule analysis exactly like a spoken turn. The end of a chat reply
// is the text equivalent of speech stopping, so it doubles as a delivery
// trigger for buffered results.
func (h *WSHandler) handleChat(
	ctx context.Context,
	wc *wsConn,
	coordinator *background.TurnCoordinator,
	gate *background.DeliveryGate,
	userID, sessionID, text string,
	log *logrus.Entry,
) {
	gate.SetResponseInProgress(true)

	chunks, errs := h.chat.StreamAnswer(ctx, text)

	var reply string
	for chunk := range chunks {
		reply += chunk
		_ = wc.writeJSON(gin.H{"type": "chat_delta", "delta": chunk})
	}
	if err := <-errs; err != nil {
		gate.SetResponseInProgress(false)
		log.WithError(err).Error("chat reply failed")
		_ = wc.writeJSON(gin.H{"type": "error", "code": utils.CodeUnavailable, "message": "chat reply failed"})
		return
	}

	_ = wc.writeJSON(gin.H{"type": "chat_done", "text": reply})
	gate.SetResponseInProgress(false)

	h.recordTurn(ctx, coordinator, userID, sessionID, text, reply, log)

	gate.SetUserSpeaking(false)
}

// pumpEngine moves engine events downstream and drives the delivery gate
// from the conversation's speech and response state.
func (h *WSHandler) pumpEngine(
	ctx context.Context,
	wc *wsConn,
	engine *realtime.Client,
	coordinator *background.TurnCoordinator,
	gate *background.DeliveryGate,
	userID, sessionID string,
	log *logrus.Entry,
) error {
	var (
		pendingUser   string
		assistantText string
	)

	for {
		ev, err := engine.ReadEvent()
		if err != nil {
			return err
		}

		switch ev.Kind {
		case realtime.KindSpeechStarted:
			gate.SetUserSpeaking(true)
			// barge-in: the user talking over the assistant interrupts it
			if gate.ResponseInProgress() {
				_ = engine.CancelResponse()
			}
			_ = wc.writeJSON(gin.H{"type": "speech_started"})

		case realtime.KindSpeechStopped:
			_ = wc.writeJSON(gin.H{"type": "speech_stopped"})
			gate.SetUserSpeaking(false)

		case realtime.KindResponseStarted:
			gate.SetResponseInProgress(true)

		case realtime.KindResponseDone:
			gate.SetResponseInProgress(false)

		case realtime.KindResponseError:
			gate.SetResponseInProgress(false)
			_ = wc.writeJSON(gin.H{"type": "error", "message": ev.ErrMessage})

		case realtime.KindAudioDelta:
			_ = wc.writeJSON(gin.H{"type": "audio_delta", "delta": ev.Delta})

		case realtime.KindAssistantTranscriptDelta:
			assistantText += ev.Delta
			_ = wc.writeJSON(gin.H{"type": "assistant_transcript_delta", "delta": ev.Delta})

		case realtime.KindAssistantTranscriptDone:
			full := ev.Transcript
			if full == "" {
				full = assistantText
			}
			_ = wc.writeJSON(gin.H{"type": "assistant_transcript", "text": full})

			if pendingUser != "" && full != "" {
				h.recordTurn(ctx, coordinator, userID, sessionID, pendingUser, full, log)
				pendingUser = ""
			}
			assistantText = ""

		case realtime.KindUserTranscriptDelta:
			_ = wc.writeJSON(gin.H{"type": "user_transcript_delta", "delta": ev.Delta})

		case realtime.KindUserTranscriptCompleted:
			pendingUser = ev.Transcript
			_ = wc.writeJSON(gin.H{"type": "user_transcript", "text": ev.Transcript})

		case realtime.KindError:
			log.WithField("engine_error", ev.ErrMessage).Warn("voice engine error")
			_ = wc.writeJSON(gin.H{"type": "error", "message": ev.ErrMessage})
		}
	}
}

// recordTurn persists both halves of a finished turn and hands it to the
// coordinator for background analysis. Persistence failures are logged, not
// fatal; the live conversation takes priority over the archive.
func (h *WSHandler) recordTurn(
	ctx context.Context,
	coordinator *background.TurnCoordinator,
	userID, sessionID, userText, assistantText string,
	log *logrus.Entry,
) {
	taskID := coordinator.OnTurnComplete(ctx, userText, assistantText)

	if err := h.sessions.RecordTurn(ctx, sessionID); err != nil {
		log.WithError(err).Warn("failed to record turn count")
	}
	if _, err := h.convos.Append(ctx, userID, sessionID, "user", userText, nil, nil); err != nil {
		log.WithError(err).Warn("failed to persist user turn")
	}
	if _, err := h.convos.Append(ctx, userID, sessionID, "assistant", assistantText, nil, nil); err != nil {
		log.WithError(err).Warn("failed to persist assistant turn")
	}

	log.WithField("task_id", taskID).Debug("turn recorded")
}

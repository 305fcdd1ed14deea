package services

import (
	"context"
	"errors"
	"time"

	"github.com/PeriniM/realtime-api-langgraph/internal/cache"
	"github.com/PeriniM/realtime-api-langgraph/internal/models"
	mongorepo "github.com/PeriniM/realtime-api-langgraph/internal/repositories/mongo"
	"github.com/PeriniM/realtime-api-langgraph/internal/utils"

	"github.com/google/uuid"
)

const sessionCacheTTL = 5 * time.Minute

type SessionService interface {
	Start(ctx context.Context, userID, mode, voice string, md models.SessionMetadata) (*models.VoiceSession, error)
	Get(ctx context.Context, sessionID string) (*models.VoiceSession, error)
	End(ctx context.Context, sessionID string) (*models.VoiceSession, error)
	RecordTurn(ctx context.Context, sessionID string) error
}

type sessionService struct {
	sessions mongorepo.SessionRepository
	cache    cache.Cache
}

// NewSessionService builds the session service. cache may be nil; lookups
// then always hit the repository.
func NewSessionService(sessions mongorepo.SessionRepository, c cache.Cache) SessionService {
	return &sessionService{sessions: sessions, cache: c}
}

func cacheKey(sessionID string) string { return "session:" + sessionID }

func (s *sessionService) Start(ctx context.Context, userID, mode, voice string, md models.SessionMetadata) (*models.VoiceSession, error) {
	const op = "SessionService.Start"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if mode != "voice" && mode != "text" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "mode must be voice or text", nil)
	}

	now := time.Now().UTC()
	session := &models.VoiceSession{
		SessionID: uuid.NewString(),
		UserID:    userID,
		Mode:      mode,
		Voice:     voice,
		Status:    "active",
		Metadata:  md,
		CreatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.VoiceSession, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	if s.cache != nil {
		var cached models.VoiceSession
		if hit, _ := s.cache.GetJSON(ctx, cacheKey(sessionID), &cached); hit {
			return &cached, nil
		}
	}

	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey(sessionID), out, sessionCacheTTL)
	}
	return out, nil
}

func (s *sessionService) End(ctx context.Context, sessionID string) (*models.VoiceSession, error) {
	const op = "SessionService.End"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	ss, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dur := int64(now.Sub(ss.CreatedAt).Seconds())
	if dur < 0 {
		dur = 0
	}

	if err := s.sessions.End(ctx, sessionID, now, dur); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to end session", err)
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey(sessionID))
	}

	ss.Status = "ended"
	ss.EndedAt = &now
	ss.DurationSeconds = dur
	return ss, nil
}

func (s *sessionService) RecordTurn(ctx context.Context, sessionID string) error {
	const op = "SessionService.RecordTurn"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if err := s.sessions.IncrementTurnCount(ctx, sessionID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to record turn", err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey(sessionID))
	}
	return nil
}

package dialogue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Conceptual-Machines/tutor-api/internal/logger"
	"github.com/Conceptual-Machines/tutor-api/internal/models"
	"github.com/Conceptual-Machines/tutor-api/internal/store"
)

// ErrSessionNotFound is returned for unknown or expired session ids
var ErrSessionNotFound = errors.New("会话已过期，请重新开始对话")

const (
	EndedMessage    = "对话已结束"
	NotFoundMessage = "会话未找到或已结束"
)

// Sessions maps session ids to the latest dialogue state
type Sessions struct {
	agent  *Agent
	states store.Store[models.DialogueState]
}

// NewSessions creates a session manager over states
func NewSessions(agent *Agent, states store.Store[models.DialogueState]) *Sessions {
	return &Sessions{agent: agent, states: states}
}

// Start runs the opening turn. A session is created only when the turn succeeds;
// the returned id is empty otherwise.
func (s *Sessions) Start(ctx context.Context, userText, imagePath string) (string, Result) {
	result := s.agent.AdvanceMultimodal(ctx, userText, nil, imagePath)
	if result.Status == models.StatusError {
		return "", result
	}

	id := uuid.NewString()
	if err := s.states.Put(ctx, id, *result.State); err != nil {
		logger.Error("Failed to store dialogue session", err, logger.Fields{"component": "dialogue", "session_id": id})
		return "", Result{Status: models.StatusError, Response: ApologyMessage, State: result.State}
	}
	return id, result
}

// Continue advances an existing session. A failed turn discards the session so the
// caller has to start over.
func (s *Sessions) Continue(ctx context.Context, id, userText, imagePath string) (Result, error) {
	state, ok, err := s.states.Get(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load session: %w", err)
	}
	if !ok {
		return Result{}, ErrSessionNotFound
	}

	result := s.agent.AdvanceMultimodal(ctx, userText, &state, imagePath)
	if result.Status == models.StatusError {
		if err := s.states.Delete(ctx, id); err != nil {
			logger.Error("Failed to discard dialogue session", err, logger.Fields{"component": "dialogue", "session_id": id})
		}
		return result, nil
	}

	if err := s.states.Put(ctx, id, *result.State); err != nil {
		return Result{}, fmt.Errorf("failed to store session: %w", err)
	}
	return result, nil
}

// Get returns the current state of a session
func (s *Sessions) Get(ctx context.Context, id string) (*models.DialogueState, error) {
	state, ok, err := s.states.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &state, nil
}

// End deletes a session and reports whether it existed
func (s *Sessions) End(ctx context.Context, id string) string {
	if id == "" {
		return NotFoundMessage
	}
	_, ok, err := s.states.Get(ctx, id)
	if err != nil || !ok {
		return NotFoundMessage
	}
	if err := s.states.Delete(ctx, id); err != nil {
		logger.Error("Failed to end dialogue session", err, logger.Fields{"component": "dialogue", "session_id": id})
		return NotFoundMessage
	}
	return EndedMessage
}

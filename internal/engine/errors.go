package engine

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound   = errors.New("session_not_found")
	ErrCharacterNotFound = errors.New("character_not_found")
	ErrPartnerNotFound   = errors.New("partner_not_found")
	ErrSessionNotActive  = errors.New("session_not_active")
	ErrSessionNotPaused  = errors.New("session_not_paused")
	ErrSessionNotLive    = errors.New("session_not_live")
	ErrNotCompleted      = errors.New("session_not_completed")
	ErrAlreadyClaimed    = errors.New("rewards_already_claimed")
)

// ConflictError reports an attempt to start a second live session, naming the
// one that already exists so the caller can resume or abort it.
type ConflictError struct {
	ExistingSessionID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("character already has a live session %s", e.ExistingSessionID)
}

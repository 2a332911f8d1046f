// Package engine drives a session's lifecycle and its message exchange with
// the generation provider: state transitions, directive side effects, and
// reward settlement.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"questforge/internal/provider"
	"questforge/internal/reward"
	"questforge/internal/store"
)

// Generator is the provider gateway surface the engine calls.
type Generator interface {
	Generate(ctx context.Context, req provider.Request) (string, string, error)
}

type Service struct {
	store Store
	gw    Generator
	locks *sessionLocks
	now   func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	genTimeout time.Duration
}

// Recap regeneration threshold: transcripts shorter than this resume
// without one.
const recapMinTurns = 8

func New(st Store, gw Generator, genTimeout time.Duration) *Service {
	if genTimeout <= 0 {
		genTimeout = time.Minute
	}
	return &Service{
		store:      st,
		gw:         gw,
		locks:      newSessionLocks(),
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		genTimeout: genTimeout,
	}
}

// StartResult is the outcome of creating a session.
type StartResult struct {
	Session   *store.Session
	Narrative string
	Backend   string
}

// Start opens a new session for the character, with an optional second
// participant riding along. It fails with ConflictError naming the existing
// session when one is already live. The opening narrative generates before
// the session row exists, so a provider failure leaves no trace; the unique
// live-session index settles races the advisory check misses.
func (s *Service) Start(ctx context.Context, characterID, partnerID, preferred string) (*StartResult, error) {
	c, err := s.store.Character(ctx, characterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}
	if partnerID != "" {
		if _, err := s.store.Character(ctx, partnerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrPartnerNotFound
			}
			return nil, err
		}
	}
	if existing, err := s.store.LiveSessionByCharacter(ctx, characterID); err == nil {
		return nil, &ConflictError{ExistingSessionID: existing.ID}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	companions, err := s.store.ActiveCompanions(ctx, characterID)
	if err != nil {
		return nil, err
	}
	sess := &store.Session{
		CharacterID:   characterID,
		CampaignID:    c.CampaignID,
		Provider:      preferred,
		CalendarStart: 0,
	}
	if partnerID != "" {
		sess.PartnerID = &partnerID
	}

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()
	raw, backend, err := s.gw.Generate(genCtx, provider.Request{
		System:    systemContext(c, sess, companions),
		Player:    openingAction,
		Preferred: preferred,
	})
	if err != nil {
		return nil, err
	}
	opening := s.cleanOnly(raw)

	id, err := s.store.CreateSession(ctx, sess)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			if existing, lookupErr := s.store.LiveSessionByCharacter(ctx, characterID); lookupErr == nil {
				return nil, &ConflictError{ExistingSessionID: existing.ID}
			}
			return nil, &ConflictError{}
		}
		return nil, err
	}
	sess.ID = id
	sess.Status = store.SessionActive

	if err := s.store.AppendTurns(ctx, id, []store.Turn{{Role: store.RoleNarrator, Text: opening}}); err != nil {
		return nil, err
	}
	log.Info().Str("session_id", id).Str("character_id", characterID).Str("backend", backend).Msg("session started")
	return &StartResult{Session: sess, Narrative: opening, Backend: backend}, nil
}

// Pause suspends an active session.
func (s *Service) Pause(ctx context.Context, sessionID string) error {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Status != store.SessionActive {
		return ErrSessionNotActive
	}
	return s.store.UpdateSessionStatus(ctx, sessionID, store.SessionPaused)
}

// Resume reactivates a paused session, regenerating a short recap when the
// transcript is long enough and none exists. A failed recap generation never
// blocks the resume.
func (s *Service) Resume(ctx context.Context, sessionID string) error {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Status != store.SessionPaused {
		return ErrSessionNotPaused
	}
	if sess.Recap == "" {
		if turns, err := s.store.SessionTurns(ctx, sessionID); err == nil && len(turns) >= recapMinTurns {
			s.regenerateRecap(ctx, sess, turns)
		}
	}
	return s.store.UpdateSessionStatus(ctx, sessionID, store.SessionActive)
}

func (s *Service) regenerateRecap(ctx context.Context, sess *store.Session, turns []store.Turn) {
	c, err := s.store.Character(ctx, sess.CharacterID)
	if err != nil {
		return
	}
	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()
	recap, _, err := s.gw.Generate(genCtx, provider.Request{
		System:    systemContext(c, sess, nil),
		History:   providerHistory(turns),
		Player:    recapInstruction,
		Preferred: sess.Provider,
	})
	if err != nil {
		log.Warn().Str("session_id", sess.ID).Err(err).Msg("recap generation failed; resuming without one")
		return
	}
	recap = s.cleanOnly(recap)
	if err := s.store.SetSessionRecap(ctx, sess.ID, recap); err != nil {
		log.Warn().Str("session_id", sess.ID).Err(err).Msg("storing recap failed")
		return
	}
	sess.Recap = recap
}

// EndResult reports how a session closed.
type EndResult struct {
	Narrative string
	Rewards   reward.Payload
}

// End completes an active session and stores its computed rewards. A session
// with no participant turns earns nothing and closes with a canned line,
// skipping generation entirely.
func (s *Service) End(ctx context.Context, sessionID string) (*EndResult, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != store.SessionActive {
		return nil, ErrSessionNotActive
	}

	played, err := s.store.CountPlayerTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var payload reward.Payload
	closing := cannedClosing
	if played > 0 {
		turns, err := s.store.SessionTurns(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		payload = reward.Calculate(s.now().Sub(sess.StartedAt), summarizeActivity(turns))
		closing = s.epilogue(ctx, sess, turns)
	}

	blob, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := s.store.AppendTurns(ctx, sessionID, []store.Turn{{Role: store.RoleNarrator, Text: closing}}); err != nil {
		return nil, err
	}
	calendarEnd := sess.CalendarStart + int64(payload.HoursElapsed)
	if err := s.store.CompleteSession(ctx, sessionID, blob, calendarEnd, s.now()); err != nil {
		return nil, err
	}
	log.Info().Str("session_id", sessionID).Int64("xp", payload.XP).Msg("session completed")
	return &EndResult{Narrative: closing, Rewards: payload}, nil
}

// epilogue asks the provider for a closing paragraph, degrading to the
// canned line when generation is unavailable.
func (s *Service) epilogue(ctx context.Context, sess *store.Session, turns []store.Turn) string {
	c, err := s.store.Character(ctx, sess.CharacterID)
	if err != nil {
		return cannedClosing
	}
	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()
	text, _, err := s.gw.Generate(genCtx, provider.Request{
		System:    systemContext(c, sess, nil),
		History:   providerHistory(turns),
		Player:    epilogueInstruction,
		Preferred: sess.Provider,
	})
	if err != nil {
		log.Warn().Str("session_id", sess.ID).Err(err).Msg("epilogue generation failed; using canned closing")
		return cannedClosing
	}
	return s.cleanOnly(text)
}

// Abort hard-deletes a live session: no reward, no transcript retained.
func (s *Service) Abort(ctx context.Context, sessionID string) error {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Status != store.SessionActive && sess.Status != store.SessionPaused {
		return ErrSessionNotLive
	}
	return s.store.DeleteSession(ctx, sessionID)
}

// ClaimResult reports what a claim granted.
type ClaimResult struct {
	Rewards      reward.Payload
	CompanionsXP []string
}

// Claim applies a completed session's rewards to the character exactly once.
// Experience goes at full value to the character and to every
// class-progressing active companion; the flag flip and every mutation share
// one transaction, so a retried claim after a partial failure cannot
// double-apply.
func (s *Service) Claim(ctx context.Context, sessionID string) (*ClaimResult, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != store.SessionCompleted {
		return nil, ErrNotCompleted
	}
	if sess.RewardsClaimed {
		return nil, ErrAlreadyClaimed
	}

	var payload reward.Payload
	if len(sess.Rewards) > 0 {
		if err := json.Unmarshal(sess.Rewards, &payload); err != nil {
			return nil, err
		}
	}

	companions, err := s.store.ActiveCompanions(ctx, sess.CharacterID)
	if err != nil {
		return nil, err
	}
	var companionIDs, companionNames []string
	for _, c := range companions {
		if c.Class != "" {
			companionIDs = append(companionIDs, c.ID)
			companionNames = append(companionNames, c.Name)
		}
	}

	var loot []store.ItemGrant
	for _, d := range payload.Loot {
		loot = append(loot, store.ItemGrant{
			OwnerType: store.OwnerCharacter,
			OwnerID:   sess.CharacterID,
			Name:      d.Name,
			Quantity:  d.Quantity,
			PriceCC:   d.ValueCC,
		})
	}

	app := store.ClaimApplication{
		SessionID:    sessionID,
		CharacterID:  sess.CharacterID,
		XP:           payload.XP,
		CoinCC:       payload.Coins.TotalCopper(),
		HPDelta:      payload.HPDelta,
		CompanionIDs: companionIDs,
		Loot:         loot,
	}
	if err := s.store.ClaimSessionRewards(ctx, app); err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}
	log.Info().Str("session_id", sessionID).Int64("xp", payload.XP).Int64("coin_cc", payload.Coins.TotalCopper()).Msg("session rewards claimed")
	return &ClaimResult{Rewards: payload, CompanionsXP: companionNames}, nil
}

// Session returns a session with its transcript.
func (s *Service) Session(ctx context.Context, sessionID string) (*store.Session, []store.Turn, error) {
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	turns, err := s.store.SessionTurns(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return sess, turns, nil
}

func (s *Service) loadSession(ctx context.Context, sessionID string) (*store.Session, error) {
	sess, err := s.store.Session(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// newRng derives an independent rand source for one cycle; the service-level
// source is guarded because cycles on different sessions run concurrently.
func (s *Service) newRng() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}

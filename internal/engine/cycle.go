package engine

import (
	"context"
	"strings"

	"questforge/internal/engine/apply"
	"questforge/internal/initiative"
	"questforge/internal/marker"
	"questforge/internal/provider"
	"questforge/internal/store"
)

// PostResult is what one message cycle hands back: the cleaned narrative
// plus any structured outcomes its directives produced.
type PostResult struct {
	Narrative      string
	TurnOrder      *initiative.Order
	PendingRecruit *apply.RecruitOffer
	CombatEnded    bool
	Backend        string
}

// Post runs one message cycle: the player's action goes to the provider with
// the full transcript, directives are extracted from the reply and applied,
// and everything the cycle produced commits in one transaction. The
// per-session lock serializes cycles so no two generations interleave on
// one transcript.
func (s *Service) Post(ctx context.Context, sessionID, text string) (*PostResult, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != store.SessionActive {
		return nil, ErrSessionNotActive
	}
	c, err := s.store.Character(ctx, sess.CharacterID)
	if err != nil {
		return nil, err
	}
	companions, err := s.store.ActiveCompanions(ctx, sess.CharacterID)
	if err != nil {
		return nil, err
	}
	turns, err := s.store.SessionTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()
	raw, backend, err := s.gw.Generate(genCtx, provider.Request{
		System:    systemContext(c, sess, companions),
		History:   providerHistory(turns),
		Player:    text,
		Preferred: sess.Provider,
	})
	if err != nil {
		return nil, err
	}

	dirs, narrative := marker.Extract(raw)
	mut := store.CycleMutation{
		SessionID: sessionID,
		Turns: []store.Turn{
			{Role: store.RolePlayer, Text: text},
			{Role: store.RoleNarrator, Text: narrative},
		},
	}
	var res apply.Result
	scene := &apply.Scene{Session: sess, Character: c, Rng: s.newRng()}
	apply.Run(ctx, s.store, scene, dirs, &mut, &res)

	if err := s.store.CommitCycle(ctx, mut); err != nil {
		return nil, err
	}
	return &PostResult{
		Narrative:      narrative,
		TurnOrder:      res.TurnOrder,
		PendingRecruit: res.PendingRecruit,
		CombatEnded:    res.CombatEnded,
		Backend:        backend,
	}, nil
}

// providerHistory converts transcript turns to provider messages. System
// turns ride along so the model keeps seeing stock listings and initiative
// orders it must honor.
func providerHistory(turns []store.Turn) []provider.Message {
	msgs := make([]provider.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, provider.Message{Role: t.Role, Text: t.Text})
	}
	return msgs
}

// cleanOnly strips directive tags without applying them, for generations
// whose instructions forbid tags but whose output may carry them anyway.
func (s *Service) cleanOnly(text string) string {
	return strings.TrimSpace(marker.Clean(text))
}

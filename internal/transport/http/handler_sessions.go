package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"questforge/internal/engine"
	"questforge/internal/provider"
	"questforge/internal/store"

	"github.com/go-chi/chi/v5"
)

// Engine is the session surface the handlers drive.
type Engine interface {
	Start(ctx context.Context, characterID, partnerID, preferred string) (*engine.StartResult, error)
	Post(ctx context.Context, sessionID, text string) (*engine.PostResult, error)
	Pause(ctx context.Context, sessionID string) error
	Resume(ctx context.Context, sessionID string) error
	End(ctx context.Context, sessionID string) (*engine.EndResult, error)
	Abort(ctx context.Context, sessionID string) error
	Claim(ctx context.Context, sessionID string) (*engine.ClaimResult, error)
	Session(ctx context.Context, sessionID string) (*store.Session, []store.Turn, error)
}

type SessionHandlers struct {
	engine Engine
}

func NewSessionHandlers(eng Engine) *SessionHandlers {
	return &SessionHandlers{engine: eng}
}

type createSessionRequest struct {
	CharacterID string `json:"character_id"`
	PartnerID   string `json:"partner_id,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

func (h *SessionHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricSessionStartTotal.Add(1)
		var req createSessionRequest
		if err := decodeJSON(w, r, &req); err != nil || req.CharacterID == "" {
			metricSessionStartErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		res, err := h.engine.Start(r.Context(), req.CharacterID, req.PartnerID, req.Provider)
		if err != nil {
			metricSessionStartErrors.Add(1)
			var conflict *engine.ConflictError
			switch {
			case errors.As(err, &conflict):
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":               "session_conflict",
					"existing_session_id": conflict.ExistingSessionID,
				})
			case errors.Is(err, engine.ErrCharacterNotFound):
				WriteHTTPError(w, http.StatusNotFound, "character_not_found")
			case errors.Is(err, engine.ErrPartnerNotFound):
				WriteHTTPError(w, http.StatusNotFound, "partner_not_found")
			case errors.Is(err, provider.ErrNoProvider):
				WriteHTTPError(w, http.StatusServiceUnavailable, "no_provider")
			default:
				WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			}
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session":   res.Session,
			"narrative": res.Narrative,
			"backend":   res.Backend,
		})
	}
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *SessionHandlers) Message() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricMessageTotal.Add(1)
		var req messageRequest
		if err := decodeJSON(w, r, &req); err != nil || req.Text == "" {
			metricMessageErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		res, err := h.engine.Post(r.Context(), chi.URLParam(r, "session_id"), req.Text)
		if err != nil {
			metricMessageErrors.Add(1)
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"narrative":       res.Narrative,
			"turn_order":      res.TurnOrder,
			"pending_recruit": res.PendingRecruit,
			"combat_ended":    res.CombatEnded,
			"backend":         res.Backend,
		})
	}
}

func (h *SessionHandlers) Pause() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.engine.Pause(r.Context(), chi.URLParam(r, "session_id")); err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": store.SessionPaused})
	}
}

func (h *SessionHandlers) Resume() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.engine.Resume(r.Context(), chi.URLParam(r, "session_id")); err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": store.SessionActive})
	}
}

func (h *SessionHandlers) End() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.engine.End(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    store.SessionCompleted,
			"narrative": res.Narrative,
			"rewards":   res.Rewards,
		})
	}
}

func (h *SessionHandlers) Abort() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.engine.Abort(r.Context(), chi.URLParam(r, "session_id")); err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"deleted": true})
	}
}

func (h *SessionHandlers) Claim() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricClaimTotal.Add(1)
		res, err := h.engine.Claim(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			metricClaimErrors.Add(1)
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rewards":               res.Rewards,
			"companions_progressed": res.CompanionsXP,
		})
	}
}

func (h *SessionHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, turns, err := h.engine.Session(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session": sess,
			"turns":   turns,
		})
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		WriteHTTPError(w, http.StatusNotFound, "session_not_found")
	case errors.Is(err, engine.ErrSessionNotActive):
		WriteHTTPError(w, http.StatusConflict, "session_not_active")
	case errors.Is(err, engine.ErrSessionNotPaused):
		WriteHTTPError(w, http.StatusConflict, "session_not_paused")
	case errors.Is(err, engine.ErrSessionNotLive):
		WriteHTTPError(w, http.StatusConflict, "session_not_live")
	case errors.Is(err, engine.ErrNotCompleted):
		WriteHTTPError(w, http.StatusConflict, "session_not_completed")
	case errors.Is(err, engine.ErrAlreadyClaimed):
		WriteHTTPError(w, http.StatusConflict, "rewards_already_claimed")
	case errors.Is(err, provider.ErrNoProvider):
		WriteHTTPError(w, http.StatusServiceUnavailable, "no_provider")
	default:
		var be *provider.BackendError
		if errors.As(err, &be) {
			WriteHTTPError(w, http.StatusBadGateway, "provider_failed")
			return
		}
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}

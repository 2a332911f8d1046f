package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"questforge/internal/ledger"
	"questforge/internal/store"

	"github.com/go-chi/chi/v5"
)

// WorldHandlers serve the read surfaces: characters, inventories, merchants,
// and the copper ledger.
type WorldHandlers struct {
	store      *store.Store
	ledger     *ledger.Ledger
	campaignID string
}

func NewWorldHandlers(st *store.Store, lg *ledger.Ledger, campaignID string) *WorldHandlers {
	return &WorldHandlers{store: st, ledger: lg, campaignID: campaignID}
}

func (h *WorldHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
	}
}

func (h *WorldHandlers) Character() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.store.Character(r.Context(), chi.URLParam(r, "character_id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "character_not_found")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		companions, err := h.store.ActiveCompanions(r.Context(), c.ID)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"character":  c,
			"companions": companions,
		})
	}
}

func (h *WorldHandlers) CharacterInventory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		characterID := chi.URLParam(r, "character_id")
		c, err := h.store.Character(r.Context(), characterID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "character_not_found")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		items, err := h.store.Inventory(r.Context(), store.OwnerCharacter, characterID)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items":    items,
			"purse_cc": c.PurseCC,
		})
	}
}

func (h *WorldHandlers) CharacterLedger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		from, to := parseTimeRange(r)
		items, err := h.ledger.CharacterHistory(r.Context(), chi.URLParam(r, "character_id"), from, to, limit, offset)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items, "limit": limit, "offset": offset})
	}
}

func (h *WorldHandlers) Merchants() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchants, err := h.store.ListMerchants(r.Context(), h.campaignID)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": merchants})
	}
}

func (h *WorldHandlers) MerchantStock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := h.store.Merchant(r.Context(), chi.URLParam(r, "merchant_id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "merchant_not_found")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		items, err := h.store.Inventory(r.Context(), store.OwnerMerchant, m.ID)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"merchant": m,
			"items":    items,
		})
	}
}

func parseTimeRange(r *http.Request) (*time.Time, *time.Time) {
	var from, to *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = &t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = &t
		}
	}
	return from, to
}

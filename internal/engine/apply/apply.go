// Package apply executes directives extracted from generated narrative
// against persisted game state. Appliers are best-effort: a directive that
// cannot be applied is logged and skipped, never allowed to block the
// narrative from reaching the player.
package apply

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog/log"

	"questforge/internal/initiative"
	"questforge/internal/marker"
	"questforge/internal/store"
)

// Store is the read surface appliers use while deciding their mutations.
// Writes go into the shared CycleMutation and commit with the transcript.
type Store interface {
	RecruitableNPC(ctx context.Context, campaignID, name string) (*store.NPC, error)
	MerchantByName(ctx context.Context, campaignID, name string) (*store.Merchant, error)
	Inventory(ctx context.Context, ownerType, ownerID string) ([]store.InventoryLine, error)
	ActiveCompanions(ctx context.Context, characterID string) ([]store.NPC, error)
}

// Scene is the per-cycle context shared by the applier chain.
type Scene struct {
	Session   *store.Session
	Character *store.Character
	Rng       *rand.Rand
}

// RecruitOffer surfaces a possible party addition. Recruitment always needs
// player confirmation; appliers never join an NPC to the party silently.
type RecruitOffer struct {
	NPCID string `json:"npc_id"`
	Name  string `json:"name"`
	Race  string `json:"race,omitempty"`
	Class string `json:"class,omitempty"`
	Level int    `json:"level,omitempty"`
}

// Result carries the structured outcomes of one cycle back to the caller.
type Result struct {
	PendingRecruit *RecruitOffer
	TurnOrder      *initiative.Order
	CombatEnded    bool
}

// Applier handles every directive of one kind within a cycle.
type Applier interface {
	Kind() marker.Kind
	Apply(ctx context.Context, st Store, scene *Scene, d marker.Directive, mut *store.CycleMutation, res *Result) error
}

// Chain returns the appliers in execution order. Grants run before merchant
// stocking so stock injection reflects items granted earlier in the same
// turn; combat start precedes combat end so a start+end pair in one turn
// nets out closed.
func Chain() []Applier {
	return []Applier{
		itemGrant{},
		lootDrop{},
		recruit{},
		merchantOpen{},
		merchantReferral{},
		combatStart{},
		combatEnd{},
	}
}

// Run feeds each directive to its applier. A failing applier is logged with
// its directive kind and skipped; the cycle always proceeds.
func Run(ctx context.Context, st Store, scene *Scene, dirs []marker.Directive, mut *store.CycleMutation, res *Result) {
	for _, a := range Chain() {
		for _, d := range dirs {
			if d.Kind != a.Kind() {
				continue
			}
			if err := a.Apply(ctx, st, scene, d, mut, res); err != nil {
				log.Error().
					Str("session_id", scene.Session.ID).
					Str("directive", string(d.Kind)).
					Err(err).
					Msg("directive apply failed; narrative continues")
			}
		}
	}
}

func systemTurn(text string) store.Turn {
	return store.Turn{Role: store.RoleSystem, Text: text}
}

package engine

import (
	"context"
	"time"

	"questforge/internal/store"
)

// Store is the persistence surface the engine drives. *store.Store implements
// it; tests use an in-memory fake.
type Store interface {
	Character(ctx context.Context, id string) (*store.Character, error)
	ActiveCompanions(ctx context.Context, characterID string) ([]store.NPC, error)
	RecruitableNPC(ctx context.Context, campaignID, name string) (*store.NPC, error)
	MerchantByName(ctx context.Context, campaignID, name string) (*store.Merchant, error)
	Inventory(ctx context.Context, ownerType, ownerID string) ([]store.InventoryLine, error)

	CreateSession(ctx context.Context, sess *store.Session) (string, error)
	Session(ctx context.Context, id string) (*store.Session, error)
	LiveSessionByCharacter(ctx context.Context, characterID string) (*store.Session, error)
	UpdateSessionStatus(ctx context.Context, id, status string) error
	SetSessionRecap(ctx context.Context, id, recap string) error
	CompleteSession(ctx context.Context, id string, rewards []byte, calendarEnd int64, endedAt time.Time) error
	DeleteSession(ctx context.Context, id string) error

	SessionTurns(ctx context.Context, sessionID string) ([]store.Turn, error)
	CountPlayerTurns(ctx context.Context, sessionID string) (int, error)
	AppendTurns(ctx context.Context, sessionID string, turns []store.Turn) error
	CommitCycle(ctx context.Context, mut store.CycleMutation) error
	ClaimSessionRewards(ctx context.Context, app store.ClaimApplication) error
}

package store

import (
	"encoding/json"
	"time"
)

// Session statuses.
const (
	SessionActive    = "active"
	SessionPaused    = "paused"
	SessionCompleted = "completed"
)

// Turn roles.
const (
	RoleSystem   = "system"
	RolePlayer   = "player"
	RoleNarrator = "narrator"
)

// Inventory owner kinds.
const (
	OwnerCharacter = "character"
	OwnerNPC       = "npc"
	OwnerMerchant  = "merchant"
)

type Character struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	Name       string    `json:"name"`
	Class      string    `json:"class"`
	Level      int       `json:"level"`
	XP         int64     `json:"xp"`
	HP         int       `json:"hp"`
	MaxHP      int       `json:"max_hp"`
	DexMod     int       `json:"dex_mod"`
	PurseCC    int64     `json:"purse_cc"`
	CreatedAt  time.Time `json:"created_at"`
}

// NPC covers both recruitable characters and active companions. A companion
// is an NPC whose CompanionOf points at a character; class-progressing
// companions carry a non-empty Class.
type NPC struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaign_id"`
	Name        string    `json:"name"`
	Race        string    `json:"race"`
	Class       string    `json:"class"`
	Level       int       `json:"level"`
	XP          int64     `json:"xp"`
	DexMod      int       `json:"dex_mod"`
	Recruitable bool      `json:"recruitable"`
	CompanionOf *string   `json:"companion_of,omitempty"`
	PurseCC     int64     `json:"purse_cc"`
	CreatedAt   time.Time `json:"created_at"`
}

type Session struct {
	ID            string  `json:"id"`
	CharacterID   string  `json:"character_id"`
	PartnerID     *string `json:"partner_id,omitempty"`
	CampaignID    string  `json:"campaign_id"`
	Status        string  `json:"status"`
	Provider      string  `json:"provider,omitempty"`
	Recap         string  `json:"recap,omitempty"`
	CalendarStart int64   `json:"calendar_start"`
	CalendarEnd   *int64  `json:"calendar_end,omitempty"`
	// Rewards and Combat hold JSON payloads; Rewards stays nil until the
	// session completes, Combat nil outside an encounter.
	Rewards        json.RawMessage `json:"rewards,omitempty"`
	RewardsClaimed bool            `json:"rewards_claimed"`
	Combat         json.RawMessage `json:"combat,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	EndedAt        *time.Time      `json:"ended_at,omitempty"`
}

// Turn is one immutable transcript entry. Sequencing relies on the serial id.
type Turn struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type InventoryLine struct {
	ID        string    `json:"id"`
	OwnerType string    `json:"owner_type"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	PriceCC   int64     `json:"price_cc"`
	CreatedAt time.Time `json:"created_at"`
}

type Merchant struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Location   string    `json:"location"`
	PurseCC    int64     `json:"purse_cc"`
	CreatedAt  time.Time `json:"created_at"`
}

type LedgerEntry struct {
	ID        string    `json:"id"`
	OwnerType string    `json:"owner_type"`
	OwnerID   string    `json:"owner_id"`
	Type      string    `json:"type"`
	AmountCC  int64     `json:"amount_cc"`
	RefType   string    `json:"ref_type"`
	RefID     string    `json:"ref_id"`
	CreatedAt time.Time `json:"created_at"`
}

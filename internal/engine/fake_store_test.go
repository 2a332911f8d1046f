package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"questforge/internal/store"
)

// fakeStore is an in-memory Store for engine tests. It mirrors the
// database's behavior where the engine depends on it: one live session per
// character, a single guarded claim, and atomic cycle commits.
type fakeStore struct {
	mu         sync.Mutex
	seq        int
	characters map[string]*store.Character
	npcs       map[string]*store.NPC
	merchants  map[string]*store.Merchant
	inventory  []store.InventoryLine
	sessions   map[string]*store.Session
	turns      map[string][]store.Turn
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		characters: map[string]*store.Character{},
		npcs:       map[string]*store.NPC{},
		merchants:  map[string]*store.Merchant{},
		sessions:   map[string]*store.Session{},
		turns:      map[string][]store.Turn{},
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) addCharacter(c store.Character) *store.Character {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = f.nextID("char")
	}
	if c.CampaignID == "" {
		c.CampaignID = "default"
	}
	f.characters[c.ID] = &c
	return &c
}

func (f *fakeStore) addNPC(n store.NPC) *store.NPC {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.ID == "" {
		n.ID = f.nextID("npc")
	}
	if n.CampaignID == "" {
		n.CampaignID = "default"
	}
	f.npcs[n.ID] = &n
	return &n
}

func (f *fakeStore) Character(_ context.Context, id string) (*store.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.characters[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ActiveCompanions(_ context.Context, characterID string) ([]store.NPC, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.NPC
	for _, n := range f.npcs {
		if n.CompanionOf != nil && *n.CompanionOf == characterID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeStore) RecruitableNPC(_ context.Context, campaignID, name string) (*store.NPC, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.npcs {
		if n.CampaignID == campaignID && n.Recruitable && n.CompanionOf == nil &&
			strings.EqualFold(n.Name, name) {
			cp := *n
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) MerchantByName(_ context.Context, campaignID, name string) (*store.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.merchants {
		if m.CampaignID == campaignID && strings.EqualFold(m.Name, name) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) Inventory(_ context.Context, ownerType, ownerID string) ([]store.InventoryLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.InventoryLine
	for _, line := range f.inventory {
		if line.OwnerType == ownerType && line.OwnerID == ownerID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateSession(_ context.Context, sess *store.Session) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.CharacterID == sess.CharacterID &&
			(s.Status == store.SessionActive || s.Status == store.SessionPaused) {
			return "", store.ErrConflict
		}
	}
	id := f.nextID("sess")
	cp := *sess
	cp.ID = id
	cp.Status = store.SessionActive
	cp.StartedAt = time.Now()
	f.sessions[id] = &cp
	return id, nil
}

func (f *fakeStore) Session(_ context.Context, id string) (*store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) LiveSessionByCharacter(_ context.Context, characterID string) (*store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.CharacterID == characterID &&
			(s.Status == store.SessionActive || s.Status == store.SessionPaused) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UpdateSessionStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Status = status
	return nil
}

func (f *fakeStore) SetSessionRecap(_ context.Context, id, recap string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Recap = recap
	return nil
}

func (f *fakeStore) CompleteSession(_ context.Context, id string, rewards []byte, calendarEnd int64, endedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Status = store.SessionCompleted
	s.Rewards = rewards
	s.CalendarEnd = &calendarEnd
	s.EndedAt = &endedAt
	s.Combat = nil
	return nil
}

func (f *fakeStore) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.sessions, id)
	delete(f.turns, id)
	return nil
}

func (f *fakeStore) SessionTurns(_ context.Context, sessionID string) ([]store.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Turn(nil), f.turns[sessionID]...), nil
}

func (f *fakeStore) CountPlayerTurns(_ context.Context, sessionID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.turns[sessionID] {
		if t.Role == store.RolePlayer {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) AppendTurns(_ context.Context, sessionID string, turns []store.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendTurnsLocked(sessionID, turns)
	return nil
}

func (f *fakeStore) appendTurnsLocked(sessionID string, turns []store.Turn) {
	for _, t := range turns {
		f.seq++
		t.ID = int64(f.seq)
		t.SessionID = sessionID
		t.CreatedAt = time.Now()
		f.turns[sessionID] = append(f.turns[sessionID], t)
	}
}

func (f *fakeStore) CommitCycle(_ context.Context, mut store.CycleMutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Mirrors the merchants campaign+name unique index: the database commit
	// is all-or-nothing, so validate before mutating anything.
	for i, seed := range mut.NewMerchants {
		m := seed.Merchant
		for _, have := range f.merchants {
			if have.CampaignID == m.CampaignID && strings.EqualFold(have.Name, m.Name) {
				return store.ErrConflict
			}
		}
		for _, other := range mut.NewMerchants[:i] {
			if strings.EqualFold(other.Merchant.Name, m.Name) {
				return store.ErrConflict
			}
		}
	}
	f.appendTurnsLocked(mut.SessionID, mut.Turns)
	for _, n := range mut.NewNPCs {
		cp := n
		f.npcs[n.ID] = &cp
	}
	for _, seed := range mut.NewMerchants {
		m := seed.Merchant
		f.merchants[m.ID] = &m
		for _, line := range seed.Stock {
			f.grantLocked(line)
		}
	}
	for _, g := range mut.Grants {
		f.grantLocked(g)
	}
	for _, g := range mut.EnsureStock {
		if !f.hasItemLocked(g.OwnerType, g.OwnerID, g.Name) {
			f.grantLocked(g)
		}
	}
	if s, ok := f.sessions[mut.SessionID]; ok {
		if mut.ClearCombat {
			s.Combat = nil
		} else if mut.SetCombat != nil {
			s.Combat = mut.SetCombat
		}
	}
	return nil
}

func (f *fakeStore) hasItemLocked(ownerType, ownerID, name string) bool {
	for _, line := range f.inventory {
		if line.OwnerType == ownerType && line.OwnerID == ownerID && strings.EqualFold(line.Name, name) {
			return true
		}
	}
	return false
}

func (f *fakeStore) grantLocked(g store.ItemGrant) {
	for i := range f.inventory {
		line := &f.inventory[i]
		if line.OwnerType == g.OwnerType && line.OwnerID == g.OwnerID && strings.EqualFold(line.Name, g.Name) {
			line.Quantity += g.Quantity
			return
		}
	}
	f.inventory = append(f.inventory, store.InventoryLine{
		ID:        f.nextID("item"),
		OwnerType: g.OwnerType,
		OwnerID:   g.OwnerID,
		Name:      g.Name,
		Quantity:  g.Quantity,
		PriceCC:   g.PriceCC,
	})
}

func (f *fakeStore) ClaimSessionRewards(_ context.Context, app store.ClaimApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[app.SessionID]
	if !ok || s.Status != store.SessionCompleted || s.RewardsClaimed {
		return store.ErrAlreadyClaimed
	}
	s.RewardsClaimed = true
	c := f.characters[app.CharacterID]
	c.XP += app.XP
	c.PurseCC += app.CoinCC
	hp := c.HP + app.HPDelta
	if hp > c.MaxHP {
		hp = c.MaxHP
	}
	if hp < 1 {
		hp = 1
	}
	c.HP = hp
	for _, id := range app.CompanionIDs {
		if n, ok := f.npcs[id]; ok {
			n.XP += app.XP
		}
	}
	for _, g := range app.Loot {
		f.grantLocked(g)
	}
	return nil
}

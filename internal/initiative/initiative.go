// Package initiative computes combat turn order. The resolver is stateless:
// it rolls once at combat start and the caller owns round advancement.
package initiative

import (
	"math/rand"
	"sort"
	"strings"
)

type CombatantType string

const (
	TypeParticipant CombatantType = "participant"
	TypeCompanion   CombatantType = "companion"
	TypeAdversary   CombatantType = "adversary"
)

// Combatant is one entrant in an encounter. Modifier is dexterity-derived for
// sheet-backed combatants and heuristically estimated for bare adversaries.
type Combatant struct {
	Name     string
	Type     CombatantType
	Modifier int
}

// Entry is one row of the resolved order.
type Entry struct {
	Name     string        `json:"name"`
	Type     CombatantType `json:"type"`
	Roll     int           `json:"roll"`
	Modifier int           `json:"modifier"`
	Total    int           `json:"total"`

	// Drawn with the roll; the sort comparator must be a fixed ordering, so
	// full ties break on this instead of a draw inside the less function.
	tiebreak int
}

// Order is the authoritative turn sequence for an encounter.
type Order struct {
	Entries []Entry `json:"entries"`
	Current int     `json:"current"`
	Round   int     `json:"round"`
}

// Resolve draws one d20 per combatant, adds the modifier, and sorts by total
// descending. Ties break by higher modifier, then by a per-combatant
// tiebreak drawn alongside the roll.
func Resolve(rng *rand.Rand, combatants []Combatant) Order {
	entries := make([]Entry, 0, len(combatants))
	for _, c := range combatants {
		roll := rng.Intn(20) + 1
		entries = append(entries, Entry{
			Name:     c.Name,
			Type:     c.Type,
			Roll:     roll,
			Modifier: c.Modifier,
			Total:    roll + c.Modifier,
			tiebreak: rng.Int(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		if entries[i].Modifier != entries[j].Modifier {
			return entries[i].Modifier > entries[j].Modifier
		}
		return entries[i].tiebreak > entries[j].tiebreak
	})
	return Order{Entries: entries, Current: 0, Round: 1}
}

// EstimateModifier guesses an adversary's modifier from its name when no
// sheet exists. Small and nimble creatures act faster than hulking ones.
func EstimateModifier(name string) int {
	switch classify(name) {
	case sizeSmall:
		return 2
	case sizeLarge:
		return -1
	default:
		return 0
	}
}

type sizeClass int

const (
	sizeMedium sizeClass = iota
	sizeSmall
	sizeLarge
)

var smallKinds = []string{"goblin", "kobold", "rat", "imp", "sprite", "stirge"}
var largeKinds = []string{"ogre", "troll", "giant", "golem", "bear", "zombie"}

func classify(name string) sizeClass {
	lower := strings.ToLower(name)
	for _, k := range smallKinds {
		if strings.Contains(lower, k) {
			return sizeSmall
		}
	}
	for _, k := range largeKinds {
		if strings.Contains(lower, k) {
			return sizeLarge
		}
	}
	return sizeMedium
}

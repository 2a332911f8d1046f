// Package reward converts a session's narrative activity summary into
// experience, coin, and derived effects at session end.
package reward

import (
	"time"

	"questforge/internal/currency"
)

// Summary scores how much actually happened during a session, per category.
// Scores are small integers (0-5) derived from the transcript.
type Summary struct {
	Combat      int `json:"combat"`
	Exploration int `json:"exploration"`
	Social      int `json:"social"`
	Discovery   int `json:"discovery"`
	Danger      int `json:"danger"`
}

func (s Summary) Total() int {
	return s.Combat + s.Exploration + s.Social + s.Discovery + s.Danger
}

// Drop is one line of claimable loot.
type Drop struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	ValueCC  int64  `json:"value_cc"`
}

// Payload is the computed, claimable outcome of a session.
type Payload struct {
	XP           int64          `json:"xp"`
	Coins        currency.Coins `json:"coins"`
	Loot         []Drop         `json:"loot,omitempty"`
	HPDelta      int            `json:"hp_delta"`
	HoursElapsed int            `json:"hours_elapsed"`
}

func (p Payload) IsZero() bool {
	return p.XP == 0 && p.Coins.IsZero() && len(p.Loot) == 0 && p.HPDelta == 0 && p.HoursElapsed == 0
}

// Sessions scoring below this total are treated as idle and earn nothing.
const minMeaningfulActivity = 3

// Experience and coin weights per activity category.
const (
	xpPerMinute     = 2
	xpPerCombat     = 25
	xpPerExplore    = 15
	xpPerSocial     = 10
	xpPerDiscovery  = 20
	xpPerDanger     = 15
	copperPerMinute = 1
	copperPerCombat = 15
	copperPerFind   = 25
	copperPerSocial = 5
)

// Calculate derives the payload from session duration and activity. An idle
// session earns zero regardless of how long it ran.
func Calculate(duration time.Duration, s Summary) Payload {
	if s.Total() < minMeaningfulActivity {
		return Payload{}
	}
	minutes := int64(duration / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if minutes > 240 {
		minutes = 240
	}

	xp := minutes*xpPerMinute +
		int64(s.Combat)*xpPerCombat +
		int64(s.Exploration)*xpPerExplore +
		int64(s.Social)*xpPerSocial +
		int64(s.Discovery)*xpPerDiscovery +
		int64(s.Danger)*xpPerDanger

	cp := minutes*copperPerMinute +
		int64(s.Combat)*copperPerCombat +
		int64(s.Discovery)*copperPerFind +
		int64(s.Social)*copperPerSocial

	hp := -(s.Danger*2 + s.Combat*3)
	if hp < -20 {
		hp = -20
	}

	hours := 1 + int(minutes/30) + s.Exploration
	return Payload{
		XP:           xp,
		Coins:        currency.FromCopper(cp),
		Loot:         lootFor(s),
		HPDelta:      hp,
		HoursElapsed: hours,
	}
}

// lootFor picks physical drops from the activity scores. Picks are
// deterministic so an end payload recomputed from the same transcript claims
// the same items.
func lootFor(s Summary) []Drop {
	var drops []Drop
	if s.Discovery >= 2 {
		drops = append(drops, Drop{Name: "Uncut Gemstone", Quantity: s.Discovery / 2, ValueCC: 40})
	}
	if s.Combat >= 3 {
		drops = append(drops, Drop{Name: "Battle Trophy", Quantity: 1, ValueCC: 25})
	}
	if s.Danger >= 4 {
		drops = append(drops, Drop{Name: "Venom Sac", Quantity: 1, ValueCC: 30})
	}
	return drops
}

package engine

import (
	"strings"

	"questforge/internal/reward"
	"questforge/internal/store"
)

// Category keyword lists for scoring narrative activity. Matching is crude
// on purpose: scores only need to separate an eventful session from an idle
// one and grade roughly how eventful it was.
var activityKeywords = map[string][]string{
	"combat":      {"attack", "strike", "fight", "battle", "initiative", "combat", "slain", "wound"},
	"exploration": {"travel", "path", "cavern", "forest", "ruins", "door", "tunnel", "map", "journey"},
	"social":      {"says", "asks", "merchant", "tavern", "bargain", "persuade", "conversation", "greets"},
	"discovery":   {"discover", "uncover", "found", "reveal", "secret", "treasure", "loot", "chest"},
	"danger":      {"trap", "poison", "ambush", "bleed", "collapse", "scream", "deadly", "danger"},
}

// summarizeActivity scores the transcript per category. Player turns count
// double: what the player chose to do weighs more than narration flourish.
func summarizeActivity(turns []store.Turn) reward.Summary {
	counts := map[string]int{}
	for _, t := range turns {
		if t.Role == store.RoleSystem {
			continue
		}
		weight := 1
		if t.Role == store.RolePlayer {
			weight = 2
		}
		lower := strings.ToLower(t.Text)
		for category, words := range activityKeywords {
			for _, w := range words {
				if strings.Contains(lower, w) {
					counts[category] += weight
				}
			}
		}
	}
	return reward.Summary{
		Combat:      clampScore(counts["combat"]),
		Exploration: clampScore(counts["exploration"]),
		Social:      clampScore(counts["social"]),
		Discovery:   clampScore(counts["discovery"]),
		Danger:      clampScore(counts["danger"]),
	}
}

// clampScore maps raw keyword hits onto the 0-5 summary scale.
func clampScore(hits int) int {
	score := hits / 2
	if score > 5 {
		score = 5
	}
	return score
}

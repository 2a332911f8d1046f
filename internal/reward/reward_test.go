package reward

import (
	"testing"
	"time"
)

func TestBelowThresholdEarnsNothing(t *testing.T) {
	tests := []struct {
		name string
		s    Summary
	}{
		{name: "idle", s: Summary{}},
		{name: "barely anything", s: Summary{Social: 2}},
		{name: "long but idle", s: Summary{Exploration: 1, Social: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Calculate(3*time.Hour, tt.s)
			if !p.IsZero() {
				t.Fatalf("expected zero payload, got %+v", p)
			}
		})
	}
}

func TestRewardScalesWithActivity(t *testing.T) {
	quiet := Calculate(30*time.Minute, Summary{Exploration: 2, Social: 1})
	busy := Calculate(30*time.Minute, Summary{Combat: 3, Exploration: 2, Discovery: 2, Danger: 1})
	if quiet.XP <= 0 || busy.XP <= quiet.XP {
		t.Fatalf("xp did not scale: quiet=%d busy=%d", quiet.XP, busy.XP)
	}
	if busy.Coins.TotalCopper() <= quiet.Coins.TotalCopper() {
		t.Fatalf("coin did not scale: quiet=%d busy=%d", quiet.Coins.TotalCopper(), busy.Coins.TotalCopper())
	}
}

func TestLootFollowsDiscoveryAndCombat(t *testing.T) {
	quiet := Calculate(time.Hour, Summary{Exploration: 2, Social: 1})
	if len(quiet.Loot) != 0 {
		t.Fatalf("quiet session dropped loot: %+v", quiet.Loot)
	}

	busy := Calculate(time.Hour, Summary{Combat: 4, Discovery: 4, Danger: 4})
	if len(busy.Loot) == 0 {
		t.Fatal("eventful session dropped no loot")
	}
	for _, d := range busy.Loot {
		if d.Name == "" || d.Quantity < 1 || d.ValueCC <= 0 {
			t.Fatalf("malformed drop: %+v", d)
		}
	}
	again := Calculate(time.Hour, Summary{Combat: 4, Discovery: 4, Danger: 4})
	for i := range busy.Loot {
		if busy.Loot[i] != again.Loot[i] {
			t.Fatalf("loot not deterministic: %+v vs %+v", busy.Loot[i], again.Loot[i])
		}
	}
}

func TestDangerCostsHP(t *testing.T) {
	p := Calculate(time.Hour, Summary{Combat: 2, Danger: 3})
	if p.HPDelta >= 0 {
		t.Fatalf("expected negative hp delta, got %d", p.HPDelta)
	}
	severe := Calculate(time.Hour, Summary{Combat: 5, Danger: 5})
	if severe.HPDelta < -20 {
		t.Fatalf("hp delta below cap: %d", severe.HPDelta)
	}
}

func TestDurationClamps(t *testing.T) {
	short := Calculate(10*time.Second, Summary{Combat: 2, Discovery: 1})
	if short.XP <= 0 {
		t.Fatalf("sub-minute session should still earn from activity")
	}
	day := Calculate(24*time.Hour, Summary{Combat: 2, Discovery: 1})
	fourHours := Calculate(4*time.Hour, Summary{Combat: 2, Discovery: 1})
	if day.XP != fourHours.XP {
		t.Fatalf("duration not clamped: %d vs %d", day.XP, fourHours.XP)
	}
}

package currency

import (
	"errors"
	"testing"
)

func TestFromCopperNormalizes(t *testing.T) {
	tests := []struct {
		name string
		cp   int64
		want Coins
	}{
		{name: "zero", cp: 0, want: Coins{}},
		{name: "copper only", cp: 7, want: Coins{Copper: 7}},
		{name: "silver boundary", cp: 10, want: Coins{Silver: 1}},
		{name: "gold boundary", cp: 100, want: Coins{Gold: 1}},
		{name: "mixed", cp: 1234, want: Coins{Gold: 12, Silver: 3, Copper: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromCopper(tt.cp)
			if got != tt.want {
				t.Fatalf("FromCopper(%d) = %+v, want %+v", tt.cp, got, tt.want)
			}
			if got.TotalCopper() != tt.cp {
				t.Fatalf("round trip lost value: %d != %d", got.TotalCopper(), tt.cp)
			}
		})
	}
}

func TestSpendInsufficient(t *testing.T) {
	purse := Coins{Gold: 1}
	if _, err := purse.Spend(101); !errors.Is(err, ErrInsufficient) {
		t.Fatalf("expected ErrInsufficient, got %v", err)
	}
	// purse untouched on failure
	if purse.TotalCopper() != 100 {
		t.Fatalf("purse mutated on failed spend")
	}
}

func TestSpendRebalancesDenominations(t *testing.T) {
	purse := Coins{Gold: 5}
	after, err := purse.Spend(1)
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	want := Coins{Gold: 4, Silver: 9, Copper: 9}
	if after != want {
		t.Fatalf("after = %+v, want %+v", after, want)
	}
}

func TestConservationOverTradeSequence(t *testing.T) {
	purse := Coins{Gold: 10, Silver: 4, Copper: 7}
	initial := purse.TotalCopper()
	costs := []int64{37, 205, 1, 99}
	earnings := []int64{120, 3, 450}

	var spent, earned int64
	for _, c := range costs {
		next, err := purse.Spend(c)
		if err != nil {
			t.Fatalf("spend %d: %v", c, err)
		}
		purse = next
		spent += c
	}
	for _, e := range earnings {
		purse = purse.Earn(e)
		earned += e
	}
	if got := purse.TotalCopper(); got != initial-spent+earned {
		t.Fatalf("conservation violated: %d != %d - %d + %d", got, initial, spent, earned)
	}
}

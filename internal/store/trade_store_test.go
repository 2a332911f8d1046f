package store

import (
	"context"
	"errors"
	"testing"
)

func seedMerchantWithStock(t *testing.T, st *Store, ctx context.Context, purseCC int64) string {
	t.Helper()
	merchantID := NewID()
	if _, err := st.DB.ExecContext(ctx, `INSERT INTO merchants (id, campaign_id, name, type, location, purse_cc) VALUES ($1,$2,$3,$4,$5,$6)`,
		merchantID, "default", "Hilda", "blacksmith", "Millbrook", purseCC); err != nil {
		t.Fatalf("insert merchant: %v", err)
	}
	if err := st.GrantItem(ctx, ItemGrant{OwnerType: OwnerMerchant, OwnerID: merchantID, Name: "Longsword", Quantity: 2, PriceCC: 300}); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return merchantID
}

func TestExecuteTradeBuyMovesCoinAndStock(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	charID := mustCreateCharacter(t, st, ctx, "Wren", 1000)
	merchantID := seedMerchantWithStock(t, st, ctx, 500)

	err := st.ExecuteTrade(ctx, Trade{
		CharacterID: charID,
		MerchantID:  merchantID,
		Item:        "longsword",
		Quantity:    1,
		UnitCC:      300,
		Buy:         true,
	})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}

	c, _ := st.Character(ctx, charID)
	if c.PurseCC != 700 {
		t.Fatalf("character purse = %d, want 700", c.PurseCC)
	}
	m, _ := st.Merchant(ctx, merchantID)
	if m.PurseCC != 800 {
		t.Fatalf("merchant purse = %d, want 800", m.PurseCC)
	}
	charInv, _ := st.Inventory(ctx, OwnerCharacter, charID)
	if len(charInv) != 1 || charInv[0].Quantity != 1 {
		t.Fatalf("character inventory = %+v", charInv)
	}
	stock, _ := st.Inventory(ctx, OwnerMerchant, merchantID)
	if len(stock) != 1 || stock[0].Quantity != 1 {
		t.Fatalf("merchant stock = %+v", stock)
	}

	entries, _ := st.ListLedgerEntries(ctx, LedgerFilter{OwnerID: charID}, 10, 0)
	if len(entries) != 1 || entries[0].AmountCC != -300 || entries[0].Type != "purchase" {
		t.Fatalf("character ledger = %+v", entries)
	}
	entries, _ = st.ListLedgerEntries(ctx, LedgerFilter{OwnerID: merchantID}, 10, 0)
	if len(entries) != 1 || entries[0].AmountCC != 300 {
		t.Fatalf("merchant ledger = %+v", entries)
	}
}

func TestExecuteTradeSellIsReverse(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	charID := mustCreateCharacter(t, st, ctx, "Wren", 100)
	merchantID := seedMerchantWithStock(t, st, ctx, 500)
	if err := st.GrantItem(ctx, ItemGrant{OwnerType: OwnerCharacter, OwnerID: charID, Name: "Pelt", Quantity: 3, PriceCC: 40}); err != nil {
		t.Fatalf("grant pelt: %v", err)
	}

	err := st.ExecuteTrade(ctx, Trade{
		CharacterID: charID,
		MerchantID:  merchantID,
		Item:        "Pelt",
		Quantity:    2,
		UnitCC:      40,
	})
	if err != nil {
		t.Fatalf("sell: %v", err)
	}

	c, _ := st.Character(ctx, charID)
	if c.PurseCC != 180 {
		t.Fatalf("character purse = %d, want 180", c.PurseCC)
	}
	m, _ := st.Merchant(ctx, merchantID)
	if m.PurseCC != 420 {
		t.Fatalf("merchant purse = %d, want 420", m.PurseCC)
	}
	stock, _ := st.Inventory(ctx, OwnerMerchant, merchantID)
	var pelts int
	for _, l := range stock {
		if l.Name == "Pelt" {
			pelts = l.Quantity
		}
	}
	if pelts != 2 {
		t.Fatalf("merchant pelts = %d, want 2", pelts)
	}
	entries, _ := st.ListLedgerEntries(ctx, LedgerFilter{OwnerID: charID}, 10, 0)
	if len(entries) != 1 || entries[0].AmountCC != 80 || entries[0].Type != "sale_income" {
		t.Fatalf("character ledger = %+v", entries)
	}
}

func TestExecuteTradePreconditionFailuresRollBack(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	charID := mustCreateCharacter(t, st, ctx, "Wren", 100)
	merchantID := seedMerchantWithStock(t, st, ctx, 50)

	// character cannot afford the sword
	err := st.ExecuteTrade(ctx, Trade{CharacterID: charID, MerchantID: merchantID, Item: "Longsword", Quantity: 1, UnitCC: 300, Buy: true})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("buy err = %v, want ErrInsufficientFunds", err)
	}

	// merchant does not stock that many
	err = st.ExecuteTrade(ctx, Trade{CharacterID: charID, MerchantID: merchantID, Item: "Longsword", Quantity: 5, UnitCC: 10, Buy: true})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("overbuy err = %v, want ErrInsufficientStock", err)
	}

	// merchant cannot afford the purchase
	if err := st.GrantItem(ctx, ItemGrant{OwnerType: OwnerCharacter, OwnerID: charID, Name: "Gem", Quantity: 1, PriceCC: 100}); err != nil {
		t.Fatalf("grant gem: %v", err)
	}
	err = st.ExecuteTrade(ctx, Trade{CharacterID: charID, MerchantID: merchantID, Item: "Gem", Quantity: 1, UnitCC: 100})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("sell err = %v, want ErrInsufficientFunds", err)
	}

	// nothing moved
	c, _ := st.Character(ctx, charID)
	if c.PurseCC != 100 {
		t.Fatalf("character purse = %d, want untouched 100", c.PurseCC)
	}
	m, _ := st.Merchant(ctx, merchantID)
	if m.PurseCC != 50 {
		t.Fatalf("merchant purse = %d, want untouched 50", m.PurseCC)
	}
	entries, _ := st.ListLedgerEntries(ctx, LedgerFilter{}, 10, 0)
	if len(entries) != 0 {
		t.Fatalf("ledger entries after failed trades = %+v", entries)
	}
}

func TestTradeSequenceConservesCopper(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	charID := mustCreateCharacter(t, st, ctx, "Wren", 1000)
	merchantID := seedMerchantWithStock(t, st, ctx, 500)

	trades := []Trade{
		{CharacterID: charID, MerchantID: merchantID, Item: "Longsword", Quantity: 1, UnitCC: 300, Buy: true},
		{CharacterID: charID, MerchantID: merchantID, Item: "Longsword", Quantity: 1, UnitCC: 150},
		{CharacterID: charID, MerchantID: merchantID, Item: "Longsword", Quantity: 1, UnitCC: 300, Buy: true},
	}
	for i, tr := range trades {
		if err := st.ExecuteTrade(ctx, tr); err != nil {
			t.Fatalf("trade %d: %v", i, err)
		}
	}

	c, _ := st.Character(ctx, charID)
	m, _ := st.Merchant(ctx, merchantID)
	if c.PurseCC+m.PurseCC != 1500 {
		t.Fatalf("copper not conserved: %d + %d != 1500", c.PurseCC, m.PurseCC)
	}
	if c.PurseCC != 1000-300+150-300 {
		t.Fatalf("character purse = %d", c.PurseCC)
	}
}

func TestGrantItemRemovesZeroQuantity(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	charID := mustCreateCharacter(t, st, ctx, "Wren", 0)
	if err := st.GrantItem(ctx, ItemGrant{OwnerType: OwnerCharacter, OwnerID: charID, Name: "Torch", Quantity: 2, PriceCC: 5}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := st.GrantItem(ctx, ItemGrant{OwnerType: OwnerCharacter, OwnerID: charID, Name: "torch", Quantity: -2}); err != nil {
		t.Fatalf("consume: %v", err)
	}
	inv, _ := st.Inventory(ctx, OwnerCharacter, charID)
	if len(inv) != 0 {
		t.Fatalf("zero-quantity line kept: %+v", inv)
	}
}

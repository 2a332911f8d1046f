package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"questforge/internal/marker"
	"questforge/internal/store"
)

// merchantOpen finds or lazily creates the named merchant, then injects a
// synthetic system turn listing the merchant's actual stock. Subsequent
// generation is constrained to goods the shop really carries, which stops
// the narrator from selling items that do not exist.
type merchantOpen struct{}

func (merchantOpen) Kind() marker.Kind { return marker.KindMerchantOpen }

func (merchantOpen) Apply(ctx context.Context, st Store, scene *Scene, d marker.Directive, mut *store.CycleMutation, _ *Result) error {
	name := strings.TrimSpace(d.Field("Name"))
	if name == "" {
		return errors.New("merchant directive without a name")
	}

	var lines []stockLine
	var purse int64
	if pending := pendingSeed(mut, name); pending != nil {
		// Already seeded earlier in this cycle; a second seed would collide
		// on the merchant name at commit. Describe the pending shelf instead.
		purse = pending.Merchant.PurseCC
		for _, g := range pending.Stock {
			lines = append(lines, stockLine{Name: g.Name, Quantity: g.Quantity, PriceCC: g.PriceCC})
		}
		mut.Turns = append(mut.Turns, systemTurn(stockNotice(name, lines, purse)))
		return nil
	}
	existing, err := st.MerchantByName(ctx, scene.Session.CampaignID, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		seeded := seedMerchant(scene, name, d.Field("Type"), d.Field("Location"))
		mut.NewMerchants = append(mut.NewMerchants, seeded)
		purse = seeded.Merchant.PurseCC
		for _, g := range seeded.Stock {
			lines = append(lines, stockLine{Name: g.Name, Quantity: g.Quantity, PriceCC: g.PriceCC})
		}
	case err != nil:
		return err
	default:
		// Pick up items granted to this merchant earlier in the same cycle
		// before describing the shelf.
		inv, err := st.Inventory(ctx, store.OwnerMerchant, existing.ID)
		if err != nil {
			return err
		}
		for _, l := range inv {
			lines = append(lines, stockLine{Name: l.Name, Quantity: l.Quantity, PriceCC: l.PriceCC})
		}
		for _, g := range mut.Grants {
			if g.OwnerType == store.OwnerMerchant && g.OwnerID == existing.ID {
				lines = mergeStock(lines, stockLine{Name: g.Name, Quantity: g.Quantity, PriceCC: g.PriceCC})
			}
		}
		purse = existing.PurseCC
	}

	mut.Turns = append(mut.Turns, systemTurn(stockNotice(name, lines, purse)))
	return nil
}

// merchantReferral guarantees a referenced item exists at a second merchant,
// synthesizing a generic entry when the item is unknown, so an "ask the
// other merchant" beat is always satisfiable.
type merchantReferral struct{}

func (merchantReferral) Kind() marker.Kind { return marker.KindMerchantReferral }

func (merchantReferral) Apply(ctx context.Context, st Store, scene *Scene, d marker.Directive, mut *store.CycleMutation, _ *Result) error {
	merchantName := strings.TrimSpace(d.Field("Merchant"))
	item := strings.TrimSpace(d.Field("Item"))
	if merchantName == "" || item == "" {
		return errors.New("referral directive missing merchant or item")
	}

	if pending := pendingSeed(mut, merchantName); pending != nil {
		ensureSeedStock(pending, item)
		return nil
	}
	existing, err := st.MerchantByName(ctx, scene.Session.CampaignID, merchantName)
	switch {
	case errors.Is(err, store.ErrNotFound):
		seeded := seedMerchant(scene, merchantName, "general", "")
		ensureSeedStock(&seeded, item)
		mut.NewMerchants = append(mut.NewMerchants, seeded)
	case err != nil:
		return err
	default:
		mut.EnsureStock = append(mut.EnsureStock, store.ItemGrant{
			OwnerType: store.OwnerMerchant,
			OwnerID:   existing.ID,
			Name:      item,
			Quantity:  1,
			PriceCC:   itemPrice(item),
		})
	}
	return nil
}

func seedMerchant(scene *Scene, name, merchantType, location string) store.MerchantSeed {
	if strings.TrimSpace(merchantType) == "" {
		merchantType = "general"
	}
	level := 1
	if scene.Character != nil {
		level = scene.Character.Level
	}
	m := store.Merchant{
		ID:         store.NewID(),
		CampaignID: scene.Session.CampaignID,
		Name:       name,
		Type:       strings.ToLower(strings.TrimSpace(merchantType)),
		Location:   strings.TrimSpace(location),
		PurseCC:    startingPurse(merchantType, level),
	}
	grants := make([]store.ItemGrant, 0, 8)
	for _, line := range startingStock(merchantType, level) {
		grants = append(grants, store.ItemGrant{
			OwnerType: store.OwnerMerchant,
			OwnerID:   m.ID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			PriceCC:   line.PriceCC,
		})
	}
	return store.MerchantSeed{Merchant: m, Stock: grants}
}

// pendingSeed finds a merchant already seeded earlier in this cycle. Two
// directives naming the same new merchant must share one seed, or the commit
// hits the merchant name unique index and the whole cycle rolls back.
func pendingSeed(mut *store.CycleMutation, name string) *store.MerchantSeed {
	for i := range mut.NewMerchants {
		if strings.EqualFold(mut.NewMerchants[i].Merchant.Name, name) {
			return &mut.NewMerchants[i]
		}
	}
	return nil
}

// ensureSeedStock adds the item to a pending seed unless it already carries
// it under any casing.
func ensureSeedStock(seed *store.MerchantSeed, item string) {
	for _, g := range seed.Stock {
		if strings.EqualFold(g.Name, item) {
			return
		}
	}
	seed.Stock = append(seed.Stock, store.ItemGrant{
		OwnerType: store.OwnerMerchant,
		OwnerID:   seed.Merchant.ID,
		Name:      item,
		Quantity:  1,
		PriceCC:   itemPrice(item),
	})
}

func mergeStock(lines []stockLine, add stockLine) []stockLine {
	for i, l := range lines {
		if strings.EqualFold(l.Name, add.Name) {
			lines[i].Quantity += add.Quantity
			return lines
		}
	}
	return append(lines, add)
}

func stockNotice(name string, lines []stockLine, purseCC int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Merchant %s is open for business. Actual stock (only these items may be offered for sale):\n", name)
	if len(lines) == 0 {
		b.WriteString("- nothing; the shelves are bare\n")
	}
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s x%d at %d copper each\n", l.Name, l.Quantity, l.PriceCC)
	}
	fmt.Fprintf(&b, "The merchant can spend up to %d copper buying from the party.", purseCC)
	return b.String()
}

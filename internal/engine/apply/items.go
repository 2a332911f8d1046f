package apply

import (
	"context"
	"errors"
	"strings"

	"questforge/internal/marker"
	"questforge/internal/store"
)

// itemGrant adds an item to a recipient's inventory. Known catalog items
// carry their category price; anything else is accepted as free text.
type itemGrant struct{}

func (itemGrant) Kind() marker.Kind { return marker.KindItemGrant }

func (itemGrant) Apply(ctx context.Context, st Store, scene *Scene, d marker.Directive, mut *store.CycleMutation, res *Result) error {
	return grantToRecipient(ctx, st, scene, d, mut)
}

// lootDrop is an item grant sourced from the scene (chest, corpse, cache)
// rather than a giver; it shares the grant path.
type lootDrop struct{}

func (lootDrop) Kind() marker.Kind { return marker.KindLootDrop }

func (lootDrop) Apply(ctx context.Context, st Store, scene *Scene, d marker.Directive, mut *store.CycleMutation, res *Result) error {
	return grantToRecipient(ctx, st, scene, d, mut)
}

func grantToRecipient(ctx context.Context, st Store, scene *Scene, d marker.Directive, mut *store.CycleMutation) error {
	item := strings.TrimSpace(d.Field("Item"))
	if item == "" {
		return errors.New("item directive without an item name")
	}
	qty := d.IntField("Quantity", 1)
	if qty <= 0 {
		return errors.New("item directive with non-positive quantity")
	}

	ownerType, ownerID := store.OwnerCharacter, scene.Character.ID
	if recipient := strings.TrimSpace(d.Field("Recipient")); recipient != "" && !strings.EqualFold(recipient, scene.Character.Name) {
		companions, err := st.ActiveCompanions(ctx, scene.Character.ID)
		if err != nil {
			return err
		}
		found := false
		for _, c := range companions {
			if strings.EqualFold(c.Name, recipient) {
				ownerType, ownerID = store.OwnerNPC, c.ID
				found = true
				break
			}
		}
		if !found {
			return errors.New("unknown grant recipient " + recipient)
		}
	}

	mut.Grants = append(mut.Grants, store.ItemGrant{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Name:      item,
		Quantity:  qty,
		PriceCC:   itemPrice(item),
	})
	return nil
}

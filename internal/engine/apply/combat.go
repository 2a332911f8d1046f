package apply

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"questforge/internal/initiative"
	"questforge/internal/marker"
	"questforge/internal/store"
)

// combatStart rolls initiative for the party and the named adversaries and
// injects the computed order as a system turn, so later generation honors
// the sequencing instead of inventing its own.
type combatStart struct{}

func (combatStart) Kind() marker.Kind { return marker.KindCombatStart }

func (combatStart) Apply(ctx context.Context, st Store, scene *Scene, d marker.Directive, mut *store.CycleMutation, res *Result) error {
	enemies := d.ListField("Enemies")
	if len(enemies) == 0 {
		return errors.New("combat start without enemies")
	}

	combatants := []initiative.Combatant{{
		Name:     scene.Character.Name,
		Type:     initiative.TypeParticipant,
		Modifier: scene.Character.DexMod,
	}}
	companions, err := st.ActiveCompanions(ctx, scene.Character.ID)
	if err != nil {
		return err
	}
	for _, c := range companions {
		combatants = append(combatants, initiative.Combatant{
			Name:     c.Name,
			Type:     initiative.TypeCompanion,
			Modifier: c.DexMod,
		})
	}
	seen := map[string]int{}
	for _, e := range enemies {
		// duplicate adversary names get numbered so the order stays usable
		seen[strings.ToLower(e)]++
		name := e
		if n := seen[strings.ToLower(e)]; n > 1 || countOf(enemies, e) > 1 {
			name = fmt.Sprintf("%s %d", e, n)
		}
		combatants = append(combatants, initiative.Combatant{
			Name:     name,
			Type:     initiative.TypeAdversary,
			Modifier: initiative.EstimateModifier(e),
		})
	}

	order := initiative.Resolve(scene.Rng, combatants)
	blob, err := json.Marshal(order)
	if err != nil {
		return err
	}
	mut.SetCombat = blob
	mut.ClearCombat = false
	res.TurnOrder = &order
	mut.Turns = append(mut.Turns, systemTurn(orderNotice(order)))
	return nil
}

// combatEnd is a pure signal: it clears the stored encounter and tells the
// caller combat is over. No other state changes.
type combatEnd struct{}

func (combatEnd) Kind() marker.Kind { return marker.KindCombatEnd }

func (combatEnd) Apply(_ context.Context, _ Store, _ *Scene, _ marker.Directive, mut *store.CycleMutation, res *Result) error {
	mut.ClearCombat = true
	mut.SetCombat = nil
	res.CombatEnded = true
	return nil
}

func countOf(names []string, target string) int {
	n := 0
	for _, name := range names {
		if strings.EqualFold(name, target) {
			n++
		}
	}
	return n
}

func orderNotice(order initiative.Order) string {
	var b strings.Builder
	b.WriteString("Combat has begun. Initiative order (round 1, honor it strictly):\n")
	for i, e := range order.Entries {
		fmt.Fprintf(&b, "%d. %s (%s) rolled %d%+d = %d\n", i+1, e.Name, e.Type, e.Roll, e.Modifier, e.Total)
	}
	b.WriteString("It is " + order.Entries[0].Name + "'s turn.")
	return b.String()
}

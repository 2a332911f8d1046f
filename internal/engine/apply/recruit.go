package apply

import (
	"context"
	"errors"
	"strings"

	"questforge/internal/marker"
	"questforge/internal/store"
)

// recruit resolves a recruitment beat to a known recruitable NPC, creating
// the NPC first when the narrator supplied full attributes for someone new.
// The offer is only surfaced: joining the party is the player's call.
type recruit struct{}

func (recruit) Kind() marker.Kind { return marker.KindRecruitOffer }

func (recruit) Apply(ctx context.Context, st Store, scene *Scene, d marker.Directive, mut *store.CycleMutation, res *Result) error {
	name := strings.TrimSpace(d.Field("Name"))
	if name == "" {
		return errors.New("recruit directive without a name")
	}

	npc, err := st.RecruitableNPC(ctx, scene.Session.CampaignID, name)
	switch {
	case err == nil:
		res.PendingRecruit = &RecruitOffer{
			NPCID: npc.ID,
			Name:  npc.Name,
			Race:  npc.Race,
			Class: npc.Class,
			Level: npc.Level,
		}
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	race := strings.TrimSpace(d.Field("Race"))
	class := strings.TrimSpace(d.Field("Class"))
	if race == "" || class == "" {
		// Not a known recruit and not enough detail to create one; the
		// narration stands on its own.
		return nil
	}
	level := d.IntField("Level", 1)
	if level < 1 {
		level = 1
	}
	created := store.NPC{
		ID:          store.NewID(),
		CampaignID:  scene.Session.CampaignID,
		Name:        name,
		Race:        race,
		Class:       class,
		Level:       level,
		Recruitable: true,
	}
	mut.NewNPCs = append(mut.NewNPCs, created)
	res.PendingRecruit = &RecruitOffer{
		NPCID: created.ID,
		Name:  created.Name,
		Race:  created.Race,
		Class: created.Class,
		Level: created.Level,
	}
	return nil
}

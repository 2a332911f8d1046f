package engine

import (
	"fmt"
	"strings"

	"questforge/internal/store"
)

// systemContext builds the narrator instructions for one generation: the
// character sheet, any stored recap, and the directive protocol the narrator
// must use for anything that changes game state.
func systemContext(c *store.Character, sess *store.Session, companions []store.NPC) string {
	var b strings.Builder
	b.WriteString("You are the narrator of an ongoing tabletop adventure. ")
	b.WriteString("Narrate vividly in second person, two to four paragraphs, and always end at a point where the player can act.\n\n")

	fmt.Fprintf(&b, "The player character: %s, a level %d %s (%d/%d HP).\n", c.Name, c.Level, c.Class, c.HP, c.MaxHP)
	if len(companions) > 0 {
		names := make([]string, 0, len(companions))
		for _, n := range companions {
			names = append(names, fmt.Sprintf("%s (%s %s)", n.Name, n.Race, n.Class))
		}
		fmt.Fprintf(&b, "Traveling companions: %s.\n", strings.Join(names, ", "))
	}
	if sess.Recap != "" {
		b.WriteString("\nPreviously: " + sess.Recap + "\n")
	}

	b.WriteString(`
Whenever the story changes game state, embed exactly one matching tag in your reply; the tags are stripped before the player sees the text:
- [MERCHANT_OPEN: Name="..." Type="..." Location="..."] when the player enters a shop.
- [MERCHANT_REFERRAL: Merchant="..." Item="..."] when a merchant points the player to another seller for an item.
- [ITEM_GRANT: Item="..." Quantity="..." Recipient="..."] when someone receives an item.
- [LOOT_DROP: Item="..." Source="..."] when loot is found.
- [RECRUIT_OFFER: Name="..." Race="..." Class="..." Level="..."] when a character offers to join the party.
- [COMBAT_START: Enemies="name,name,..."] the moment a fight breaks out.
- [COMBAT_END] when the last adversary falls or flees.
Only reference merchant stock that a system message has listed. Honor any initiative order a system message provides.`)
	return b.String()
}

const openingAction = "Set the opening scene of a new adventure for the character and invite their first action."

const recapInstruction = "Summarize the adventure so far in at most four sentences, in past tense, for a player returning after a break. Do not use any tags."

const epilogueInstruction = "Bring the current scene to a gentle close in one short paragraph. Do not use any tags."

const cannedClosing = "The adventure ends before it truly began; the road will still be there tomorrow."

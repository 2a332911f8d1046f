package apply

import "strings"

// catalogEntry gives known items a category and a base price so merchant
// stock and loot carry sensible values. Items outside the catalog are
// accepted as free text with a generic price.
type catalogEntry struct {
	Category string
	PriceCC  int64
}

const genericPriceCC = 50

var itemCatalog = map[string]catalogEntry{
	"potion of healing": {Category: "potion", PriceCC: 500},
	"antitoxin":         {Category: "potion", PriceCC: 300},
	"torch":             {Category: "gear", PriceCC: 1},
	"rope":              {Category: "gear", PriceCC: 100},
	"rations":           {Category: "provision", PriceCC: 50},
	"waterskin":         {Category: "provision", PriceCC: 20},
	"dagger":            {Category: "weapon", PriceCC: 200},
	"shortsword":        {Category: "weapon", PriceCC: 1000},
	"longsword":         {Category: "weapon", PriceCC: 1500},
	"shortbow":          {Category: "weapon", PriceCC: 2500},
	"arrow":             {Category: "ammunition", PriceCC: 5},
	"leather armor":     {Category: "armor", PriceCC: 1000},
	"chain shirt":       {Category: "armor", PriceCC: 5000},
	"shield":            {Category: "armor", PriceCC: 1000},
	"lantern":           {Category: "gear", PriceCC: 500},
	"oil flask":         {Category: "gear", PriceCC: 10},
	"herb bundle":       {Category: "reagent", PriceCC: 25},
	"smith's tools":     {Category: "tool", PriceCC: 2000},
	"lockpicks":         {Category: "tool", PriceCC: 2500},
	"scroll of mending": {Category: "scroll", PriceCC: 1500},
	"scroll of light":   {Category: "scroll", PriceCC: 1000},
}

func lookupItem(name string) (catalogEntry, bool) {
	e, ok := itemCatalog[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

func itemPrice(name string) int64 {
	if e, ok := lookupItem(name); ok {
		return e.PriceCC
	}
	return genericPriceCC
}

// merchantTemplates define the deterministic starting stock per merchant
// type. Quantities scale mildly with the participant's level.
var merchantTemplates = map[string][]string{
	"general":    {"torch", "rope", "rations", "waterskin", "oil flask", "lantern"},
	"blacksmith": {"dagger", "shortsword", "longsword", "shield", "chain shirt"},
	"alchemist":  {"potion of healing", "antitoxin", "herb bundle"},
	"fletcher":   {"shortbow", "arrow"},
	"scribe":     {"scroll of mending", "scroll of light"},
}

type stockLine struct {
	Name     string
	Quantity int
	PriceCC  int64
}

// startingStock builds a merchant's opening inventory. Unknown merchant
// types stock as a general trader.
func startingStock(merchantType string, level int) []stockLine {
	names, ok := merchantTemplates[strings.ToLower(strings.TrimSpace(merchantType))]
	if !ok {
		names = merchantTemplates["general"]
	}
	if level < 1 {
		level = 1
	}
	out := make([]stockLine, 0, len(names))
	for _, n := range names {
		qty := 2 + level/2
		if e, _ := lookupItem(n); e.Category == "ammunition" {
			qty = 20 * level
		}
		out = append(out, stockLine{Name: title(n), Quantity: qty, PriceCC: itemPrice(n)})
	}
	return out
}

// startingPurse is the merchant's opening coin, scaled by type and level.
func startingPurse(merchantType string, level int) int64 {
	if level < 1 {
		level = 1
	}
	base := int64(5000)
	switch strings.ToLower(strings.TrimSpace(merchantType)) {
	case "blacksmith":
		base = 10000
	case "alchemist":
		base = 8000
	}
	return base * int64(level)
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 && w[0] >= 'a' && w[0] <= 'z' {
			words[i] = string(w[0]-'a'+'A') + w[1:]
		}
	}
	return strings.Join(words, " ")
}

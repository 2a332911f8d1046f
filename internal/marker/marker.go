// Package marker implements the directive protocol embedded in generated
// narrative text. Directives are bracketed tags of the form
// [TAG: Key="value" Key2="value"] or a bare [TAG]; they are parsed into typed
// values and stripped from the text shown to the player.
package marker

import (
	"strconv"
	"strings"
)

type Kind string

const (
	KindMerchantOpen     Kind = "MERCHANT_OPEN"
	KindMerchantReferral Kind = "MERCHANT_REFERRAL"
	KindItemGrant        Kind = "ITEM_GRANT"
	KindLootDrop         Kind = "LOOT_DROP"
	KindRecruitOffer     Kind = "RECRUIT_OFFER"
	KindCombatStart      Kind = "COMBAT_START"
	KindCombatEnd        Kind = "COMBAT_END"
)

var recognized = map[string]Kind{
	string(KindMerchantOpen):     KindMerchantOpen,
	string(KindMerchantReferral): KindMerchantReferral,
	string(KindItemGrant):        KindItemGrant,
	string(KindLootDrop):         KindLootDrop,
	string(KindRecruitOffer):     KindRecruitOffer,
	string(KindCombatStart):      KindCombatStart,
	string(KindCombatEnd):        KindCombatEnd,
}

// Directive is one parsed marker occurrence. It lives for a single message
// cycle; appliers consume it and it is never persisted.
type Directive struct {
	Kind   Kind
	Fields map[string]string
}

// Field returns the named field, tolerating absent optional fields.
func (d Directive) Field(name string) string {
	return d.Fields[name]
}

// IntField returns the named field as an integer, or def when the field is
// absent or malformed.
func (d Directive) IntField(name string, def int) int {
	raw, ok := d.Fields[name]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}

// ListField splits a comma-separated field into trimmed non-empty values.
func (d Directive) ListField(name string) []string {
	raw, ok := d.Fields[name]
	if !ok {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

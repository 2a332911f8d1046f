// Package ledger exposes the audit trail of copper movements: every trade
// and reward claim writes entries, this reads them back per owner.
package ledger

import (
	"context"
	"time"

	"questforge/internal/store"
)

type Ledger struct {
	Store *store.Store
}

func New(s *store.Store) *Ledger {
	return &Ledger{Store: s}
}

func (l *Ledger) CharacterHistory(ctx context.Context, characterID string, from, to *time.Time, limit, offset int) ([]store.LedgerEntry, error) {
	return l.Store.ListLedgerEntries(ctx, store.LedgerFilter{
		OwnerType: store.OwnerCharacter,
		OwnerID:   characterID,
		From:      from,
		To:        to,
	}, limit, offset)
}

func (l *Ledger) MerchantHistory(ctx context.Context, merchantID string, from, to *time.Time, limit, offset int) ([]store.LedgerEntry, error) {
	return l.Store.ListLedgerEntries(ctx, store.LedgerFilter{
		OwnerType: store.OwnerMerchant,
		OwnerID:   merchantID,
		From:      from,
		To:        to,
	}, limit, offset)
}

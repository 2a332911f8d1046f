// Package trade settles explicit buy/sell transactions between a character
// and a merchant, on top of the store's single-transaction trade primitive.
package trade

import (
	"context"
	"errors"
	"strings"

	"questforge/internal/store"
)

var (
	ErrInvalidRequest   = errors.New("invalid_request")
	ErrMerchantNotFound = errors.New("merchant_not_found")
	ErrItemNotStocked   = errors.New("item_not_stocked")
)

// Items with no listed price trade at this copper value; selling pays half,
// matching the usual shop spread.
const defaultUnitCC = 50

type Service struct {
	store      *store.Store
	campaignID string
}

func NewService(st *store.Store, campaignID string) *Service {
	return &Service{store: st, campaignID: campaignID}
}

// Receipt reports a settled trade in copper.
type Receipt struct {
	Merchant string `json:"merchant"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	UnitCC   int64  `json:"unit_cc"`
	TotalCC  int64  `json:"total_cc"`
	Bought   bool   `json:"bought"`
}

// Buy purchases qty of an item from the named merchant at its listed price.
// The merchant must actually stock the item; the generator is constrained to
// real stock and so is the trade surface.
func (s *Service) Buy(ctx context.Context, characterID, merchantName, item string, qty int) (*Receipt, error) {
	if characterID == "" || merchantName == "" || item == "" || qty <= 0 {
		return nil, ErrInvalidRequest
	}
	m, err := s.store.MerchantByName(ctx, s.campaignID, merchantName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	line, err := s.stockLine(ctx, m.ID, item)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, ErrItemNotStocked
	}
	t := store.Trade{
		CharacterID: characterID,
		MerchantID:  m.ID,
		Item:        line.Name,
		Quantity:    qty,
		UnitCC:      line.PriceCC,
		Buy:         true,
	}
	if err := s.store.ExecuteTrade(ctx, t); err != nil {
		return nil, err
	}
	return receipt(m.Name, t), nil
}

// Sell sells qty of an item from the character's inventory to the named
// merchant at half the merchant's listed price, or half the default when the
// merchant has never stocked it.
func (s *Service) Sell(ctx context.Context, characterID, merchantName, item string, qty int) (*Receipt, error) {
	if characterID == "" || merchantName == "" || item == "" || qty <= 0 {
		return nil, ErrInvalidRequest
	}
	m, err := s.store.MerchantByName(ctx, s.campaignID, merchantName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	unit := int64(defaultUnitCC)
	if line, err := s.stockLine(ctx, m.ID, item); err != nil {
		return nil, err
	} else if line != nil {
		unit = line.PriceCC
		item = line.Name
	}
	unit /= 2
	if unit < 1 {
		unit = 1
	}
	t := store.Trade{
		CharacterID: characterID,
		MerchantID:  m.ID,
		Item:        item,
		Quantity:    qty,
		UnitCC:      unit,
	}
	if err := s.store.ExecuteTrade(ctx, t); err != nil {
		return nil, err
	}
	return receipt(m.Name, t), nil
}

func (s *Service) stockLine(ctx context.Context, merchantID, item string) (*store.InventoryLine, error) {
	inv, err := s.store.Inventory(ctx, store.OwnerMerchant, merchantID)
	if err != nil {
		return nil, err
	}
	for i := range inv {
		if strings.EqualFold(inv[i].Name, item) {
			return &inv[i], nil
		}
	}
	return nil, nil
}

func receipt(merchantName string, t store.Trade) *Receipt {
	return &Receipt{
		Merchant: merchantName,
		Item:     t.Item,
		Quantity: t.Quantity,
		UnitCC:   t.UnitCC,
		TotalCC:  t.UnitCC * int64(t.Quantity),
		Bought:   t.Buy,
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
)

// MerchantByName looks a merchant up case-insensitively within a campaign.
func (s *Store) MerchantByName(ctx context.Context, campaignID, name string) (*Merchant, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, campaign_id, name, type, location, purse_cc, created_at FROM merchants WHERE campaign_id = $1 AND lower(name) = lower($2)`, campaignID, name)
	return scanMerchant(row)
}

func (s *Store) Merchant(ctx context.Context, id string) (*Merchant, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, campaign_id, name, type, location, purse_cc, created_at FROM merchants WHERE id = $1`, id)
	return scanMerchant(row)
}

func (s *Store) ListMerchants(ctx context.Context, campaignID string) ([]Merchant, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, campaign_id, name, type, location, purse_cc, created_at FROM merchants WHERE campaign_id = $1 ORDER BY lower(name) ASC`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Merchant{}
	for rows.Next() {
		var m Merchant
		if err := rows.Scan(&m.ID, &m.CampaignID, &m.Name, &m.Type, &m.Location, &m.PurseCC, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Trade is one buy or sell against a merchant, copper-exact.
type Trade struct {
	CharacterID string
	MerchantID  string
	Item        string
	Quantity    int
	UnitCC      int64
	// Buy moves coin character→merchant and stock merchant→character;
	// Sell is the reverse.
	Buy bool
}

var (
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrInsufficientStock = errors.New("insufficient_stock")
)

// ExecuteTrade settles a trade in one transaction: both purses locked, stock
// moved by case-insensitive merge, and a ledger entry per side. Any failure
// rolls the whole trade back.
func (s *Store) ExecuteTrade(ctx context.Context, t Trade) error {
	if t.Quantity <= 0 || t.UnitCC < 0 {
		return errors.New("invalid trade")
	}
	total := t.UnitCC * int64(t.Quantity)

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var charPurse, merchPurse int64
	if err := tx.QueryRowContext(ctx, `SELECT purse_cc FROM characters WHERE id = $1 FOR UPDATE`, t.CharacterID).Scan(&charPurse); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := tx.QueryRowContext(ctx, `SELECT purse_cc FROM merchants WHERE id = $1 FOR UPDATE`, t.MerchantID).Scan(&merchPurse); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	srcOwner, dstOwner := OwnerMerchant, OwnerCharacter
	srcID, dstID := t.MerchantID, t.CharacterID
	if !t.Buy {
		srcOwner, dstOwner = OwnerCharacter, OwnerMerchant
		srcID, dstID = t.CharacterID, t.MerchantID
	}
	if t.Buy && charPurse < total {
		return ErrInsufficientFunds
	}
	if !t.Buy && merchPurse < total {
		return ErrInsufficientFunds
	}

	// The seller side must actually hold the goods.
	var have int
	err = tx.QueryRowContext(ctx, `SELECT quantity FROM inventory_items WHERE owner_type = $1 AND owner_id = $2 AND lower(name) = lower($3) FOR UPDATE`,
		srcOwner, srcID, t.Item).Scan(&have)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && have < t.Quantity) {
		return ErrInsufficientStock
	}
	if err != nil {
		return err
	}

	if err := grantItemTx(ctx, tx, ItemGrant{OwnerType: srcOwner, OwnerID: srcID, Name: t.Item, Quantity: -t.Quantity}); err != nil {
		return err
	}
	if err := grantItemTx(ctx, tx, ItemGrant{OwnerType: dstOwner, OwnerID: dstID, Name: t.Item, Quantity: t.Quantity, PriceCC: t.UnitCC}); err != nil {
		return err
	}

	charDelta, merchDelta := total, -total
	entryType := "sale_income"
	if t.Buy {
		charDelta, merchDelta = -total, total
		entryType = "purchase"
	}
	if _, err := tx.ExecContext(ctx, `UPDATE characters SET purse_cc = purse_cc + $1 WHERE id = $2`, charDelta, t.CharacterID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE merchants SET purse_cc = purse_cc + $1 WHERE id = $2`, merchDelta, t.MerchantID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO ledger_entries (id, owner_type, owner_id, type, amount_cc, ref_type, ref_id) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		NewID(), OwnerCharacter, t.CharacterID, entryType, charDelta, "merchant", t.MerchantID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO ledger_entries (id, owner_type, owner_id, type, amount_cc, ref_type, ref_id) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		NewID(), OwnerMerchant, t.MerchantID, entryType, merchDelta, "character", t.CharacterID); err != nil {
		return err
	}
	return tx.Commit()
}

func scanMerchant(row *sql.Row) (*Merchant, error) {
	var m Merchant
	if err := row.Scan(&m.ID, &m.CampaignID, &m.Name, &m.Type, &m.Location, &m.PurseCC, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

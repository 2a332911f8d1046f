package store

import (
	"context"
	"database/sql"
	"errors"
)

func (s *Store) Inventory(ctx context.Context, ownerType, ownerID string) ([]InventoryLine, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, owner_type, owner_id, name, quantity, price_cc, created_at FROM inventory_items WHERE owner_type = $1 AND owner_id = $2 ORDER BY lower(name) ASC`, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []InventoryLine{}
	for rows.Next() {
		var l InventoryLine
		if err := rows.Scan(&l.ID, &l.OwnerType, &l.OwnerID, &l.Name, &l.Quantity, &l.PriceCC, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GrantItem merges an item into an owner's inventory in its own transaction.
func (s *Store) GrantItem(ctx context.Context, g ItemGrant) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := grantItemTx(ctx, tx, g); err != nil {
		return err
	}
	return tx.Commit()
}

// grantItemTx merges by case-insensitive name, incrementing quantity rather
// than duplicating rows. A merge down to zero removes the row.
func grantItemTx(ctx context.Context, tx *sql.Tx, g ItemGrant) error {
	row := tx.QueryRowContext(ctx, `SELECT id, quantity FROM inventory_items WHERE owner_type = $1 AND owner_id = $2 AND lower(name) = lower($3) FOR UPDATE`,
		g.OwnerType, g.OwnerID, g.Name)
	var id string
	var qty int
	err := row.Scan(&id, &qty)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if g.Quantity <= 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO inventory_items (id, owner_type, owner_id, name, quantity, price_cc) VALUES ($1,$2,$3,$4,$5,$6)`,
			NewID(), g.OwnerType, g.OwnerID, g.Name, g.Quantity, g.PriceCC)
		return err
	case err != nil:
		return err
	}
	next := qty + g.Quantity
	if next <= 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE inventory_items SET quantity = $1 WHERE id = $2`, next, id)
	return err
}

// ensureItemTx inserts the item only when the owner lacks it, leaving an
// existing line untouched.
func ensureItemTx(ctx context.Context, tx *sql.Tx, g ItemGrant) error {
	row := tx.QueryRowContext(ctx, `SELECT id FROM inventory_items WHERE owner_type = $1 AND owner_id = $2 AND lower(name) = lower($3)`,
		g.OwnerType, g.OwnerID, g.Name)
	var id string
	err := row.Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `INSERT INTO inventory_items (id, owner_type, owner_id, name, quantity, price_cc) VALUES ($1,$2,$3,$4,$5,$6)`,
			NewID(), g.OwnerType, g.OwnerID, g.Name, g.Quantity, g.PriceCC)
		return err
	case err != nil:
		return err
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
)

func (s *Store) Character(ctx context.Context, id string) (*Character, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, campaign_id, name, class, level, xp, hp, max_hp, dex_mod, purse_cc, created_at FROM characters WHERE id = $1`, id)
	var c Character
	if err := row.Scan(&c.ID, &c.CampaignID, &c.Name, &c.Class, &c.Level, &c.XP, &c.HP, &c.MaxHP, &c.DexMod, &c.PurseCC, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCharacter(ctx context.Context, c *Character) (string, error) {
	id := NewID()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO characters (id, campaign_id, name, class, level, xp, hp, max_hp, dex_mod, purse_cc) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		id, c.CampaignID, c.Name, c.Class, c.Level, c.XP, c.HP, c.MaxHP, c.DexMod, c.PurseCC)
	return id, err
}

func (s *Store) CountCharacters(ctx context.Context) (int, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM characters`)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

func (s *Store) RecruitableNPC(ctx context.Context, campaignID, name string) (*NPC, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, campaign_id, name, race, class, level, xp, dex_mod, recruitable, companion_of, purse_cc, created_at FROM npcs WHERE campaign_id = $1 AND lower(name) = lower($2) AND recruitable = true AND companion_of IS NULL`, campaignID, name)
	return scanNPC(row)
}

func (s *Store) CreateNPC(ctx context.Context, n *NPC) (string, error) {
	id := NewID()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO npcs (id, campaign_id, name, race, class, level, xp, dex_mod, recruitable, companion_of, purse_cc) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		id, n.CampaignID, n.Name, n.Race, n.Class, n.Level, n.XP, n.DexMod, n.Recruitable, n.CompanionOf, n.PurseCC)
	return id, err
}

func (s *Store) ActiveCompanions(ctx context.Context, characterID string) ([]NPC, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, campaign_id, name, race, class, level, xp, dex_mod, recruitable, companion_of, purse_cc, created_at FROM npcs WHERE companion_of = $1 ORDER BY created_at ASC`, characterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []NPC{}
	for rows.Next() {
		n, err := scanNPCRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func scanNPC(row *sql.Row) (*NPC, error) {
	var n NPC
	if err := row.Scan(&n.ID, &n.CampaignID, &n.Name, &n.Race, &n.Class, &n.Level, &n.XP, &n.DexMod, &n.Recruitable, &n.CompanionOf, &n.PurseCC, &n.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func scanNPCRows(rows *sql.Rows) (*NPC, error) {
	var n NPC
	if err := rows.Scan(&n.ID, &n.CampaignID, &n.Name, &n.Race, &n.Class, &n.Level, &n.XP, &n.DexMod, &n.Recruitable, &n.CompanionOf, &n.PurseCC, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

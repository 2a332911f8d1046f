package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// CreateSession inserts a new active session. The partial unique index on
// live sessions turns a lost race into ErrConflict rather than a second
// active session.
func (s *Store) CreateSession(ctx context.Context, sess *Session) (string, error) {
	id := NewID()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO sessions (id, character_id, partner_id, campaign_id, status, provider, calendar_start) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		id, sess.CharacterID, sess.PartnerID, sess.CampaignID, SessionActive, sess.Provider, sess.CalendarStart)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrConflict
		}
		return "", err
	}
	return id, nil
}

func (s *Store) Session(ctx context.Context, id string) (*Session, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, character_id, partner_id, campaign_id, status, provider, recap, calendar_start, calendar_end, rewards, rewards_claimed, combat, started_at, ended_at FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// LiveSessionByCharacter returns the character's session in {active, paused},
// if any.
func (s *Store) LiveSessionByCharacter(ctx context.Context, characterID string) (*Session, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, character_id, partner_id, campaign_id, status, provider, recap, calendar_start, calendar_end, rewards, rewards_claimed, combat, started_at, ended_at FROM sessions WHERE character_id = $1 AND status IN ($2, $3)`, characterID, SessionActive, SessionPaused)
	return scanSession(row)
}

func (s *Store) UpdateSessionStatus(ctx context.Context, id, status string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE sessions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) SetSessionRecap(ctx context.Context, id, recap string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE sessions SET recap = $1 WHERE id = $2`, recap, id)
	return err
}

// CompleteSession stores the reward payload and closes the session.
func (s *Store) CompleteSession(ctx context.Context, id string, rewards []byte, calendarEnd int64, endedAt time.Time) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE sessions SET status = $1, rewards = $2, calendar_end = $3, ended_at = $4, combat = NULL WHERE id = $5`,
		SessionCompleted, rewards, calendarEnd, endedAt, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteSession hard-deletes the session and its transcript (abort).
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_turns WHERE session_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) SessionTurns(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, session_id, role, text, created_at FROM session_turns WHERE session_id = $1 ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Turn{}
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Text, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CountPlayerTurns(ctx context.Context, sessionID string) (int, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM session_turns WHERE session_id = $1 AND role = $2`, sessionID, RolePlayer)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

// AppendTurns appends transcript entries in order inside one transaction.
func (s *Store) AppendTurns(ctx context.Context, sessionID string, turns []Turn) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := appendTurnsTx(ctx, tx, sessionID, turns); err != nil {
		return err
	}
	return tx.Commit()
}

// CycleMutation is everything one message cycle persists. It commits in a
// single transaction so the transcript never records a turn whose side
// effects failed to land.
type CycleMutation struct {
	SessionID    string
	Turns        []Turn
	Grants       []ItemGrant
	NewNPCs      []NPC
	NewMerchants []MerchantSeed
	EnsureStock  []ItemGrant
	SetCombat    []byte
	ClearCombat  bool
}

type ItemGrant struct {
	OwnerType string
	OwnerID   string
	Name      string
	Quantity  int
	PriceCC   int64
}

type MerchantSeed struct {
	Merchant Merchant
	Stock    []ItemGrant
}

func (s *Store) CommitCycle(ctx context.Context, mut CycleMutation) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := appendTurnsTx(ctx, tx, mut.SessionID, mut.Turns); err != nil {
		return err
	}
	for i := range mut.NewNPCs {
		n := &mut.NewNPCs[i]
		if _, err := tx.ExecContext(ctx, `INSERT INTO npcs (id, campaign_id, name, race, class, level, xp, dex_mod, recruitable, companion_of, purse_cc) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			n.ID, n.CampaignID, n.Name, n.Race, n.Class, n.Level, n.XP, n.DexMod, n.Recruitable, n.CompanionOf, n.PurseCC); err != nil {
			return err
		}
	}
	for _, seed := range mut.NewMerchants {
		m := seed.Merchant
		if _, err := tx.ExecContext(ctx, `INSERT INTO merchants (id, campaign_id, name, type, location, purse_cc) VALUES ($1,$2,$3,$4,$5,$6)`,
			m.ID, m.CampaignID, m.Name, m.Type, m.Location, m.PurseCC); err != nil {
			return err
		}
		for _, line := range seed.Stock {
			if err := grantItemTx(ctx, tx, line); err != nil {
				return err
			}
		}
	}
	for _, g := range mut.Grants {
		if err := grantItemTx(ctx, tx, g); err != nil {
			return err
		}
	}
	for _, g := range mut.EnsureStock {
		if err := ensureItemTx(ctx, tx, g); err != nil {
			return err
		}
	}
	if mut.ClearCombat {
		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET combat = NULL WHERE id = $1`, mut.SessionID); err != nil {
			return err
		}
	} else if mut.SetCombat != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET combat = $1 WHERE id = $2`, mut.SetCombat, mut.SessionID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClaimApplication is the atomic unit of a reward claim: the gating flag flip
// plus every mutation the payload implies.
type ClaimApplication struct {
	SessionID    string
	CharacterID  string
	XP           int64
	CoinCC       int64
	HPDelta      int
	CompanionIDs []string
	Loot         []ItemGrant
}

// ClaimSessionRewards applies a completed session's rewards exactly once.
// The conditional update on rewards_claimed is the guard: a retried or
// concurrent claim finds zero rows and fails with ErrAlreadyClaimed.
func (s *Store) ClaimSessionRewards(ctx context.Context, app ClaimApplication) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE sessions SET rewards_claimed = true WHERE id = $1 AND status = $2 AND rewards_claimed = false`,
		app.SessionID, SessionCompleted)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyClaimed
	}

	if _, err := tx.ExecContext(ctx, `UPDATE characters SET xp = xp + $1, purse_cc = purse_cc + $2, hp = GREATEST(1, LEAST(max_hp, hp + $3)) WHERE id = $4`,
		app.XP, app.CoinCC, app.HPDelta, app.CharacterID); err != nil {
		return err
	}
	for _, companionID := range app.CompanionIDs {
		if _, err := tx.ExecContext(ctx, `UPDATE npcs SET xp = xp + $1 WHERE id = $2`, app.XP, companionID); err != nil {
			return err
		}
	}
	for _, g := range app.Loot {
		if err := grantItemTx(ctx, tx, g); err != nil {
			return err
		}
	}
	if app.CoinCC != 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ledger_entries (id, owner_type, owner_id, type, amount_cc, ref_type, ref_id) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			NewID(), OwnerCharacter, app.CharacterID, "session_reward", app.CoinCC, "session", app.SessionID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func appendTurnsTx(ctx context.Context, tx *sql.Tx, sessionID string, turns []Turn) error {
	for _, t := range turns {
		if _, err := tx.ExecContext(ctx, `INSERT INTO session_turns (session_id, role, text) VALUES ($1,$2,$3)`, sessionID, t.Role, t.Text); err != nil {
			return err
		}
	}
	return nil
}

func scanSession(row *sql.Row) (*Session, error) {
	var sess Session
	if err := row.Scan(&sess.ID, &sess.CharacterID, &sess.PartnerID, &sess.CampaignID, &sess.Status, &sess.Provider, &sess.Recap, &sess.CalendarStart, &sess.CalendarEnd, &sess.Rewards, &sess.RewardsClaimed, &sess.Combat, &sess.StartedAt, &sess.EndedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

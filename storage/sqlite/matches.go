package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
	"github.com/leetryscode/matchmakr-vg0-sub001/utils"
)

const matchColumns = `match_id, party_a_id, party_b_id, sponsor_a_id, sponsor_b_id,
	sponsor_a_approved, sponsor_b_approved, approved_at, created_at, updated_at`

func scanMatch(row scanner) (models.Match, error) {
	var (
		m                  models.Match
		approvedA          int
		approvedB          int
		approvedAt         sql.NullInt64
		createdAt, updated int64
	)
	if err := row.Scan(&m.MatchID, &m.PartyAID, &m.PartyBID, &m.SponsorAID, &m.SponsorBID,
		&approvedA, &approvedB, &approvedAt, &createdAt, &updated); err != nil {
		return models.Match{}, err
	}
	m.PairKey = utils.PairKey(m.PartyAID, m.PartyBID)
	m.SponsorAApproved = approvedA == 1
	m.SponsorBApproved = approvedB == 1
	m.ApprovedAt = fromNullMillis(approvedAt)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updated)
	return m, nil
}

func getMatch(ctx context.Context, q queryer, partyLo, partyHi string) (models.Match, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE party_a_id = ? AND party_b_id = ?`,
		partyLo, partyHi)
	m, err := scanMatch(row)
	if err != nil {
		return models.Match{}, notFoundOr(err, "get match")
	}
	return m, nil
}

// GetMatch returns the row for the canonical pair.
func (s *Store) GetMatch(ctx context.Context, partyLo, partyHi string) (models.Match, error) {
	if err := s.ready(ctx); err != nil {
		return models.Match{}, err
	}
	return getMatch(ctx, s.sqlDB, partyLo, partyHi)
}

// PutMatch inserts a new match row.
func (s *Store) PutMatch(ctx context.Context, match models.Match) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO matches (`+matchColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		match.MatchID, match.PartyAID, match.PartyBID, match.SponsorAID, match.SponsorBID,
		boolToInt(match.SponsorAApproved), boolToInt(match.SponsorBApproved),
		toNullMillis(match.ApprovedAt), toMillis(match.CreatedAt), toMillis(match.UpdatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put match: %w", err)
	}
	return nil
}

// ApproveMatchSide sets one approval flag and stamps approved_at when the
// row becomes fully approved for the first time.
func (s *Store) ApproveMatchSide(ctx context.Context, partyLo, partyHi string, side models.MatchSide, at time.Time) (models.Match, bool, error) {
	if err := s.ready(ctx); err != nil {
		return models.Match{}, false, err
	}
	column := "sponsor_b_approved"
	if side == models.SideA {
		column = "sponsor_a_approved"
	}

	var (
		result       models.Match
		transitioned bool
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getMatch(ctx, tx, partyLo, partyHi); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE matches SET `+column+` = 1, updated_at = ? WHERE party_a_id = ? AND party_b_id = ? AND `+column+` = 0`,
			toMillis(at), partyLo, partyHi); err != nil {
			return fmt.Errorf("approve match side: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
UPDATE matches SET approved_at = ?
WHERE party_a_id = ? AND party_b_id = ?
  AND sponsor_a_approved = 1 AND sponsor_b_approved = 1 AND approved_at IS NULL`,
			toMillis(at), partyLo, partyHi)
		if err != nil {
			return fmt.Errorf("stamp match approval: %w", err)
		}
		changed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("stamp match approval: %w", err)
		}
		transitioned = changed == 1
		result, err = getMatch(ctx, tx, partyLo, partyHi)
		return err
	})
	if err != nil {
		return models.Match{}, false, err
	}
	return result, transitioned, nil
}

// ListMatchesForParty returns every match involving partyID, newest first.
func (s *Store) ListMatchesForParty(ctx context.Context, partyID string) ([]models.Match, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE party_a_id = ? OR party_b_id = ? ORDER BY created_at DESC, match_id`,
		partyID, partyID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return matches, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/storage"
)

const sneakPeekColumns = `sneak_peek_id, recipient_party_id, issuing_sponsor_id, target_party_id,
	snapshot_photo, status, created_at, expires_at, responded_at`

func scanSneakPeek(row scanner) (models.SneakPeek, error) {
	var (
		p                    models.SneakPeek
		status               string
		createdAt, expiresAt int64
		respondedAt          sql.NullInt64
	)
	if err := row.Scan(&p.SneakPeekID, &p.RecipientPartyID, &p.IssuingSponsorID, &p.TargetPartyID,
		&p.SnapshotPhoto, &status, &createdAt, &expiresAt, &respondedAt); err != nil {
		return models.SneakPeek{}, err
	}
	p.Status = models.SneakPeekStatus(status)
	p.CreatedAt = fromMillis(createdAt)
	p.ExpiresAt = fromMillis(expiresAt)
	p.RespondedAt = fromNullMillis(respondedAt)
	return p, nil
}

func (s *Store) listSneakPeeks(ctx context.Context, query string, args ...any) ([]models.SneakPeek, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+sneakPeekColumns+` FROM sneak_peeks WHERE `+query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sneak peeks: %w", err)
	}
	defer rows.Close()

	var peeks []models.SneakPeek
	for rows.Next() {
		p, err := scanSneakPeek(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sneak peek: %w", err)
		}
		peeks = append(peeks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sneak peeks: %w", err)
	}
	return peeks, nil
}

// PutSneakPeek inserts a preview row.
func (s *Store) PutSneakPeek(ctx context.Context, p models.SneakPeek) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO sneak_peeks (`+sneakPeekColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SneakPeekID, p.RecipientPartyID, p.IssuingSponsorID, p.TargetPartyID, p.SnapshotPhoto,
		string(p.Status), toMillis(p.CreatedAt), toMillis(p.ExpiresAt), toNullMillis(p.RespondedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put sneak peek: %w", err)
	}
	return nil
}

// GetSneakPeek returns a preview by id.
func (s *Store) GetSneakPeek(ctx context.Context, sneakPeekID string) (models.SneakPeek, error) {
	if err := s.ready(ctx); err != nil {
		return models.SneakPeek{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+sneakPeekColumns+` FROM sneak_peeks WHERE sneak_peek_id = ?`, sneakPeekID)
	p, err := scanSneakPeek(row)
	if err != nil {
		return models.SneakPeek{}, notFoundOr(err, "get sneak peek")
	}
	return p, nil
}

// CountOpenSneakPeeks counts PENDING previews for the recipient that expire after now.
func (s *Store) CountOpenSneakPeeks(ctx context.Context, recipientPartyID string, now time.Time) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sneak_peeks WHERE recipient_party_id = ? AND status = ? AND expires_at > ?`,
		recipientPartyID, string(models.SneakPeekPending), toMillis(now)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open sneak peeks: %w", err)
	}
	return count, nil
}

// RespondSneakPeek moves an open preview to status.
func (s *Store) RespondSneakPeek(ctx context.Context, sneakPeekID string, status models.SneakPeekStatus, at time.Time) (models.SneakPeek, error) {
	if err := s.ready(ctx); err != nil {
		return models.SneakPeek{}, err
	}
	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE sneak_peeks SET status = ?, responded_at = ?
WHERE sneak_peek_id = ? AND status = ? AND expires_at > ?`,
		string(status), toMillis(at), sneakPeekID, string(models.SneakPeekPending), toMillis(at))
	if err != nil {
		return models.SneakPeek{}, fmt.Errorf("respond sneak peek: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return models.SneakPeek{}, fmt.Errorf("respond sneak peek: %w", err)
	}
	current, err := s.GetSneakPeek(ctx, sneakPeekID)
	if err != nil {
		return models.SneakPeek{}, err
	}
	if changed == 0 {
		return current, storage.ErrConflict
	}
	return current, nil
}

// ListOpenSneakPeeksForRecipient lists PENDING, unexpired previews oldest first.
func (s *Store) ListOpenSneakPeeksForRecipient(ctx context.Context, recipientPartyID string, now time.Time) ([]models.SneakPeek, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.listSneakPeeks(ctx,
		`recipient_party_id = ? AND status = ? AND expires_at > ? ORDER BY created_at ASC, rowid ASC`,
		recipientPartyID, string(models.SneakPeekPending), toMillis(now))
}

// ListSneakPeeksForSponsor lists open previews plus recently responded ones, newest first.
func (s *Store) ListSneakPeeksForSponsor(ctx context.Context, sponsorID string, now time.Time, respondedSince time.Time) ([]models.SneakPeek, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.listSneakPeeks(ctx, `issuing_sponsor_id = ?
  AND ((status = ? AND expires_at > ?) OR (responded_at IS NOT NULL AND responded_at >= ?))
ORDER BY created_at DESC, rowid DESC`,
		sponsorID, string(models.SneakPeekPending), toMillis(now), toMillis(respondedSince))
}

// ExpireSneakPeeks moves every overdue PENDING preview to EXPIRED.
func (s *Store) ExpireSneakPeeks(ctx context.Context, now time.Time) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sneak_peeks SET status = ? WHERE status = ? AND expires_at <= ?`,
		string(models.SneakPeekExpired), string(models.SneakPeekPending), toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("expire sneak peeks: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire sneak peeks: %w", err)
	}
	return int(changed), nil
}

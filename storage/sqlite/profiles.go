package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leetryscode/matchmakr-vg0-sub001/models"
)

// PutPartyProfile upserts the directory row for a party. The profile data is
// owned elsewhere; this is how a deployment or test seeds the local mirror.
func (s *Store) PutPartyProfile(ctx context.Context, profile models.PartyProfile) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	photosJSON, err := marshalJSON(profile.Photos, "[]")
	if err != nil {
		return fmt.Errorf("encode photos: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO party_profiles (user_id, sponsor_id, photos_json) VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET sponsor_id = excluded.sponsor_id, photos_json = excluded.photos_json`,
		profile.UserID, profile.SponsorID, photosJSON)
	if err != nil {
		return fmt.Errorf("put party profile: %w", err)
	}
	return nil
}

func (s *Store) getPartyProfile(ctx context.Context, partyID string) (models.PartyProfile, error) {
	if err := s.ready(ctx); err != nil {
		return models.PartyProfile{}, err
	}
	var (
		profile    = models.PartyProfile{UserID: partyID}
		photosJSON string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT sponsor_id, photos_json FROM party_profiles WHERE user_id = ?`, partyID,
	).Scan(&profile.SponsorID, &photosJSON)
	if err != nil {
		return models.PartyProfile{}, notFoundOr(err, "get party profile")
	}
	if err := json.Unmarshal([]byte(photosJSON), &profile.Photos); err != nil {
		return models.PartyProfile{}, fmt.Errorf("decode photos: %w", err)
	}
	return profile, nil
}

// SponsorOf returns the party's sponsor, or "" when it has none.
func (s *Store) SponsorOf(ctx context.Context, partyID string) (string, error) {
	profile, err := s.getPartyProfile(ctx, partyID)
	if err != nil {
		return "", err
	}
	return profile.SponsorID, nil
}

// PartiesSponsoredBy lists the parties whose sponsor is sponsorID.
func (s *Store) PartiesSponsoredBy(ctx context.Context, sponsorID string) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if sponsorID == "" {
		return nil, nil
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT user_id FROM party_profiles WHERE sponsor_id = ? ORDER BY user_id`, sponsorID)
	if err != nil {
		return nil, fmt.Errorf("list sponsored parties: %w", err)
	}
	defer rows.Close()

	var parties []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan sponsored party: %w", err)
		}
		parties = append(parties, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sponsored parties: %w", err)
	}
	return parties, nil
}

// PhotosOf returns the party's non-blank photos in profile order.
func (s *Store) PhotosOf(ctx context.Context, partyID string) ([]string, error) {
	profile, err := s.getPartyProfile(ctx, partyID)
	if err != nil {
		return nil, err
	}
	photos := make([]string, 0, len(profile.Photos))
	for _, p := range profile.Photos {
		if strings.TrimSpace(p) != "" {
			photos = append(photos, p)
		}
	}
	return photos, nil
}

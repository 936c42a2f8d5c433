package models

import "time"

// MatchSide identifies which half of a Match a sponsor represents.
type MatchSide string

const (
	SideA MatchSide = "a"
	SideB MatchSide = "b"
)

// Match records the mutual-approval relationship between two parties.
// Rows are stored in canonical order: PartyAID < PartyBID.
type Match struct {
	PairKey          string     `dynamodbav:"pairKey" json:"-"`                                // ✅ Partition Key: "<partyA>#<partyB>"
	MatchID          string     `dynamodbav:"matchId" json:"matchId"`                          // Stable id used in notification payloads
	PartyAID         string     `dynamodbav:"partyAId" json:"partyAId"`                        // Lower party id
	PartyBID         string     `dynamodbav:"partyBId" json:"partyBId"`                        // Higher party id
	SponsorAID       string     `dynamodbav:"sponsorAId" json:"sponsorAId"`                    // Sponsor of party A when the row was created
	SponsorBID       string     `dynamodbav:"sponsorBId" json:"sponsorBId"`                    // Sponsor of party B when the row was created
	SponsorAApproved bool       `dynamodbav:"sponsorAApproved" json:"sponsorAApproved"`        // Monotonic: false -> true only
	SponsorBApproved bool       `dynamodbav:"sponsorBApproved" json:"sponsorBApproved"`        // Monotonic: false -> true only
	ApprovedAt       *time.Time `dynamodbav:"approvedAt,omitempty,unixtime" json:"approvedAt"` // Set once, when both flags are true
	CreatedAt        time.Time  `dynamodbav:"createdAt,unixtime" json:"createdAt"`
	UpdatedAt        time.Time  `dynamodbav:"updatedAt,unixtime" json:"updatedAt"`
}

// FullyApproved reports whether both sponsors have approved.
func (m Match) FullyApproved() bool {
	return m.SponsorAApproved && m.SponsorBApproved
}

// Live reports whether the introduction is open: both approvals are in and
// approvedAt has been stamped.
func (m Match) Live() bool {
	return m.FullyApproved() && m.ApprovedAt != nil
}

// SidesOf returns the sides the sponsor represents. A sponsor of both parties holds both sides.
func (m Match) SidesOf(sponsorID string) []MatchSide {
	var sides []MatchSide
	if sponsorID == "" {
		return sides
	}
	if m.SponsorAID == sponsorID {
		sides = append(sides, SideA)
	}
	if m.SponsorBID == sponsorID {
		sides = append(sides, SideB)
	}
	return sides
}

// Approved reports whether the given side has approved.
func (m Match) Approved(side MatchSide) bool {
	if side == SideA {
		return m.SponsorAApproved
	}
	return m.SponsorBApproved
}

// Involves reports whether partyID is one of the two parties.
func (m Match) Involves(partyID string) bool {
	return m.PartyAID == partyID || m.PartyBID == partyID
}

// Counterpart returns the other party of the match.
func (m Match) Counterpart(partyID string) string {
	if m.PartyAID == partyID {
		return m.PartyBID
	}
	return m.PartyAID
}

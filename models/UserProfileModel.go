package models

// PartyProfile is the slice of an externally owned profile this service reads:
// who currently sponsors a party and which photos it can display.
type PartyProfile struct {
	UserID    string   `dynamodbav:"userId" json:"userId"`                           // ✅ Partition Key
	SponsorID string   `dynamodbav:"sponsorId,omitempty" json:"sponsorId,omitempty"` // Indexed via GSI; empty when unsponsored
	Photos    []string `dynamodbav:"photos,omitempty" json:"photos,omitempty"`
}

package models

import "time"

type SneakPeekStatus string

const (
	SneakPeekPending    SneakPeekStatus = "PENDING"
	SneakPeekOpenToIt   SneakPeekStatus = "OPEN_TO_IT"
	SneakPeekNotSureYet SneakPeekStatus = "NOT_SURE_YET"
	SneakPeekDismissed  SneakPeekStatus = "DISMISSED"
	SneakPeekExpired    SneakPeekStatus = "EXPIRED"
)

// ClientSettable reports whether a recipient may move a preview into this status.
func (s SneakPeekStatus) ClientSettable() bool {
	switch s {
	case SneakPeekOpenToIt, SneakPeekNotSureYet, SneakPeekDismissed:
		return true
	}
	return false
}

// Known reports whether s is any status of the preview lifecycle.
func (s SneakPeekStatus) Known() bool {
	return s.ClientSettable() || s == SneakPeekPending || s == SneakPeekExpired
}

// SneakPeek is a time-boxed preview a sponsor sends to a party about a candidate.
type SneakPeek struct {
	SneakPeekID      string          `dynamodbav:"sneakPeekId" json:"sneakPeekId"`                    // ✅ Partition Key
	RecipientPartyID string          `dynamodbav:"recipientPartyId" json:"recipientPartyId"`
	IssuingSponsorID string          `dynamodbav:"issuingSponsorId" json:"issuingSponsorId"`
	TargetPartyID    string          `dynamodbav:"targetPartyId" json:"targetPartyId"`
	SnapshotPhoto    string          `dynamodbav:"snapshotPhoto" json:"snapshotPhoto"`                // Frozen at send time
	Status           SneakPeekStatus `dynamodbav:"status" json:"status"`
	CreatedAt        time.Time       `dynamodbav:"createdAt,unixtime" json:"createdAt"`
	ExpiresAt        time.Time       `dynamodbav:"expiresAt,unixtime" json:"expiresAt"`
	RespondedAt      *time.Time      `dynamodbav:"respondedAt,omitempty,unixtime" json:"respondedAt"`
}

// OpenAt reports whether the preview still awaits a response at now.
func (p SneakPeek) OpenAt(now time.Time) bool {
	return p.Status == SneakPeekPending && now.Before(p.ExpiresAt)
}

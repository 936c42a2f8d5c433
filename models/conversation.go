package models

import "time"

// Conversation is the single messaging container for a canonical
// (initiator, counterpart, context subject, context target) identity.
type Conversation struct {
	ConversationKey      string    `dynamodbav:"conversationKey" json:"-"`                                             // ✅ Partition Key: canonical identity
	ConversationID       string    `dynamodbav:"conversationId" json:"conversationId"`
	PairKey              string    `dynamodbav:"pairKey" json:"-"`                                                     // "<initiator>#<counterpart>", used by the latest-conversation fallback
	InitiatorID          string    `dynamodbav:"initiatorId" json:"initiatorId"`                                       // Lower participant id
	CounterpartID        string    `dynamodbav:"counterpartId" json:"counterpartId"`                                   // Higher participant id
	ContextSubjectID     string    `dynamodbav:"contextSubjectId" json:"contextSubjectId"`                             // Party the initiator represents
	ContextTargetID      string    `dynamodbav:"contextTargetId" json:"contextTargetId"`                               // Party the counterpart represents
	InitiatorSponsorID   string    `dynamodbav:"initiatorSponsorId,omitempty" json:"initiatorSponsorId,omitempty"`     // Display/audit only
	CounterpartSponsorID string    `dynamodbav:"counterpartSponsorId,omitempty" json:"counterpartSponsorId,omitempty"`
	Status               string    `dynamodbav:"status" json:"status"`
	CreatedAt            time.Time `dynamodbav:"createdAt,unixtime" json:"createdAt"`
}

// HasParticipant reports whether id is one of the two participants.
func (c Conversation) HasParticipant(id string) bool {
	return c.InitiatorID == id || c.CounterpartID == id
}

// OtherParticipant returns the participant that is not id.
func (c Conversation) OtherParticipant(id string) string {
	if c.InitiatorID == id {
		return c.CounterpartID
	}
	return c.InitiatorID
}

// RepresentedBy returns the context party the participant speaks for.
func (c Conversation) RepresentedBy(participantID string) string {
	if c.InitiatorID == participantID {
		return c.ContextSubjectID
	}
	return c.ContextTargetID
}

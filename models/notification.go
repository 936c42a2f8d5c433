package models

import "time"

type NotificationType string

const (
	NotificationMatchmakrChat      NotificationType = "matchmakr_chat"
	NotificationNudgeInviteSponsor NotificationType = "nudge_invite_sponsor"
	NotificationNudgeInviteSingle  NotificationType = "nudge_invite_single"
	NotificationIntroductionLive   NotificationType = "introduction_live"
	NotificationSponsorLoggedIn    NotificationType = "sponsor_logged_in"
	NotificationSingleNotSeenIntro NotificationType = "single_not_seen_intro"
)

// Notification is one surfaced event for one recipient. Rows are never deleted.
type Notification struct {
	RecipientID     string            `dynamodbav:"recipientId" json:"recipientId"`                           // ✅ Partition Key
	NotificationKey string            `dynamodbav:"notificationKey" json:"-"`                                 // ✅ Sort Key
	NotificationID  string            `dynamodbav:"notificationId" json:"notificationId"`
	Type            NotificationType  `dynamodbav:"type" json:"type"`
	CorrelationKey  string            `dynamodbav:"correlationKey,omitempty" json:"correlationKey,omitempty"` // Empty for cooldown nudges
	Payload         map[string]string `dynamodbav:"payload,omitempty" json:"payload,omitempty"`
	Read            bool              `dynamodbav:"read" json:"read"`
	DismissedAt     *time.Time        `dynamodbav:"dismissedAt,omitempty,unixtime" json:"dismissedAt"`
	CreatedAt       time.Time         `dynamodbav:"createdAt" json:"createdAt"`
}

// Active reports whether the notification has not been dismissed.
func (n Notification) Active() bool {
	return n.DismissedAt == nil
}

package models

import "time"

// ✅ DynamoDB tables
const (
	MatchesTable       = "Matches"
	ConversationsTable = "Conversations"
	MessagesTable      = "Messages"
	SneakPeeksTable    = "SneakPeeks"
	NotificationsTable = "Notifications"
	UserProfilesTable  = "UserProfiles"
)

// ✅ DynamoDB secondary indexes
const (
	MatchesPartyAIndex       = "partyAId-index"
	MatchesPartyBIndex       = "partyBId-index"
	ConversationsIDIndex     = "conversationId-index"
	ConversationsPairIndex   = "pairKey-createdAt-index"
	SneakPeeksRecipientIndex = "recipientPartyId-createdAt-index"
	SneakPeeksSponsorIndex   = "issuingSponsorId-createdAt-index"
	SneakPeeksStatusIndex    = "status-expiresAt-index"
	NotificationsIDIndex     = "notificationId-index"
	UserProfilesSponsorIndex = "sponsorId-index"
)

// ✅ Policy defaults
const (
	DefaultSneakPeekTTL           = 48 * time.Hour
	DefaultSneakPeekPendingLimit  = 5
	DefaultSneakPeekDisplayWindow = 48 * time.Hour
	DefaultNotificationCooldown   = 24 * time.Hour
)

// ✅ Conversation statuses
const (
	ConversationStatusActive = "active"
)

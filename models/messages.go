package models

import "time"

type Message struct {
	ConversationID string    `dynamodbav:"conversationId" json:"conversationId"` // ✅ Partition Key
	MessageKey     string    `dynamodbav:"messageKey" json:"-"`                  // ✅ Sort Key: "<createdAt nanos>#<messageId>"
	MessageID      string    `dynamodbav:"messageId" json:"messageId"`
	SenderID       string    `dynamodbav:"senderId" json:"senderId"`
	RecipientID    string    `dynamodbav:"recipientId" json:"recipientId"`
	Content        string    `dynamodbav:"content" json:"content"`
	IsRead         bool      `dynamodbav:"isRead" json:"isRead"`
	CreatedAt      time.Time `dynamodbav:"createdAt" json:"createdAt"`
}

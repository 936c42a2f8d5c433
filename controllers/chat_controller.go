package controllers

import (
	"log"
	"net/http"

	"github.com/leetryscode/matchmakr-vg0-sub001/apperrors"
	"github.com/leetryscode/matchmakr-vg0-sub001/helpers"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

// ChatController struct
type ChatController struct {
	ChatService *services.ChatService
}

// NewChatController initializes the chat controller
func NewChatController(service *services.ChatService) *ChatController {
	return &ChatController{ChatService: service}
}

type messageResponse struct {
	Message      models.Message      `json:"message"`
	Conversation models.Conversation `json:"conversation"`
}

// HandleSponsorMessage sends a message from the calling sponsor to another sponsor.
func (c *ChatController) HandleSponsorMessage(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireRole(r, models.RoleSponsor)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	var request struct {
		RecipientSponsorID string `json:"recipientSponsorId"`
		Content            string `json:"content"`
		SubjectPartyID     string `json:"subjectPartyId"`
		TargetPartyID      string `json:"targetPartyId"`
	}
	if err := helpers.DecodeJSON(r, &request); err != nil {
		helpers.WriteError(w, err)
		return
	}

	log.Printf("📩 Sponsor message from %s to %s", caller.ID, request.RecipientSponsorID)
	message, conversation, err := c.ChatService.SendSponsorMessage(r.Context(), caller.ID, request.RecipientSponsorID, request.Content, services.ConversationContext{
		SubjectID: request.SubjectPartyID,
		TargetID:  request.TargetPartyID,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusCreated, messageResponse{Message: message, Conversation: conversation})
}

// HandlePartyMessage sends a message between two introduced parties.
func (c *ChatController) HandlePartyMessage(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireRole(r, models.RoleSingle)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	var request struct {
		RecipientPartyID string `json:"recipientPartyId"`
		Content          string `json:"content"`
	}
	if err := helpers.DecodeJSON(r, &request); err != nil {
		helpers.WriteError(w, err)
		return
	}

	message, conversation, err := c.ChatService.SendPartyMessage(r.Context(), caller.ID, request.RecipientPartyID, request.Content)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusCreated, messageResponse{Message: message, Conversation: conversation})
}

// HandleGetMessages - Fetch the latest messages of a conversation
func (c *ChatController) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireCaller(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		helpers.WriteError(w, apperrors.InvalidArg("conversationId is required"))
		return
	}

	messages, err := c.ChatService.GetMessages(r.Context(), caller.ID, conversationID, queryLimit(r))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, messages)
}

// HandleMarkMessagesAsRead - Mark messages received by the caller as read
func (c *ChatController) HandleMarkMessagesAsRead(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireCaller(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	var request struct {
		ConversationID string `json:"conversationId"`
	}
	if err := helpers.DecodeJSON(r, &request); err != nil {
		helpers.WriteError(w, err)
		return
	}

	changed, err := c.ChatService.MarkMessagesAsRead(r.Context(), caller.ID, request.ConversationID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]int{"updated": changed})
}

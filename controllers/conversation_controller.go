package controllers

import (
	"log"
	"net/http"

	"github.com/leetryscode/matchmakr-vg0-sub001/helpers"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

type ConversationController struct {
	ConversationService *services.ConversationService
}

func NewConversationController(service *services.ConversationService) *ConversationController {
	return &ConversationController{ConversationService: service}
}

// HandleResolve finds or creates the calling sponsor's conversation with
// another sponsor about a pair of parties.
func (c *ConversationController) HandleResolve(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireRole(r, models.RoleSponsor)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	var request struct {
		CounterpartSponsorID string `json:"counterpartSponsorId"`
		SubjectPartyID       string `json:"subjectPartyId"`
		TargetPartyID        string `json:"targetPartyId"`
	}
	if err := helpers.DecodeJSON(r, &request); err != nil {
		helpers.WriteError(w, err)
		return
	}

	log.Printf("💬 Resolving conversation between %s and %s", caller.ID, request.CounterpartSponsorID)
	conversation, err := c.ConversationService.ResolveForSponsors(r.Context(), caller.ID, request.CounterpartSponsorID, services.ConversationContext{
		SubjectID: request.SubjectPartyID,
		TargetID:  request.TargetPartyID,
	})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, conversation)
}

package controllers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/leetryscode/matchmakr-vg0-sub001/apperrors"
	"github.com/leetryscode/matchmakr-vg0-sub001/helpers"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

// MatchController struct
type MatchController struct {
	MatchService *services.MatchService
}

// NewMatchController initializes the controller
func NewMatchController(service *services.MatchService) *MatchController {
	return &MatchController{MatchService: service}
}

// HandleApprove records the calling sponsor's approval of a pair.
func (c *MatchController) HandleApprove(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireRole(r, models.RoleSponsor)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	var request struct {
		PartyAID           string `json:"partyAId"`
		PartyBID           string `json:"partyBId"`
		ApprovingSponsorID string `json:"approvingSponsorId"`
	}
	if err := helpers.DecodeJSON(r, &request); err != nil {
		helpers.WriteError(w, err)
		return
	}
	if request.ApprovingSponsorID == "" {
		request.ApprovingSponsorID = caller.ID
	}

	log.Printf("🤝 Approval request from %s for %s / %s", caller.ID, request.PartyAID, request.PartyBID)
	match, err := c.MatchService.RecordApproval(r.Context(), request.PartyAID, request.PartyBID, request.ApprovingSponsorID, caller.ID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, match)
}

// HandleCanCommunicate reports whether two parties may message each other.
func (c *MatchController) HandleCanCommunicate(w http.ResponseWriter, r *http.Request) {
	if _, err := helpers.RequireCaller(r); err != nil {
		helpers.WriteError(w, err)
		return
	}
	partyA := r.URL.Query().Get("partyA")
	partyB := r.URL.Query().Get("partyB")

	allowed, err := c.MatchService.CanCommunicate(r.Context(), partyA, partyB)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]bool{"canCommunicate": allowed})
}

// HandleListMatches lists a party's matches. Parties default to their own.
func (c *MatchController) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireCaller(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	partyID := r.URL.Query().Get("partyId")
	if partyID == "" && caller.Role == models.RoleSingle {
		partyID = caller.ID
	}

	log.Printf("🔍 Fetching matches for party: %s", partyID)
	matches, err := c.MatchService.ListMatchesForParty(r.Context(), caller, partyID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, matches)
}

// HandleMarkSeen dismisses the caller's unseen-introduction reminder.
func (c *MatchController) HandleMarkSeen(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireRole(r, models.RoleSingle)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	matchID := mux.Vars(r)["matchId"]
	if matchID == "" {
		helpers.WriteError(w, apperrors.InvalidArg("matchId is required"))
		return
	}

	match, err := c.MatchService.MarkIntroductionSeen(r.Context(), caller.ID, matchID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, match)
}

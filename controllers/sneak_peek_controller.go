package controllers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/leetryscode/matchmakr-vg0-sub001/helpers"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

type SneakPeekController struct {
	SneakPeekService *services.SneakPeekService
}

func NewSneakPeekController(service *services.SneakPeekService) *SneakPeekController {
	return &SneakPeekController{SneakPeekService: service}
}

// HandleSend issues a preview of a target party to a recipient party.
func (c *SneakPeekController) HandleSend(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireRole(r, models.RoleSponsor)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	var request struct {
		RecipientPartyID string `json:"recipientPartyId"`
		TargetPartyID    string `json:"targetPartyId"`
	}
	if err := helpers.DecodeJSON(r, &request); err != nil {
		helpers.WriteError(w, err)
		return
	}

	log.Printf("👀 Sneak peek from %s: %s -> %s", caller.ID, request.TargetPartyID, request.RecipientPartyID)
	peek, err := c.SneakPeekService.Send(r.Context(), caller.ID, request.RecipientPartyID, request.TargetPartyID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusCreated, peek)
}

// HandleRespond records the recipient's answer.
func (c *SneakPeekController) HandleRespond(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireRole(r, models.RoleSingle)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	var request struct {
		Status models.SneakPeekStatus `json:"status"`
	}
	if err := helpers.DecodeJSON(r, &request); err != nil {
		helpers.WriteError(w, err)
		return
	}

	peek, err := c.SneakPeekService.Respond(r.Context(), mux.Vars(r)["id"], caller.ID, request.Status)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, peek)
}

// HandleReceived lists the calling party's pending previews.
func (c *SneakPeekController) HandleReceived(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireRole(r, models.RoleSingle)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	peeks, err := c.SneakPeekService.ListForRecipient(r.Context(), caller.ID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, peeks)
}

// HandleSent lists the calling sponsor's recent previews.
func (c *SneakPeekController) HandleSent(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireRole(r, models.RoleSponsor)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	peeks, err := c.SneakPeekService.ListForSponsor(r.Context(), caller.ID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, peeks)
}

// HandlePhoto returns a displayable URL for the preview's frozen photo.
func (c *SneakPeekController) HandlePhoto(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireCaller(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	url, err := c.SneakPeekService.PhotoURL(r.Context(), caller.ID, mux.Vars(r)["id"])
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]string{"url": url})
}

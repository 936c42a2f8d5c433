package controllers

import (
	"log"
	"net/http"

	"github.com/leetryscode/matchmakr-vg0-sub001/helpers"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

type ActivityController struct {
	ActivityService *services.ActivityService
}

func NewActivityController(service *services.ActivityService) *ActivityController {
	return &ActivityController{ActivityService: service}
}

// HandleLogin records a login and issues the nudges it triggers.
func (c *ActivityController) HandleLogin(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireCaller(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	log.Printf("🔔 Login signal from %s (%s)", caller.ID, caller.Role)

	var result services.ActivityResult
	if caller.Role == models.RoleSponsor {
		result, err = c.ActivityService.SponsorLoggedIn(r.Context(), caller.ID)
	} else {
		result, err = c.ActivityService.SingleLoggedIn(r.Context(), caller.ID)
	}
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, result)
}

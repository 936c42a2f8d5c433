package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/leetryscode/matchmakr-vg0-sub001/helpers"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

type NotificationController struct {
	NotificationService *services.NotificationService
}

func NewNotificationController(service *services.NotificationService) *NotificationController {
	return &NotificationController{NotificationService: service}
}

// HandleList returns the caller's inbox. ?all=true includes dismissed rows.
func (c *NotificationController) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireCaller(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	includeDismissed := r.URL.Query().Get("all") == "true"
	notifications, err := c.NotificationService.List(r.Context(), caller.ID, includeDismissed, queryLimit(r))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, notifications)
}

func (c *NotificationController) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireCaller(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	n, err := c.NotificationService.MarkRead(r.Context(), caller.ID, mux.Vars(r)["id"])
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, n)
}

func (c *NotificationController) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	caller, err := helpers.RequireCaller(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	n, err := c.NotificationService.Dismiss(r.Context(), caller.ID, mux.Vars(r)["id"])
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, n)
}

package routes

import (
	"github.com/gorilla/mux"

	"github.com/leetryscode/matchmakr-vg0-sub001/controllers"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

func RegisterActivityRoutes(r *mux.Router, activityService *services.ActivityService) {
	controller := controllers.NewActivityController(activityService)
	r.HandleFunc("/activity/login", controller.HandleLogin).Methods("POST")
}

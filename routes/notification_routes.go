package routes

import (
	"github.com/gorilla/mux"

	"github.com/leetryscode/matchmakr-vg0-sub001/controllers"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

func RegisterNotificationRoutes(r *mux.Router, notificationService *services.NotificationService) {
	controller := controllers.NewNotificationController(notificationService)

	notificationRouter := r.PathPrefix("/notifications").Subrouter()
	notificationRouter.HandleFunc("", controller.HandleList).Methods("GET")
	notificationRouter.HandleFunc("/{id}/read", controller.HandleMarkRead).Methods("POST")
	notificationRouter.HandleFunc("/{id}/dismiss", controller.HandleDismiss).Methods("POST")
}

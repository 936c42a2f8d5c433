package routes

import (
	"github.com/gorilla/mux"

	"github.com/leetryscode/matchmakr-vg0-sub001/controllers"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

func RegisterConversationRoutes(r *mux.Router, conversationService *services.ConversationService) {
	controller := controllers.NewConversationController(conversationService)
	r.HandleFunc("/conversations", controller.HandleResolve).Methods("POST")
}

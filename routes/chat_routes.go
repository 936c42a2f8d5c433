package routes

import (
	"github.com/gorilla/mux"

	"github.com/leetryscode/matchmakr-vg0-sub001/controllers"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

// RegisterChatRoutes sets up routes for chat-related operations under /api/chat
func RegisterChatRoutes(r *mux.Router, chatService *services.ChatService) {
	controller := controllers.NewChatController(chatService)

	chatRouter := r.PathPrefix("/chat").Subrouter()
	chatRouter.HandleFunc("/sponsor-message", controller.HandleSponsorMessage).Methods("POST")
	chatRouter.HandleFunc("/message", controller.HandlePartyMessage).Methods("POST")
	chatRouter.HandleFunc("/messages", controller.HandleGetMessages).Methods("GET")
	chatRouter.HandleFunc("/messages/mark-as-read", controller.HandleMarkMessagesAsRead).Methods("POST")
}

package routes

import (
	"github.com/gorilla/mux"

	"github.com/leetryscode/matchmakr-vg0-sub001/controllers"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

func RegisterSneakPeekRoutes(r *mux.Router, sneakPeekService *services.SneakPeekService) {
	controller := controllers.NewSneakPeekController(sneakPeekService)

	peekRouter := r.PathPrefix("/sneak-peeks").Subrouter()
	peekRouter.HandleFunc("", controller.HandleSend).Methods("POST")
	peekRouter.HandleFunc("/received", controller.HandleReceived).Methods("GET")
	peekRouter.HandleFunc("/sent", controller.HandleSent).Methods("GET")
	peekRouter.HandleFunc("/{id}/respond", controller.HandleRespond).Methods("POST")
	peekRouter.HandleFunc("/{id}/photo", controller.HandlePhoto).Methods("GET") // ✅ Presigned URL of the frozen photo
}

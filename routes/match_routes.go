package routes

import (
	"github.com/gorilla/mux"

	"github.com/leetryscode/matchmakr-vg0-sub001/controllers"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService) {
	controller := controllers.NewMatchController(matchService)

	matchRouter := r.PathPrefix("/matches").Subrouter()
	matchRouter.HandleFunc("", controller.HandleListMatches).Methods("GET")
	matchRouter.HandleFunc("/approve", controller.HandleApprove).Methods("POST")               // ✅ Sponsor consents to an introduction
	matchRouter.HandleFunc("/can-communicate", controller.HandleCanCommunicate).Methods("GET") // ✅ Both sponsors approved?
	matchRouter.HandleFunc("/{matchId}/seen", controller.HandleMarkSeen).Methods("POST")
}

package routes

import (
	"github.com/gorilla/mux"

	"github.com/leetryscode/matchmakr-vg0-sub001/controllers"
	"github.com/leetryscode/matchmakr-vg0-sub001/helpers"
	"github.com/leetryscode/matchmakr-vg0-sub001/services"
)

// Services bundles everything the HTTP surface calls into.
type Services struct {
	Matches       *services.MatchService
	Conversations *services.ConversationService
	Chat          *services.ChatService
	SneakPeeks    *services.SneakPeekService
	Notifications *services.NotificationService
	Activity      *services.ActivityService
}

// RegisterRoutes sets up the routes for the application
func RegisterRoutes(r *mux.Router, svc Services) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(helpers.CallerMiddleware)

	RegisterMatchRoutes(api, svc.Matches)
	RegisterConversationRoutes(api, svc.Conversations)
	RegisterChatRoutes(api, svc.Chat)
	RegisterSneakPeekRoutes(api, svc.SneakPeeks)
	RegisterNotificationRoutes(api, svc.Notifications)
	RegisterActivityRoutes(api, svc.Activity)
}

// NewRouter returns a router with every route registered.
func NewRouter(svc Services) *mux.Router {
	r := mux.NewRouter()
	RegisterRoutes(r, svc)
	return r
}

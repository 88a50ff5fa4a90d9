package rest

import (
	"log/slog"
	"net/http"

	"github.com/christmas-fire/courier/internal/app/response"
	"github.com/christmas-fire/courier/internal/identity"
	"github.com/christmas-fire/courier/internal/middleware"
	"github.com/christmas-fire/courier/internal/service/chat"
	"github.com/gorilla/mux"
)

type Dependencies struct {
	Chat          *chat.ChatService
	JWTSecret     string
	RequestLogger *middleware.RequestLogger
	Gate          *middleware.TimeWindowGate
	RateLimit     *middleware.RateLimit
	// WebSocket serves /ws; the route is left out when nil.
	WebSocket http.Handler
	Log       *slog.Logger
}

// NewRouter builds the HTTP handler. Every request, matched or not, passes through
// identity resolution, the request log, the time-window gate and the rate limiter
// in that order.
func NewRouter(d Dependencies) http.Handler {
	messages := NewMessageHandler(d.Chat, d.Log)
	notifications := NewNotificationHandler(d.Chat, d.Log)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/messages", messages.Send).Methods(http.MethodPost)
	api.HandleFunc("/messages", messages.Conversation).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id}", messages.Get).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id}", messages.Edit).Methods(http.MethodPatch)
	api.HandleFunc("/messages/{id}/history", messages.History).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id}/thread", messages.Thread).Methods(http.MethodGet)
	api.HandleFunc("/notifications", notifications.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", notifications.MarkRead).Methods(http.MethodPost)

	if d.WebSocket != nil {
		r.Handle("/ws", d.WebSocket).Methods(http.MethodGet)
	}

	var h http.Handler = r
	if d.RateLimit != nil {
		h = d.RateLimit.Middleware(h)
	}
	if d.Gate != nil {
		h = d.Gate.Middleware(h)
	}
	if d.RequestLogger != nil {
		h = d.RequestLogger.Middleware(h)
	}
	return identity.Middleware(d.JWTSecret)(h)
}

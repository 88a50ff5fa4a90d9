package rest

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/christmas-fire/courier/internal/app/response"
	"github.com/christmas-fire/courier/internal/service/chat"
	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	service *chat.ChatService
	log     *slog.Logger
}

func NewNotificationHandler(service *chat.ChatService, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, log: log}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticated(w, r)
	if !ok {
		return
	}

	unreadOnly := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		var err error
		if unreadOnly, err = strconv.ParseBool(raw); err != nil {
			response.Error(w, http.StatusBadRequest, "Query parameter unread must be a boolean")
			return
		}
	}

	notes, err := h.service.Notifications(r.Context(), caller.UserID, unreadOnly)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, orEmpty(notes))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticated(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		response.Error(w, http.StatusNotFound, chat.ErrNotificationNotFound.Error())
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), caller.UserID, id); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

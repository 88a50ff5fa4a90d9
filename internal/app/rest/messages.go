package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/christmas-fire/courier/internal/app/response"
	"github.com/christmas-fire/courier/internal/identity"
	"github.com/christmas-fire/courier/internal/repository/message"
	"github.com/christmas-fire/courier/internal/service/chat"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 64 << 10

var validate = validator.New()

type MessageHandler struct {
	service *chat.ChatService
	log     *slog.Logger
}

func NewMessageHandler(service *chat.ChatService, log *slog.Logger) *MessageHandler {
	return &MessageHandler{service: service, log: log}
}

type SendMessageRequest struct {
	ReceiverID int64   `json:"receiver_id" validate:"required,gt=0"`
	Content    string  `json:"content" validate:"required,max=4096"`
	ParentID   *string `json:"parent_id" validate:"omitempty,uuid"`
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"required,max=4096"`
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticated(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if !decode(w, r, &req) {
		return
	}

	msg, err := h.service.SendMessage(r.Context(), caller.UserID, req.ReceiverID, req.Content, req.ParentID)
	if err != nil {
		if errors.Is(err, message.ErrObserverFailed) && msg != nil {
			h.log.Error("message stored but notification failed", "message_id", msg.ID, "error", err)
		}
		h.fail(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticated(w, r)
	if !ok {
		return
	}

	peerID, err := strconv.ParseInt(r.URL.Query().Get("peer"), 10, 64)
	if err != nil || peerID <= 0 {
		response.Error(w, http.StatusBadRequest, "Query parameter peer must be a user id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			response.Error(w, http.StatusBadRequest, "Query parameter limit must be a positive number")
			return
		}
	}

	msgs, err := h.service.Conversation(r.Context(), caller.UserID, peerID, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, orEmpty(msgs))
}

func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticated(w, r)
	if !ok {
		return
	}

	msg, err := h.service.GetMessage(r.Context(), caller.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticated(w, r)
	if !ok {
		return
	}

	var req EditMessageRequest
	if !decode(w, r, &req) {
		return
	}

	msg, err := h.service.EditMessage(r.Context(), caller.UserID, mux.Vars(r)["id"], req.Content)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticated(w, r)
	if !ok {
		return
	}

	hist, err := h.service.History(r.Context(), caller.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, orEmpty(hist))
}

func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticated(w, r)
	if !ok {
		return
	}

	thread, err := h.service.Thread(r.Context(), caller.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, orEmpty(thread))
}

func (h *MessageHandler) fail(w http.ResponseWriter, err error) {
	writeError(w, h.log, err)
}

// authenticated writes 401 and reports false for anonymous callers.
func authenticated(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	caller := identity.FromContext(r.Context())
	if !caller.Authenticated() {
		response.Error(w, http.StatusUnauthorized, "Authentication required")
		return caller, false
	}
	return caller, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyContent):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrReceiverNotFound), errors.Is(err, chat.ErrParentNotFound):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrPermissionDenied):
		response.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, chat.ErrMessageNotFound), errors.Is(err, chat.ErrNotificationNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	default:
		if !errors.Is(err, message.ErrObserverFailed) {
			log.Error("request failed", "error", err)
		}
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

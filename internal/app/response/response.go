package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the payload of every error answer; Status mirrors the HTTP status code.
type ErrorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg, Status: status})
}

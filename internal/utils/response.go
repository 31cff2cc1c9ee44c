package utils

import (
	"encoding/json"
	"net/http"
)

// WebhookResponse is the JSON body returned to payment providers. Every
// webhook code path returns one with an explicit status code so provider
// retry behavior is controlled deliberately.
type WebhookResponse struct {
	Message string      `json:"message"`
	Order   interface{} `json:"order,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}

package common

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// WriteJSON writes v as the JSON body of a response with the given status.
// Encoding failures can only be logged since the header is already sent.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Int("status", status).Msg("Failed to write response body")
	}
}

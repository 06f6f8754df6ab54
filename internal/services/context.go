package services

import (
	"net/http"

	"github.com/google/uuid"
)

// userIDFromRequest pulls the authenticated user's id out of the request
// context where the auth middleware stored it.
func userIDFromRequest(r *http.Request) (uuid.UUID, bool) {
	raw, ok := r.Context().Value("userID").(string)
	if !ok || raw == "" {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	return userID, true
}

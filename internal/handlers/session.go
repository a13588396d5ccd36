// internal/handlers/session.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/auth"
	"github.com/sirupsen/logrus"
)

type sessionRequest struct {
	Username string `json:"username"`
}

type sessionResponse struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Token    string    `json:"token"`
}

// CreateSessionHandler issues a guest identity. If the caller already holds a
// valid token the same identity is returned, optionally under a new username.
func CreateSessionHandler(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, a.Logger, err)
			return
		}

		id := auth.Identity{UserID: uuid.New()}
		if token := extractToken(r); token != "" {
			if existing, err := a.Signer.Authenticate(token); err == nil {
				id = existing
			}
		}
		if name := strings.TrimSpace(req.Username); name != "" {
			id.Username = name
		}
		if id.Username == "" {
			id.Username = fmt.Sprintf("guest-%s", id.UserID.String()[:8])
		}

		token, err := a.Signer.CreateJWT(id)
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     authCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		a.Logger.WithFields(logrus.Fields{
			"user_id":  id.UserID,
			"username": id.Username,
		}).Info("issued guest session")

		writeJSON(w, http.StatusOK, sessionResponse{UserID: id.UserID, Username: id.Username, Token: token})
	}
}

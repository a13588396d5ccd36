// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/jason-s-yu/lobbyd/internal/auth"
	"github.com/jason-s-yu/lobbyd/internal/commands"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
	"github.com/sirupsen/logrus"
)

// badRequestError is a malformed request caught before reaching the service.
type badRequestError string

func (e badRequestError) Error() string { return string(e) }

func errBadRequest(msg string) error { return badRequestError(msg) }

// statusFor maps a service or domain error onto an HTTP status code.
func statusFor(err error) int {
	var bad badRequestError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, commands.ErrLobbyNotFound), errors.Is(err, lobby.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, lobby.ErrNotOwner), errors.Is(err, lobby.ErrInvitationRequired):
		return http.StatusForbidden
	case errors.Is(err, lobby.ErrInvalidSettings),
		errors.Is(err, lobby.ErrInvalidPlayer),
		errors.Is(err, commands.ErrCannotKickSelf),
		errors.Is(err, commands.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, lobby.ErrLobbyFull),
		errors.Is(err, lobby.ErrDuplicatePlayer),
		errors.Is(err, lobby.ErrNotEnoughPlayers),
		errors.Is(err, lobby.ErrPlayersNotReady),
		errors.Is(err, lobby.ErrInvalidTransition),
		errors.Is(err, lobby.ErrLobbyNotJoinable),
		errors.Is(err, lobby.ErrSettingsLocked),
		errors.Is(err, lobby.ErrMaxPlayersBelowCount),
		errors.Is(err, lobby.ErrLobbyClosed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError responds with {"error": msg}. Internal failures are logged and
// reported with a generic message so storage details never leak to callers.
func writeError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

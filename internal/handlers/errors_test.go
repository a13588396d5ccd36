// internal/handlers/errors_test.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jason-s-yu/lobbyd/internal/auth"
	"github.com/jason-s-yu/lobbyd/internal/commands"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errBadRequest("bad"), http.StatusBadRequest},
		{fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized},
		{fmt.Errorf("%w: x", commands.ErrLobbyNotFound), http.StatusNotFound},
		{lobby.ErrPlayerNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: only the lobby creator can update settings", lobby.ErrNotOwner), http.StatusForbidden},
		{lobby.ErrInvitationRequired, http.StatusForbidden},
		{fmt.Errorf("%w: name too short", lobby.ErrInvalidSettings), http.StatusBadRequest},
		{commands.ErrCannotKickSelf, http.StatusBadRequest},
		{lobby.ErrLobbyFull, http.StatusConflict},
		{lobby.ErrPlayersNotReady, http.StatusConflict},
		{lobby.ErrSettingsLocked, http.StatusConflict},
		{lobby.ErrMaxPlayersBelowCount, http.StatusConflict},
		{fmt.Errorf("%w: persist lobby: %w", commands.ErrSystem, errors.New("conn refused")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

// TestWriteErrorHidesSystemErrors checks that storage details stay in the log.
func TestWriteErrorHidesSystemErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/lobbies/x/join", nil)

	writeError(w, r, logger, fmt.Errorf("%w: save: %w", commands.ErrSystem, errors.New("password authentication failed")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "request failed", hook.LastEntry().Message)
}

// internal/observers/rules.go
package observers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
)

// ErrRuleViolation marks an event whose roster contradicts itself.
var ErrRuleViolation = errors.New("lobby rule violation")

// RuleCheckHandler re-checks the membership rules against every roster that
// goes out. A failure means a bug upstream; it is reported through the bus
// error count and logs, never by altering state.
type RuleCheckHandler struct{}

func NewRuleCheckHandler() *RuleCheckHandler { return &RuleCheckHandler{} }

func (h *RuleCheckHandler) Name() string    { return "rule_check" }
func (h *RuleCheckHandler) Pattern() string { return "lobby." }
func (h *RuleCheckHandler) Priority() int   { return PriorityRuleCheck }

func (h *RuleCheckHandler) CanHandle(ev events.Event) bool {
	_, ok := events.RosterOf(ev.Payload)
	return ok
}

func (h *RuleCheckHandler) Handle(_ context.Context, ev events.Event) error {
	r, ok := events.RosterOf(ev.Payload)
	if !ok {
		return nil
	}
	if r.CurrentPlayers != len(r.Players) {
		return fmt.Errorf("%w: %s reports %d players but lists %d", ErrRuleViolation, ev.Type, r.CurrentPlayers, len(r.Players))
	}
	if r.CurrentPlayers > r.MaxPlayers {
		return fmt.Errorf("%w: %s has %d players over max %d", ErrRuleViolation, ev.Type, r.CurrentPlayers, r.MaxPlayers)
	}
	if len(r.Players) == 0 {
		return nil
	}
	owners := 0
	for _, p := range r.Players {
		if p.IsOwner {
			owners++
			if p.UserID != r.OwnerID {
				return fmt.Errorf("%w: %s flags %s as owner, roster says %s", ErrRuleViolation, ev.Type, p.UserID, r.OwnerID)
			}
		}
	}
	if owners != 1 {
		return fmt.Errorf("%w: %s has %d owners", ErrRuleViolation, ev.Type, owners)
	}
	// before a game starts the status follows from the head count alone
	status := lobby.Status(r.Status)
	if want := lobby.TargetStatus(r.CurrentPlayers, r.MaxPlayers, status); status.PreGame() && want != status {
		return fmt.Errorf("%w: %s has %d/%d players but status %s, want %s", ErrRuleViolation, ev.Type, r.CurrentPlayers, r.MaxPlayers, status, want)
	}
	return nil
}

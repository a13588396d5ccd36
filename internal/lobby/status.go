// internal/lobby/status.go
package lobby

import "fmt"

// Status is the lifecycle state of a lobby.
type Status string

const (
	StatusWaiting   Status = "WAITING"
	StatusReady     Status = "READY"
	StatusFull      Status = "FULL"
	StatusStarting  Status = "STARTING"
	StatusInGame    Status = "IN_GAME"
	StatusPaused    Status = "PAUSED"
	StatusFinished  Status = "FINISHED"
	StatusCancelled Status = "CANCELLED"
)

// transitions is the complete table of legal status changes. FINISHED and
// CANCELLED are terminal.
var transitions = map[Status][]Status{
	StatusWaiting:   {StatusReady, StatusFull, StatusCancelled},
	StatusReady:     {StatusWaiting, StatusStarting, StatusCancelled},
	StatusFull:      {StatusReady, StatusStarting, StatusCancelled},
	StatusStarting:  {StatusInGame, StatusCancelled},
	StatusInGame:    {StatusPaused, StatusFinished},
	StatusPaused:    {StatusInGame, StatusFinished},
	StatusFinished:  {},
	StatusCancelled: {},
}

var preGame = []Status{StatusWaiting, StatusReady, StatusFull}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// PreGame reports whether no game has been started from the lobby yet.
func (s Status) PreGame() bool {
	for _, p := range preGame {
		if s == p {
			return true
		}
	}
	return false
}

// Joinable reports whether players may still enter a lobby in this status.
func (s Status) Joinable() bool {
	return s.PreGame()
}

func (s Status) String() string {
	return string(s)
}

// TargetStatus is the pre-game status a lobby should be in given its
// membership. Statuses outside the pre-game phase are returned unchanged.
func TargetStatus(playerCount, maxPlayers int, current Status) Status {
	if !current.PreGame() {
		return current
	}
	switch {
	case playerCount >= maxPlayers:
		return StatusFull
	case playerCount >= 2:
		return StatusReady
	default:
		return StatusWaiting
	}
}

// transitionPath returns the legal steps leading from one status to another,
// allowing at most one intermediate pre-game status. READY -> FULL, for
// example, has no direct edge and goes through WAITING.
func transitionPath(from, to Status) ([]Status, error) {
	if from == to {
		return nil, nil
	}
	if CanTransition(from, to) {
		return []Status{to}, nil
	}
	for _, via := range preGame {
		if CanTransition(from, via) && CanTransition(via, to) {
			return []Status{via, to}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

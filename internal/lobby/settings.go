// internal/lobby/settings.go
package lobby

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jason-s-yu/lobbyd/internal/events"
)

const (
	MinNameLength   = 3
	MaxNameLength   = 50
	MinPlayersLimit = 2
	MaxPlayersLimit = 10
)

// Settings is an immutable value object. Changes produce a new Settings via Apply.
type Settings struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
	MinPlayers int    `json:"minPlayers"`
	IsPrivate  bool   `json:"isPrivate"`
	GameType   string `json:"gameType"`
}

// NewSettings trims and validates the raw values.
func NewSettings(name string, maxPlayers, minPlayers int, isPrivate bool, gameType string) (Settings, error) {
	name = strings.TrimSpace(name)
	gameType = strings.TrimSpace(gameType)

	if n := utf8.RuneCountInString(name); n < MinNameLength || n > MaxNameLength {
		return Settings{}, fmt.Errorf("%w: name must be between %d and %d characters", ErrInvalidSettings, MinNameLength, MaxNameLength)
	}
	if maxPlayers < MinPlayersLimit || maxPlayers > MaxPlayersLimit {
		return Settings{}, fmt.Errorf("%w: max players must be between %d and %d", ErrInvalidSettings, MinPlayersLimit, MaxPlayersLimit)
	}
	if minPlayers < MinPlayersLimit || minPlayers > maxPlayers {
		return Settings{}, fmt.Errorf("%w: min players must be between %d and %d", ErrInvalidSettings, MinPlayersLimit, maxPlayers)
	}
	if gameType == "" {
		return Settings{}, fmt.Errorf("%w: game type is required", ErrInvalidSettings)
	}

	return Settings{
		Name:       name,
		MaxPlayers: maxPlayers,
		MinPlayers: minPlayers,
		IsPrivate:  isPrivate,
		GameType:   gameType,
	}, nil
}

// SettingsPatch carries the fields an update wants to change; nil means unchanged.
type SettingsPatch struct {
	Name       *string `json:"name,omitempty"`
	MaxPlayers *int    `json:"maxPlayers,omitempty"`
	MinPlayers *int    `json:"minPlayers,omitempty"`
	IsPrivate  *bool   `json:"isPrivate,omitempty"`
	GameType   *string `json:"gameType,omitempty"`
}

func (p SettingsPatch) Empty() bool {
	return p.Name == nil && p.MaxPlayers == nil && p.MinPlayers == nil && p.IsPrivate == nil && p.GameType == nil
}

// Apply rebuilds the settings with the patched fields, validating the result as a whole.
func (s Settings) Apply(p SettingsPatch) (Settings, error) {
	next := s
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.MaxPlayers != nil {
		next.MaxPlayers = *p.MaxPlayers
	}
	if p.MinPlayers != nil {
		next.MinPlayers = *p.MinPlayers
	}
	if p.IsPrivate != nil {
		next.IsPrivate = *p.IsPrivate
	}
	if p.GameType != nil {
		next.GameType = *p.GameType
	}
	return NewSettings(next.Name, next.MaxPlayers, next.MinPlayers, next.IsPrivate, next.GameType)
}

func (s Settings) view() events.SettingsView {
	return events.SettingsView{
		Name:       s.Name,
		MaxPlayers: s.MaxPlayers,
		MinPlayers: s.MinPlayers,
		IsPrivate:  s.IsPrivate,
		GameType:   s.GameType,
	}
}

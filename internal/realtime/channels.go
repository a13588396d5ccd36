// internal/realtime/channels.go
package realtime

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/events"
)

// GlobalChannel carries every event that changes what the lobby list shows.
const GlobalChannel = "lobbies"

// LobbyChannel is the channel for members and watchers of one lobby.
func LobbyChannel(id uuid.UUID) string {
	return GlobalChannel + "/" + id.String()
}

// ChannelsFor lists the channels ev is delivered on: always its lobby's
// channel, plus the global channel for list-visible changes of public lobbies.
func ChannelsFor(ev events.Event) []string {
	channels := []string{LobbyChannel(ev.LobbyID)}
	if ev.Type.Global() && !unlisted(ev) {
		channels = append(channels, GlobalChannel)
	}
	return channels
}

// unlisted reports whether ev belongs to a private lobby. A settings change
// that flips privacy is still announced so list views can add or drop the lobby.
func unlisted(ev events.Event) bool {
	if u, ok := ev.Payload.(events.SettingsUpdated); ok {
		return u.Previous.IsPrivate && u.Settings.IsPrivate
	}
	r, ok := events.RosterOf(ev.Payload)
	return ok && r.IsPrivate
}

// ParseChannel validates a channel name received from outside the process.
func ParseChannel(name string) (string, bool) {
	if name == GlobalChannel {
		return name, true
	}
	raw, ok := strings.CutPrefix(name, GlobalChannel+"/")
	if !ok {
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return LobbyChannel(id), true
}

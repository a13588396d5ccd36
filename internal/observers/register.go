// internal/observers/register.go
package observers

import "github.com/jason-s-yu/lobbyd/internal/events"

// Observer is a bus handler that knows which events it subscribes to.
type Observer interface {
	events.Handler
	Pattern() string
}

// Subscriber is satisfied by *events.Bus.
type Subscriber interface {
	Subscribe(pattern string, h events.Handler)
}

// Register subscribes every observer under its own pattern.
func Register(bus Subscriber, observers ...Observer) {
	for _, o := range observers {
		bus.Subscribe(o.Pattern(), o)
	}
}

// Handler priorities, lowest first.
const (
	PriorityAudit     = 10
	PriorityRuleCheck = 20
	PriorityBroadcast = 30
	PriorityAnalytics = 40
)

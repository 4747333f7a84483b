package qasid

import "strings"

var orderIntentMarkers = []string{
	"order", "status", "tracking", "track", "mera order", "meray order",
}

// orderIntent reports whether the message looks like an order-status query.
// Order intent is considered more specific than an FAQ match, so it wins when
// both patterns are present.
func orderIntent(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range orderIntentMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// Package access is the single decision point consulted before granting
// any subscription-gated feature (contact, chat).
package access

import (
	"time"

	"github.com/lomal-tg/lomal-backend/internal/models"
	"github.com/lomal-tg/lomal-backend/internal/services/subscription"
)

// Decision classifies a gated-feature attempt.
type Decision string

const (
	// Allowed grants access to the feature.
	Allowed Decision = "allowed"
	// RequireLogin means no authenticated identity is present.
	RequireLogin Decision = "require_login"
	// RequireSubscription means the identity has no current entitlement.
	RequireSubscription Decision = "require_subscription"
)

// Check classifies the identity at the point of action. Callers must invoke
// it when the action happens, not at render time: entitlement can lapse in
// between. Pure function, no side effects.
func Check(user *models.User, now time.Time) Decision {
	if user == nil {
		return RequireLogin
	}
	if !subscription.IsEntitled(user, now) {
		return RequireSubscription
	}
	return Allowed
}

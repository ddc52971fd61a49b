package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lomal-tg/lomal-backend/internal/models"
)

func TestCheck(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 3)
	past := now.Add(-time.Second)

	tests := []struct {
		name string
		user *models.User
		want Decision
	}{
		{
			name: "anonymous visitor",
			user: nil,
			want: RequireLogin,
		},
		{
			name: "authenticated without subscription",
			user: &models.User{ID: "u1"},
			want: RequireSubscription,
		},
		{
			name: "active unexpired subscription",
			user: &models.User{ID: "u1", SubscriptionActive: true, SubscriptionExpiry: &future},
			want: Allowed,
		},
		{
			name: "subscription lapsed between render and click",
			user: &models.User{ID: "u1", SubscriptionActive: true, SubscriptionExpiry: &past},
			want: RequireSubscription,
		},
		{
			name: "active without expiry",
			user: &models.User{ID: "u1", SubscriptionActive: true},
			want: Allowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.user, now))
		})
	}
}

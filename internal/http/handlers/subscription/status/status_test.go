package status

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lomal-tg/lomal-backend/internal/http/middlewarectx"
	"github.com/lomal-tg/lomal-backend/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Status(ctx context.Context, userID string, now time.Time) (*models.User, bool, int, error) {
	args := m.Called(ctx, userID, now)
	u, _ := args.Get(0).(*models.User)
	return u, args.Bool(1), args.Int(2), args.Error(3)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestStatusHandler_ServeHTTP(t *testing.T) {
	expiry := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	active := &models.User{ID: "u1", SubscriptionActive: true, SubscriptionExpiry: &expiry}
	inactive := &models.User{ID: "u2"}

	tests := []struct {
		name           string
		userUID        string
		setupMocks     func(*MockService)
		expectedStatus int
		contains       []string
	}{
		{
			name:    "active subscription",
			userUID: "u1",
			setupMocks: func(s *MockService) {
				s.On("Status", mock.Anything, "u1", mock.Anything).Return(active, true, 7, nil).Once()
			},
			expectedStatus: http.StatusOK,
			contains:       []string{`"active":true`, `"days_remaining":7`, `"expires_at":"2024-03-08T12:00:00Z"`},
		},
		{
			name:    "no subscription",
			userUID: "u2",
			setupMocks: func(s *MockService) {
				s.On("Status", mock.Anything, "u2", mock.Anything).Return(inactive, false, 0, nil).Once()
			},
			expectedStatus: http.StatusOK,
			contains:       []string{`"active":false`, `"days_remaining":0`},
		},
		{
			name:           "missing identity",
			userUID:        "",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
			contains:       []string{"user identification missing"},
		},
		{
			name:    "service error",
			userUID: "u3",
			setupMocks: func(s *MockService) {
				s.On("Status", mock.Anything, "u3", mock.Anything).
					Return(nil, false, 0, assert.AnError).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			contains:       []string{"failed to read subscription status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := new(MockService)
			handler := New(newNoopLogger(), subs)

			tt.setupMocks(subs)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription", nil)
			ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			for _, want := range tt.contains {
				assert.Contains(t, w.Body.String(), want)
			}

			subs.AssertExpectations(t)
		})
	}
}

package register

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lomal-tg/lomal-backend/internal/services/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, name, phone string) (*auth.RegisterResult, error) {
	args := m.Called(ctx, name, phone)
	res, _ := args.Get(0).(*auth.RegisterResult)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	expires := time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC)

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success - challenge issued",
			body: `{"name":"Kossi Agbeko","phone":"90 12 34 56"}`,
			setupMocks: func(s *MockService) {
				s.On("Register", mock.Anything, "Kossi Agbeko", "90 12 34 56").
					Return(&auth.RegisterResult{Phone: "+22890123456", Demo: true, ExpiresAt: expires}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"phone":"+22890123456","demo":true,"expires_at":"2024-03-01T12:05:00Z"}}`,
		},
		{
			name:           "invalid json",
			body:           `{"name":`,
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "missing name",
			body:           `{"phone":"90123456"}`,
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Name is a required field"}`,
		},
		{
			name: "duplicate phone",
			body: `{"name":"Kossi Agbeko","phone":"90123456"}`,
			setupMocks: func(s *MockService) {
				s.On("Register", mock.Anything, "Kossi Agbeko", "90123456").
					Return(nil, auth.ErrDuplicatePhone).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"an account with this phone already exists"}`,
		},
		{
			name: "service error",
			body: `{"name":"Kossi Agbeko","phone":"90123456"}`,
			setupMocks: func(s *MockService) {
				s.On("Register", mock.Anything, "Kossi Agbeko", "90123456").
					Return(nil, assert.AnError).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"failed to start registration"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService := new(MockService)
			handler := New(newNoopLogger(), authService)

			tt.setupMocks(authService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-id"))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())

			authService.AssertExpectations(t)
		})
	}
}

package paymenthistory

import (
	"context"
	"errors"
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

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) History(ctx context.Context, phone string, limit, offset int) ([]*models.Invoice, error) {
	args := m.Called(ctx, phone, limit, offset)
	rows, _ := args.Get(0).([]*models.Invoice)
	return rows, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHistoryHandler_ServeHTTP(t *testing.T) {
	rows := []*models.Invoice{
		{
			ID:            "inv_1",
			Reference:     "LOMAL-ABC123-XY12",
			Amount:        1000,
			CustomerPhone: "+22890123456",
			Status:        models.InvoiceStatusCompleted,
			PaymentMethod: models.MethodTMoney,
			CreatedAt:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	tests := []struct {
		name           string
		target         string
		phone          string
		setupMocks     func(*MockEngine)
		expectedStatus int
		contains       string
	}{
		{
			name:   "default paging",
			target: "/api/v1/payments/history",
			phone:  "+22890123456",
			setupMocks: func(e *MockEngine) {
				e.On("History", mock.Anything, "+22890123456", 20, 0).Return(rows, nil).Once()
			},
			expectedStatus: http.StatusOK,
			contains:       `"count":1`,
		},
		{
			name:   "explicit paging",
			target: "/api/v1/payments/history?limit=5&offset=10",
			phone:  "+22890123456",
			setupMocks: func(e *MockEngine) {
				e.On("History", mock.Anything, "+22890123456", 5, 10).Return([]*models.Invoice{}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			contains:       `"count":0`,
		},
		{
			name:   "oversized limit falls back",
			target: "/api/v1/payments/history?limit=5000",
			phone:  "+22890123456",
			setupMocks: func(e *MockEngine) {
				e.On("History", mock.Anything, "+22890123456", 20, 0).Return(rows, nil).Once()
			},
			expectedStatus: http.StatusOK,
			contains:       `"reference":"LOMAL-ABC123-XY12"`,
		},
		{
			name:           "missing identity",
			target:         "/api/v1/payments/history",
			phone:          "",
			setupMocks:     func(e *MockEngine) {},
			expectedStatus: http.StatusUnauthorized,
			contains:       "user identification missing",
		},
		{
			name:   "storage error",
			target: "/api/v1/payments/history",
			phone:  "+22890123456",
			setupMocks: func(e *MockEngine) {
				e.On("History", mock.Anything, "+22890123456", 20, 0).
					Return(nil, errors.New("connection refused")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			contains:       "failed to list invoices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(MockEngine)
			handler := New(newNoopLogger(), engine)

			tt.setupMocks(engine)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-id")
			if tt.phone != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserPhone, tt.phone)
			}
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)

			engine.AssertExpectations(t)
		})
	}
}

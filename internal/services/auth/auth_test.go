package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lomal-tg/lomal-backend/internal/cache"
	"github.com/lomal-tg/lomal-backend/internal/config"
	"github.com/lomal-tg/lomal-backend/internal/lib/jwt"
	"github.com/lomal-tg/lomal-backend/internal/models"
	"github.com/lomal-tg/lomal-backend/internal/sms"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) GetUserByPhone(ctx context.Context, phone string) (*models.User, bool, error) {
	args := m.Called(ctx, phone)
	u, _ := args.Get(0).(*models.User)
	return u, args.Bool(1), args.Error(2)
}

func (m *UsersMock) UpsertUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

// memStore is an in-process ChallengeStore. Expiry is carried inside the
// challenge itself, so the store does not need to honor TTLs.
type memStore struct {
	mu   sync.Mutex
	data map[string]models.VerificationChallenge
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]models.VerificationChallenge)}
}

func (s *memStore) Get(key string, result any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[key]
	if !ok {
		return false, nil
	}
	*result.(*models.VerificationChallenge) = c
	return true, nil
}

func (s *memStore) Set(key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value.(models.VerificationChallenge)
	return nil
}

func (s *memStore) Invalidate(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type senderFunc func(ctx context.Context, phone, code string) error

func (f senderFunc) SendCode(ctx context.Context, phone, code string) error {
	return f(ctx, phone, code)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(users *UsersMock, store *memStore, sender sms.Sender, mode string) *Service {
	maker := jwt.NewMaker("test-secret", time.Hour)
	return New(users, store, sender, maker, config.Verification{
		Mode:         mode,
		ChallengeTTL: 5 * time.Minute,
	}, newNoopLogger())
}

func TestRegister_LiveDelivery(t *testing.T) {
	users := new(UsersMock)
	store := newMemStore()

	var sentTo, sentCode string
	sender := senderFunc(func(_ context.Context, phone, code string) error {
		sentTo, sentCode = phone, code
		return nil
	})
	svc := newService(users, store, sender, config.VerificationLive)

	users.On("GetUserByPhone", mock.Anything, "+22890123456").Return(nil, false, nil).Once()

	res, err := svc.Register(context.Background(), "Kossi Agbeko", "90 12 34 56")
	require.NoError(t, err)
	assert.Equal(t, "+22890123456", res.Phone)
	assert.False(t, res.Demo)
	assert.Equal(t, "+22890123456", sentTo)
	assert.Len(t, sentCode, 6)

	var challenge models.VerificationChallenge
	found, err := store.Get(cache.ChallengeKeyPrefix+"+22890123456", &challenge)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sentCode, challenge.Code)
	assert.False(t, challenge.Demo)

	users.AssertExpectations(t)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	users := new(UsersMock)
	svc := newService(users, newMemStore(), senderFunc(nil), config.VerificationPermissive)

	users.On("GetUserByPhone", mock.Anything, "+22890123456").
		Return(&models.User{ID: "u1"}, true, nil).Once()

	_, err := svc.Register(context.Background(), "Kossi", "90123456")
	assert.ErrorIs(t, err, ErrDuplicatePhone)

	users.AssertExpectations(t)
}

func TestRegister_PermissiveSkipsDelivery(t *testing.T) {
	users := new(UsersMock)
	store := newMemStore()
	sender := senderFunc(func(context.Context, string, string) error {
		t.Fatal("sender must not be called in permissive mode")
		return nil
	})
	svc := newService(users, store, sender, config.VerificationPermissive)

	users.On("GetUserByPhone", mock.Anything, "+22890123456").Return(nil, false, nil).Once()

	res, err := svc.Register(context.Background(), "Kossi", "90123456")
	require.NoError(t, err)
	assert.True(t, res.Demo)
}

func TestRegister_DeliveryFailureDegradesToDemo(t *testing.T) {
	users := new(UsersMock)
	store := newMemStore()
	sender := senderFunc(func(context.Context, string, string) error {
		return sms.ErrNotConfigured
	})
	svc := newService(users, store, sender, config.VerificationLive)

	users.On("GetUserByPhone", mock.Anything, "+22890123456").Return(nil, false, nil).Once()

	res, err := svc.Register(context.Background(), "Kossi", "90123456")
	require.NoError(t, err)
	assert.True(t, res.Demo)

	var challenge models.VerificationChallenge
	found, _ := store.Get(cache.ChallengeKeyPrefix+"+22890123456", &challenge)
	require.True(t, found)
	assert.True(t, challenge.Demo)
}

func TestConfirmRegistration(t *testing.T) {
	const phoneNum = "+22890123456"

	seed := func(store *memStore, demo bool, expiresAt time.Time) {
		_ = store.Set(cache.ChallengeKeyPrefix+phoneNum, models.VerificationChallenge{
			Name:      "Kossi Agbeko",
			Phone:     phoneNum,
			Code:      "482913",
			Demo:      demo,
			ExpiresAt: expiresAt,
		}, time.Minute)
	}
	future := time.Now().Add(time.Minute)

	tests := []struct {
		name    string
		seed    func(*memStore)
		code    string
		wantErr error
	}{
		{
			name:    "no outstanding challenge",
			seed:    func(*memStore) {},
			code:    "482913",
			wantErr: ErrExpired,
		},
		{
			name:    "challenge past its deadline",
			seed:    func(s *memStore) { seed(s, false, time.Now().Add(-time.Second)) },
			code:    "482913",
			wantErr: ErrExpired,
		},
		{
			name:    "wrong code in live mode",
			seed:    func(s *memStore) { seed(s, false, future) },
			code:    "000000",
			wantErr: ErrInvalidCode,
		},
		{
			name:    "malformed code rejected even in demo",
			seed:    func(s *memStore) { seed(s, true, future) },
			code:    "12ab56",
			wantErr: ErrInvalidCode,
		},
		{
			name:    "too short code rejected in demo",
			seed:    func(s *memStore) { seed(s, true, future) },
			code:    "123",
			wantErr: ErrInvalidCode,
		},
		{
			name: "any well-formed code accepted in demo",
			seed: func(s *memStore) { seed(s, true, future) },
			code: "999999",
		},
		{
			name: "exact code accepted in live mode",
			seed: func(s *memStore) { seed(s, false, future) },
			code: "482913",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			store := newMemStore()
			tt.seed(store)
			svc := newService(users, store, senderFunc(nil), config.VerificationLive)

			if tt.wantErr == nil {
				users.On("UpsertUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Phone == phoneNum && u.Name == "Kossi Agbeko" &&
						!u.SubscriptionActive && u.ID != ""
				})).Return(&models.User{ID: "u1", Name: "Kossi Agbeko", Phone: phoneNum}, nil).Once()
			}

			user, token, err := svc.ConfirmRegistration(context.Background(), phoneNum, tt.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", user.ID)
			assert.NotEmpty(t, token)

			// the challenge is single-use
			found, _ := store.Get(cache.ChallengeKeyPrefix+phoneNum, &models.VerificationChallenge{})
			assert.False(t, found)

			users.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	stored := &models.User{ID: "u1", Name: "Kossi Agbeko", Phone: "+22890123456"}

	tests := []struct {
		name    string
		found   bool
		tryName string
		wantErr error
	}{
		{name: "unknown phone", found: false, tryName: "Kossi Agbeko", wantErr: ErrNoSuchAccount},
		{name: "name mismatch", found: true, tryName: "Afi Mensah", wantErr: ErrNameMismatch},
		{name: "exact name", found: true, tryName: "Kossi Agbeko"},
		{name: "case and spacing folded", found: true, tryName: "  kossi   AGBEKO "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			svc := newService(users, newMemStore(), senderFunc(nil), config.VerificationLive)

			var ret *models.User
			if tt.found {
				ret = stored
			}
			users.On("GetUserByPhone", mock.Anything, "+22890123456").
				Return(ret, tt.found, nil).Once()

			user, token, err := svc.Login(context.Background(), tt.tryName, "90123456")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored, user)

			maker := jwt.NewMaker("test-secret", time.Hour)
			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			// session claims come from the stored identity, not the input
			assert.Equal(t, "Kossi Agbeko", claims.Name)
			assert.Equal(t, "u1", claims.UserUID)

			users.AssertExpectations(t)
		})
	}
}

func TestLogin_RepositoryError(t *testing.T) {
	users := new(UsersMock)
	svc := newService(users, newMemStore(), senderFunc(nil), config.VerificationLive)

	users.On("GetUserByPhone", mock.Anything, "+22890123456").
		Return(nil, false, errors.New("connection reset")).Once()

	_, _, err := svc.Login(context.Background(), "Kossi", "90123456")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSuchAccount)
}

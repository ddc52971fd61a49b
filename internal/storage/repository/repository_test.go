package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lomal-tg/lomal-backend/internal/migrations"
	"github.com/lomal-tg/lomal-backend/internal/models"
)

func getTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		_ = storage.DB.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

func seedUser(t *testing.T, s *Storage, id, name, phone string) *models.User {
	t.Helper()
	user, err := s.UpsertUser(context.Background(), models.User{
		ID:    id,
		Name:  name,
		Phone: phone,
	})
	require.NoError(t, err)
	return user
}

func seedInvoice(t *testing.T, s *Storage, reference, phone string) models.Invoice {
	t.Helper()
	inv := models.Invoice{
		ID:            "inv_" + reference,
		Reference:     reference,
		Amount:        1000,
		Description:   "Abonnement LOMAL IMMOBILIER - 7 jours",
		CustomerName:  "Kossi Agbeko",
		CustomerPhone: phone,
		Status:        models.InvoiceStatusPending,
		PaymentMethod: models.MethodTMoney,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.InsertInvoice(context.Background(), inv))
	return inv
}

func TestUsersRoundTrip(t *testing.T) {
	s, cleanup := getTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, found, err := s.GetUserByPhone(ctx, "+22890123456")
	require.NoError(t, err)
	assert.False(t, found)

	created := seedUser(t, s, "u1", "Kossi Agbeko", "+22890123456")
	assert.Equal(t, "u1", created.ID)
	assert.False(t, created.SubscriptionActive)

	// same phone again keeps the row and refreshes the name
	again, err := s.UpsertUser(ctx, models.User{ID: "u2", Name: "Kossi A.", Phone: "+22890123456"})
	require.NoError(t, err)
	assert.Equal(t, "u1", again.ID)
	assert.Equal(t, "Kossi A.", again.Name)

	byID, found, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "+22890123456", byID.Phone)

	expiry := time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Microsecond)
	updated, err := s.UpdateSubscription(ctx, "u1", true, &expiry)
	require.NoError(t, err)
	assert.True(t, updated.SubscriptionActive)
	require.NotNil(t, updated.SubscriptionExpiry)
	assert.WithinDuration(t, expiry, *updated.SubscriptionExpiry, time.Millisecond)
}

func TestInvoiceResolveIsSingleShot(t *testing.T) {
	s, cleanup := getTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, s, "u1", "Kossi Agbeko", "+22890123456")
	inv := seedInvoice(t, s, "LOMAL-ABC123-XY12", "+22890123456")

	completedAt := time.Now().UTC().Truncate(time.Microsecond)
	won, err := s.ResolveInvoice(ctx, inv.Reference, models.InvoiceStatusCompleted, &completedAt)
	require.NoError(t, err)
	assert.True(t, won)

	// invoice is terminal now, a second resolve loses
	won, err = s.ResolveInvoice(ctx, inv.Reference, models.InvoiceStatusFailed, nil)
	require.NoError(t, err)
	assert.False(t, won)

	stored, found, err := s.GetInvoiceByReference(ctx, inv.Reference)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.InvoiceStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	// non-terminal target status is refused outright
	_, err = s.ResolveInvoice(ctx, inv.Reference, models.InvoiceStatusPending, nil)
	require.Error(t, err)
}

func TestListInvoicesByPhone(t *testing.T) {
	s, cleanup := getTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, s, "u1", "Kossi Agbeko", "+22890123456")
	seedInvoice(t, s, "LOMAL-AAA111-AB12", "+22890123456")
	seedInvoice(t, s, "LOMAL-BBB222-CD34", "+22890123456")
	seedInvoice(t, s, "LOMAL-CCC333-EF56", "+22899999999")

	list, err := s.ListInvoicesByPhone(ctx, "+22890123456", 50, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.ListInvoicesByPhone(ctx, "+22890123456", 1, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPaymentsLedger(t *testing.T) {
	s, cleanup := getTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, s, "u1", "Kossi Agbeko", "+22890123456")

	row := models.Payment{
		ID:        "pay_1",
		UserID:    "u1",
		UserName:  "Kossi Agbeko",
		UserPhone: "+22890123456",
		Amount:    1000,
		Type:      models.PaymentTypeSubscription,
		Status:    models.PaymentStatusSuccess,
		Reference: "LOMAL-ABC123-XY12",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	inserted, err := s.InsertPayment(ctx, row)
	require.NoError(t, err)
	assert.Equal(t, row.Reference, inserted.Reference)

	// the unique reference index refuses a second row for one settlement
	dup := row
	dup.ID = "pay_2"
	_, err = s.InsertPayment(ctx, dup)
	require.ErrorIs(t, err, ErrDuplicateReference)

	rows, err := s.ListPayments(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "pay_1", rows[0].ID)
}

func TestCheckDatabaseReady(t *testing.T) {
	s, cleanup := getTestStorage(t)
	defer cleanup()

	require.NoError(t, CheckDatabaseReady(s))

	_, err := s.DB.Exec(`DROP TABLE users CASCADE`)
	require.NoError(t, err)
	require.Error(t, CheckDatabaseReady(s))
}

package account_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ton_topup/internal/account"
	"ton_topup/internal/domain"
	"ton_topup/internal/ledger"
	"ton_topup/internal/ledger/ledgertest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func setup(t *testing.T) (*account.Service, *ledger.Ledger, *gorm.DB, *miniredis.Miniredis) {
	l, gdb := ledgertest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return account.NewService(l, rdb, time.Minute, 0, nil), l, gdb, mr
}

func credit(t *testing.T, l *ledger.Ledger, userID, amount int64, memo string) {
	t.Helper()
	ctx := context.Background()
	p, err := l.InsertPendingPayment(ctx, userID, amount, memo)
	require.NoError(t, err)
	_, err = l.CompletePaymentAndCredit(ctx, p.ID, userID, amount, domain.MethodTon)
	require.NoError(t, err)
}

func TestProfile(t *testing.T) {
	svc, l, _, mr := setup(t)
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, 42)
	assert.ErrorIs(t, err, account.ErrUserNotFound)
	_, err = svc.GetProfile(ctx, 0)
	assert.ErrorIs(t, err, account.ErrValidation)

	u, err := svc.UpsertProfile(ctx, 42, domain.Profile{Username: strPtr("alice"), FirstName: strPtr("Alice")})
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ID)

	u, err = svc.GetProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", *u.Username)
	assert.Equal(t, int64(0), u.TonBalance)
	assert.True(t, mr.Exists("profile:user:42"))

	// Balance change is hidden by the cache until invalidated
	credit(t, l, 42, 100, "AAAA000000000001")
	u, err = svc.GetProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), u.TonBalance)

	svc.Invalidate(ctx, 42)
	u, err = svc.GetProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(100), u.TonBalance)

	// Upsert refreshes the cached profile and keeps the balance
	u, err = svc.UpsertProfile(ctx, 42, domain.Profile{Username: strPtr("alice_new")})
	require.NoError(t, err)
	assert.Equal(t, int64(100), u.TonBalance)
	u, err = svc.GetProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice_new", *u.Username)
}

func TestListHistory(t *testing.T) {
	svc, _, gdb, _ := setup(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		require.NoError(t, gdb.Create(&domain.Operation{
			UserID:    42,
			Type:      domain.OperationDeposit,
			Amount:    int64(i),
			Method:    domain.MethodTon,
			Status:    "completed",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	entries, err := svc.ListHistory(ctx, 42, 0)
	require.NoError(t, err)
	assert.Len(t, entries, account.DefaultHistoryLimit)
	assert.Equal(t, int64(119), entries[0].Amount)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt), "entry %d out of order", i)
	}
	assert.Equal(t, "09.03.2025", entries[0].Date)

	entries, err = svc.ListHistory(ctx, 42, 5)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	entries, err = svc.ListHistory(ctx, 7, 5)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.ListHistory(ctx, -1, 5)
	assert.ErrorIs(t, err, account.ErrValidation)
}

func TestListHistory_InvalidatedAfterCredit(t *testing.T) {
	svc, l, _, _ := setup(t)
	ctx := context.Background()

	credit(t, l, 42, 1, "AAAA000000000002")
	entries, err := svc.ListHistory(ctx, 42, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	credit(t, l, 42, 2, "AAAA000000000003")
	entries, err = svc.ListHistory(ctx, 42, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "served from cache")

	svc.Invalidate(ctx, 42)
	entries, err = svc.ListHistory(ctx, 42, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestService_WithoutRedis(t *testing.T) {
	l, _ := ledgertest.New(t)
	svc := account.NewService(l, nil, time.Minute, 3, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		credit(t, l, 42, 1, fmt.Sprintf("BBBB%012d", i))
	}
	u, err := svc.GetProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.TonBalance)

	entries, err := svc.ListHistory(ctx, 42, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

// invalidatingStore runs afterRead once the user row has been loaded, standing
// in for a confirmation that commits and invalidates while a read is in flight.
type invalidatingStore struct {
	account.Store
	afterRead func()
}

func (s *invalidatingStore) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.Store.GetUser(ctx, userID)
	if s.afterRead != nil {
		s.afterRead()
		s.afterRead = nil
	}
	return u, err
}

func (s *invalidatingStore) ListOperations(ctx context.Context, userID int64, limit int, newestFirst bool) ([]domain.Operation, error) {
	ops, err := s.Store.ListOperations(ctx, userID, limit, newestFirst)
	if s.afterRead != nil {
		s.afterRead()
		s.afterRead = nil
	}
	return ops, err
}

func TestGetProfile_InvalidatedDuringRead(t *testing.T) {
	l, _ := ledgertest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := &invalidatingStore{Store: l}
	svc := account.NewService(store, rdb, time.Minute, 0, nil)
	ctx := context.Background()

	_, err := l.UpsertUser(ctx, 42, domain.Profile{Username: strPtr("alice")})
	require.NoError(t, err)

	store.afterRead = func() {
		credit(t, l, 42, 100, "AAAA000000000010")
		svc.Invalidate(ctx, 42)
	}
	u, err := svc.GetProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), u.TonBalance, "value read before the credit")
	assert.False(t, mr.Exists("profile:user:42"), "stale profile must not be cached")

	u, err = svc.GetProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(100), u.TonBalance)
	assert.True(t, mr.Exists("profile:user:42"))
}

func TestListHistory_InvalidatedDuringRead(t *testing.T) {
	l, _ := ledgertest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := &invalidatingStore{Store: l}
	svc := account.NewService(store, rdb, time.Minute, 0, nil)
	ctx := context.Background()

	store.afterRead = func() {
		credit(t, l, 42, 5, "AAAA000000000011")
		svc.Invalidate(ctx, 42)
	}
	entries, err := svc.ListHistory(ctx, 42, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, mr.Exists("history:user:42:limit:10"))

	entries, err = svc.ListHistory(ctx, 42, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCacheReadErrorsAreLogged(t *testing.T) {
	l, _ := ledgertest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	log, hook := logtest.NewNullLogger()
	svc := account.NewService(l, rdb, time.Minute, 0, log)
	ctx := context.Background()

	credit(t, l, 42, 7, "AAAA000000000012")
	require.NoError(t, mr.Set("profile:user:42", "not json"))
	require.NoError(t, mr.Set("history:user:42:limit:10", "not json"))

	u, err := svc.GetProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.TonBalance)

	entries, err := svc.ListHistory(ctx, 42, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	var msgs []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			msgs = append(msgs, e.Message)
		}
	}
	assert.Contains(t, msgs, "Profile cache read failed")
	assert.Contains(t, msgs, "History cache read failed")
}

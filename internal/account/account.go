// Package account is the read side of the ledger: profiles, balances and
// operation history, with an optional Redis read-through cache.
package account

import (
	"context" // For request-scoped calls
	"errors"  // For sentinel errors
	"fmt"     // For wrapping errors
	"time"    // For cache TTL and dates

	"ton_topup/internal/domain" // User and operation models
	"ton_topup/internal/ledger" // Storage errors
	"ton_topup/internal/utils"  // Cache helpers

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
)

// DefaultHistoryLimit caps history when the caller passes no limit.
const DefaultHistoryLimit = 100

// DateLayout renders operation dates as dd.mm.yyyy.
const DateLayout = "02.01.2006"

// Errors mapped to HTTP status codes by the api package.
var (
	ErrValidation   = errors.New("invalid account request")
	ErrUserNotFound = errors.New("user not found")
)

// Store is the part of the ledger the read side needs.
type Store interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	UpsertUser(ctx context.Context, userID int64, p domain.Profile) (*domain.User, error)
	ListOperations(ctx context.Context, userID int64, limit int, newestFirst bool) ([]domain.Operation, error)
}

// HistoryEntry is the user-facing projection of an Operation.
type HistoryEntry struct {
	Type      domain.OperationType `json:"type"`
	Amount    int64                `json:"amount"`
	Method    domain.CreditMethod  `json:"method"`
	Status    string               `json:"status"`
	Date      string               `json:"date"`
	CreatedAt time.Time            `json:"created_at"`
}

// Service serves profiles and history, caching both in Redis when configured.
type Service struct {
	store        Store
	rdb          *redis.Client
	ttl          time.Duration
	defaultLimit int
	log          logrus.FieldLogger
}

// NewService builds the service. rdb may be nil to disable caching.
func NewService(store Store, rdb *redis.Client, ttl time.Duration, defaultLimit int, log logrus.FieldLogger) *Service {
	if defaultLimit <= 0 {
		defaultLimit = DefaultHistoryLimit
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, rdb: rdb, ttl: ttl, defaultLimit: defaultLimit, log: log}
}

// GetProfile returns the user's profile and balances.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id required", ErrValidation)
	}
	var u domain.User
	key := utils.ProfileKey(userID)
	if found, err := utils.GetCache(ctx, s.rdb, key, &u); err == nil && found {
		return &u, nil
	} else if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Profile cache read failed")
	}

	gen, genErr := utils.CacheGeneration(ctx, s.rdb, utils.GenerationKey(userID)) // Taken before the read
	got, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if genErr == nil {
		s.fill(ctx, userID, gen, key, got)
	}
	return got, nil
}

// UpsertProfile creates the user on first contact or refreshes display fields.
func (s *Service) UpsertProfile(ctx context.Context, userID int64, p domain.Profile) (*domain.User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id required", ErrValidation)
	}
	u, err := s.store.UpsertUser(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, userID)
	return u, nil
}

// ListHistory returns the newest operations first, at most limit of them.
// limit <= 0 selects the default.
func (s *Service) ListHistory(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id required", ErrValidation)
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	var entries []HistoryEntry
	key := utils.HistoryKey(userID, limit)
	if found, err := utils.GetCache(ctx, s.rdb, key, &entries); err == nil && found {
		return entries, nil
	} else if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("History cache read failed")
	}

	gen, genErr := utils.CacheGeneration(ctx, s.rdb, utils.GenerationKey(userID))
	ops, err := s.store.ListOperations(ctx, userID, limit, true)
	if err != nil {
		return nil, err
	}
	entries = make([]HistoryEntry, 0, len(ops))
	for _, op := range ops {
		entries = append(entries, HistoryEntry{
			Type:      op.Type,
			Amount:    op.Amount,
			Method:    op.Method,
			Status:    op.Status,
			Date:      op.CreatedAt.Format(DateLayout),
			CreatedAt: op.CreatedAt,
		})
	}
	if genErr == nil {
		s.fill(ctx, userID, gen, key, entries)
	}
	return entries, nil
}

// fill caches a freshly loaded value unless the user was invalidated since gen
// was read.
func (s *Service) fill(ctx context.Context, userID int64, gen, key string, value any) {
	ok, err := utils.SetCacheIfGeneration(ctx, s.rdb, utils.GenerationKey(userID), gen, key, value, s.ttl)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Cache write failed")
		return
	}
	if !ok && s.rdb != nil {
		s.log.WithField("key", key).Debug("Skipped caching a value loaded before invalidation")
	}
}

// Invalidate drops cached profile and history of the user. Call after any
// balance change.
func (s *Service) Invalidate(ctx context.Context, userID int64) {
	if err := utils.BumpGeneration(ctx, s.rdb, utils.GenerationKey(userID)); err != nil { // Must precede the deletes
		s.log.WithError(err).WithField("user_id", userID).Warn("Cache generation bump failed")
	}
	if err := utils.DeleteCache(ctx, s.rdb, utils.ProfileKey(userID)); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Profile cache invalidation failed")
	}
	if err := utils.DeleteCachePrefix(ctx, s.rdb, utils.HistoryPrefix(userID)); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("History cache invalidation failed")
	}
}

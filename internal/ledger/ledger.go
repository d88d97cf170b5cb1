// Package ledger stores payment intents, user balances and the operation log.
//
// Every method is a single atomic unit against the database. Completion of a
// payment is a compare-and-swap on the payment's status column inside one
// transaction, so concurrent confirmations of the same payment credit once.
package ledger

import (
	"context" // For request-scoped queries
	"errors"  // For sentinel errors
	"fmt"     // For wrapping errors

	"ton_topup/internal/db"     // Schema migration
	"ton_topup/internal/domain" // Persisted models

	"gorm.io/gorm"        // ORM
	"gorm.io/gorm/clause" // For upserts
)

// Errors returned by the ledger. Anything else is a storage failure.
var (
	ErrNotFound      = errors.New("ledger: not found")
	ErrDuplicateMemo = errors.New("ledger: duplicate memo")
	ErrMismatch      = errors.New("ledger: payment does not match credit request")
	ErrBadMethod     = errors.New("ledger: unknown credit method")
)

// Completion is the outcome of CompletePaymentAndCredit.
type Completion struct {
	Payment          domain.Payment
	Operation        *domain.Operation // nil when the operation row is not visible to this transaction
	AlreadyCompleted bool              // true when no credit was applied by this call
}

// Ledger is the gorm-backed store.
type Ledger struct {
	db *gorm.DB
}

// New wraps an open connection. The connection must be opened with
// gorm.Config{TranslateError: true} for duplicate memos to be detected.
func New(gdb *gorm.DB) *Ledger {
	return &Ledger{db: gdb}
}

// Init creates or updates the schema. Call once before serving.
func (l *Ledger) Init(ctx context.Context) error {
	return db.Migrate(l.db.WithContext(ctx))
}

// InsertPendingPayment stores a new pending payment intent. A memo that is
// already taken yields ErrDuplicateMemo so the caller can retry with another.
func (l *Ledger) InsertPendingPayment(ctx context.Context, userID, amount int64, memo string) (*domain.Payment, error) {
	p := &domain.Payment{
		UserID: userID,
		Amount: amount,
		Memo:   memo,
		Status: domain.PaymentPending,
	}
	if err := l.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) { // Unique index on memo
			return nil, ErrDuplicateMemo
		}
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

// FindPaymentByMemo looks a payment up by its exact memo.
func (l *Ledger) FindPaymentByMemo(ctx context.Context, memo string) (*domain.Payment, error) {
	var p domain.Payment
	if err := l.db.WithContext(ctx).Where("memo = ?", memo).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindPaymentByID looks a payment up by primary key.
func (l *Ledger) FindPaymentByID(ctx context.Context, id uint) (*domain.Payment, error) {
	var p domain.Payment
	if err := l.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// CompletePaymentAndCredit moves the payment to completed, credits the user's
// balance selected by method and appends an Operation, all in one transaction.
// If the payment is already completed, nothing is written and the returned
// Completion has AlreadyCompleted set.
func (l *Ledger) CompletePaymentAndCredit(ctx context.Context, paymentID uint, userID, amount int64, method domain.CreditMethod) (*Completion, error) {
	column, ok := method.Column()
	if !ok {
		return nil, ErrBadMethod
	}
	var out *Completion
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Payment
		if err := tx.First(&p, paymentID).Error; err != nil {
			return notFound(err)
		}
		if p.UserID != userID || p.Amount != amount {
			return ErrMismatch
		}
		if p.Status == domain.PaymentCompleted { // Fast path for replays
			out = &Completion{Payment: p, Operation: findOperation(tx, p.ID), AlreadyCompleted: true}
			return nil
		}

		// Only one transaction can flip pending -> completed; the loser sees zero rows.
		res := tx.Model(&domain.Payment{}).
			Where("id = ? AND status = ?", p.ID, domain.PaymentPending).
			Update("status", domain.PaymentCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 { // Someone else completed it after our read
			p.Status = domain.PaymentCompleted
			out = &Completion{Payment: p, Operation: findOperation(tx, p.ID), AlreadyCompleted: true}
			return nil
		}
		p.Status = domain.PaymentCompleted

		// Credit the balance, creating the user row if the payer never hit /start.
		u := domain.User{ID: userID}
		if method == domain.MethodTon {
			u.TonBalance = amount
		} else {
			u.TelegramStars = amount
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Set{{Column: clause.Column{Name: column}, Value: gorm.Expr(column+" + ?", amount)}},
		}).Create(&u).Error; err != nil {
			return err
		}

		op := domain.Operation{
			UserID:    userID,
			PaymentID: &p.ID,
			Type:      domain.OperationDeposit,
			Amount:    amount,
			Method:    method,
			Status:    string(domain.PaymentCompleted),
		}
		if err := tx.Create(&op).Error; err != nil { // Unique payment_id: one deposit per payment
			return err
		}
		out = &Completion{Payment: p, Operation: &op}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("complete payment %d: %w", paymentID, err)
	}
	return out, nil
}

// GetUser returns the stored user, or ErrNotFound.
func (l *Ledger) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	var u domain.User
	if err := l.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UpsertUser creates the user or refreshes its display fields. Balances are
// never touched. A nil AvatarURL keeps the stored avatar.
func (l *Ledger) UpsertUser(ctx context.Context, userID int64, p domain.Profile) (*domain.User, error) {
	u := domain.User{
		ID:        userID,
		Username:  p.Username,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		AvatarURL: p.AvatarURL,
	}
	cols := []string{"username", "first_name", "last_name"}
	if p.AvatarURL != nil {
		cols = append(cols, "avatar_url")
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&u).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user %d: %w", userID, err)
	}
	return l.GetUser(ctx, userID)
}

// ListOperations returns up to limit operations of the user. limit <= 0 means
// no cap.
func (l *Ledger) ListOperations(ctx context.Context, userID int64, limit int, newestFirst bool) ([]domain.Operation, error) {
	order := "created_at asc, id asc"
	if newestFirst {
		order = "created_at desc, id desc"
	}
	q := l.db.WithContext(ctx).Where("user_id = ?", userID).Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ops []domain.Operation
	if err := q.Find(&ops).Error; err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return ops, nil
}

// findOperation returns the deposit written for the payment, if visible.
func findOperation(tx *gorm.DB, paymentID uint) *domain.Operation {
	var op domain.Operation
	if err := tx.Where("payment_id = ?", paymentID).First(&op).Error; err != nil {
		return nil
	}
	return &op
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Package payment drives the top-up lifecycle: create a pending intent with a
// unique memo, then confirm it by memo and credit the user exactly once.
package payment

import (
	"context" // For request-scoped calls
	"errors"  // For sentinel errors
	"fmt"     // For wrapping errors
	"strconv" // For building transfer links
	"strings" // For normalising memos

	"ton_topup/internal/domain" // Payment and operation models
	"ton_topup/internal/ledger" // Storage errors and results
	"ton_topup/internal/memo"   // Memo generation

	"github.com/sirupsen/logrus" // Structured logging
)

// NanoPerTon scales whole TON to nanotons in transfer links.
const NanoPerTon int64 = 1_000_000_000

// Errors mapped to HTTP status codes by the api package.
var (
	ErrValidation      = errors.New("invalid payment request")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrMemoExhausted   = errors.New("could not allocate a unique memo")
)

// Store is the part of the ledger the lifecycle needs.
type Store interface {
	InsertPendingPayment(ctx context.Context, userID, amount int64, memo string) (*domain.Payment, error)
	FindPaymentByMemo(ctx context.Context, memo string) (*domain.Payment, error)
	FindPaymentByID(ctx context.Context, id uint) (*domain.Payment, error)
	CompletePaymentAndCredit(ctx context.Context, paymentID uint, userID, amount int64, method domain.CreditMethod) (*ledger.Completion, error)
}

// Observer is notified of lifecycle events. Implemented by metrics.Metrics.
type Observer interface {
	PaymentCreated()
	MemoCollision()
	PaymentConfirmed(alreadyCompleted bool)
}

// Config carries the settings the service needs from the process config.
type Config struct {
	WalletAddress string
	MemoRetries   int
}

// Transfer tells the client where and how to send funds.
type Transfer struct {
	WalletAddress string
	Memo          string
	Amount        int64
	URI           string
}

// Created is returned by CreatePayment.
type Created struct {
	Payment  domain.Payment
	Transfer Transfer
}

// ConfirmStatus is the result of a confirmation.
type ConfirmStatus string

const (
	StatusCompleted        ConfirmStatus = "completed"
	StatusAlreadyCompleted ConfirmStatus = "already_completed"
)

// Confirmation is returned by ConfirmPayment. Operation is nil when the
// payment had already been completed by an earlier call.
type Confirmation struct {
	Status    ConfirmStatus
	Payment   domain.Payment
	Operation *domain.Operation
}

// Service runs the payment lifecycle on top of a Store.
type Service struct {
	store    Store
	cfg      Config
	clock    memo.Clock
	log      logrus.FieldLogger
	observer Observer
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the memo clock. WithLogger and WithObserver replace the
// default logger and the no-op observer.
func WithClock(c memo.Clock) Option          { return func(s *Service) { s.clock = c } }
func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }
func WithObserver(o Observer) Option         { return func(s *Service) { s.observer = o } }

// NewService builds a Service. MemoRetries defaults to 5.
func NewService(store Store, cfg Config, opts ...Option) *Service {
	if cfg.MemoRetries <= 0 {
		cfg.MemoRetries = 5
	}
	s := &Service{
		store:    store,
		cfg:      cfg,
		clock:    memo.RealClock{},
		log:      logrus.StandardLogger(),
		observer: nopObserver{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreatePayment validates the request, allocates a memo and stores a pending
// intent. No balance changes here.
func (s *Service) CreatePayment(ctx context.Context, userID, amount int64) (*Created, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id must be positive", ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	var p *domain.Payment
	for attempt := 1; ; attempt++ {
		m := memo.Generate(userID, amount, s.clock)
		var err error
		p, err = s.store.InsertPendingPayment(ctx, userID, amount, m)
		if err == nil {
			break
		}
		if !errors.Is(err, ledger.ErrDuplicateMemo) { // Storage failure, not a collision
			return nil, err
		}
		s.observer.MemoCollision()
		s.log.WithFields(logrus.Fields{"user_id": userID, "memo": m, "attempt": attempt}).Warn("Memo collision")
		if attempt >= s.cfg.MemoRetries {
			return nil, ErrMemoExhausted
		}
	}

	s.observer.PaymentCreated()
	s.log.WithFields(logrus.Fields{
		"user_id":    p.UserID,
		"payment_id": p.ID,
		"memo":       p.Memo,
		"amount":     p.Amount,
	}).Info("Payment created")

	return &Created{Payment: *p, Transfer: s.transfer(p)}, nil
}

// ConfirmPayment credits the payment identified by memo. Amount and recipient
// come from the stored intent, never from the caller. Repeated confirmations
// return StatusAlreadyCompleted.
func (s *Service) ConfirmPayment(ctx context.Context, rawMemo string) (*Confirmation, error) {
	m := strings.ToUpper(strings.TrimSpace(rawMemo))
	if !memo.Valid(m) { // Cannot match any stored memo
		return nil, ErrPaymentNotFound
	}
	p, err := s.store.FindPaymentByMemo(ctx, m)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if p.Status == domain.PaymentCompleted {
		s.observer.PaymentConfirmed(true)
		return &Confirmation{Status: StatusAlreadyCompleted, Payment: *p}, nil
	}

	c, err := s.store.CompletePaymentAndCredit(ctx, p.ID, p.UserID, p.Amount, domain.MethodTon) // Amounts from the stored intent
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		s.log.WithFields(logrus.Fields{"payment_id": p.ID, "memo": m, "error": err.Error()}).Error("Payment confirmation failed")
		return nil, err
	}

	status := StatusCompleted
	if c.AlreadyCompleted {
		status = StatusAlreadyCompleted
	}
	s.observer.PaymentConfirmed(c.AlreadyCompleted)
	s.log.WithFields(logrus.Fields{
		"user_id":    c.Payment.UserID,
		"payment_id": c.Payment.ID,
		"memo":       c.Payment.Memo,
		"amount":     c.Payment.Amount,
		"status":     status,
	}).Info("Payment confirmed")

	return &Confirmation{Status: status, Payment: c.Payment, Operation: c.Operation}, nil
}

// GetPayment returns the intent by id.
func (s *Service) GetPayment(ctx context.Context, id uint) (*domain.Payment, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: payment_id required", ErrValidation)
	}
	p, err := s.store.FindPaymentByID(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

func (s *Service) transfer(p *domain.Payment) Transfer {
	return Transfer{
		WalletAddress: s.cfg.WalletAddress,
		Memo:          p.Memo,
		Amount:        p.Amount,
		URI:           TransferURI(s.cfg.WalletAddress, p.Amount, p.Memo),
	}
}

// TransferURI builds a ton://transfer link with the amount in nanotons.
func TransferURI(wallet string, amount int64, memo string) string {
	return "ton://transfer/" + wallet + "?amount=" + strconv.FormatInt(amount*NanoPerTon, 10) + "&text=" + memo
}

type nopObserver struct{}

func (nopObserver) PaymentCreated()       {}
func (nopObserver) MemoCollision()        {}
func (nopObserver) PaymentConfirmed(bool) {}

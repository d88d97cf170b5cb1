package domain

import "time"

// CreditMethod selects which balance counter an operation affects
type CreditMethod string

const (
	MethodTon   CreditMethod = "ton-ton"        // Credits TonBalance
	MethodStars CreditMethod = "telegram-stars" // Credits TelegramStars
)

// Column returns the users column credited by the method
func (m CreditMethod) Column() (string, bool) {
	switch m {
	case MethodTon:
		return "ton_balance", true
	case MethodStars:
		return "telegram_stars", true
	}
	return "", false
}

// OperationType tags an operation row
type OperationType string

const OperationDeposit OperationType = "deposit"

// Operation Model, append-only
type Operation struct {
	ID        uint          `gorm:"primaryKey" json:"id"`                             // Primary key
	UserID    int64         `gorm:"index;not null" json:"user_id"`                    // Owning user
	PaymentID *uint         `gorm:"uniqueIndex" json:"payment_id,omitempty"`          // Source payment, at most one operation each
	Type      OperationType `gorm:"size:32;not null" json:"type"`                     // Operation type
	Amount    int64         `gorm:"not null" json:"amount"`                           // Credited amount
	Method    CreditMethod  `gorm:"size:32;not null" json:"method"`                   // Affected balance
	Status    string        `gorm:"size:16;not null;default:completed" json:"status"` // Operation status
	CreatedAt time.Time     `gorm:"index" json:"created_at"`                          // Timestamp of creation
}

package domain

import "time"

// PaymentStatus is the lifecycle state of a payment intent
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"   // Created, waiting for the transfer
	PaymentCompleted PaymentStatus = "completed" // Credited, terminal
)

// Payment Model
type Payment struct {
	ID        uint          `gorm:"primaryKey" json:"payment_id"`                         // Monotonic ID
	UserID    int64         `gorm:"index;not null" json:"user_id"`                        // Owning user
	Amount    int64         `gorm:"not null" json:"amount"`                               // Requested amount
	Memo      string        `gorm:"size:32;uniqueIndex;not null" json:"memo"`             // Transfer comment
	Status    PaymentStatus `gorm:"size:16;not null;default:pending;index" json:"status"` // pending or completed
	CreatedAt time.Time     `json:"created_at"`                                           // Timestamp of creation
}

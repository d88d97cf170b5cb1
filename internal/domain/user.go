package domain

import "time"

// User Model
type User struct {
	ID            int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"` // Telegram user ID
	Username      *string   `gorm:"size:64" json:"username"`                       // Telegram username
	FirstName     *string   `gorm:"size:128" json:"first_name"`                    // First name
	LastName      *string   `gorm:"size:128" json:"last_name"`                     // Last name
	AvatarURL     *string   `gorm:"size:512" json:"avatar_url"`                    // Optional avatar reference
	TelegramStars int64     `gorm:"not null;default:0" json:"telegram_stars"`      // Points balance
	TonBalance    int64     `gorm:"not null;default:0" json:"ton_balance"`         // TON balance
	CreatedAt     time.Time `json:"created_at"`                                    // Timestamp of first contact
}

// Profile carries the display fields refreshed on every contact
type Profile struct {
	Username  *string
	FirstName *string
	LastName  *string
	AvatarURL *string
}

package models

import "time"

// Account is a messaging-platform end user, identified by the numeric
// Telegram ID. Accounts are created on the first update seen from an ID
// and overwritten on every subsequent update (last write wins).
type Account struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TelegramID   int64  `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username     string `gorm:"size:255" json:"username"`
	FirstName    string `gorm:"size:255" json:"first_name"`
	LastName     string `gorm:"size:255" json:"last_name"`
	IsBot        bool   `gorm:"default:false" json:"is_bot"`
	LanguageCode string `gorm:"size:10" json:"language_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Tasks []Task `gorm:"foreignKey:AccountID" json:"tasks,omitempty"`
}

// DisplayName returns the friendliest available name for the account.
func (a *Account) DisplayName() string {
	if a.FirstName != "" {
		return a.FirstName
	}
	if a.Username != "" {
		return a.Username
	}
	return "there"
}

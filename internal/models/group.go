package models

import "time"

// Group is a multi-user Telegram chat the bot has seen a message in.
type Group struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TelegramChatID int64     `gorm:"uniqueIndex;not null" json:"telegram_chat_id"`
	Title          string    `gorm:"size:255" json:"title"`
	Type           string    `gorm:"size:32" json:"type"` // "group" or "supergroup"
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// GroupMember is the membership edge between an Account and a Group.
// At most one row exists per (group, account) pair.
type GroupMember struct {
	GroupID   uint      `gorm:"primaryKey" json:"group_id"`
	AccountID uint      `gorm:"primaryKey" json:"account_id"`
	IsAdmin   bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

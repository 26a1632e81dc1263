// Package directory maintains Account and Group records mirrored from
// inbound Telegram updates.
package directory

import (
	"fmt"

	"github.com/dkovalov/taskboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountFields carries the sender fields extracted from an update.
type AccountFields struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	IsBot        bool
	LanguageCode string
}

// GroupFields carries the chat fields extracted from a group message.
type GroupFields struct {
	TelegramChatID int64
	Title          string
	Type           string
}

// UpsertAccount creates or overwrites the Account for the given Telegram ID.
// Every mutable field takes the inbound value, even when empty; the
// platform is the source of truth for profile data.
func UpsertAccount(db *gorm.DB, f AccountFields) (*models.Account, error) {
	acct := models.Account{
		TelegramID:   f.TelegramID,
		Username:     f.Username,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		IsBot:        f.IsBot,
		LanguageCode: f.LanguageCode,
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "is_bot", "language_code", "updated_at"}),
	}).Create(&acct)
	if result.Error != nil {
		return nil, fmt.Errorf("directory: upsert account %d: %w", f.TelegramID, result.Error)
	}

	// The upsert path does not populate ID on conflict; re-read the row.
	var saved models.Account
	if err := db.Where("telegram_id = ?", f.TelegramID).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("directory: load account %d: %w", f.TelegramID, err)
	}
	return &saved, nil
}

// FindAccount looks up an Account by Telegram ID. Returns
// gorm.ErrRecordNotFound when no such account exists.
func FindAccount(db *gorm.DB, telegramID int64) (*models.Account, error) {
	var acct models.Account
	if err := db.Where("telegram_id = ?", telegramID).First(&acct).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

// UpsertGroup creates or overwrites the Group for the given chat ID and
// idempotently attaches the account as a member. The membership edge is
// created at most once per (group, account) pair; the admin flag is left
// untouched on repeat attaches.
func UpsertGroup(db *gorm.DB, f GroupFields, acct *models.Account) (*models.Group, error) {
	title := f.Title
	if title == "" {
		title = "Group"
	}
	group := models.Group{
		TelegramChatID: f.TelegramChatID,
		Title:          title,
		Type:           f.Type,
		IsActive:       true,
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "type", "is_active", "updated_at"}),
	}).Create(&group)
	if result.Error != nil {
		return nil, fmt.Errorf("directory: upsert group %d: %w", f.TelegramChatID, result.Error)
	}

	var saved models.Group
	if err := db.Where("telegram_chat_id = ?", f.TelegramChatID).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("directory: load group %d: %w", f.TelegramChatID, err)
	}

	// Check-then-attach membership.
	var count int64
	if err := db.Model(&models.GroupMember{}).
		Where("group_id = ? AND account_id = ?", saved.ID, acct.ID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("directory: check membership: %w", err)
	}
	if count == 0 {
		member := models.GroupMember{GroupID: saved.ID, AccountID: acct.ID, IsAdmin: false}
		if err := db.Create(&member).Error; err != nil {
			return nil, fmt.Errorf("directory: attach member: %w", err)
		}
	}

	return &saved, nil
}

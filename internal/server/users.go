package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dkovalov/taskboard/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// userPayload is the JSON body for account create/update. Pointer fields
// distinguish "absent" from "zero" for partial updates.
type userPayload struct {
	TelegramID   *int64  `json:"telegram_id"`
	Username     *string `json:"username"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	IsBot        *bool   `json:"is_bot"`
	LanguageCode *string `json:"language_code"`
}

// handleUserList returns every account.
func handleUserList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var accounts []models.Account
		if err := db.Find(&accounts).Error; err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to list users", nil)
			return
		}
		respond(c, http.StatusOK, true, "", accounts)
	}
}

// handleUserCreate registers a new account from a caller-supplied
// telegram_id. The REST surface trusts this identifier; the bot surface
// never does.
func handleUserCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body userPayload
		if err := c.ShouldBindJSON(&body); err != nil || body.TelegramID == nil {
			respondValidation(c, map[string]string{"telegram_id": "telegram_id is required"})
			return
		}

		var count int64
		if err := db.Model(&models.Account{}).Where("telegram_id = ?", *body.TelegramID).Count(&count).Error; err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to create user", nil)
			return
		}
		if count > 0 {
			respondValidation(c, map[string]string{"telegram_id": "telegram_id already exists"})
			return
		}

		acct := models.Account{TelegramID: *body.TelegramID}
		applyUserPayload(&acct, body)
		if err := db.Create(&acct).Error; err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to create user", nil)
			return
		}
		respond(c, http.StatusCreated, true, "User created successfully", acct)
	}
}

// handleUserShow returns one account, looked up by telegram_id.
func handleUserShow(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := findUserParam(c, db)
		if !ok {
			return
		}
		respond(c, http.StatusOK, true, "", acct)
	}
}

// handleUserUpdate applies a partial update to an account.
func handleUserUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := findUserParam(c, db)
		if !ok {
			return
		}
		var body userPayload
		if err := c.ShouldBindJSON(&body); err != nil {
			respondValidation(c, map[string]string{"body": "malformed JSON body"})
			return
		}
		applyUserPayload(acct, body)
		if err := db.Save(acct).Error; err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to update user", nil)
			return
		}
		respond(c, http.StatusOK, true, "User updated successfully", acct)
	}
}

// handleUserDelete removes an account record.
func handleUserDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := findUserParam(c, db)
		if !ok {
			return
		}
		if err := db.Delete(&models.Account{}, acct.ID).Error; err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to delete user", nil)
			return
		}
		respond(c, http.StatusOK, true, "User deleted successfully", nil)
	}
}

// findUserParam resolves the :id path segment (a telegram_id) to an
// account, writing the error response on failure.
func findUserParam(c *gin.Context, db *gorm.DB) (*models.Account, bool) {
	telegramID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond(c, http.StatusNotFound, false, "User not found", nil)
		return nil, false
	}
	var acct models.Account
	err = db.Where("telegram_id = ?", telegramID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respond(c, http.StatusNotFound, false, "User not found", nil)
		return nil, false
	}
	if err != nil {
		respond(c, http.StatusInternalServerError, false, "Failed to load user", nil)
		return nil, false
	}
	return &acct, true
}

// applyUserPayload copies present payload fields onto the account.
func applyUserPayload(acct *models.Account, body userPayload) {
	if body.Username != nil {
		acct.Username = *body.Username
	}
	if body.FirstName != nil {
		acct.FirstName = *body.FirstName
	}
	if body.LastName != nil {
		acct.LastName = *body.LastName
	}
	if body.IsBot != nil {
		acct.IsBot = *body.IsBot
	}
	if body.LanguageCode != nil {
		acct.LanguageCode = *body.LanguageCode
	}
}

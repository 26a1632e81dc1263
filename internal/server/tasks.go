package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/dkovalov/taskboard/internal/models"
	"github.com/dkovalov/taskboard/internal/taskstore"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// taskNotFoundMsg matches the bot surface: existence of another account's
// task is never revealed.
const taskNotFoundMsg = "Task not found or you do not have access to it"

// requireAccount resolves the telegram_id request parameter (query or
// form) to an account, writing the error response on failure.
func requireAccount(c *gin.Context, db *gorm.DB) (*models.Account, bool) {
	raw := c.Query("telegram_id")
	if raw == "" {
		raw = c.PostForm("telegram_id")
	}
	if raw == "" {
		respondValidation(c, map[string]string{"telegram_id": "telegram_id is required"})
		return nil, false
	}
	telegramID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondValidation(c, map[string]string{"telegram_id": "telegram_id must be an integer"})
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

// taskIDParam parses the :id path segment.
func taskIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond(c, http.StatusNotFound, false, taskNotFoundMsg, nil)
		return 0, false
	}
	return uint(id), true
}

// handleTaskList returns the account's tasks with optional filters.
func handleTaskList(db *gorm.DB, tasks *taskstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := requireAccount(c, db)
		if !ok {
			return
		}

		filters := taskstore.ListFilters{
			Status:   c.Query("status"),
			Priority: c.Query("priority"),
			Search:   c.Query("search"),
		}
		if filters.Status != "" && !models.ValidStatus(filters.Status) {
			respondValidation(c, map[string]string{"status": "invalid status"})
			return
		}
		if filters.Priority != "" && !models.ValidPriority(filters.Priority) {
			respondValidation(c, map[string]string{"priority": "invalid priority"})
			return
		}

		list, err := tasks.List(acct.ID, filters)
		if err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to list tasks", nil)
			return
		}
		respond(c, http.StatusOK, true, "", list)
	}
}

// handleTaskCreate creates a task from form fields, storing any uploaded
// files as attachments.
func handleTaskCreate(db *gorm.DB, tasks *taskstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := requireAccount(c, db)
		if !ok {
			return
		}

		title := c.PostForm("title")
		if title == "" {
			respondValidation(c, map[string]string{"title": "title is required"})
			return
		}

		task := &models.Task{
			Title:       title,
			Description: c.PostForm("description"),
			Status:      c.PostForm("status"),
			Priority:    c.PostForm("priority"),
		}
		if task.Status != "" && !models.ValidStatus(task.Status) {
			respondValidation(c, map[string]string{"status": "invalid status"})
			return
		}
		if task.Priority != "" && !models.ValidPriority(task.Priority) {
			respondValidation(c, map[string]string{"priority": "invalid priority"})
			return
		}
		if raw := c.PostForm("due_date"); raw != "" {
			due, err := taskstore.ParseDueDate(raw)
			if err != nil {
				respondValidation(c, map[string]string{"due_date": "invalid date"})
				return
			}
			task.DueDate = &due
		}

		created, err := tasks.Create(acct.ID, task)
		if err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to create task", nil)
			return
		}

		if !saveUploads(c, tasks, created.ID) {
			return
		}

		full, err := tasks.Get(acct.ID, created.ID)
		if err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to load task", nil)
			return
		}
		respond(c, http.StatusCreated, true, "Task created successfully", full)
	}
}

// handleTaskShow returns one owned task with attachments.
func handleTaskShow(db *gorm.DB, tasks *taskstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := requireAccount(c, db)
		if !ok {
			return
		}
		taskID, ok := taskIDParam(c)
		if !ok {
			return
		}

		task, err := tasks.Get(acct.ID, taskID)
		if errors.Is(err, taskstore.ErrNotFound) {
			respond(c, http.StatusNotFound, false, taskNotFoundMsg, nil)
			return
		}
		if err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to load task", nil)
			return
		}
		respond(c, http.StatusOK, true, "", task)
	}
}

// handleTaskUpdate applies a partial update: only supplied form fields
// change, everything else keeps its stored value.
func handleTaskUpdate(db *gorm.DB, tasks *taskstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := requireAccount(c, db)
		if !ok {
			return
		}
		taskID, ok := taskIDParam(c)
		if !ok {
			return
		}

		updates := map[string]interface{}{}
		if title, ok := c.GetPostForm("title"); ok {
			if title == "" {
				respondValidation(c, map[string]string{"title": "title cannot be empty"})
				return
			}
			updates["title"] = title
		}
		if desc, ok := c.GetPostForm("description"); ok {
			updates["description"] = desc
		}
		if status, ok := c.GetPostForm("status"); ok {
			if !models.ValidStatus(status) {
				respondValidation(c, map[string]string{"status": "invalid status"})
				return
			}
			updates["status"] = status
		}
		if priority, ok := c.GetPostForm("priority"); ok {
			if !models.ValidPriority(priority) {
				respondValidation(c, map[string]string{"priority": "invalid priority"})
				return
			}
			updates["priority"] = priority
		}
		if raw, ok := c.GetPostForm("due_date"); ok {
			due, err := taskstore.ParseDueDate(raw)
			if err != nil {
				respondValidation(c, map[string]string{"due_date": "invalid date"})
				return
			}
			updates["due_date"] = due
		}

		updated, err := tasks.Update(acct.ID, taskID, updates)
		if errors.Is(err, taskstore.ErrNotFound) {
			respond(c, http.StatusNotFound, false, taskNotFoundMsg, nil)
			return
		}
		if err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to update task", nil)
			return
		}

		if !saveUploads(c, tasks, updated.ID) {
			return
		}

		full, err := tasks.Get(acct.ID, updated.ID)
		if err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to load task", nil)
			return
		}
		respond(c, http.StatusOK, true, "Task updated successfully", full)
	}
}

// handleTaskDelete cascade-deletes an owned task with its attachments
// and blobs.
func handleTaskDelete(db *gorm.DB, tasks *taskstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := requireAccount(c, db)
		if !ok {
			return
		}
		taskID, ok := taskIDParam(c)
		if !ok {
			return
		}

		_, err := tasks.Delete(acct.ID, taskID)
		if errors.Is(err, taskstore.ErrNotFound) {
			respond(c, http.StatusNotFound, false, taskNotFoundMsg, nil)
			return
		}
		if err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to delete task", nil)
			return
		}
		respond(c, http.StatusOK, true, "Task deleted successfully", nil)
	}
}

// handleTaskFileRemove deletes one attachment and its blob.
func handleTaskFileRemove(db *gorm.DB, tasks *taskstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := requireAccount(c, db)
		if !ok {
			return
		}
		taskID, ok := taskIDParam(c)
		if !ok {
			return
		}
		fileID, err := strconv.ParseUint(c.Param("fileID"), 10, 32)
		if err != nil {
			respond(c, http.StatusNotFound, false, "File not found", nil)
			return
		}

		err = tasks.RemoveAttachment(acct.ID, taskID, uint(fileID))
		if errors.Is(err, taskstore.ErrNotFound) {
			respond(c, http.StatusNotFound, false, "File not found", nil)
			return
		}
		if err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to remove file", nil)
			return
		}
		respond(c, http.StatusOK, true, "File removed successfully", nil)
	}
}

// saveUploads stores every uploaded "files" part as an attachment.
// Returns false after writing an error response.
func saveUploads(c *gin.Context, tasks *taskstore.Store, taskID uint) bool {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return true // not a multipart request
	}
	for _, header := range form.File["files"] {
		f, err := header.Open()
		if err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to read uploaded file", nil)
			return false
		}
		_, err = tasks.AddAttachment(taskID, header.Filename, header.Header.Get("Content-Type"), f)
		f.Close()
		if err != nil {
			log.Printf("server: store attachment for task %d: %v", taskID, err)
			respond(c, http.StatusInternalServerError, false, "Failed to store uploaded file", nil)
			return false
		}
	}
	return true
}

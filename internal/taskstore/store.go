// Package taskstore implements owner-scoped CRUD over tasks and their
// file attachments.
package taskstore

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/dkovalov/taskboard/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a task does not exist or is not owned by
// the requesting account. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("taskstore: task not found")

// Store provides task persistence. Every operation that touches a task is
// scoped by the owning account ID.
type Store struct {
	db    *gorm.DB
	blobs BlobStore
}

// StoreOpts holds parameters for creating a Store.
type StoreOpts struct {
	DB    *gorm.DB
	Blobs BlobStore // optional; attachment operations fail without it
}

// NewStore creates a Store.
func NewStore(opts StoreOpts) (*Store, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("taskstore: db is required")
	}
	return &Store{db: opts.DB, blobs: opts.Blobs}, nil
}

// Create validates and persists a new task for the account. Empty Status
// and Priority take the documented defaults (pending, medium).
func (s *Store) Create(accountID uint, t *models.Task) (*models.Task, error) {
	if t.Title == "" {
		return nil, fmt.Errorf("taskstore: title is required")
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !models.ValidStatus(t.Status) {
		return nil, fmt.Errorf("taskstore: invalid status %q", t.Status)
	}
	if !models.ValidPriority(t.Priority) {
		return nil, fmt.Errorf("taskstore: invalid priority %q", t.Priority)
	}
	t.AccountID = accountID
	if err := s.db.Create(t).Error; err != nil {
		return nil, fmt.Errorf("taskstore: create task: %w", err)
	}
	return t, nil
}

// Get returns the task with its attachments, scoped to the owner.
func (s *Store) Get(accountID, taskID uint) (*models.Task, error) {
	var task models.Task
	err := s.db.Preload("Attachments").
		Where("id = ? AND account_id = ?", taskID, accountID).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("taskstore: get task %d: %w", taskID, err)
	}
	return &task, nil
}

// ListFilters narrows List results. Zero values match everything.
type ListFilters struct {
	Status   string
	Priority string
	Search   string // substring match over title and description
}

// List returns the account's tasks, newest first.
func (s *Store) List(accountID uint, f ListFilters) ([]models.Task, error) {
	q := s.db.Preload("Attachments").Where("account_id = ?", accountID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	var tasks []models.Task
	if err := q.Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("taskstore: list tasks: %w", err)
	}
	return tasks, nil
}

// Update applies a partial update to the owned task. Keys absent from
// updates retain their stored values; the column names match the GORM
// fields (title, description, status, priority, due_date).
func (s *Store) Update(accountID, taskID uint, updates map[string]interface{}) (*models.Task, error) {
	task, err := s.Get(accountID, taskID)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return task, nil
	}
	if title, ok := updates["title"].(string); ok && title == "" {
		return nil, fmt.Errorf("taskstore: title cannot be empty")
	}
	if status, ok := updates["status"].(string); ok && !models.ValidStatus(status) {
		return nil, fmt.Errorf("taskstore: invalid status %q", status)
	}
	if priority, ok := updates["priority"].(string); ok && !models.ValidPriority(priority) {
		return nil, fmt.Errorf("taskstore: invalid priority %q", priority)
	}
	if err := s.db.Model(task).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("taskstore: update task %d: %w", taskID, err)
	}
	return s.Get(accountID, taskID)
}

// SetStatus transitions the owned task to the given status.
func (s *Store) SetStatus(accountID, taskID uint, status string) (*models.Task, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("taskstore: invalid status %q", status)
	}
	return s.Update(accountID, taskID, map[string]interface{}{"status": status})
}

// Delete removes the owned task, its attachment rows, and their backing
// blobs. It returns the deleted task so callers can reference its title.
// Blob deletion failures are logged and do not abort the cascade.
func (s *Store) Delete(accountID, taskID uint) (*models.Task, error) {
	task, err := s.Get(accountID, taskID)
	if err != nil {
		return nil, err
	}

	for _, att := range task.Attachments {
		if s.blobs == nil {
			continue
		}
		if err := s.blobs.Delete(att.FilePath); err != nil {
			log.Printf("taskstore: delete blob %s: %v", att.FilePath, err)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.Attachment{}).Error; err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		if err := tx.Delete(&models.Task{}, task.ID).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("taskstore: delete task %d: %w", taskID, err)
	}
	return task, nil
}

// AddAttachment stores the blob and records an Attachment row for the task.
func (s *Store) AddAttachment(taskID uint, fileName, fileType string, r io.Reader) (*models.Attachment, error) {
	if s.blobs == nil {
		return nil, fmt.Errorf("taskstore: no blob store configured")
	}
	path, size, err := s.blobs.Save(taskID, fileName, r)
	if err != nil {
		return nil, err
	}
	att := models.Attachment{
		TaskID:   taskID,
		FileName: fileName,
		FilePath: path,
		FileType: fileType,
		FileSize: size,
	}
	if err := s.db.Create(&att).Error; err != nil {
		s.blobs.Delete(path)
		return nil, fmt.Errorf("taskstore: create attachment: %w", err)
	}
	return &att, nil
}

// RemoveAttachment deletes one attachment row and its blob, scoped through
// the owning account's task.
func (s *Store) RemoveAttachment(accountID, taskID, attachmentID uint) error {
	task, err := s.Get(accountID, taskID)
	if err != nil {
		return err
	}

	var att models.Attachment
	err = s.db.Where("id = ? AND task_id = ?", attachmentID, task.ID).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("taskstore: get attachment %d: %w", attachmentID, err)
	}

	if s.blobs != nil {
		if err := s.blobs.Delete(att.FilePath); err != nil {
			log.Printf("taskstore: delete blob %s: %v", att.FilePath, err)
		}
	}
	if err := s.db.Delete(&models.Attachment{}, att.ID).Error; err != nil {
		return fmt.Errorf("taskstore: delete attachment %d: %w", attachmentID, err)
	}
	return nil
}

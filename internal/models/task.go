package models

import "time"

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidStatus reports whether s is one of the four task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the four task priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a work item owned by exactly one Account. All reads and writes
// go through owner-scoped queries.
type Task struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID   uint       `gorm:"index;not null" json:"account_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"size:16;default:pending;index" json:"status"`
	Priority    string     `gorm:"size:16;default:medium" json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Account     Account      `gorm:"foreignKey:AccountID" json:"-"`
	Attachments []Attachment `gorm:"foreignKey:TaskID" json:"attachments"`
}

// Attachment is a file attached to a task. FilePath points at the blob in
// the file store; deleting a task cascades to its attachments and blobs.
type Attachment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	FileName  string    `gorm:"size:255" json:"file_name"`
	FilePath  string    `gorm:"size:512" json:"file_path"`
	FileType  string    `gorm:"size:128" json:"file_type"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`

	Task Task `gorm:"foreignKey:TaskID" json:"-"`
}

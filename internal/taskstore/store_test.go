package taskstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkovalov/taskboard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Account{}, &models.Task{}, &models.Attachment{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) (*Store, *DiskStore) {
	t.Helper()
	blobs, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	store, err := NewStore(StoreOpts{DB: openStoreTestDB(t), Blobs: blobs})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return store, blobs
}

func seedAccount(t *testing.T, db *gorm.DB, telegramID int64) *models.Account {
	t.Helper()
	acct := models.Account{TelegramID: telegramID, FirstName: "Testy"}
	if err := db.Create(&acct).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return &acct
}

func TestNewStore_NilDB(t *testing.T) {
	_, err := NewStore(StoreOpts{})
	if err == nil || !strings.Contains(err.Error(), "db is required") {
		t.Errorf("err = %v", err)
	}
}

func TestCreate_Defaults(t *testing.T) {
	store, _ := newTestStore(t)
	acct := seedAccount(t, store.db, 100)

	created, err := store.Create(acct.ID, &models.Task{Title: "Bare"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != models.StatusPending {
		t.Errorf("status = %q", created.Status)
	}
	if created.Priority != models.PriorityMedium {
		t.Errorf("priority = %q", created.Priority)
	}
	if created.AccountID != acct.ID {
		t.Errorf("account id = %d", created.AccountID)
	}
}

func TestCreate_Validation(t *testing.T) {
	store, _ := newTestStore(t)
	acct := seedAccount(t, store.db, 100)

	tests := []struct {
		name string
		task models.Task
		want string
	}{
		{"empty title", models.Task{}, "title is required"},
		{"bad status", models.Task{Title: "T", Status: "archived"}, "invalid status"},
		{"bad priority", models.Task{Title: "T", Priority: "critical"}, "invalid priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := tt.task
			_, err := store.Create(acct.ID, &task)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestGet_OwnerScoped(t *testing.T) {
	store, _ := newTestStore(t)
	owner := seedAccount(t, store.db, 100)
	other := seedAccount(t, store.db, 200)

	created, err := store.Create(owner.ID, &models.Task{Title: "Mine"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.Get(owner.ID, created.ID); err != nil {
		t.Errorf("owner get: %v", err)
	}
	if _, err := store.Get(other.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-account get = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(owner.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing get = %v, want ErrNotFound", err)
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	store, _ := newTestStore(t)
	acct := seedAccount(t, store.db, 100)

	mk := func(title, status, priority, desc string) {
		t.Helper()
		if _, err := store.Create(acct.ID, &models.Task{
			Title: title, Status: status, Priority: priority, Description: desc,
		}); err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
	}
	mk("Pay rent", models.StatusPending, models.PriorityUrgent, "monthly")
	mk("Buy milk", models.StatusCompleted, models.PriorityLow, "2 liters")
	mk("Call bank", models.StatusPending, models.PriorityLow, "about the rent")

	all, err := store.List(acct.ID, ListFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d", len(all))
	}
	// Newest first: identical created_at falls back to descending id.
	if all[0].Title != "Call bank" || all[2].Title != "Pay rent" {
		t.Errorf("order = %q, %q, %q", all[0].Title, all[1].Title, all[2].Title)
	}

	pending, err := store.List(acct.ID, ListFilters{Status: models.StatusPending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d", len(pending))
	}

	low, err := store.List(acct.ID, ListFilters{Priority: models.PriorityLow})
	if err != nil {
		t.Fatalf("list low: %v", err)
	}
	if len(low) != 2 {
		t.Errorf("low = %d", len(low))
	}

	// Search spans title and description.
	rent, err := store.List(acct.ID, ListFilters{Search: "rent"})
	if err != nil {
		t.Fatalf("list search: %v", err)
	}
	if len(rent) != 2 {
		t.Errorf("search rent = %d", len(rent))
	}
}

func TestList_ScopedToAccount(t *testing.T) {
	store, _ := newTestStore(t)
	alice := seedAccount(t, store.db, 100)
	bob := seedAccount(t, store.db, 200)

	if _, err := store.Create(alice.ID, &models.Task{Title: "Alice's"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tasks, err := store.List(bob.ID, ListFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("bob sees %d of alice's tasks", len(tasks))
	}
}

func TestUpdate_Partial(t *testing.T) {
	store, _ := newTestStore(t)
	acct := seedAccount(t, store.db, 100)

	due := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	created, err := store.Create(acct.ID, &models.Task{
		Title:       "Original",
		Description: "Keep me",
		Priority:    models.PriorityLow,
		DueDate:     &due,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.Update(acct.ID, created.ID, map[string]interface{}{
		"title": "Renamed",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("title = %q", updated.Title)
	}
	if updated.Description != "Keep me" || updated.Priority != models.PriorityLow {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Errorf("due date = %v", updated.DueDate)
	}
}

func TestUpdate_Validation(t *testing.T) {
	store, _ := newTestStore(t)
	acct := seedAccount(t, store.db, 100)
	created, err := store.Create(acct.ID, &models.Task{Title: "T"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name    string
		updates map[string]interface{}
		want    string
	}{
		{"empty title", map[string]interface{}{"title": ""}, "title cannot be empty"},
		{"bad status", map[string]interface{}{"status": "archived"}, "invalid status"},
		{"bad priority", map[string]interface{}{"priority": "critical"}, "invalid priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Update(acct.ID, created.ID, tt.updates)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}

	// The task is untouched after rejected updates.
	got, err := store.Get(acct.ID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "T" || got.Status != models.StatusPending {
		t.Errorf("task mutated: %+v", got)
	}
}

func TestUpdate_CrossAccount(t *testing.T) {
	store, _ := newTestStore(t)
	owner := seedAccount(t, store.db, 100)
	other := seedAccount(t, store.db, 200)
	created, err := store.Create(owner.ID, &models.Task{Title: "Mine"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = store.Update(other.ID, created.ID, map[string]interface{}{"title": "Stolen"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSetStatus(t *testing.T) {
	store, _ := newTestStore(t)
	acct := seedAccount(t, store.db, 100)
	created, err := store.Create(acct.ID, &models.Task{Title: "T"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.SetStatus(acct.ID, created.ID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != models.StatusCompleted {
		t.Errorf("status = %q", updated.Status)
	}

	if _, err := store.SetStatus(acct.ID, created.ID, "archived"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestDelete_CascadesAttachmentsAndBlobs(t *testing.T) {
	store, blobs := newTestStore(t)
	acct := seedAccount(t, store.db, 100)
	created, err := store.Create(acct.ID, &models.Task{Title: "Doomed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	att, err := store.AddAttachment(created.ID, "note.txt", "text/plain", strings.NewReader("contents"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	blobPath := filepath.Join(blobs.Root, att.FilePath)
	if _, err := os.Stat(blobPath); err != nil {
		t.Fatalf("blob missing before delete: %v", err)
	}

	deleted, err := store.Delete(acct.ID, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Title != "Doomed" {
		t.Errorf("deleted title = %q", deleted.Title)
	}

	if _, err := store.Get(acct.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v", err)
	}
	var orphans int64
	if err := store.db.Model(&models.Attachment{}).
		Where("task_id = ?", created.ID).Count(&orphans).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphan attachment rows = %d", orphans)
	}
	if _, err := os.Stat(blobPath); !os.IsNotExist(err) {
		t.Errorf("blob survives delete: %v", err)
	}
}

func TestDelete_CrossAccount(t *testing.T) {
	store, _ := newTestStore(t)
	owner := seedAccount(t, store.db, 100)
	other := seedAccount(t, store.db, 200)
	created, err := store.Create(owner.ID, &models.Task{Title: "Mine"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.Delete(other.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(owner.ID, created.ID); err != nil {
		t.Errorf("task gone after denied delete: %v", err)
	}
}

func TestAddAttachment_RecordsMetadata(t *testing.T) {
	store, _ := newTestStore(t)
	acct := seedAccount(t, store.db, 100)
	created, err := store.Create(acct.ID, &models.Task{Title: "With file"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	att, err := store.AddAttachment(created.ID, "report.pdf", "application/pdf",
		strings.NewReader("%PDF-fake"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if att.FileName != "report.pdf" || att.FileType != "application/pdf" {
		t.Errorf("attachment = %+v", att)
	}
	if att.FileSize != int64(len("%PDF-fake")) {
		t.Errorf("size = %d", att.FileSize)
	}

	got, err := store.Get(acct.ID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Attachments) != 1 {
		t.Errorf("attachments = %d", len(got.Attachments))
	}
}

func TestAddAttachment_NoBlobStore(t *testing.T) {
	store, err := NewStore(StoreOpts{DB: openStoreTestDB(t)})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	_, err = store.AddAttachment(1, "x.txt", "text/plain", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "no blob store") {
		t.Errorf("err = %v", err)
	}
}

func TestRemoveAttachment(t *testing.T) {
	store, blobs := newTestStore(t)
	acct := seedAccount(t, store.db, 100)
	created, err := store.Create(acct.ID, &models.Task{Title: "T"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	att, err := store.AddAttachment(created.ID, "note.txt", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := store.RemoveAttachment(acct.ID, created.ID, att.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(blobs.Root, att.FilePath)); !os.IsNotExist(err) {
		t.Errorf("blob survives removal: %v", err)
	}
	if err := store.RemoveAttachment(acct.ID, created.ID, att.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second removal = %v, want ErrNotFound", err)
	}
}

func TestRemoveAttachment_CrossAccount(t *testing.T) {
	store, _ := newTestStore(t)
	owner := seedAccount(t, store.db, 100)
	other := seedAccount(t, store.db, 200)
	created, err := store.Create(owner.ID, &models.Task{Title: "T"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	att, err := store.AddAttachment(created.ID, "note.txt", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := store.RemoveAttachment(other.ID, created.ID, att.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

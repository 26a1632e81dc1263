package bot

import (
	"testing"
	"time"

	"github.com/dkovalov/taskboard/internal/db"
	"github.com/dkovalov/taskboard/internal/directory"
	"github.com/dkovalov/taskboard/internal/models"
	"github.com/dkovalov/taskboard/internal/taskstore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openBotTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(db.AllModels()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

// botEnv wires a full bot stack over an in-memory database and a
// recording sender.
type botEnv struct {
	db        *gorm.DB
	sender    *MockSender
	modes     *MemoryModeStore
	tasks     *taskstore.Store
	cmds      *CommandHandler
	callbacks *CallbackHandler
	router    *Router
}

func newBotEnv(t *testing.T) *botEnv {
	t.Helper()
	gdb := openBotTestDB(t)
	sender := NewMockSender()
	modes := NewMemoryModeStore(MemoryModeStoreOpts{})

	blobs, err := taskstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	tasks, err := taskstore.NewStore(taskstore.StoreOpts{DB: gdb, Blobs: blobs})
	if err != nil {
		t.Fatalf("task store: %v", err)
	}
	cmds, err := NewCommandHandler(CommandHandlerOpts{Tasks: tasks, Sender: sender, Modes: modes})
	if err != nil {
		t.Fatalf("command handler: %v", err)
	}
	callbacks, err := NewCallbackHandler(CallbackHandlerOpts{Tasks: tasks, Sender: sender, Commands: cmds})
	if err != nil {
		t.Fatalf("callback handler: %v", err)
	}
	router, err := NewRouter(RouterOpts{
		DB:        gdb,
		Commands:  cmds,
		Callbacks: callbacks,
		Modes:     modes,
		Sender:    sender,
		Out:       &discardWriter{},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return &botEnv{
		db:        gdb,
		sender:    sender,
		modes:     modes,
		tasks:     tasks,
		cmds:      cmds,
		callbacks: callbacks,
		router:    router,
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (e *botEnv) seedAccount(t *testing.T, telegramID int64, firstName string) *models.Account {
	t.Helper()
	acct, err := directory.UpsertAccount(e.db, directory.AccountFields{
		TelegramID: telegramID,
		FirstName:  firstName,
	})
	if err != nil {
		t.Fatalf("seed account %d: %v", telegramID, err)
	}
	return acct
}

func (e *botEnv) seedTask(t *testing.T, accountID uint, title string) *models.Task {
	t.Helper()
	task, err := e.tasks.Create(accountID, &models.Task{Title: title})
	if err != nil {
		t.Fatalf("seed task %q: %v", title, err)
	}
	return task
}

func messageUpdate(updateID, userID, chatID int64, text string) Update {
	return Update{
		UpdateID: updateID,
		Message: &Message{
			MessageID: updateID,
			From:      &User{ID: userID, FirstName: "Testy"},
			Chat:      Chat{ID: chatID, Type: "private"},
			Text:      text,
		},
	}
}

func callbackUpdate(updateID, userID, chatID int64, callbackID, data string) Update {
	return Update{
		UpdateID: updateID,
		CallbackQuery: &CallbackQuery{
			ID:   callbackID,
			Data: data,
			From: &User{ID: userID, FirstName: "Testy"},
			Message: &Message{
				MessageID: updateID,
				Chat:      Chat{ID: chatID, Type: "private"},
			},
		},
	}
}

func mustTime(t *testing.T, layout, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(layout, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

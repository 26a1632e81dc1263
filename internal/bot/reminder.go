package bot

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dkovalov/taskboard/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReminderWindow is how far ahead the reminder looks for due tasks.
const ReminderWindow = 24 * time.Hour

// Reminder periodically messages accounts about tasks due soon. It also
// sweeps expired conversation modes so abandoned chats do not pile up.
type Reminder struct {
	db       *gorm.DB
	sender   Sender
	modes    *MemoryModeStore
	schedule string
	now      func() time.Time
	out      io.Writer
	cron     *cron.Cron
}

// ReminderOpts holds parameters for creating a Reminder.
type ReminderOpts struct {
	DB       *gorm.DB
	Sender   Sender
	Modes    *MemoryModeStore // optional; enables the expiry sweep
	Schedule string           // 5-field cron expression, e.g. "0 9 * * *"
	Now      func() time.Time // defaults to time.Now
	Out      io.Writer        // defaults to os.Stdout
}

// NewReminder creates a Reminder.
func NewReminder(opts ReminderOpts) (*Reminder, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("bot: reminder: db is required")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("bot: reminder: sender is required")
	}
	if opts.Schedule == "" {
		return nil, fmt.Errorf("bot: reminder: schedule is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Reminder{
		db:       opts.DB,
		sender:   opts.Sender,
		modes:    opts.Modes,
		schedule: opts.Schedule,
		now:      now,
		out:      out,
	}, nil
}

// Start registers the cron job and begins the schedule. Stop it by
// cancelling ctx.
func (r *Reminder) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(r.schedule, func() {
		if err := r.RunOnce(ctx); err != nil {
			log.Printf("bot: reminder: run: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("bot: reminder: bad schedule %q: %w", r.schedule, err)
	}
	c.Start()
	r.cron = c

	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	fmt.Fprintf(r.out, "bot: reminder: scheduled %q\n", r.schedule)
	return nil
}

// RunOnce sends one round of due reminders and sweeps expired modes.
// Per-account send failures are logged and do not stop the round.
func (r *Reminder) RunOnce(ctx context.Context) error {
	if r.modes != nil {
		r.modes.Sweep()
	}

	due, err := r.dueTasks()
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	// One message per owner, listing all their soon-due tasks.
	byAccount := make(map[uint][]models.Task)
	var order []uint
	for _, t := range due {
		if _, seen := byAccount[t.AccountID]; !seen {
			order = append(order, t.AccountID)
		}
		byAccount[t.AccountID] = append(byAccount[t.AccountID], t)
	}

	for _, accountID := range order {
		tasks := byAccount[accountID]
		var acct models.Account
		if err := r.db.First(&acct, accountID).Error; err != nil {
			log.Printf("bot: reminder: load account %d: %v", accountID, err)
			continue
		}
		text := formatReminder(tasks)
		if err := r.sender.SendMessage(ctx, acct.TelegramID, text, nil); err != nil {
			log.Printf("bot: reminder: send to account %d: %v", accountID, err)
		}
	}
	return nil
}

// dueTasks returns open tasks due within the reminder window.
func (r *Reminder) dueTasks() ([]models.Task, error) {
	now := r.now()
	var tasks []models.Task
	err := r.db.
		Where("status IN ?", []string{models.StatusPending, models.StatusInProgress}).
		Where("due_date IS NOT NULL AND due_date >= ? AND due_date <= ?", now, now.Add(ReminderWindow)).
		Order("due_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("bot: reminder: query due tasks: %w", err)
	}
	return tasks, nil
}

// formatReminder renders one reminder message for a single owner.
func formatReminder(tasks []models.Task) string {
	var b strings.Builder
	b.WriteString("⏰ <b>Tasks due soon:</b>\n\n")
	for _, t := range tasks {
		b.WriteString(fmt.Sprintf("%s %s <b>%s</b>", statusGlyph(t.Status), priorityGlyph(t.Priority), html.EscapeString(t.Title)))
		if t.DueDate != nil {
			b.WriteString(fmt.Sprintf(" (📅 %s)", t.DueDate.Format(dueDateLayout)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

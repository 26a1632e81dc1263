package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/dkovalov/taskboard/internal/models"
	"github.com/dkovalov/taskboard/internal/taskstore"
)

// commandPrefix marks a message as a bot command.
const commandPrefix = "/"

// validationError is a user-facing input problem: it produces a reply and
// no persistence mutation, and is never logged as an error.
type validationError string

func (e validationError) Error() string { return string(e) }

// CommandHandler interprets slash commands and their pipe-delimited
// payloads, executing the matching task operation.
type CommandHandler struct {
	tasks  *taskstore.Store
	sender Sender
	modes  ModeStore
}

// CommandHandlerOpts holds parameters for creating a CommandHandler.
type CommandHandlerOpts struct {
	Tasks  *taskstore.Store
	Sender Sender
	Modes  ModeStore
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(opts CommandHandlerOpts) (*CommandHandler, error) {
	if opts.Tasks == nil {
		return nil, fmt.Errorf("bot: command handler: task store is required")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("bot: command handler: sender is required")
	}
	if opts.Modes == nil {
		return nil, fmt.Errorf("bot: command handler: mode store is required")
	}
	return &CommandHandler{
		tasks:  opts.Tasks,
		sender: opts.Sender,
		modes:  opts.Modes,
	}, nil
}

// Handle executes one slash command for the account in the given chat.
func (ch *CommandHandler) Handle(ctx context.Context, acct *models.Account, chatID int64, text string) error {
	cmd, args := parseSlashCommand(text)

	switch cmd {
	case "start":
		return ch.sender.SendMessage(ctx, chatID, welcomeText(acct.DisplayName()), mainMenuKeyboard())
	case "help":
		return ch.sender.SendMessage(ctx, chatID, helpText(), nil)
	case "tasks":
		return ch.sendTaskList(ctx, acct, chatID)
	case "create":
		return ch.handleCreate(ctx, acct, chatID, args)
	case "edit":
		return ch.handleEdit(ctx, acct, chatID, args)
	default:
		return ch.sender.SendMessage(ctx, chatID,
			"Unknown command. Use /help for the list of available commands.", nil)
	}
}

// parseSlashCommand splits "/cmd rest" into a lower-cased command name and
// its trailing arguments. A "@botname" suffix on the command is stripped,
// as every Telegram client appends it in group chats.
func parseSlashCommand(text string) (string, string) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, commandPrefix)

	cmd, args, _ := strings.Cut(trimmed, " ")
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

// handleCreate shows the creation-mode choice for a bare /create, or
// parses the pipe-delimited payload and creates the task.
func (ch *CommandHandler) handleCreate(ctx context.Context, acct *models.Account, chatID int64, payload string) error {
	if payload == "" {
		return ch.sendCreateChoice(ctx, chatID)
	}

	fields, err := parsePayload(payload)
	var verr validationError
	if errors.As(err, &verr) {
		return ch.sender.SendMessage(ctx, chatID, verr.Error(), nil)
	}
	if err != nil {
		return err
	}
	if !fields.HasTitle {
		return ch.sender.SendMessage(ctx, chatID,
			"Title is required.\n\n"+createInstructionsText(), nil)
	}

	task := &models.Task{
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    fields.Priority,
		Status:      models.StatusPending,
		DueDate:     fields.DueDate,
	}
	created, err := ch.tasks.Create(acct.ID, task)
	if err != nil {
		log.Printf("bot: create task for account %d, payload %q: %v", acct.ID, payload, err)
		return ch.sender.SendMessage(ctx, chatID, genericFailureText, nil)
	}

	confirm := fmt.Sprintf("✅ Task \"%s\" created.", html.EscapeString(created.Title))
	if err := ch.sender.SendMessage(ctx, chatID, confirm, nil); err != nil {
		return err
	}
	return ch.sendTaskDetail(ctx, acct, chatID, created.ID)
}

// CreateFromTitle creates a task with default fields from a bare title.
// The router calls this when a chat in awaiting-title mode sends free text.
func (ch *CommandHandler) CreateFromTitle(ctx context.Context, acct *models.Account, chatID int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ch.sender.SendMessage(ctx, chatID, "The title cannot be empty.", nil)
	}

	task := &models.Task{Title: title, Status: models.StatusPending, Priority: models.PriorityMedium}
	created, err := ch.tasks.Create(acct.ID, task)
	if err != nil {
		log.Printf("bot: create task from title for account %d, title %q: %v", acct.ID, title, err)
		return ch.sender.SendMessage(ctx, chatID, genericFailureText, nil)
	}

	confirm := fmt.Sprintf("✅ Task \"%s\" created.", html.EscapeString(created.Title))
	if err := ch.sender.SendMessage(ctx, chatID, confirm, nil); err != nil {
		return err
	}
	return ch.sendTaskDetail(ctx, acct, chatID, created.ID)
}

// handleEdit verifies ownership and either shows the edit instructions
// (bare "/edit <id>") or applies the pipe-delimited partial update.
func (ch *CommandHandler) handleEdit(ctx context.Context, acct *models.Account, chatID int64, args string) error {
	if args == "" {
		return ch.sender.SendMessage(ctx, chatID, "Usage: <code>/edit &lt;task id&gt;</code>", nil)
	}

	idArg, payload, _ := strings.Cut(args, " ")
	taskID, err := strconv.ParseUint(idArg, 10, 32)
	if err != nil {
		return ch.sender.SendMessage(ctx, chatID, "Usage: <code>/edit &lt;task id&gt;</code>", nil)
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		task, err := ch.tasks.Get(acct.ID, uint(taskID))
		if errors.Is(err, taskstore.ErrNotFound) {
			return ch.sender.SendMessage(ctx, chatID, notFoundText, nil)
		}
		if err != nil {
			log.Printf("bot: edit lookup for account %d, task %d: %v", acct.ID, taskID, err)
			return ch.sender.SendMessage(ctx, chatID, genericFailureText, nil)
		}
		return ch.sender.SendMessage(ctx, chatID, editInstructionsText(task.ID), nil)
	}

	fields, err := parsePayload(payload)
	var verr validationError
	if errors.As(err, &verr) {
		return ch.sender.SendMessage(ctx, chatID, verr.Error(), nil)
	}
	if err != nil {
		return err
	}

	// Present segments overwrite; absent segments retain the stored value.
	updates := map[string]interface{}{}
	if fields.HasTitle {
		updates["title"] = fields.Title
	}
	if fields.HasDescription {
		updates["description"] = fields.Description
	}
	if fields.HasPriority {
		updates["priority"] = fields.Priority
	}
	if fields.HasDueDate {
		updates["due_date"] = fields.DueDate
	}

	updated, err := ch.tasks.Update(acct.ID, uint(taskID), updates)
	if errors.Is(err, taskstore.ErrNotFound) {
		return ch.sender.SendMessage(ctx, chatID, notFoundText, nil)
	}
	if err != nil {
		log.Printf("bot: edit task %d for account %d, payload %q: %v", taskID, acct.ID, payload, err)
		return ch.sender.SendMessage(ctx, chatID, genericFailureText, nil)
	}

	confirm := fmt.Sprintf("✅ Task \"%s\" updated.", html.EscapeString(updated.Title))
	if err := ch.sender.SendMessage(ctx, chatID, confirm, nil); err != nil {
		return err
	}
	return ch.sendTaskDetail(ctx, acct, chatID, updated.ID)
}

// sendTaskList renders the account's tasks newest-first, or the empty state.
func (ch *CommandHandler) sendTaskList(ctx context.Context, acct *models.Account, chatID int64) error {
	tasks, err := ch.tasks.List(acct.ID, taskstore.ListFilters{})
	if err != nil {
		log.Printf("bot: list tasks for account %d: %v", acct.ID, err)
		return ch.sender.SendMessage(ctx, chatID, genericFailureText, nil)
	}
	if len(tasks) == 0 {
		return ch.sender.SendMessage(ctx, chatID, emptyListText, emptyListKeyboard())
	}
	return ch.sender.SendMessage(ctx, chatID, formatTaskList(tasks), taskListKeyboard(tasks))
}

// sendTaskDetail renders one owned task with its action buttons.
func (ch *CommandHandler) sendTaskDetail(ctx context.Context, acct *models.Account, chatID int64, taskID uint) error {
	task, err := ch.tasks.Get(acct.ID, taskID)
	if errors.Is(err, taskstore.ErrNotFound) {
		return ch.sender.SendMessage(ctx, chatID, notFoundText, nil)
	}
	if err != nil {
		log.Printf("bot: view task %d for account %d: %v", taskID, acct.ID, err)
		return ch.sender.SendMessage(ctx, chatID, genericFailureText, nil)
	}
	return ch.sender.SendMessage(ctx, chatID, formatTaskDetail(task), taskDetailKeyboard(task))
}

// sendCreateChoice shows the simple/advanced creation menu.
func (ch *CommandHandler) sendCreateChoice(ctx context.Context, chatID int64) error {
	return ch.sender.SendMessage(ctx, chatID, createChoiceText, createChoiceKeyboard())
}

// promptSimpleTitle arms the awaiting-title mode and asks for a title.
func (ch *CommandHandler) promptSimpleTitle(ctx context.Context, chatID int64) error {
	ch.modes.Set(chatID, ModeAwaitingSimpleTitle)
	return ch.sender.SendMessage(ctx, chatID, simpleTitlePrompt, nil)
}

// payloadFields is the parsed form of a pipe-delimited task payload. The
// Has* flags distinguish a present segment from an absent one, which is
// what gives /edit its partial-update semantics.
type payloadFields struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time

	HasTitle       bool
	HasDescription bool
	HasPriority    bool
	HasDueDate     bool
}

// parsePayload splits a payload on "|" and maps the trimmed segments
// positionally to title, description, priority, and due date. An
// unparseable due date or unknown priority yields a validationError
// rather than a silently wrong value.
func parsePayload(payload string) (payloadFields, error) {
	var fields payloadFields
	segments := strings.Split(payload, "|")

	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		switch i {
		case 0:
			fields.Title = seg
			fields.HasTitle = true
		case 1:
			fields.Description = seg
			fields.HasDescription = true
		case 2:
			priority := strings.ToLower(seg)
			if !models.ValidPriority(priority) {
				return fields, validationError(fmt.Sprintf(
					"Unknown priority %q. Use one of: low, medium, high, urgent.", seg))
			}
			fields.Priority = priority
			fields.HasPriority = true
		case 3:
			due, err := taskstore.ParseDueDate(seg)
			if err != nil {
				return fields, validationError(fmt.Sprintf(
					"Could not parse due date %q. Use YYYY-MM-DD, optionally with HH:MM.", seg))
			}
			fields.DueDate = &due
			fields.HasDueDate = true
		}
	}
	return fields, nil
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"

	"github.com/dkovalov/taskboard/internal/models"
	"github.com/dkovalov/taskboard/internal/taskstore"
)

// CallbackHandler interprets inline-keyboard payloads. A payload is
// colon-delimited: the first segment is the action tag, the rest are
// positional arguments. Unknown actions and malformed arguments are
// silent no-ops; the press is still acknowledged by the router.
type CallbackHandler struct {
	tasks  *taskstore.Store
	sender Sender
	cmds   *CommandHandler
}

// CallbackHandlerOpts holds parameters for creating a CallbackHandler.
type CallbackHandlerOpts struct {
	Tasks    *taskstore.Store
	Sender   Sender
	Commands *CommandHandler
}

// NewCallbackHandler creates a CallbackHandler.
func NewCallbackHandler(opts CallbackHandlerOpts) (*CallbackHandler, error) {
	if opts.Tasks == nil {
		return nil, fmt.Errorf("bot: callback handler: task store is required")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("bot: callback handler: sender is required")
	}
	if opts.Commands == nil {
		return nil, fmt.Errorf("bot: callback handler: command handler is required")
	}
	return &CallbackHandler{
		tasks:  opts.Tasks,
		sender: opts.Sender,
		cmds:   opts.Commands,
	}, nil
}

// Handle dispatches one callback payload for the account in the given chat.
func (cb *CallbackHandler) Handle(ctx context.Context, acct *models.Account, chatID int64, data string) error {
	parts := strings.Split(data, ":")
	action := parts[0]
	args := parts[1:]

	switch action {
	case "task_list":
		return cb.cmds.sendTaskList(ctx, acct, chatID)
	case "task_create":
		return cb.cmds.sendCreateChoice(ctx, chatID)
	case "task_create_simple":
		return cb.cmds.promptSimpleTitle(ctx, chatID)
	case "task_create_advanced":
		return cb.sender.SendMessage(ctx, chatID, createInstructionsText(), nil)
	case "task_view":
		taskID, ok := taskIDArg(args)
		if !ok {
			return nil
		}
		return cb.cmds.sendTaskDetail(ctx, acct, chatID, taskID)
	case "task_edit":
		taskID, ok := taskIDArg(args)
		if !ok {
			return nil
		}
		return cb.handleEdit(ctx, acct, chatID, taskID)
	case "task_delete":
		taskID, ok := taskIDArg(args)
		if !ok {
			return nil
		}
		return cb.handleDelete(ctx, acct, chatID, taskID)
	case "task_status":
		taskID, ok := taskIDArg(args)
		if !ok || len(args) < 2 || !models.ValidStatus(args[1]) {
			return nil
		}
		return cb.handleStatus(ctx, acct, chatID, taskID, args[1])
	case "help":
		return cb.sender.SendMessage(ctx, chatID, helpText(), nil)
	default:
		return nil
	}
}

// taskIDArg parses the first positional argument as a task ID.
func taskIDArg(args []string) (uint, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// handleEdit shows the edit instructions for an owned task.
func (cb *CallbackHandler) handleEdit(ctx context.Context, acct *models.Account, chatID int64, taskID uint) error {
	task, err := cb.tasks.Get(acct.ID, taskID)
	if errors.Is(err, taskstore.ErrNotFound) {
		return cb.sender.SendMessage(ctx, chatID, notFoundText, nil)
	}
	if err != nil {
		log.Printf("bot: callback edit task %d for account %d: %v", taskID, acct.ID, err)
		return cb.sender.SendMessage(ctx, chatID, genericFailureText, nil)
	}
	return cb.sender.SendMessage(ctx, chatID, editInstructionsText(task.ID), nil)
}

// handleDelete cascade-deletes an owned task, confirms, and redisplays
// the list.
func (cb *CallbackHandler) handleDelete(ctx context.Context, acct *models.Account, chatID int64, taskID uint) error {
	task, err := cb.tasks.Delete(acct.ID, taskID)
	if errors.Is(err, taskstore.ErrNotFound) {
		return cb.sender.SendMessage(ctx, chatID, notFoundText, nil)
	}
	if err != nil {
		log.Printf("bot: callback delete task %d for account %d: %v", taskID, acct.ID, err)
		return cb.sender.SendMessage(ctx, chatID, genericFailureText, nil)
	}

	confirm := fmt.Sprintf("✅ Task \"%s\" has been deleted.", html.EscapeString(task.Title))
	if err := cb.sender.SendMessage(ctx, chatID, confirm, nil); err != nil {
		return err
	}
	return cb.cmds.sendTaskList(ctx, acct, chatID)
}

// handleStatus sets an owned task's status, confirms with the human label,
// and redisplays the detail view.
func (cb *CallbackHandler) handleStatus(ctx context.Context, acct *models.Account, chatID int64, taskID uint, status string) error {
	task, err := cb.tasks.SetStatus(acct.ID, taskID, status)
	if errors.Is(err, taskstore.ErrNotFound) {
		return cb.sender.SendMessage(ctx, chatID, notFoundText, nil)
	}
	if err != nil {
		log.Printf("bot: callback status task %d for account %d: %v", taskID, acct.ID, err)
		return cb.sender.SendMessage(ctx, chatID, genericFailureText, nil)
	}

	confirm := fmt.Sprintf("✅ Task \"%s\" is now \"%s\".",
		html.EscapeString(task.Title), statusLabel(task.Status))
	if err := cb.sender.SendMessage(ctx, chatID, confirm, nil); err != nil {
		return err
	}
	return cb.cmds.sendTaskDetail(ctx, acct, chatID, task.ID)
}

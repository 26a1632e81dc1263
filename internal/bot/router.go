package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dkovalov/taskboard/internal/directory"
	"github.com/dkovalov/taskboard/internal/models"
	"gorm.io/gorm"
)

// Router classifies inbound webhook updates and routes them to the
// appropriate handler: the command interpreter for slash commands, the
// callback interpreter for button presses, or the awaiting-title creation
// flow. Every failure is absorbed here; the webhook boundary always
// reports the update as handled.
type Router struct {
	db        *gorm.DB
	cmds      *CommandHandler
	callbacks *CallbackHandler
	modes     ModeStore
	sender    Sender
	out       io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	DB        *gorm.DB
	Commands  *CommandHandler
	Callbacks *CallbackHandler
	Modes     ModeStore
	Sender    Sender
	Out       io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("bot: router: db is required")
	}
	if opts.Commands == nil {
		return nil, fmt.Errorf("bot: router: command handler is required")
	}
	if opts.Callbacks == nil {
		return nil, fmt.Errorf("bot: router: callback handler is required")
	}
	if opts.Modes == nil {
		return nil, fmt.Errorf("bot: router: mode store is required")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("bot: router: sender is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		db:        opts.DB,
		cmds:      opts.Commands,
		callbacks: opts.Callbacks,
		modes:     opts.Modes,
		sender:    opts.Sender,
		out:       out,
	}, nil
}

// Handle classifies and routes a single inbound update. Routing paths:
//  1. Message with a pending awaiting-title mode and non-command text
//     → create a task from the text
//  2. Message with command-prefix text → command interpreter
//  3. Message with other text → ignore (chat noise)
//  4. Callback press → callback interpreter, then acknowledge the press
//  5. Anything else → ignore
//
// A panic or error anywhere below is logged with the update and absorbed.
func (r *Router) Handle(ctx context.Context, upd Update) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("bot: router: panic handling update %d: %v (update: %+v)", upd.UpdateID, rec, upd)
		}
	}()

	switch {
	case upd.Message != nil && upd.Message.From != nil:
		r.handleMessage(ctx, upd.UpdateID, upd.Message)
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		r.handleCallback(ctx, upd.UpdateID, upd.CallbackQuery)
	default:
		fmt.Fprintf(r.out, "bot: router: ignore update %d (no message or callback)\n", upd.UpdateID)
	}
}

// handleMessage resolves the sender and group, then routes the text.
func (r *Router) handleMessage(ctx context.Context, updateID int64, msg *Message) {
	acct, err := r.resolveAccount(msg.From)
	if err != nil {
		log.Printf("bot: router: upsert account for update %d: %v (message: %+v)", updateID, err, msg)
		return
	}

	if isGroupChat(msg.Chat.Type) {
		if _, err := directory.UpsertGroup(r.db, directory.GroupFields{
			TelegramChatID: msg.Chat.ID,
			Title:          msg.Chat.Title,
			Type:           msg.Chat.Type,
		}, acct); err != nil {
			log.Printf("bot: router: upsert group %d for update %d: %v", msg.Chat.ID, updateID, err)
			// Group bookkeeping failure does not block the task flow.
		}
	}

	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	if !strings.HasPrefix(text, commandPrefix) {
		// Commands are never consumed as a title, so the mode is only
		// checked (and consumed) for free text.
		if mode, ok := r.modes.Consume(chatID); ok && mode == ModeAwaitingSimpleTitle {
			fmt.Fprintf(r.out, "bot: router: → title for chat %d\n", chatID)
			if err := r.cmds.CreateFromTitle(ctx, acct, chatID, text); err != nil {
				log.Printf("bot: router: create from title for update %d: %v", updateID, err)
			}
			return
		}
		fmt.Fprintf(r.out, "bot: router: → ignore chat noise in chat %d\n", chatID)
		return
	}

	fmt.Fprintf(r.out, "bot: router: → command %q in chat %d\n", firstWord(text), chatID)
	if err := r.cmds.Handle(ctx, acct, chatID, text); err != nil {
		log.Printf("bot: router: command for update %d: %v (text: %q)", updateID, err, text)
	}
}

// handleCallback resolves the sender, dispatches the payload, and always
// acknowledges the press exactly once, even when the action was unknown
// or failed.
func (r *Router) handleCallback(ctx context.Context, updateID int64, press *CallbackQuery) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("bot: router: panic in callback for update %d: %v (press: %+v)", updateID, rec, press)
		}
		if err := r.sender.AnswerCallback(ctx, press.ID); err != nil {
			log.Printf("bot: router: answer callback %s: %v", press.ID, err)
		}
	}()

	acct, err := r.resolveAccount(press.From)
	if err != nil {
		log.Printf("bot: router: upsert account for update %d: %v (press: %+v)", updateID, err, press)
		return
	}

	if press.Message == nil {
		fmt.Fprintf(r.out, "bot: router: callback %q without message context, ack only\n", press.Data)
		return
	}
	chatID := press.Message.Chat.ID

	fmt.Fprintf(r.out, "bot: router: → callback %q in chat %d\n", press.Data, chatID)
	if err := r.callbacks.Handle(ctx, acct, chatID, press.Data); err != nil {
		log.Printf("bot: router: callback for update %d: %v (data: %q)", updateID, err, press.Data)
	}
}

// resolveAccount upserts the sender into the account directory. All
// profile fields are overwritten on every update, last write wins.
func (r *Router) resolveAccount(from *User) (*models.Account, error) {
	return directory.UpsertAccount(r.db, directory.AccountFields{
		TelegramID:   from.ID,
		Username:     from.Username,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		IsBot:        from.IsBot,
		LanguageCode: from.LanguageCode,
	})
}

// firstWord returns the first whitespace-delimited word of s.
func firstWord(s string) string {
	word, _, _ := strings.Cut(s, " ")
	return word
}

package bot

import "context"

// Button is one inline-keyboard button. CallbackData is the opaque payload
// delivered back in a CallbackQuery when the button is pressed.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

// Keyboard is an inline-keyboard layout: rows of buttons.
type Keyboard [][]Button

// Sender is the outbound messaging capability the bot consumes. The
// production implementation is the Telegram API client; tests use
// MockSender.
type Sender interface {
	// SendMessage delivers text (Telegram HTML subset) to a chat, with an
	// optional inline keyboard.
	SendMessage(ctx context.Context, chatID int64, text string, keyboard Keyboard) error

	// AnswerCallback clears the loading state of a pending button press.
	AnswerCallback(ctx context.Context, callbackID string) error
}

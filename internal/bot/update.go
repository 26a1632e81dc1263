// Package bot routes inbound Telegram webhook updates to task operations.
package bot

// Update is a single inbound webhook payload. Exactly one of Message or
// CallbackQuery is set; any other shape is ignored by the router.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// Message is a text message sent to the bot.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// CallbackQuery is an inline-keyboard button press. Data carries the
// opaque colon-delimited payload the button was created with.
type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	From    *User    `json:"from"`
	Message *Message `json:"message"`
}

// User is the sender of a message or callback press.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
}

// Chat is the conversation context a message arrived in.
type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"` // "private", "group", "supergroup", "channel"
	Title string `json:"title"`
}

// isGroupChat reports whether the chat is a multi-user chat that should be
// mirrored into the group directory.
func isGroupChat(chatType string) bool {
	return chatType == "group" || chatType == "supergroup"
}

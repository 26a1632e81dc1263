package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/dkovalov/taskboard/internal/models"
)

// dueDateLayout is the display format for task due dates.
const dueDateLayout = "02.01.2006 15:04"

// statusGlyph maps a task status to its display glyph. Total over the four
// statuses plus a fallback for anything else.
func statusGlyph(status string) string {
	switch status {
	case models.StatusPending:
		return "⏳"
	case models.StatusInProgress:
		return "🔄"
	case models.StatusCompleted:
		return "✅"
	case models.StatusCancelled:
		return "❌"
	default:
		return "❓"
	}
}

// priorityGlyph maps a task priority to its display glyph, with a fallback.
func priorityGlyph(priority string) string {
	switch priority {
	case models.PriorityLow:
		return "🟢"
	case models.PriorityMedium:
		return "🟡"
	case models.PriorityHigh:
		return "🟠"
	case models.PriorityUrgent:
		return "🔴"
	default:
		return "⚪"
	}
}

// statusLabel returns the human status label used in confirmations.
func statusLabel(status string) string {
	switch status {
	case models.StatusPending:
		return "pending"
	case models.StatusInProgress:
		return "in progress"
	case models.StatusCompleted:
		return "completed"
	case models.StatusCancelled:
		return "cancelled"
	default:
		return status
	}
}

// formatTaskDetail renders the full detail block for one task.
func formatTaskDetail(t *models.Task) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s</b>\n\n", html.EscapeString(t.Title)))
	b.WriteString(fmt.Sprintf("Status: %s %s\n", statusGlyph(t.Status), statusLabel(t.Status)))
	b.WriteString(fmt.Sprintf("Priority: %s %s\n", priorityGlyph(t.Priority), t.Priority))
	if t.DueDate != nil {
		b.WriteString(fmt.Sprintf("Due: 📅 %s\n", t.DueDate.Format(dueDateLayout)))
	}
	if t.Description != "" {
		b.WriteString(fmt.Sprintf("\nDescription:\n%s\n", html.EscapeString(t.Description)))
	}
	if len(t.Attachments) > 0 {
		b.WriteString(fmt.Sprintf("\nAttached files: %d\n", len(t.Attachments)))
	}
	return b.String()
}

// taskDetailKeyboard returns the action buttons shown under a task detail.
func taskDetailKeyboard(t *models.Task) Keyboard {
	return Keyboard{
		{
			{Text: "✏️ Edit", CallbackData: fmt.Sprintf("task_edit:%d", t.ID)},
			{Text: "🗑️ Delete", CallbackData: fmt.Sprintf("task_delete:%d", t.ID)},
		},
		{
			{Text: "✅ Complete", CallbackData: fmt.Sprintf("task_status:%d:%s", t.ID, models.StatusCompleted)},
			{Text: "⏳ In progress", CallbackData: fmt.Sprintf("task_status:%d:%s", t.ID, models.StatusInProgress)},
		},
		{
			{Text: "◀️ Back to list", CallbackData: "task_list"},
		},
	}
}

// formatTaskList renders the numbered summary of the account's tasks.
func formatTaskList(tasks []models.Task) string {
	var b strings.Builder
	b.WriteString("<b>Your tasks:</b>\n\n")
	for i, t := range tasks {
		b.WriteString(fmt.Sprintf("%d. %s %s <b>%s</b>\n",
			i+1, statusGlyph(t.Status), priorityGlyph(t.Priority), html.EscapeString(t.Title)))
		if t.DueDate != nil {
			b.WriteString(fmt.Sprintf("📅 Due: %s\n", t.DueDate.Format(dueDateLayout)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// taskListKeyboard returns one view button per task plus a trailing
// create button.
func taskListKeyboard(tasks []models.Task) Keyboard {
	var kb Keyboard
	for _, t := range tasks {
		kb = append(kb, []Button{
			{Text: "👁️ " + t.Title, CallbackData: fmt.Sprintf("task_view:%d", t.ID)},
		})
	}
	kb = append(kb, []Button{
		{Text: "➕ Create task", CallbackData: "task_create"},
	})
	return kb
}

// emptyListText is shown when the account has no tasks.
const emptyListText = "You have no tasks yet. Use /create to add your first one."

// emptyListKeyboard offers the create action from the empty state.
func emptyListKeyboard() Keyboard {
	return Keyboard{
		{{Text: "➕ Create task", CallbackData: "task_create"}},
	}
}

// welcomeText greets a newly started account.
func welcomeText(name string) string {
	return fmt.Sprintf("Hi, %s! 👋\n\n", html.EscapeString(name)) +
		"Welcome to the Taskboard bot. It helps you manage your tasks right from this chat.\n\n" +
		"Use /help for the list of available commands."
}

// mainMenuKeyboard is shown with the welcome message.
func mainMenuKeyboard() Keyboard {
	return Keyboard{
		{
			{Text: "📋 My tasks", CallbackData: "task_list"},
			{Text: "➕ Create task", CallbackData: "task_create"},
		},
		{
			{Text: "❓ Help", CallbackData: "help"},
		},
	}
}

// helpText is the static command reference.
func helpText() string {
	return "<b>Available commands:</b>\n\n" +
		"/start - Start the bot and register your account.\n" +
		"/help - Show this command reference.\n" +
		"/tasks - List your tasks.\n" +
		"/create - Create a new task.\n" +
		"/edit &lt;id&gt; - Edit an existing task.\n"
}

// createChoiceText asks how the user wants to create a task.
const createChoiceText = "How would you like to create the task?"

// createChoiceKeyboard offers the simple and advanced creation flows.
func createChoiceKeyboard() Keyboard {
	return Keyboard{
		{
			{Text: "✨ Simple", CallbackData: "task_create_simple"},
			{Text: "⚙️ Advanced", CallbackData: "task_create_advanced"},
		},
	}
}

// simpleTitlePrompt asks for the title of a simple-created task.
const simpleTitlePrompt = "Send me the title of the new task as a plain message."

// createInstructionsText documents the pipe-delimited create format.
func createInstructionsText() string {
	return "To create a task, send a message in the format:\n\n" +
		"<code>/create Title | Description | Priority | Due date</code>\n\n" +
		"For example:\n" +
		"<code>/create Buy milk | Get 2 liters | high | 2023-06-15</code>\n\n" +
		"Priority is one of: low, medium, high, urgent.\n" +
		"Due date is YYYY-MM-DD (optionally with HH:MM).\n" +
		"Only the title is required."
}

// editInstructionsText documents the pipe-delimited edit format for one task.
func editInstructionsText(taskID uint) string {
	return "To edit the task, send a message in the format:\n\n" +
		fmt.Sprintf("<code>/edit %d Title | Description | Priority | Due date</code>\n\n", taskID) +
		"For example:\n" +
		fmt.Sprintf("<code>/edit %d Buy milk | Get 2 liters | high | 2023-06-15</code>\n\n", taskID) +
		"Leave a field empty to keep its current value."
}

// notFoundText is the uniform denial for unknown or unowned tasks.
const notFoundText = "Task not found or you do not have access to it."

// genericFailureText is the reply for unexpected internal failures.
const genericFailureText = "Something went wrong, please try again."

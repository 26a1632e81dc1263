package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/dkovalov/taskboard/internal/models"
)

func TestStatusGlyph_Total(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{models.StatusPending, "⏳"},
		{models.StatusInProgress, "🔄"},
		{models.StatusCompleted, "✅"},
		{models.StatusCancelled, "❌"},
		{"archived", "❓"},
		{"", "❓"},
	}
	for _, tt := range tests {
		if got := statusGlyph(tt.status); got != tt.want {
			t.Errorf("statusGlyph(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestPriorityGlyph_Total(t *testing.T) {
	tests := []struct {
		priority string
		want     string
	}{
		{models.PriorityLow, "🟢"},
		{models.PriorityMedium, "🟡"},
		{models.PriorityHigh, "🟠"},
		{models.PriorityUrgent, "🔴"},
		{"critical", "⚪"},
		{"", "⚪"},
	}
	for _, tt := range tests {
		if got := priorityGlyph(tt.priority); got != tt.want {
			t.Errorf("priorityGlyph(%q) = %q, want %q", tt.priority, got, tt.want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	if got := statusLabel(models.StatusInProgress); got != "in progress" {
		t.Errorf("statusLabel(in_progress) = %q", got)
	}
	// Unknown statuses pass through rather than panic.
	if got := statusLabel("archived"); got != "archived" {
		t.Errorf("statusLabel(archived) = %q", got)
	}
}

func TestFormatTaskDetail(t *testing.T) {
	due := time.Date(2023, 6, 15, 14, 30, 0, 0, time.UTC)
	task := &models.Task{
		ID:          7,
		Title:       "Buy milk",
		Description: "Get 2 liters",
		Status:      models.StatusPending,
		Priority:    models.PriorityHigh,
		DueDate:     &due,
	}

	text := formatTaskDetail(task)
	for _, want := range []string{
		"<b>Buy milk</b>",
		"⏳",
		"🟠",
		"15.06.2023 14:30",
		"Get 2 liters",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("detail missing %q:\n%s", want, text)
		}
	}
}

func TestFormatTaskDetail_EscapesHTML(t *testing.T) {
	task := &models.Task{
		Title:       "<script>alert(1)</script>",
		Description: "a < b",
		Status:      models.StatusPending,
		Priority:    models.PriorityMedium,
	}

	text := formatTaskDetail(task)
	if strings.Contains(text, "<script>") {
		t.Errorf("title not escaped:\n%s", text)
	}
	if !strings.Contains(text, "&lt;script&gt;") {
		t.Errorf("expected escaped title:\n%s", text)
	}
	if !strings.Contains(text, "a &lt; b") {
		t.Errorf("expected escaped description:\n%s", text)
	}
}

func TestFormatTaskDetail_OmitsEmptySections(t *testing.T) {
	task := &models.Task{
		Title:    "Bare",
		Status:   models.StatusPending,
		Priority: models.PriorityMedium,
	}

	text := formatTaskDetail(task)
	if strings.Contains(text, "Due:") {
		t.Errorf("detail should omit due line:\n%s", text)
	}
	if strings.Contains(text, "Description:") {
		t.Errorf("detail should omit description:\n%s", text)
	}
	if strings.Contains(text, "Attached files") {
		t.Errorf("detail should omit attachments line:\n%s", text)
	}
}

func TestTaskDetailKeyboard(t *testing.T) {
	task := &models.Task{ID: 7}
	kb := taskDetailKeyboard(task)

	var data []string
	for _, row := range kb {
		for _, btn := range row {
			data = append(data, btn.CallbackData)
		}
	}
	want := []string{
		"task_edit:7",
		"task_delete:7",
		"task_status:7:completed",
		"task_status:7:in_progress",
		"task_list",
	}
	if len(data) != len(want) {
		t.Fatalf("callback data = %v", data)
	}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("button %d = %q, want %q", i, data[i], want[i])
		}
	}
}

func TestFormatTaskList_NumbersAndGlyphs(t *testing.T) {
	tasks := []models.Task{
		{ID: 2, Title: "Second", Status: models.StatusCompleted, Priority: models.PriorityLow},
		{ID: 1, Title: "First", Status: models.StatusPending, Priority: models.PriorityUrgent},
	}

	text := formatTaskList(tasks)
	if !strings.Contains(text, "1. ✅ 🟢 <b>Second</b>") {
		t.Errorf("list missing first entry:\n%s", text)
	}
	if !strings.Contains(text, "2. ⏳ 🔴 <b>First</b>") {
		t.Errorf("list missing second entry:\n%s", text)
	}
}

func TestTaskListKeyboard_ViewButtonsPlusCreate(t *testing.T) {
	tasks := []models.Task{
		{ID: 3, Title: "A"},
		{ID: 9, Title: "B"},
	}
	kb := taskListKeyboard(tasks)

	if len(kb) != 3 {
		t.Fatalf("keyboard rows = %d", len(kb))
	}
	if kb[0][0].CallbackData != "task_view:3" || kb[1][0].CallbackData != "task_view:9" {
		t.Errorf("view buttons = %q, %q", kb[0][0].CallbackData, kb[1][0].CallbackData)
	}
	if kb[2][0].CallbackData != "task_create" {
		t.Errorf("trailing button = %q", kb[2][0].CallbackData)
	}
}

func TestWelcomeText_EscapesName(t *testing.T) {
	text := welcomeText("<b>Eve</b>")
	if strings.Contains(text, "<b>Eve</b>") {
		t.Errorf("name not escaped:\n%s", text)
	}
}

package taskstore

import (
	"fmt"
	"time"
)

// dueDateLayouts are the accepted input formats for due dates, both on
// the REST surface and in bot payloads.
var dueDateLayouts = []string{"2006-01-02 15:04", "2006-01-02"}

// ParseDueDate parses a due-date string against the accepted layouts.
// Unparseable input is an error; it is never silently coerced.
func ParseDueDate(s string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("taskstore: unparseable due date %q", s)
}

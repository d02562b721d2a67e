package core

import (
	"fmt"
	"time"
)

// CreatedAtLayout is how the creation timestamp is shown to users.
const CreatedAtLayout = "02/01/2006 15:04"

// ShareText is the plain-text rendering used when a transaction is shared.
func ShareText(t Transaction) string {
	return fmt.Sprintf(
		"Title: %s\nAmount: %s\nType: %s\nTag: %s\nDate: %s\nNote: %s\nCreated at: %s\n",
		t.Title,
		FormatAmount(t.Amount),
		t.Type,
		t.Tag,
		t.Date,
		t.Note,
		FormatCreatedAt(t.CreatedAt),
	)
}

// FormatCreatedAt renders a creation timestamp in local time.
func FormatCreatedAt(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(CreatedAtLayout)
}

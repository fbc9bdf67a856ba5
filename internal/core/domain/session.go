package domain

import (
	"strings"
	"time"
)

// Exchange is one user question and the assistant's answer.
type Exchange struct {
	User      string
	Assistant string
	CreatedAt time.Time
}

// FormatHistory renders exchanges as the plain-text conversation log that is
// appended to the system prompt. Returns "" for no exchanges.
func FormatHistory(exchanges []Exchange) string {
	if len(exchanges) == 0 {
		return ""
	}
	var b strings.Builder
	for i, ex := range exchanges {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("User: ")
		b.WriteString(ex.User)
		b.WriteString("\nAssistant: ")
		b.WriteString(ex.Assistant)
	}
	return b.String()
}

// TrimHistory keeps the most recent max exchanges. A non-positive max keeps
// nothing.
func TrimHistory(exchanges []Exchange, max int) []Exchange {
	if max <= 0 {
		return nil
	}
	if len(exchanges) <= max {
		return exchanges
	}
	return exchanges[len(exchanges)-max:]
}

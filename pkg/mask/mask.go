// Package mask rewrites raw keystroke text into canonical display masks.
// Every formatter is total and idempotent: feeding an already formatted value
// back in returns it unchanged, and input without digits yields "".
package mask

import "strings"

// Formatter rewrites the text of a masked field. prev is the text before the
// edit; formatters in this package derive the result from next alone but the
// signature leaves room for cursor-aware masks.
type Formatter interface {
	Format(prev, next string) string
}

// FormatterFunc adapts a plain function to Formatter.
type FormatterFunc func(next string) string

// Format implements Formatter.
func (fn FormatterFunc) Format(_, next string) string {
	return fn(next)
}

// Digits strips every non-digit rune.
func Digits(raw string) string {
	if raw == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

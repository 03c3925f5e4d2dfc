// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hay-kot/criterio"
)

// MaxTextLength is the longest task or list text accepted, in runes.
const MaxTextLength = 500

// ItemText validates the text of a task or list. The text must be non-empty
// after trimming whitespace and must fit on one row.
func ItemText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("text is required")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return fmt.Errorf("text is %d characters, at most %d allowed", n, MaxTextLength)
	}
	if strings.ContainsAny(text, "\r\n") {
		return fmt.Errorf("text must be a single line")
	}
	return nil
}

// ItemTextField returns a criterio validator for item text.
func ItemTextField(field, text string) error {
	return criterio.Run(field, text, ItemText)
}

// Username validates an account username: non-empty and free of whitespace.
func Username(name string) error {
	if name == "" {
		return fmt.Errorf("username is required")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("username must not contain whitespace")
	}
	return nil
}

// Password validates that a password was entered.
func Password(pw string) error {
	if pw == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

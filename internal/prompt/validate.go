package prompt

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Limits on generated prompt text.
const (
	MinWords  = 8
	MaxWords  = 25
	MaxEmojis = 1
)

var (
	ErrEmptyOutput   = errors.New("generator returned no text")
	ErrWordCount     = errors.New("generated prompt word count out of range")
	ErrTooManyEmojis = errors.New("generated prompt has too many emojis")
)

// Sanitize keeps the first non-empty line of raw and strips surrounding
// quotes, list markers and whitespace.
func Sanitize(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		line = strings.Trim(line, "\"'`“”‘’ ")
		if line != "" {
			return line
		}
	}
	return ""
}

// Validate checks word count and emoji limits of a sanitized prompt.
func Validate(text string) error {
	if text == "" {
		return ErrEmptyOutput
	}
	if n := WordCount(text); n < MinWords || n > MaxWords {
		return fmt.Errorf("%w: %d words", ErrWordCount, n)
	}
	if n := EmojiCount(text); n > MaxEmojis {
		return fmt.Errorf("%w: %d", ErrTooManyEmojis, n)
	}
	return nil
}

// WordCount counts whitespace-separated tokens containing a letter or digit,
// so a lone emoji or dash is not a word.
func WordCount(text string) int {
	n := 0
	for _, field := range strings.Fields(text) {
		if strings.IndexFunc(field, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) >= 0 {
			n++
		}
	}
	return n
}

// EmojiCount counts pictographs. Joiner sequences and variation selectors
// are folded into the preceding pictograph.
func EmojiCount(text string) int {
	n := 0
	joined := false
	for _, r := range text {
		switch {
		case r == '\u200d':
			joined = true
		case r == '\ufe0f' || (r >= 0x1f3fb && r <= 0x1f3ff):
			// selector or skin tone modifier
		case isPictograph(r):
			if !joined {
				n++
			}
			joined = false
		default:
			joined = false
		}
	}
	return n
}

func isPictograph(r rune) bool {
	switch {
	case r >= 0x1f300 && r <= 0x1faff:
		return true
	case r >= 0x2600 && r <= 0x27bf:
		return true
	case r >= 0x1f000 && r <= 0x1f2ff:
		return true
	case r >= 0x2b00 && r <= 0x2bff:
		return true
	}
	return false
}

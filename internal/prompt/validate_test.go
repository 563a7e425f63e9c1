package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"If today was a song, what would its title be? 🎵"`, "If today was a song, what would its title be? 🎵"},
		{"\n\n  - Rate your day from 1-10\nExplanation: ...", "Rate your day from 1-10"},
		{"“Curly quotes”", "Curly quotes"},
		{"   \n  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in))
	}
}

func TestEmojiCount(t *testing.T) {
	assert.Equal(t, 0, EmojiCount("plain text"))
	assert.Equal(t, 1, EmojiCount("weather ⛅"))
	assert.Equal(t, 1, EmojiCount("shield 🛡️"))
	assert.Equal(t, 1, EmojiCount("family 👨‍👩‍👧"))
	assert.Equal(t, 1, EmojiCount("wave 👋🏽"))
	assert.Equal(t, 2, EmojiCount("🎵 and 🎮"))
}

func TestValidate(t *testing.T) {
	ok := "If your day was a video game, what achievement did you unlock? 🎮"
	assert.NoError(t, Validate(ok))

	assert.ErrorIs(t, Validate(""), ErrEmptyOutput)
	assert.ErrorIs(t, Validate("Too short prompt 🎮"), ErrWordCount)
	assert.ErrorIs(t, Validate(strings.Repeat("word ", 26)), ErrWordCount)
	assert.ErrorIs(t, Validate("If your day was a video game, what did you unlock? 🎮 🎵"), ErrTooManyEmojis)

	// Exactly at the bounds.
	assert.NoError(t, Validate(strings.TrimSpace(strings.Repeat("word ", MinWords))))
	assert.NoError(t, Validate(strings.TrimSpace(strings.Repeat("word ", MaxWords))))
}

func TestWordCount_IgnoresSymbols(t *testing.T) {
	assert.Equal(t, 3, WordCount("rate it — 1-10 🎮"))
}

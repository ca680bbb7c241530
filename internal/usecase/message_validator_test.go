package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "fundbridge/pkg/errors"
)

func TestValidateMessageContent(t *testing.T) {
	t.Run("accepts ordinary content", func(t *testing.T) {
		assert.NoError(t, ValidateMessageContent("Hello, are you still raising for fund III?", 2000))
	})

	t.Run("rejects empty content", func(t *testing.T) {
		err := ValidateMessageContent("   ", 2000)
		assert.Error(t, err)
		assert.True(t, apperrors.Is(err, "VALIDATION_ERROR"))
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("rejects over-length content with the limit in the message", func(t *testing.T) {
		err := ValidateMessageContent(strings.Repeat("ab", 1001), 2000)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "2000")
	})

	t.Run("accepts content exactly at the limit", func(t *testing.T) {
		// Alternating characters so the spam check stays quiet.
		assert.NoError(t, ValidateMessageContent(strings.Repeat("ab", 1000), 2000))
	})

	t.Run("rejects ten repeated characters anywhere", func(t *testing.T) {
		err := ValidateMessageContent("totally normal aaaaaaaaaa trailing text", 2000)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "spam")
	})

	t.Run("allows nine repeated characters", func(t *testing.T) {
		assert.NoError(t, ValidateMessageContent("loooooooong story", 2000))
		assert.NoError(t, ValidateMessageContent(strings.Repeat("a", 9), 2000))
	})

	t.Run("rejects the same word repeated six times", func(t *testing.T) {
		err := ValidateMessageContent("buy buy buy buy buy buy", 2000)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "spam")
	})

	t.Run("allows the same word repeated five times", func(t *testing.T) {
		assert.NoError(t, ValidateMessageContent("no no no no no way", 2000))
	})

	t.Run("counts runes not bytes against the limit", func(t *testing.T) {
		assert.NoError(t, ValidateMessageContent(strings.Repeat("é?", 5), 10))
	})
}

func TestValidateAttachment(t *testing.T) {
	const maxSize = 10 * 1024 * 1024

	t.Run("accepts an allowed type under the limit", func(t *testing.T) {
		assert.NoError(t, ValidateAttachment("deck.pdf", "application/pdf", 1024, maxSize))
	})

	t.Run("rejects a disallowed type", func(t *testing.T) {
		err := ValidateAttachment("tool.exe", "application/x-msdownload", 1024, maxSize)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported file type")
	})

	t.Run("rejects a file over the size limit", func(t *testing.T) {
		err := ValidateAttachment("deck.pdf", "application/pdf", maxSize+1, maxSize)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "10MB")
	})

	t.Run("rejects an empty file", func(t *testing.T) {
		assert.Error(t, ValidateAttachment("deck.pdf", "application/pdf", 0, maxSize))
	})
}

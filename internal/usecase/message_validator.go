package usecase

import (
	"fmt"
	"strings"

	"fundbridge/internal/domain/entity"
	"fundbridge/pkg/errors"
)

const (
	// A run of this many identical characters marks the message as spam,
	// regardless of what surrounds it.
	spamCharRunThreshold = 10

	// The same word repeated consecutively this many times is spam.
	spamWordRunThreshold = 6
)

// ValidateMessageContent applies the pre-network checks: empty, over-length
// and repeated-pattern spam. No truncation, an over-long message is rejected
// whole.
func ValidateMessageContent(content string, maxLength int) error {
	if strings.TrimSpace(content) == "" {
		return errors.Validation("message cannot be empty")
	}

	if len([]rune(content)) > maxLength {
		return errors.Validation(fmt.Sprintf("message exceeds the %d character limit", maxLength))
	}

	if hasCharRun(content, spamCharRunThreshold) || hasWordRun(content, spamWordRunThreshold) {
		return errors.Validation("message looks like spam")
	}

	return nil
}

// hasCharRun reports a run of n or more identical characters anywhere in s.
func hasCharRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// hasWordRun reports the same token repeated n or more times in a row.
func hasWordRun(s string, n int) bool {
	words := strings.Fields(s)
	run := 0
	prev := ""
	for _, w := range words {
		if w == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = w
			run = 1
		}
	}
	return false
}

// ValidateAttachment enforces the client-side upload constraints before any
// bytes are sent: allowed content type and the size ceiling.
func ValidateAttachment(fileName, contentType string, size, maxSize int64) error {
	if strings.TrimSpace(fileName) == "" {
		return errors.Validation("attachment file name is required")
	}
	if !entity.IsAllowedAttachmentType(contentType) {
		return errors.Validation(fmt.Sprintf("unsupported file type: %s", contentType))
	}
	if size <= 0 {
		return errors.Validation("attachment is empty")
	}
	if size > maxSize {
		return errors.Validation(fmt.Sprintf("attachment exceeds the %dMB limit", maxSize/(1024*1024)))
	}
	return nil
}

package market

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength caps a chat message, in characters.
const MaxMessageLength = 4000

var (
	ErrSelfChat       = errors.New("cannot open a chat with yourself")
	ErrEmptyMessage   = errors.New("content is required")
	ErrMessageTooLong = fmt.Errorf("content must be at most %d characters", MaxMessageLength)
)

// CleanMessage trims a chat message and checks its length.
func CleanMessage(content string) (string, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return "", ErrEmptyMessage
	case utf8.RuneCountInString(content) > MaxMessageLength:
		return "", ErrMessageTooLong
	}
	return content, nil
}

// CanonicalPair orders two participant ids so that a pair of users always
// maps to the same chat row regardless of who starts the conversation.
func CanonicalPair(a, b string) (one, two string, err error) {
	if a == b {
		return "", "", ErrSelfChat
	}
	if a < b {
		return a, b, nil
	}
	return b, a, nil
}

// OtherParticipant returns the counterparty of me in a chat, or "" when me
// is not a participant.
func OtherParticipant(one, two, me string) string {
	switch me {
	case one:
		return two
	case two:
		return one
	}
	return ""
}

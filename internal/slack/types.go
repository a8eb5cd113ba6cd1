package slack

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Visibility selects private or public conversations in a listing.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Conversation is a channel as returned by the discovery listing.
type Conversation struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsArchived bool   `json:"is_archived"`
	IsFile     bool   `json:"is_file"`
	IsPrivate  bool   `json:"is_private"`
}

// Archivable reports whether the conversation is a live channel: not
// archived already and not a file pseudo-conversation.
func Archivable(c Conversation) bool {
	return !c.IsArchived && !c.IsFile
}

// Message is a single history entry. Only the timestamp matters here.
type Message struct {
	TS string `json:"ts"`
}

// Time parses the Slack "seconds.micros" timestamp.
func (m Message) Time() (time.Time, error) {
	return parseTS(m.TS)
}

// History is the most-recent-first message history of a conversation.
type History struct {
	Messages []Message `json:"messages"`
	HasEdits bool      `json:"has_edits"`
}

// ConversationInfo holds conversation metadata.
type ConversationInfo struct {
	Name    string `json:"name"`
	Created int64  `json:"created"`
}

// CreatedAt returns the creation time.
func (i ConversationInfo) CreatedAt() time.Time {
	return time.Unix(i.Created, 0)
}

// APIError is an error reported in the Slack response envelope.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// Error codes with a specific meaning to callers.
const (
	ErrCodeAlreadyArchived = "already_archived"
)

func parseTS(ts string) (time.Time, error) {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slack timestamp %q: %w", ts, err)
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), nil
}

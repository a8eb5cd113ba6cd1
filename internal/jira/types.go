package jira

import (
	"fmt"
	"strings"
)

// User is a Jira Cloud account as returned by user search.
type User struct {
	AccountID    string `json:"accountId"`
	EmailAddress string `json:"emailAddress,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

// Issue is a search hit. Only the identifiers are needed.
type Issue struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// Group is a group membership of a user.
type Group struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}

// Role picks the issue field that identifies an owner.
type Role string

const (
	RoleAssignee Role = "assignee"
	RoleReporter Role = "reporter"
)

// OwnedByJQL builds the search query for issues where email holds role.
func OwnedByJQL(role Role, email string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(email)
	return fmt.Sprintf(`%s in ("%s")`, role, escaped)
}

type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Package jira talks to the Jira Cloud REST API of one tenant.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ziadkadry99/janitor/internal/api"
	"github.com/ziadkadry99/janitor/internal/paginate"
)

// Options configures a Client.
type Options struct {
	BaseURL           string
	Email             string
	APIToken          string
	HTTPClient        *http.Client
	RequestsPerMinute int
	PageSize          int
	MaxPages          int
}

// Client wraps the user, issue and group endpoints of a single tenant.
// Every call goes through the retry executor. Mutations return the raw
// Result for the caller to interpret.
type Client struct {
	api      *api.Client
	exec     *api.Executor
	pageSize int
	maxPages int
}

// New creates a Client for one tenant.
func New(opts Options, exec *api.Executor) *Client {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 500
	}
	return &Client{
		api: api.NewClient(api.ClientOptions{
			BaseURL:           opts.BaseURL,
			Auth:              api.BasicAuth(opts.Email, opts.APIToken),
			HTTPClient:        opts.HTTPClient,
			RequestsPerMinute: opts.RequestsPerMinute,
		}),
		exec:     exec,
		pageSize: pageSize,
		maxPages: maxPages,
	}
}

// BaseURL returns the tenant this client is bound to.
func (c *Client) BaseURL() string {
	return c.api.BaseURL()
}

// SearchUsers looks up accounts matching query. The Result is returned so the
// caller can tell an empty match from a rejected lookup; users are decoded
// only on 200.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]User, *api.Result, error) {
	res, err := c.exec.Execute(ctx, "user search", func(ctx context.Context) (*api.Result, error) {
		return c.api.Do(ctx, api.Request{
			Path:  "/rest/api/3/user/search",
			Query: url.Values{"query": {query}},
		})
	})
	if err != nil {
		return nil, res, err
	}
	if !res.Is(http.StatusOK) {
		return nil, res, nil
	}
	var users []User
	if err := json.Unmarshal(res.Body, &users); err != nil {
		return nil, res, fmt.Errorf("decoding user search response: %w", err)
	}
	return users, res, nil
}

// SearchIssues fetches one page of JQL results.
func (c *Client) SearchIssues(ctx context.Context, jql string, startAt, maxResults int) (paginate.OffsetPage[Issue], error) {
	res, err := c.exec.Execute(ctx, "issue search", func(ctx context.Context) (*api.Result, error) {
		return c.api.Do(ctx, api.Request{
			Path: "/rest/api/3/search",
			Query: url.Values{
				"jql":        {jql},
				"startAt":    {strconv.Itoa(startAt)},
				"maxResults": {strconv.Itoa(maxResults)},
				"fields":     {"id"},
			},
		})
	})
	if err != nil {
		return paginate.OffsetPage[Issue]{}, err
	}
	if !res.Is(http.StatusOK) {
		return paginate.OffsetPage[Issue]{}, fmt.Errorf("issue search failed with code %d", res.StatusCode)
	}
	var resp searchResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		return paginate.OffsetPage[Issue]{}, fmt.Errorf("decoding issue search response: %w", err)
	}
	return paginate.OffsetPage[Issue]{Items: resp.Issues, Total: resp.Total}, nil
}

// IssuesOwnedBy returns every issue where email holds role. The full list
// is materialized before returning, so callers may mutate the issues without
// shifting the pages still to be read.
func (c *Client) IssuesOwnedBy(ctx context.Context, role Role, email string) ([]Issue, error) {
	jql := OwnedByJQL(role, email)
	return paginate.Offset(ctx, c.pageSize, c.maxPages, func(ctx context.Context, startAt, pageSize int) (paginate.OffsetPage[Issue], error) {
		return c.SearchIssues(ctx, jql, startAt, pageSize)
	})
}

// UserGroups lists the groups accountID belongs to.
func (c *Client) UserGroups(ctx context.Context, accountID string) ([]Group, error) {
	res, err := c.exec.Execute(ctx, "user groups", func(ctx context.Context) (*api.Result, error) {
		return c.api.Do(ctx, api.Request{
			Path:  "/rest/api/2/user/groups",
			Query: url.Values{"accountId": {accountID}},
		})
	})
	if err != nil {
		return nil, err
	}
	if !res.Is(http.StatusOK) {
		return nil, fmt.Errorf("fetching groups failed with code %d", res.StatusCode)
	}
	var groups []Group
	if err := json.Unmarshal(res.Body, &groups); err != nil {
		return nil, fmt.Errorf("decoding user groups response: %w", err)
	}
	return groups, nil
}

// AssignIssue sets the assignee of an issue. Jira answers 204 on success.
func (c *Client) AssignIssue(ctx context.Context, issueID, accountID string) (*api.Result, error) {
	return c.mutate(ctx, "assign issue", api.Request{
		Method: http.MethodPut,
		Path:   "/rest/api/3/issue/" + url.PathEscape(issueID) + "/assignee",
		JSON:   map[string]string{"accountId": accountID},
	})
}

// SetReporter sets the reporter of an issue. Jira answers 204 on success.
func (c *Client) SetReporter(ctx context.Context, issueID, accountID string) (*api.Result, error) {
	body := map[string]any{
		"fields": map[string]any{
			"reporter": map[string]string{"accountId": accountID},
		},
	}
	return c.mutate(ctx, "set reporter", api.Request{
		Method: http.MethodPut,
		Path:   "/rest/api/3/issue/" + url.PathEscape(issueID),
		JSON:   body,
	})
}

// AddUserToGroup adds accountID to a group. Jira answers 201 on success.
func (c *Client) AddUserToGroup(ctx context.Context, groupID, accountID string) (*api.Result, error) {
	return c.mutate(ctx, "add to group", api.Request{
		Method: http.MethodPost,
		Path:   "/rest/api/2/group/user",
		Query:  url.Values{"groupId": {groupID}},
		JSON:   map[string]string{"accountId": accountID},
	})
}

// mutate retries rate-limited and timed-out writes. All three mutations set
// an absolute value, so repeating one is harmless.
func (c *Client) mutate(ctx context.Context, name string, req api.Request) (*api.Result, error) {
	return c.exec.Execute(ctx, name, func(ctx context.Context) (*api.Result, error) {
		return c.api.Do(ctx, req)
	})
}

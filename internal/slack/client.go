// Package slack talks to the Slack discovery and admin conversation APIs.
package slack

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
	BaseURL string
	// DiscoveryToken is the enterprise-scoped token used for discovery.* calls.
	DiscoveryToken string
	// Token is the workspace token used for admin.* calls.
	Token             string
	HTTPClient        *http.Client
	RequestsPerMinute int
	PageSize          int
}

// Client wraps the endpoints the archival workflow needs. Reads go through
// the retry executor; Archive is a single attempt so that the caller can tell
// a second 429 apart from "already archived".
type Client struct {
	discovery *api.Client
	admin     *api.Client
	exec      *api.Executor
	pageSize  int
}

// New creates a Client.
func New(opts Options, exec *api.Executor) *Client {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Client{
		discovery: api.NewClient(api.ClientOptions{
			BaseURL:           opts.BaseURL,
			Auth:              api.BearerAuth(opts.DiscoveryToken),
			HTTPClient:        opts.HTTPClient,
			RequestsPerMinute: opts.RequestsPerMinute,
		}),
		admin: api.NewClient(api.ClientOptions{
			BaseURL:           opts.BaseURL,
			Auth:              api.BearerAuth(opts.Token),
			HTTPClient:        opts.HTTPClient,
			RequestsPerMinute: opts.RequestsPerMinute,
		}),
		exec:     exec,
		pageSize: pageSize,
	}
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type listResponse struct {
	envelope
	Channels []Conversation `json:"channels"`
	Offset   *string        `json:"offset"`
}

type infoResponse struct {
	envelope
	Info []ConversationInfo `json:"info"`
}

type historyResponse struct {
	envelope
	History
}

// ListConversations fetches one page of a team's conversations. offset is
// empty for the first page; the returned Page.Next is empty on the last.
func (c *Client) ListConversations(ctx context.Context, team string, vis Visibility, offset string) (paginate.Page[Conversation], error) {
	q := url.Values{
		"team":  {team},
		"limit": {strconv.Itoa(c.pageSize)},
	}
	switch vis {
	case VisibilityPrivate:
		q.Set("only_private", "true")
	case VisibilityPublic:
		q.Set("only_public", "true")
	}
	if offset != "" {
		q.Set("offset", offset)
	}

	var resp listResponse
	if err := c.read(ctx, "discovery.conversations.list", q, &resp); err != nil {
		return paginate.Page[Conversation]{}, err
	}
	page := paginate.Page[Conversation]{Items: resp.Channels}
	if resp.Offset != nil {
		page.Next = *resp.Offset
	}
	return page, nil
}

// ListActive returns every archivable conversation of the given visibility.
func (c *Client) ListActive(ctx context.Context, team string, vis Visibility) ([]Conversation, error) {
	return paginate.Cursor(ctx, func(ctx context.Context, cursor string) (paginate.Page[Conversation], error) {
		return c.ListConversations(ctx, team, vis, cursor)
	}, Archivable)
}

// History returns the latest message of a conversation, if any.
func (c *Client) History(ctx context.Context, team, channelID string) (*History, error) {
	var resp historyResponse
	q := url.Values{"team": {team}, "channel": {channelID}, "limit": {"1"}}
	if err := c.read(ctx, "discovery.conversations.history", q, &resp); err != nil {
		return nil, err
	}
	return &resp.History, nil
}

// Info returns conversation metadata.
func (c *Client) Info(ctx context.Context, team, channelID string) (*ConversationInfo, error) {
	var resp infoResponse
	q := url.Values{"team": {team}, "channel": {channelID}}
	if err := c.read(ctx, "discovery.conversations.info", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Info) == 0 {
		return nil, fmt.Errorf("discovery.conversations.info %s: empty info", channelID)
	}
	return &resp.Info[0], nil
}

// Archive issues a single admin.conversations.archive call. Envelope errors
// are reported in Result.VendorError.
func (c *Client) Archive(ctx context.Context, channelID string) (*api.Result, error) {
	res, err := c.admin.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "admin.conversations.archive",
		Form:   url.Values{"channel_id": {channelID}},
	})
	if err != nil {
		return nil, err
	}
	if res.Category == api.CategoryOK {
		var env envelope
		if err := json.Unmarshal(res.Body, &env); err != nil {
			return res, fmt.Errorf("decoding admin.conversations.archive response: %w", err)
		}
		if !env.OK {
			res.VendorError = env.Error
			if res.VendorError == "" {
				res.VendorError = "unknown_error"
			}
		}
	}
	return res, nil
}

func (c *Client) read(ctx context.Context, method string, q url.Values, out any) error {
	res, err := c.exec.Execute(ctx, method, func(ctx context.Context) (*api.Result, error) {
		return c.discovery.Do(ctx, api.Request{Path: method, Query: q})
	})
	if err != nil {
		return err
	}
	if res.Category != api.CategoryOK {
		return fmt.Errorf("%s: unexpected status %d", method, res.StatusCode)
	}
	var env envelope
	if err := json.Unmarshal(res.Body, &env); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if !env.OK {
		return &APIError{Method: method, Code: env.Error}
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}

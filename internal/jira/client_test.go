package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ziadkadry99/janitor/internal/api"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newTestClient(t *testing.T, handler http.Handler, pageSize int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	exec := api.NewExecutor(api.DefaultPolicy(), nil).WithSleep(noSleep)
	return New(Options{
		BaseURL:    server.URL,
		Email:      "admin@example.com",
		APIToken:   "secret",
		HTTPClient: server.Client(),
		PageSize:   pageSize,
		MaxPages:   10,
	}, exec)
}

func TestSearchUsers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/user/search", func(w http.ResponseWriter, r *http.Request) {
		if user, _, ok := r.BasicAuth(); !ok || user != "admin@example.com" {
			t.Errorf("expected basic auth, got %q", user)
		}
		switch r.URL.Query().Get("query") {
		case "jane@example.com":
			w.Write([]byte(`[{"accountId":"acc-1"},{"accountId":"acc-2"}]`))
		case "forbidden@example.com":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.Write([]byte(`[]`))
		}
	})
	c := newTestClient(t, mux, 100)

	users, res, err := c.SearchUsers(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if !res.Is(http.StatusOK) || len(users) != 2 || users[0].AccountID != "acc-1" {
		t.Errorf("unexpected result %+v %+v", res, users)
	}

	users, res, err = c.SearchUsers(context.Background(), "nobody@example.com")
	if err != nil || len(users) != 0 || !res.Is(http.StatusOK) {
		t.Errorf("expected empty 200 result, got %v %+v %v", users, res, err)
	}

	users, res, err = c.SearchUsers(context.Background(), "forbidden@example.com")
	if err != nil || users != nil || !res.Is(http.StatusForbidden) {
		t.Errorf("expected 403 result without error, got %v %+v %v", users, res, err)
	}
}

func TestIssuesOwnedByPagesWithStartAt(t *testing.T) {
	var jqls []string
	var starts []int
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		jqls = append(jqls, q.Get("jql"))
		startAt, _ := strconv.Atoi(q.Get("startAt"))
		starts = append(starts, startAt)
		all := []Issue{{ID: "1"}, {ID: "2"}, {ID: "3"}}
		end := min(startAt+2, len(all))
		json.NewEncoder(w).Encode(searchResponse{StartAt: startAt, MaxResults: 2, Total: len(all), Issues: all[startAt:end]})
	})
	c := newTestClient(t, mux, 2)

	issues, err := c.IssuesOwnedBy(context.Background(), RoleAssignee, "jane@example.com")
	if err != nil {
		t.Fatalf("IssuesOwnedBy: %v", err)
	}
	if len(issues) != 3 {
		t.Errorf("expected 3 issues, got %+v", issues)
	}
	if len(starts) != 2 || starts[1] != 2 {
		t.Errorf("unexpected startAt sequence %v", starts)
	}
	if jqls[0] != `assignee in ("jane@example.com")` {
		t.Errorf("unexpected jql %q", jqls[0])
	}
}

func TestIssuesOwnedByStaleTotal(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("startAt") == "0" {
			w.Write([]byte(`{"total":500,"issues":[{"id":"1"}]}`))
			return
		}
		w.Write([]byte(`{"total":500,"issues":[]}`))
	})
	c := newTestClient(t, mux, 100)

	issues, err := c.IssuesOwnedBy(context.Background(), RoleReporter, "jane@example.com")
	if err != nil {
		t.Fatalf("IssuesOwnedBy: %v", err)
	}
	if len(issues) != 1 || calls != 2 {
		t.Errorf("expected to stop on empty page, got %d issues after %d calls", len(issues), calls)
	}
}

func TestSearchIssuesRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	c := newTestClient(t, mux, 100)

	if _, err := c.SearchIssues(context.Background(), "bad", 0, 100); err == nil {
		t.Error("expected error for 400")
	}
}

func TestUserGroups(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/user/groups", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("accountId") != "acc-1" {
			t.Errorf("unexpected accountId %q", r.URL.Query().Get("accountId"))
		}
		w.Write([]byte(`[{"groupId":"g1","name":"developers"},{"groupId":"g2","name":"admins"}]`))
	})
	c := newTestClient(t, mux, 100)

	groups, err := c.UserGroups(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("UserGroups: %v", err)
	}
	if len(groups) != 2 || groups[1].Name != "admins" {
		t.Errorf("unexpected groups %+v", groups)
	}
}

func TestMutationsSendExpectedRequests(t *testing.T) {
	type captured struct {
		method string
		path   string
		query  string
		body   map[string]any
	}
	var got []captured
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		got = append(got, captured{r.Method, r.URL.Path, r.URL.Query().Get("groupId"), body})
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, handler, 100)
	ctx := context.Background()

	if res, err := c.AssignIssue(ctx, "10001", "acc-2"); err != nil || !res.Is(http.StatusNoContent) {
		t.Fatalf("AssignIssue: %+v %v", res, err)
	}
	if res, err := c.SetReporter(ctx, "10002", "acc-2"); err != nil || !res.Is(http.StatusNoContent) {
		t.Fatalf("SetReporter: %+v %v", res, err)
	}
	if res, err := c.AddUserToGroup(ctx, "g1", "acc-2"); err != nil || !res.Is(http.StatusCreated) {
		t.Fatalf("AddUserToGroup: %+v %v", res, err)
	}

	if got[0].method != http.MethodPut || got[0].path != "/rest/api/3/issue/10001/assignee" || got[0].body["accountId"] != "acc-2" {
		t.Errorf("unexpected assign request %+v", got[0])
	}
	fields, _ := got[1].body["fields"].(map[string]any)
	reporter, _ := fields["reporter"].(map[string]any)
	if got[1].path != "/rest/api/3/issue/10002" || reporter["accountId"] != "acc-2" {
		t.Errorf("unexpected reporter request %+v", got[1])
	}
	if got[2].method != http.MethodPost || got[2].path != "/rest/api/2/group/user" || got[2].query != "g1" {
		t.Errorf("unexpected group request %+v", got[2])
	}
}

func TestMutationsRetryRateLimits(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *Client) (*api.Result, error)
		status int
	}{
		{"assign", func(c *Client) (*api.Result, error) {
			return c.AssignIssue(context.Background(), "10001", "acc-2")
		}, http.StatusNoContent},
		{"reporter", func(c *Client) (*api.Result, error) {
			return c.SetReporter(context.Background(), "10001", "acc-2")
		}, http.StatusNoContent},
		{"group", func(c *Client) (*api.Result, error) {
			return c.AddUserToGroup(context.Background(), "g1", "acc-2")
		}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			var bodies []string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				var body map[string]any
				_ = json.NewDecoder(r.Body).Decode(&body)
				bodies = append(bodies, strconv.Itoa(len(body)))
				if calls == 1 {
					w.Header().Set("Retry-After", "1")
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				w.WriteHeader(tt.status)
			})
			c := newTestClient(t, handler, 100)

			res, err := tt.call(c)
			if err != nil || !res.Is(tt.status) {
				t.Fatalf("expected %d after retry, got %+v %v", tt.status, res, err)
			}
			if calls != 2 {
				t.Errorf("expected 2 calls, got %d", calls)
			}
			if len(bodies) == 2 && bodies[0] != bodies[1] {
				t.Errorf("retry sent a different body: %v", bodies)
			}
		})
	}
}

func TestMutationExhausted(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c := newTestClient(t, handler, 100)

	res, err := c.AssignIssue(context.Background(), "10001", "acc-2")
	if !errors.Is(err, api.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if !res.Is(http.StatusTooManyRequests) {
		t.Errorf("expected last 429 result, got %+v", res)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestSearchUsersExhausted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/user/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c := newTestClient(t, mux, 100)

	_, _, err := c.SearchUsers(context.Background(), "jane@example.com")
	if !errors.Is(err, api.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestOwnedByJQLEscapesQuotes(t *testing.T) {
	got := OwnedByJQL(RoleReporter, `a"b@example.com`)
	want := `reporter in ("a\"b@example.com")`
	if got != want {
		t.Errorf("OwnedByJQL = %q, want %q", got, want)
	}
}


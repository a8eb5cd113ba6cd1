// Package identity maps email addresses to tenant-scoped account ids.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ziadkadry99/janitor/internal/api"
	"github.com/ziadkadry99/janitor/internal/jira"
)

// UserSearcher is the lookup endpoint of one tenant.
type UserSearcher interface {
	SearchUsers(ctx context.Context, query string) ([]jira.User, *api.Result, error)
}

// Resolver resolves emails within a single tenant. Account ids differ per
// tenant, so a Resolver must never be shared across tenants. Definitive
// answers are cached for the lifetime of the Resolver; failed lookups are
// not.
type Resolver struct {
	tenant string
	users  UserSearcher
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a Resolver bound to tenant.
func NewResolver(tenant string, users UserSearcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		tenant: tenant,
		users:  users,
		logger: logger.With("tenant", tenant),
		cache:  make(map[string]string),
	}
}

// Resolve returns the account id for email, or false when the tenant has no
// such account or the lookup failed. When several accounts match, the first
// one returned by the server is used.
func (r *Resolver) Resolve(ctx context.Context, email string) (string, bool) {
	r.mu.Lock()
	id, cached := r.cache[email]
	r.mu.Unlock()
	if cached {
		return id, id != ""
	}

	users, res, err := r.users.SearchUsers(ctx, email)
	if err != nil {
		r.logger.Error(fmt.Sprintf("FAILED to fetch Account ID for email: %s", email), "error", err)
		return "", false
	}
	if !res.Is(http.StatusOK) {
		r.logger.Error(fmt.Sprintf("FAILED to fetch Account ID for email: %s with ERROR code: %s", email, res.Describe()))
		return "", false
	}

	if len(users) == 0 {
		r.logger.Info(fmt.Sprintf("200 response from the server, but accountId for user %s was not fetched. Try to find this user in another tenant.", email))
		r.store(email, "")
		return "", false
	}
	if len(users) > 1 {
		r.logger.Warn("multiple accounts matched, using the first", "email", email, "matches", len(users))
	}

	id = users[0].AccountID
	r.logger.Info(fmt.Sprintf("Account ID:%s for email: %s fetched successfully!", id, email))
	r.store(email, id)
	return id, id != ""
}

func (r *Resolver) store(email, id string) {
	r.mu.Lock()
	r.cache[email] = id
	r.mu.Unlock()
}

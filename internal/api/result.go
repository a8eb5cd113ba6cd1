package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Category groups HTTP outcomes the way the retry and mutation logic needs them.
type Category string

const (
	CategoryOK          Category = "ok"
	CategoryRateLimited Category = "rate_limited"
	CategoryGone        Category = "gone"
	CategoryNotFound    Category = "not_found"
	CategoryRejected    Category = "rejected"
	CategoryServerError Category = "server_error"
)

// Result is one completed HTTP exchange. Status branching happens on this
// value rather than on errors.
type Result struct {
	StatusCode int
	Category   Category
	Body       []byte
	// RetryAfter is the server-supplied delay on a 429, zero otherwise.
	RetryAfter time.Duration
	// VendorError carries an error code reported inside a 2xx envelope,
	// e.g. Slack's {"ok":false,"error":"already_archived"}.
	VendorError string
}

// OK reports a 2xx response without a vendor error.
func (r *Result) OK() bool {
	return r != nil && r.Category == CategoryOK && r.VendorError == ""
}

// Is reports whether the response carried the given status code.
func (r *Result) Is(status int) bool {
	return r != nil && r.StatusCode == status
}

// Describe renders the status for log lines.
func (r *Result) Describe() string {
	if r == nil {
		return "no response"
	}
	if r.VendorError != "" {
		return strconv.Itoa(r.StatusCode) + " " + r.VendorError
	}
	return strconv.Itoa(r.StatusCode)
}

func categorize(status int) Category {
	switch {
	case status >= 200 && status <= 299:
		return CategoryOK
	case status == http.StatusTooManyRequests:
		return CategoryRateLimited
	case status == http.StatusGone:
		return CategoryGone
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status >= 500:
		return CategoryServerError
	default:
		return CategoryRejected
	}
}

// ParseRetryAfter reads a Retry-After header given in whole seconds. It
// returns zero when the header is missing or malformed.
func ParseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

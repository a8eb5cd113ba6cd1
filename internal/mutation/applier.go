// Package mutation performs the side-effecting calls of both workflows and
// turns their responses into outcomes.
package mutation

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ziadkadry99/janitor/internal/api"
	"github.com/ziadkadry99/janitor/internal/jira"
	"github.com/ziadkadry99/janitor/internal/slack"
)

// Outcome is the interpreted result of a mutation.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeAlreadyDone Outcome = "already_done"
	OutcomeFailure     Outcome = "failure"
)

// Archiver archives a conversation in a single attempt.
type Archiver interface {
	Archive(ctx context.Context, channelID string) (*api.Result, error)
}

// IssueEditor applies ownership changes in a single attempt each.
type IssueEditor interface {
	AssignIssue(ctx context.Context, issueID, accountID string) (*api.Result, error)
	SetReporter(ctx context.Context, issueID, accountID string) (*api.Result, error)
	AddUserToGroup(ctx context.Context, groupID, accountID string) (*api.Result, error)
}

// Applier performs mutations. It never returns an error: every outcome,
// including failures, is logged and reported to the caller.
type Applier struct {
	archiver          Archiver
	issues            IssueEditor
	logger            *slog.Logger
	sleep             api.SleepFunc
	defaultRetryAfter time.Duration
}

// NewApplier creates an Applier. Either dependency may be nil when the
// caller only performs the other kind of mutation.
func NewApplier(archiver Archiver, issues IssueEditor, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{
		archiver:          archiver,
		issues:            issues,
		logger:            logger,
		sleep:             api.Sleep,
		defaultRetryAfter: time.Second,
	}
}

// WithSleep replaces the wait used before the inline archive retry.
func (a *Applier) WithSleep(fn api.SleepFunc) *Applier {
	cp := *a
	cp.sleep = fn
	return &cp
}

// Archive archives conv. A 429 is retried exactly once after the
// server-supplied delay. A 410 or an already_archived error means the channel
// is archived already.
func (a *Applier) Archive(ctx context.Context, conv slack.Conversation, ageDays float64) Outcome {
	if a.archiver == nil {
		a.logger.Error(fmt.Sprintf("ERROR no archiver configured for channel: #%s", conv.Name))
		return OutcomeFailure
	}
	log := a.logger.With("channel_id", conv.ID, "age_days", ageDays)

	res, err := a.archiver.Archive(ctx, conv.ID)
	if err == nil && res != nil && res.Category == api.CategoryRateLimited {
		delay := res.RetryAfter
		if delay <= 0 {
			delay = a.defaultRetryAfter
		}
		log.Error(fmt.Sprintf("Rate limited. Retrying in %s", delay))
		if err := a.sleep(ctx, delay); err != nil {
			log.Error(fmt.Sprintf("ERROR %v archiving channel: #%s", err, conv.Name))
			return OutcomeFailure
		}
		res, err = a.archiver.Archive(ctx, conv.ID)
	}

	switch {
	case err != nil:
		log.Error(fmt.Sprintf("ERROR %v archiving channel: #%s", err, conv.Name))
		return OutcomeFailure
	case res.OK():
		log.Info(fmt.Sprintf("SUCCESS: Channel #%s archived because it was inactive for %.2f days.", conv.Name, ageDays))
		return OutcomeSuccess
	case alreadyArchived(res):
		log.Info(fmt.Sprintf("Channel is already Archived : #%s", conv.Name))
		return OutcomeAlreadyDone
	default:
		log.Error(fmt.Sprintf("ERROR %s archiving channel: #%s", res.Describe(), conv.Name))
		return OutcomeFailure
	}
}

func alreadyArchived(res *api.Result) bool {
	return res.Is(http.StatusGone) || (res != nil && res.VendorError == slack.ErrCodeAlreadyArchived)
}

// Reassign makes accountID the assignee of issue. Only 204 is a success.
func (a *Applier) Reassign(ctx context.Context, issue jira.Issue, accountID string) Outcome {
	if a.issues == nil {
		a.logger.Error(fmt.Sprintf("Failed to reassign issue with ID: %s, no issue editor configured", issue.ID))
		return OutcomeFailure
	}
	res, err := a.issues.AssignIssue(ctx, issue.ID, accountID)
	if ok := a.expect(res, err, http.StatusNoContent); !ok {
		a.logger.Error(fmt.Sprintf("Failed to reassign issue with ID: %s with ERROR code: %s", issue.ID, describe(res, err)), "issue_key", issue.Key)
		return OutcomeFailure
	}
	a.logger.Info(fmt.Sprintf("Jira issue %s was reassigned successfully!", issue.ID), "issue_key", issue.Key, "account_id", accountID)
	return OutcomeSuccess
}

// UpdateReporter makes accountID the reporter of issue. Only 204 is a success.
func (a *Applier) UpdateReporter(ctx context.Context, issue jira.Issue, accountID string) Outcome {
	if a.issues == nil {
		a.logger.Error(fmt.Sprintf("Failed to update reporter of issue with ID: %s, no issue editor configured", issue.ID))
		return OutcomeFailure
	}
	res, err := a.issues.SetReporter(ctx, issue.ID, accountID)
	if ok := a.expect(res, err, http.StatusNoContent); !ok {
		a.logger.Error(fmt.Sprintf("Failed to update reporter of issue with ID: %s with ERROR code: %s", issue.ID, describe(res, err)), "issue_key", issue.Key)
		return OutcomeFailure
	}
	a.logger.Info(fmt.Sprintf("Jira issue reporter %s was updated successfully!", issue.ID), "issue_key", issue.Key, "account_id", accountID)
	return OutcomeSuccess
}

// AddToGroup adds accountID, known by email, to group. Only 201 is a success.
func (a *Applier) AddToGroup(ctx context.Context, group jira.Group, email, accountID string) Outcome {
	if a.issues == nil {
		a.logger.Error(fmt.Sprintf("FAILED to add %s to the group: %s, no group editor configured", email, group.Name))
		return OutcomeFailure
	}
	res, err := a.issues.AddUserToGroup(ctx, group.GroupID, accountID)
	if ok := a.expect(res, err, http.StatusCreated); !ok {
		a.logger.Error(fmt.Sprintf("FAILED to add %s to the group: %s with ERROR code: %s", email, group.Name, describe(res, err)), "group_id", group.GroupID)
		return OutcomeFailure
	}
	a.logger.Info(fmt.Sprintf("%s was added to the group %s successfully!", email, group.Name), "group_id", group.GroupID)
	return OutcomeSuccess
}

func (a *Applier) expect(res *api.Result, err error, status int) bool {
	return err == nil && res.Is(status)
}

func describe(res *api.Result, err error) string {
	if err != nil {
		return err.Error()
	}
	return res.Describe()
}

package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ziadkadry99/janitor/internal/config"
	"github.com/ziadkadry99/janitor/internal/jira"
	"github.com/ziadkadry99/janitor/internal/logging"
	"github.com/ziadkadry99/janitor/internal/mapping"
	"github.com/ziadkadry99/janitor/internal/mutation"
	"github.com/ziadkadry99/janitor/internal/progress"
)

// OwnershipSource enumerates what a user owns in one tenant.
type OwnershipSource interface {
	IssuesOwnedBy(ctx context.Context, role jira.Role, email string) ([]jira.Issue, error)
	UserGroups(ctx context.Context, accountID string) ([]jira.Group, error)
}

// IdentityResolver maps an email to an account id within one tenant.
type IdentityResolver interface {
	Resolve(ctx context.Context, email string) (string, bool)
}

// OwnershipApplier moves issue roles and group memberships.
type OwnershipApplier interface {
	Reassign(ctx context.Context, issue jira.Issue, accountID string) mutation.Outcome
	UpdateReporter(ctx context.Context, issue jira.Issue, accountID string) mutation.Outcome
	AddToGroup(ctx context.Context, group jira.Group, email, accountID string) mutation.Outcome
}

// Step is one kind of ownership moved by a transfer.
type Step string

const (
	StepGroups   Step = "groups"
	StepAssigned Step = "assigned"
	StepReported Step = "reported"
)

// StepsFor returns the steps a mode runs, in execution order.
func StepsFor(mode config.TransferMode) []Step {
	switch mode {
	case config.ModeIssues:
		return []Step{StepAssigned, StepReported}
	case config.ModeAssigned:
		return []Step{StepAssigned}
	case config.ModeReported:
		return []Step{StepReported}
	case config.ModeGroups:
		return []Step{StepGroups}
	default:
		return []Step{StepGroups, StepAssigned, StepReported}
	}
}

// TransferOptions controls a transfer run.
type TransferOptions struct {
	Tenant      string
	Mode        config.TransferMode
	Concurrency int
	DryRun      bool
}

// Transfer moves ownership from source to destination identities within a
// single tenant.
type Transfer struct {
	source   OwnershipSource
	resolver IdentityResolver
	applier  OwnershipApplier
	opts     TransferOptions

	logger   *slog.Logger
	audit    *slog.Logger
	progress progress.Reporter
	out      io.Writer
}

// NewTransfer wires a transfer run. The resolver must be scoped to
// opts.Tenant.
func NewTransfer(source OwnershipSource, resolver IdentityResolver, applier OwnershipApplier, opts TransferOptions, logs *logging.Run, reporter progress.Reporter, out io.Writer) *Transfer {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if out == nil {
		out = io.Discard
	}
	return &Transfer{
		source:   source,
		resolver: resolver,
		applier:  applier,
		opts:     opts,
		logger:   logs.Logger.With("tenant", opts.Tenant),
		audit:    logs.Audit.With("tenant", opts.Tenant),
		progress: reporter,
		out:      out,
	}
}

// Run processes every pair in order. A pair whose destination cannot be
// resolved in the tenant is skipped; failures never stop the run.
func (t *Transfer) Run(ctx context.Context, pairs []mapping.Pair) (Summary, error) {
	start := time.Now()
	tl := &tally{}
	steps := StepsFor(t.opts.Mode)

	t.logger.Info("Transfer started", "mode", t.opts.Mode, "pairs", len(pairs), "dry_run", t.opts.DryRun)
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return tl.snapshot(start), err
		}
		destID, ok := t.resolver.Resolve(ctx, pair.Dest)
		if !ok {
			t.logger.Warn(fmt.Sprintf("Skipping %s: no account for %s in this tenant", pair.Source, pair.Dest))
			tl.skipped()
			continue
		}
		for _, step := range steps {
			var err error
			switch step {
			case StepGroups:
				err = t.transferGroups(ctx, pair, destID, tl)
			case StepAssigned:
				err = t.transferIssues(ctx, jira.RoleAssignee, pair, destID, tl)
			case StepReported:
				err = t.transferIssues(ctx, jira.RoleReporter, pair, destID, tl)
			}
			if err != nil {
				return tl.snapshot(start), err
			}
		}
	}

	s := tl.snapshot(start)
	t.logger.Info("Run Completed!", "summary", s.String(), "elapsed", s.Elapsed)
	return s, nil
}

func (t *Transfer) transferIssues(ctx context.Context, role jira.Role, pair mapping.Pair, destID string, tl *tally) error {
	issues, err := t.source.IssuesOwnedBy(ctx, role, pair.Source)
	if err != nil {
		t.logger.Error(fmt.Sprintf("Failed to fetch Jira issues for user %s: %v", pair.Source, err), "role", role, "fetched", len(issues))
		tl.failed()
		if len(issues) == 0 {
			return nil
		}
	} else {
		t.logger.Info(fmt.Sprintf("Jira issues for user %s were fetched successfully!", pair.Source), "role", role, "count", len(issues))
	}
	fmt.Fprintf(t.out, "%d %s issues for %s\n", len(issues), role, pair.Source)
	for _, issue := range issues {
		t.audit.Info("issue", "role", role, "source", pair.Source, "issue_id", issue.ID, "issue_key", issue.Key)
	}
	tl.enumerated(len(issues))

	t.progress.Start(len(issues), fmt.Sprintf("%s %s", pair.Source, role))
	defer t.progress.Finish()
	return forEach(ctx, t.opts.Concurrency, issues, func(ctx context.Context, issue jira.Issue) {
		defer t.progress.Increment(issue.Key)
		if t.opts.DryRun {
			t.logger.Info(fmt.Sprintf("DRY RUN: Jira issue %s %s would move from %s to %s", issue.ID, role, pair.Source, pair.Dest), "issue_key", issue.Key)
			tl.planned()
			return
		}
		if role == jira.RoleReporter {
			tl.outcome(t.applier.UpdateReporter(ctx, issue, destID))
			return
		}
		tl.outcome(t.applier.Reassign(ctx, issue, destID))
	})
}

func (t *Transfer) transferGroups(ctx context.Context, pair mapping.Pair, destID string, tl *tally) error {
	sourceID, ok := t.resolver.Resolve(ctx, pair.Source)
	if !ok {
		t.logger.Warn(fmt.Sprintf("Skipping group memberships of %s: no account in this tenant", pair.Source))
		tl.skipped()
		return nil
	}
	groups, err := t.source.UserGroups(ctx, sourceID)
	if err != nil {
		t.logger.Error(fmt.Sprintf("FAILED to fetch groups for user: %s. %v", pair.Source, err))
		tl.failed()
		return nil
	}
	t.logger.Info(fmt.Sprintf("Groups for user: %s were fetched successfully!", pair.Source), "count", len(groups))
	fmt.Fprintf(t.out, "%d groups for %s\n", len(groups), pair.Source)
	for _, g := range groups {
		t.audit.Info("group", "source", pair.Source, "group_id", g.GroupID, "name", g.Name)
	}
	tl.enumerated(len(groups))

	return forEach(ctx, t.opts.Concurrency, groups, func(ctx context.Context, g jira.Group) {
		if t.opts.DryRun {
			t.logger.Info(fmt.Sprintf("DRY RUN: %s would be added to the group %s", pair.Dest, g.Name), "group_id", g.GroupID)
			tl.planned()
			return
		}
		tl.outcome(t.applier.AddToGroup(ctx, g, pair.Dest, destID))
	})
}

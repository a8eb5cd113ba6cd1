package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/janitor/internal/activity"
	"github.com/ziadkadry99/janitor/internal/logging"
	"github.com/ziadkadry99/janitor/internal/mutation"
	"github.com/ziadkadry99/janitor/internal/progress"
	"github.com/ziadkadry99/janitor/internal/slack"
)

// ConversationLister enumerates the active conversations of a team.
type ConversationLister interface {
	ListActive(ctx context.Context, team string, vis slack.Visibility) ([]slack.Conversation, error)
}

// ActivityEvaluator decides whether a conversation is stale.
type ActivityEvaluator interface {
	Evaluate(ctx context.Context, team string, conv slack.Conversation) (activity.Verdict, error)
}

// ConversationArchiver archives a stale conversation.
type ConversationArchiver interface {
	Archive(ctx context.Context, conv slack.Conversation, ageDays float64) mutation.Outcome
}

// ArchivalOptions controls an archival run.
type ArchivalOptions struct {
	// Teams are walked in order, enterprise scope first.
	Teams       []string
	Exclude     []string
	Concurrency int
	DryRun      bool
}

// Archival archives inactive conversations across an ordered list of teams.
type Archival struct {
	lister    ConversationLister
	evaluator ActivityEvaluator
	archiver  ConversationArchiver
	opts      ArchivalOptions

	logger   *slog.Logger
	audit    *slog.Logger
	progress progress.Reporter
	out      io.Writer
}

// NewArchival wires an archival run. Console counts go to out.
func NewArchival(lister ConversationLister, evaluator ActivityEvaluator, archiver ConversationArchiver, opts ArchivalOptions, logs *logging.Run, reporter progress.Reporter, out io.Writer) *Archival {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if out == nil {
		out = io.Discard
	}
	return &Archival{
		lister:    lister,
		evaluator: evaluator,
		archiver:  archiver,
		opts:      opts,
		logger:    logs.Logger,
		audit:     logs.Audit,
		progress:  reporter,
		out:       out,
	}
}

// Run walks every team. A conversation already seen under an earlier team
// in the same run is not evaluated again. Per-conversation failures are
// counted, never returned; only cancellation ends the run early.
func (a *Archival) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	t := &tally{}
	seen := make(map[string]bool)

	for _, team := range a.opts.Teams {
		if err := ctx.Err(); err != nil {
			return t.snapshot(start), err
		}

		var candidates []slack.Conversation
		for _, vis := range []slack.Visibility{slack.VisibilityPrivate, slack.VisibilityPublic} {
			convs, err := a.lister.ListActive(ctx, team, vis)
			if err != nil {
				a.logger.Error(fmt.Sprintf("ERROR %v listing %s conversations", err, vis), "team", team, "fetched", len(convs))
				t.failed()
			}
			fmt.Fprintf(a.out, "%d %s conversations in %s\n", len(convs), vis, team)
			for _, c := range convs {
				a.audit.Info("conversation", "team", team, "visibility", vis, "channel_id", c.ID, "name", c.Name)
			}
			t.enumerated(len(convs))
			candidates = append(candidates, convs...)
		}

		var work []slack.Conversation
		for _, c := range candidates {
			switch {
			case seen[c.ID]:
				a.logger.Debug(fmt.Sprintf("Channel #%s already evaluated in this run", c.Name), "team", team, "channel_id", c.ID)
				t.skipped()
			case a.excluded(c.Name):
				a.logger.Info(fmt.Sprintf("Channel #%s is excluded and won't be evaluated.", c.Name), "team", team, "channel_id", c.ID)
				seen[c.ID] = true
				t.skipped()
			default:
				seen[c.ID] = true
				work = append(work, c)
			}
		}

		a.progress.Start(len(work), team)
		err := forEach(ctx, a.opts.Concurrency, work, func(ctx context.Context, c slack.Conversation) {
			a.process(ctx, team, c, t)
			a.progress.Increment("#" + c.Name)
		})
		a.progress.Finish()
		if err != nil {
			return t.snapshot(start), err
		}
	}

	s := t.snapshot(start)
	a.logger.Info("Archival completed", "summary", s.String(), "elapsed", s.Elapsed)
	return s, nil
}

func (a *Archival) process(ctx context.Context, team string, c slack.Conversation, t *tally) {
	verdict, err := a.evaluator.Evaluate(ctx, team, c)
	if err != nil {
		if errors.Is(err, activity.ErrNoActivitySignal) {
			t.skipped()
			return
		}
		t.failed()
		return
	}
	if verdict.Decision != activity.DecisionArchive {
		t.skipped()
		return
	}
	if a.opts.DryRun {
		a.logger.Info(fmt.Sprintf("DRY RUN: Channel #%s would be archived because it was inactive for %.2f days.", c.Name, verdict.AgeDays), "team", team, "channel_id", c.ID)
		t.planned()
		return
	}
	t.outcome(a.archiver.Archive(ctx, c, verdict.AgeDays))
}

func (a *Archival) excluded(name string) bool {
	for _, pattern := range a.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Package activity decides whether a conversation has been idle long enough
// to archive.
package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ziadkadry99/janitor/internal/slack"
)

// DefaultThresholdDays is the inactivity age at which a channel is archived.
const DefaultThresholdDays = 180

// ErrNoActivitySignal is returned when a conversation has no messages but
// does have edit history, so neither age source applies.
var ErrNoActivitySignal = errors.New("no activity signal")

// Decision is the outcome of an evaluation.
type Decision string

const (
	DecisionArchive Decision = "archive"
	DecisionSkip    Decision = "skip"
)

// Basis records which timestamp the age was computed from.
type Basis string

const (
	BasisLastMessage Basis = "last_message"
	BasisCreation    Basis = "creation"
)

// Verdict is the evaluation of one conversation.
type Verdict struct {
	ConversationID string
	Name           string
	AgeDays        float64
	Basis          Basis
	Decision       Decision
}

// Source supplies history and metadata for conversations.
type Source interface {
	History(ctx context.Context, team, channelID string) (*slack.History, error)
	Info(ctx context.Context, team, channelID string) (*slack.ConversationInfo, error)
}

// Evaluator classifies conversations against an inactivity threshold.
type Evaluator struct {
	source        Source
	thresholdDays int
	now           func() time.Time
	logger        *slog.Logger
}

// NewEvaluator creates an Evaluator. A threshold below one falls back to
// DefaultThresholdDays.
func NewEvaluator(source Source, thresholdDays int, logger *slog.Logger) *Evaluator {
	if thresholdDays < 1 {
		thresholdDays = DefaultThresholdDays
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Evaluator{source: source, thresholdDays: thresholdDays, now: time.Now, logger: logger}
}

// WithClock replaces the time source, for tests.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	cp := *e
	cp.now = now
	return &cp
}

// Evaluate computes the age of a conversation from its latest message, or
// from its creation time when it has neither messages nor edits, and
// compares it to the threshold. The verdict is logged whatever the decision.
func (e *Evaluator) Evaluate(ctx context.Context, team string, conv slack.Conversation) (Verdict, error) {
	v := Verdict{ConversationID: conv.ID, Name: conv.Name}

	history, err := e.source.History(ctx, team, conv.ID)
	if err != nil {
		e.logger.Error(fmt.Sprintf("ERROR %v fetching last activity date for a channel: #%s", err, conv.Name), "channel_id", conv.ID)
		return v, err
	}

	switch {
	case len(history.Messages) > 0:
		last, err := history.Messages[0].Time()
		if err != nil {
			e.logger.Error(fmt.Sprintf("ERROR %v reading last message of channel: #%s", err, conv.Name), "channel_id", conv.ID)
			return v, err
		}
		v.Basis = BasisLastMessage
		v.AgeDays = AgeDays(e.now(), last)

	case !history.HasEdits:
		info, err := e.source.Info(ctx, team, conv.ID)
		if err != nil {
			e.logger.Error(fmt.Sprintf("ERROR %v fetching channel's info: #%s", err, conv.Name), "channel_id", conv.ID)
			return v, err
		}
		v.Basis = BasisCreation
		v.AgeDays = AgeDays(e.now(), info.CreatedAt())

	default:
		e.logger.Warn(fmt.Sprintf("Channel #%s has edits but no messages, skipping", conv.Name), "channel_id", conv.ID)
		return v, fmt.Errorf("channel %s: %w", conv.ID, ErrNoActivitySignal)
	}

	v.Decision = Decide(v.AgeDays, e.thresholdDays)
	e.logVerdict(v)
	return v, nil
}

func (e *Evaluator) logVerdict(v Verdict) {
	attrs := []any{"channel_id", v.ConversationID, "age_days", v.AgeDays, "basis", v.Basis, "decision", v.Decision}
	if v.Decision == DecisionArchive {
		e.logger.Info(fmt.Sprintf("Channel #%s has been inactive for %.2f days and will be archived.", v.Name, v.AgeDays), attrs...)
		return
	}
	if v.Basis == BasisCreation {
		e.logger.Info(fmt.Sprintf("Channel #%s was created %.2f days ago and won't be archived.", v.Name, v.AgeDays), attrs...)
		return
	}
	e.logger.Info(fmt.Sprintf("Channel #%s was last active %.2f days ago and won't be archived.", v.Name, v.AgeDays), attrs...)
}

// Decide archives when ageDays is at least thresholdDays.
func Decide(ageDays float64, thresholdDays int) Decision {
	if ageDays >= float64(thresholdDays) {
		return DecisionArchive
	}
	return DecisionSkip
}

// AgeDays returns the fractional number of days between then and now.
func AgeDays(now, then time.Time) float64 {
	return now.Sub(then).Hours() / 24
}

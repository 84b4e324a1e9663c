package bookingwindow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"bookingrule/internal/app/policies"
	"bookingrule/internal/app/warnings"
	"bookingrule/internal/domain/availability"
	"bookingrule/internal/domain/rules"
	"bookingrule/internal/domain/shared/daterange"
	"bookingrule/internal/domain/shared/events"
)

// Metrics receives engine observations. All methods must be safe for concurrent use.
type Metrics interface {
	OutcomeRecorded(kind OutcomeKind)
	WarningShown(kind policies.WarningKind)
	BlockedSetSize(n int)
}

// Options configures a Factory. A nil Rules or Blocked source leaves every
// engine inert.
type Options struct {
	Rules   rules.Source
	Blocked policies.BlockedDateSource
	Catalog warnings.Catalog
	Format  daterange.Format
	Metrics Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// Factory builds engines that share configuration but not state.
type Factory struct {
	opts     Options
	resolver *Resolver
}

func NewFactory(opts Options) *Factory {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Factory{opts: opts, resolver: NewResolver(opts.Rules, opts.Logger)}
}

func (f *Factory) Resolver() *Resolver { return f.resolver }

// New returns an engine working on a copy of session. Warnings go to notifier.
func (f *Factory) New(session Session, notifier policies.Notifier) *Engine {
	return &Engine{opts: f.opts, resolver: f.resolver, session: session, notifier: notifier}
}

// Engine validates the pickup and drop-off fields of one widget session.
// It is not safe for concurrent use.
type Engine struct {
	opts     Options
	resolver *Resolver
	session  Session
	notifier policies.Notifier
	events.EventRecorder
}

func (e *Engine) Session() Session { return e.session }

func (e *Engine) configured() bool {
	return e.opts.Rules != nil && e.opts.Blocked != nil
}

func (e *Engine) active() bool {
	return e.configured() && e.session.Rule.Active()
}

// OnSelectorChanged replaces the active rule and clears both fields and the
// warning suppression state. Hosts call it once at start with the preselected value.
func (e *Engine) OnSelectorChanged(ctx context.Context, selectorID string) rules.Rule {
	selectorID = strings.TrimSpace(selectorID)
	rule := rules.NoRule
	if e.configured() {
		rule = e.resolver.Resolve(ctx, selectorID)
	}
	e.session.SelectorID = selectorID
	e.session.Rule = rule
	e.session.Pickup = ""
	e.session.Dropoff = ""
	e.session.LastWarned = ""
	e.touch()
	e.opts.Logger.DebugContext(ctx, "rule resolved", "session_id", e.session.ID, "selector_id", selectorID, "kind", rule.Kind, "nights", rule.Nights)
	return rule
}

func (e *Engine) OnPickupSelected(ctx context.Context, value string) Outcome {
	e.session.Pickup = value
	e.touch()
	return e.observe(e.pickup(ctx, strings.TrimSpace(value)))
}

func (e *Engine) OnDropoffEdited(ctx context.Context, value string) Outcome {
	e.session.Dropoff = value
	e.touch()
	return e.observe(e.dropoff(ctx, strings.TrimSpace(value)))
}

func (e *Engine) pickup(ctx context.Context, value string) Outcome {
	if !e.active() {
		return inert()
	}
	if value == "" {
		e.session.Dropoff = ""
		return inert()
	}
	start, err := e.opts.Format.Parse(value)
	if err != nil {
		e.opts.Logger.DebugContext(ctx, "pickup not parseable yet", "session_id", e.session.ID, "value", value, "error", err)
		return incomplete()
	}
	rule := e.session.Rule

	if !rule.AllowsWeekday(start.Weekday()) {
		e.clearFields()
		e.warn(ctx, warnings.Details{
			Kind:         policies.WarningWeekdayNotAllowed,
			Date:         value,
			RequiredDays: rule.Nights,
			Allowed:      rule.AllowedWeekdays.Weekdays(),
		})
		out := Outcome{Kind: OutcomeRejectedWeekday, Date: value, Allowed: rule.AllowedWeekdays}
		e.recordRejected(out)
		return out
	}

	blocked, err := e.opts.Blocked.BlockedDates(ctx, e.session.SelectorID)
	if err != nil {
		e.opts.Logger.WarnContext(ctx, "blocked dates unavailable, skipping validation", "session_id", e.session.ID, "selector_id", e.session.SelectorID, "error", err)
		return inert()
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.BlockedSetSize(blocked.Len())
	}

	nights := rule.AdditionalNights()
	if conflict, busy := availability.FirstConflict(start, nights, blocked); busy {
		out := Outcome{
			Kind:         OutcomeRejectedUnavailable,
			Date:         value,
			RequiredDays: rule.Nights,
			Conflict:     e.opts.Format.Format(conflict),
		}
		if e.session.LastWarned == value {
			out.Suppressed = true
			return out
		}
		e.session.LastWarned = value
		e.warn(ctx, warnings.Details{Kind: policies.WarningUnavailable, Date: value, RequiredDays: rule.Nights})
		e.clearFields()
		e.recordRejected(out)
		return out
	}

	e.session.LastWarned = ""
	end := start.AddDays(nights)
	e.session.Dropoff = e.opts.Format.Format(end)
	// the programmatic drop-off write is validated like a manual edit; that path never re-enters pickup
	return e.validateDropoff(ctx, start, end, e.session.Dropoff)
}

func (e *Engine) dropoff(ctx context.Context, value string) Outcome {
	if !e.active() {
		return inert()
	}
	pickup := strings.TrimSpace(e.session.Pickup)
	if pickup == "" || value == "" {
		return incomplete()
	}
	start, err := e.opts.Format.Parse(pickup)
	if err != nil {
		return incomplete()
	}
	end, err := e.opts.Format.Parse(value)
	if err != nil {
		return incomplete()
	}
	return e.validateDropoff(ctx, start, end, value)
}

func (e *Engine) validateDropoff(ctx context.Context, start, end daterange.Date, text string) Outcome {
	rule := e.session.Rule
	diff := daterange.DaysBetween(start, end)
	if !rule.AcceptsLength(diff) {
		selected := 0
		if diff >= 0 {
			selected = diff + 1
		}
		e.session.Dropoff = ""
		e.warn(ctx, warnings.Details{
			Kind:         policies.WarningLengthMismatch,
			Date:         text,
			RequiredDays: rule.Nights,
			SelectedDays: selected,
			MinimumOnly:  rule.MinimumOnly,
		})
		out := Outcome{
			Kind:           OutcomeRejectedLengthMismatch,
			Date:           text,
			ExpectedNights: rule.AdditionalNights(),
			ActualNights:   diff,
		}
		e.recordRejected(out)
		return out
	}
	e.Record(WindowAccepted{
		SessionID:   e.session.ID,
		InventoryID: e.session.SelectorID,
		Pickup:      start,
		Dropoff:     end,
		Nights:      rule.Nights,
		At:          e.opts.Now().UTC(),
	})
	return Outcome{Kind: OutcomeAccepted, Date: text, Recalculate: true}
}

func (e *Engine) warn(ctx context.Context, d warnings.Details) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.WarningShown(d.Kind)
	}
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, e.opts.Catalog.Render(d))
}

func (e *Engine) recordRejected(out Outcome) {
	e.Record(WindowRejected{
		SessionID:   e.session.ID,
		InventoryID: e.session.SelectorID,
		Outcome:     out.Kind,
		Date:        out.Date,
		At:          e.opts.Now().UTC(),
	})
}

func (e *Engine) observe(out Outcome) Outcome {
	if e.opts.Metrics != nil {
		e.opts.Metrics.OutcomeRecorded(out.Kind)
	}
	return out
}

func (e *Engine) clearFields() {
	e.session.Pickup = ""
	e.session.Dropoff = ""
}

func (e *Engine) touch() {
	e.session.UpdatedAt = e.opts.Now().UTC()
}

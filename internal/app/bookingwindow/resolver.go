package bookingwindow

import (
	"context"
	"log/slog"

	"bookingrule/internal/domain/rules"
)

// Resolver maps a selector id to its active rule. Lookup failures and broken
// entries resolve to NoRule so a bad configuration never blocks a booking.
type Resolver struct {
	source rules.Source
	logger *slog.Logger
}

func NewResolver(source rules.Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{source: source, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, selectorID string) rules.Rule {
	if r == nil || r.source == nil || selectorID == "" {
		return rules.NoRule
	}
	entry, ok, err := r.source.Lookup(ctx, selectorID)
	if err != nil {
		r.logger.WarnContext(ctx, "rule lookup failed", "selector_id", selectorID, "error", err)
		return rules.NoRule
	}
	if !ok {
		return rules.NoRule
	}
	rule, err := rules.Compile(entry)
	if err != nil {
		r.logger.WarnContext(ctx, "ignoring invalid rule entry", "selector_id", selectorID, "error", err)
		return rules.NoRule
	}
	return rule
}

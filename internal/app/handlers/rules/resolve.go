package rules

import (
	"context"
	"strings"

	"bookingrule/internal/app/bookingwindow"
	"bookingrule/internal/app/dto"
	"bookingrule/internal/app/queries"
)

const resolveRuleKey = "rules.resolve"

type ResolveRuleQuery struct {
	SelectorID string `validate:"required,max=128"`
}

func (q ResolveRuleQuery) Key() string { return resolveRuleKey }

type ResolveRuleHandler struct {
	Resolver *bookingwindow.Resolver
}

func (h *ResolveRuleHandler) Handle(ctx context.Context, q ResolveRuleQuery) (dto.RuleView, error) {
	id := strings.TrimSpace(q.SelectorID)
	return dto.MapRule(id, h.Resolver.Resolve(ctx, id)), nil
}

func Register(qs *queries.InMemoryBus, resolver *bookingwindow.Resolver) {
	queries.Register[ResolveRuleQuery, dto.RuleView](qs, &ResolveRuleHandler{Resolver: resolver})
}

var _ queries.Handler[ResolveRuleQuery, dto.RuleView] = (*ResolveRuleHandler)(nil)

package dto

import "bookingrule/internal/domain/rules"

type RuleView struct {
	SelectorID string     `json:"selector_id"`
	Active     bool       `json:"active"`
	Rule       rules.Rule `json:"rule"`
}

func MapRule(selectorID string, rule rules.Rule) RuleView {
	return RuleView{SelectorID: selectorID, Active: rule.Active(), Rule: rule}
}

package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Source looks up the rule entry for a selector id. A missing entry is not an error.
type Source interface {
	Lookup(ctx context.Context, selectorID string) (Entry, bool, error)
}

// Table maps selector ids to rule entries.
type Table map[string]Entry

func (t Table) Lookup(_ context.Context, selectorID string) (Entry, bool, error) {
	e, ok := t[selectorID]
	return e, ok, nil
}

// IDs returns the selector ids in sorted order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate compiles every entry and reports the first broken one.
func (t Table) Validate() error {
	for _, id := range t.IDs() {
		if _, err := Compile(t[id]); err != nil {
			return fmt.Errorf("selector %s: %w", id, err)
		}
	}
	return nil
}

type wrappedTable struct {
	InventoryRules Table `json:"inventory_rules"`
}

// ParseTable reads either a bare id->entry object or one wrapped as {"inventory_rules": {...}}.
func ParseTable(data []byte) (Table, error) {
	var wrapped wrappedTable
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.InventoryRules != nil {
		return wrapped.InventoryRules, nil
	}
	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("rules: parse table: %w", err)
	}
	if table == nil {
		table = Table{}
	}
	return table, nil
}

package rulesource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"bookingrule/internal/domain/rules"
)

// Loader produces a complete rule table.
type Loader interface {
	Load(ctx context.Context) (rules.Table, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (rules.Table, error)

func (f LoaderFunc) Load(ctx context.Context) (rules.Table, error) { return f(ctx) }

// File reads the table from a JSON file on every Load.
type File struct {
	Path string
}

func (f File) Load(context.Context) (rules.Table, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("rulesource: read %s: %w", f.Path, err)
	}
	return rules.ParseTable(data)
}

// Snapshot serves lookups from the last loaded table. A failed reload keeps the previous table.
type Snapshot struct {
	loader  Loader
	logger  *slog.Logger
	current atomic.Pointer[rules.Table]
	loaded  atomic.Int64
}

func NewSnapshot(loader Loader, logger *slog.Logger) *Snapshot {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Snapshot{loader: loader, logger: logger}
	empty := rules.Table{}
	s.current.Store(&empty)
	return s
}

func (s *Snapshot) Lookup(_ context.Context, selectorID string) (rules.Entry, bool, error) {
	table := *s.current.Load()
	e, ok := table[selectorID]
	return e, ok, nil
}

func (s *Snapshot) Reload(ctx context.Context) error {
	table, err := s.loader.Load(ctx)
	if err != nil {
		return err
	}
	if table == nil {
		table = rules.Table{}
	}
	for _, id := range table.IDs() {
		if _, err := rules.Compile(table[id]); err != nil {
			s.logger.WarnContext(ctx, "rule entry will resolve to no rule", "selector_id", id, "error", err)
		}
	}
	s.current.Store(&table)
	s.loaded.Store(time.Now().UnixNano())
	s.logger.InfoContext(ctx, "rule table loaded", "selectors", len(table))
	return nil
}

// Loaded reports whether at least one reload succeeded.
func (s *Snapshot) Loaded() bool {
	return s.loaded.Load() != 0
}

func (s *Snapshot) Len() int {
	return len(*s.current.Load())
}

// Watch reloads every interval until ctx ends.
func (s *Snapshot) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil {
				s.logger.WarnContext(ctx, "rule table reload failed, keeping previous", "error", err)
			}
		}
	}
}

var _ rules.Source = (*Snapshot)(nil)

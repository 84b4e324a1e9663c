package queries

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrHandlerNotFound = errors.New("queries: handler not found")
	ErrInvalidQuery    = errors.New("queries: invalid query for handler")
	ErrResultType      = errors.New("queries: result type mismatch")
	ErrNilBus          = errors.New("queries: nil bus")
)

type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

type HandlerFunc[Q Query, R any] func(ctx context.Context, query Q) (R, error)

func (f HandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

// InMemoryBus answers read-only queries; safe for concurrent use.
type InMemoryBus struct {
	mu     sync.RWMutex
	routes map[string]func(ctx context.Context, query Query) (any, error)
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]func(ctx context.Context, query Query) (any, error))}
}

// Register binds handler to the key of Q. Registering a key twice panics.
func Register[Q Query, R any](bus *InMemoryBus, handler Handler[Q, R]) {
	if bus == nil || handler == nil {
		panic("queries: register needs a bus and a handler")
	}
	var zero Q
	key := zero.Key()
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, dup := bus.routes[key]; dup {
		panic(fmt.Sprintf("queries: duplicate registration for %s", key))
	}
	bus.routes[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidQuery, key, raw)
		}
		return handler.Handle(ctx, q)
	}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	b.mu.RLock()
	r, ok := b.routes[query.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return r(ctx, query)
}

func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, query.Key(), res)
	}
	return value, nil
}

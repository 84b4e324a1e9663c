package middleware

import (
	"context"

	"bookingrule/internal/app/commands"
	"bookingrule/internal/app/outbox"
)

// OutboxFlush flushes the outbox after every successful command so the
// publisher sees new records without waiting for its next poll.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}

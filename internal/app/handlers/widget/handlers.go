package widget

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bookingrule/internal/app/bookingwindow"
	"bookingrule/internal/app/commands"
	"bookingrule/internal/app/dto"
	"bookingrule/internal/app/outbox"
	"bookingrule/internal/app/queries"
	"bookingrule/internal/app/warnings"
)

var ErrNotConfigured = errors.New("widget: handler missing dependencies")

// Locker serializes work on one session id.
type Locker interface {
	Lock(key string) (unlock func())
}

// Deps is shared by every widget handler.
type Deps struct {
	Sessions bookingwindow.SessionRepository
	Engines  *bookingwindow.Factory
	Locks    Locker
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	NewID    func() string
}

type step func(ctx context.Context, engine *bookingwindow.Engine) *bookingwindow.Outcome

// saveAttempts bounds how often run re-reads a session that another
// instance saved in between.
const saveAttempts = 3

// run loads the session under its lock, applies fn, stores the result and
// hands recorded events to the outbox. The lock only covers this process, so
// a conflicting save from elsewhere replays fn on the fresh session.
func (d Deps) run(ctx context.Context, sessionID string, fn step) (*dto.SessionView, error) {
	if d.Sessions == nil || d.Engines == nil {
		return nil, ErrNotConfigured
	}
	if d.Locks != nil {
		unlock := d.Locks.Lock(sessionID)
		defer unlock()
	}
	var err error
	for range saveAttempts {
		var session bookingwindow.Session
		session, err = d.Sessions.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		var view *dto.SessionView
		view, err = d.apply(ctx, session, fn)
		if !errors.Is(err, bookingwindow.ErrSessionConflict) {
			return view, err
		}
	}
	return nil, err
}

func (d Deps) apply(ctx context.Context, session bookingwindow.Session, fn step) (*dto.SessionView, error) {
	notes := &warnings.Collector{}
	engine := d.Engines.New(session, notes)
	outcome := fn(ctx, engine)
	updated := engine.Session()
	if err := d.Sessions.Save(ctx, updated); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, d.Outbox, d.encoder(), engine.Drain()); err != nil {
		return nil, err
	}
	view := dto.MapSession(updated, outcome, notes.Warnings())
	return &view, nil
}

func (d Deps) encoder() outbox.EventEncoder {
	if d.Encoder != nil {
		return d.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (d Deps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

type OpenSessionHandler struct{ Deps }

func (h *OpenSessionHandler) Handle(ctx context.Context, cmd OpenSessionCommand) (*dto.SessionView, error) {
	if h.Sessions == nil || h.Engines == nil {
		return nil, ErrNotConfigured
	}
	session := bookingwindow.Session{ID: h.newID(), UpdatedAt: time.Now().UTC()}
	return h.apply(ctx, session, func(ctx context.Context, e *bookingwindow.Engine) *bookingwindow.Outcome {
		e.OnSelectorChanged(ctx, cmd.SelectorID)
		return nil
	})
}

type ChangeInventoryHandler struct{ Deps }

func (h *ChangeInventoryHandler) Handle(ctx context.Context, cmd ChangeInventoryCommand) (*dto.SessionView, error) {
	return h.run(ctx, cmd.SessionID, func(ctx context.Context, e *bookingwindow.Engine) *bookingwindow.Outcome {
		e.OnSelectorChanged(ctx, cmd.SelectorID)
		return nil
	})
}

type SelectPickupHandler struct{ Deps }

func (h *SelectPickupHandler) Handle(ctx context.Context, cmd SelectPickupCommand) (*dto.SessionView, error) {
	return h.run(ctx, cmd.SessionID, func(ctx context.Context, e *bookingwindow.Engine) *bookingwindow.Outcome {
		out := e.OnPickupSelected(ctx, cmd.Value)
		return &out
	})
}

type EditDropoffHandler struct{ Deps }

func (h *EditDropoffHandler) Handle(ctx context.Context, cmd EditDropoffCommand) (*dto.SessionView, error) {
	return h.run(ctx, cmd.SessionID, func(ctx context.Context, e *bookingwindow.Engine) *bookingwindow.Outcome {
		out := e.OnDropoffEdited(ctx, cmd.Value)
		return &out
	})
}

type GetSessionHandler struct {
	Sessions bookingwindow.SessionRepository
}

func (h *GetSessionHandler) Handle(ctx context.Context, q GetSessionQuery) (dto.SessionView, error) {
	if h.Sessions == nil {
		return dto.SessionView{}, ErrNotConfigured
	}
	session, err := h.Sessions.Get(ctx, q.SessionID)
	if err != nil {
		return dto.SessionView{}, err
	}
	return dto.MapSession(session, nil, nil), nil
}

// Register wires the widget handlers onto the buses.
func Register(cmds *commands.InMemoryBus, qs *queries.InMemoryBus, deps Deps) {
	commands.Register[OpenSessionCommand, *dto.SessionView](cmds, &OpenSessionHandler{deps})
	commands.Register[ChangeInventoryCommand, *dto.SessionView](cmds, &ChangeInventoryHandler{deps})
	commands.Register[SelectPickupCommand, *dto.SessionView](cmds, &SelectPickupHandler{deps})
	commands.Register[EditDropoffCommand, *dto.SessionView](cmds, &EditDropoffHandler{deps})
	queries.Register[GetSessionQuery, dto.SessionView](qs, &GetSessionHandler{Sessions: deps.Sessions})
}

var (
	_ commands.Handler[OpenSessionCommand, *dto.SessionView]     = (*OpenSessionHandler)(nil)
	_ commands.Handler[ChangeInventoryCommand, *dto.SessionView] = (*ChangeInventoryHandler)(nil)
	_ commands.Handler[SelectPickupCommand, *dto.SessionView]    = (*SelectPickupHandler)(nil)
	_ commands.Handler[EditDropoffCommand, *dto.SessionView]     = (*EditDropoffHandler)(nil)
	_ queries.Handler[GetSessionQuery, dto.SessionView]          = (*GetSessionHandler)(nil)
)

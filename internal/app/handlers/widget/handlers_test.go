package widget

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingrule/internal/app/bookingwindow"
	"bookingrule/internal/app/commands"
	"bookingrule/internal/app/dto"
	"bookingrule/internal/app/queries"
	"bookingrule/internal/app/warnings"
	"bookingrule/internal/domain/rules"
	"bookingrule/internal/domain/shared/daterange"
	"bookingrule/internal/infra/storage/memory"
)

type fixture struct {
	cmds   *commands.InMemoryBus
	qs     *queries.InMemoryBus
	outbox *memory.Outbox
	cals   *memory.AvailabilityRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := warnings.NewCatalog(warnings.LocaleGerman, warnings.ModeModal)
	require.NoError(t, err)
	cals := memory.NewAvailabilityRepository()
	factory := bookingwindow.NewFactory(bookingwindow.Options{
		Rules:   rules.Table{"car": {Days: 4}, "van": {Days: 2}},
		Blocked: bookingwindow.CalendarBlockedDates{Calendars: cals},
		Catalog: catalog,
		Format:  daterange.MustFormat(daterange.DayMonthYear),
	})
	f := &fixture{cmds: commands.NewInMemoryBus(), qs: queries.NewInMemoryBus(), outbox: memory.NewOutbox(), cals: cals}
	counter := 0
	var mu sync.Mutex
	Register(f.cmds, f.qs, Deps{
		Sessions: memory.NewSessionRepository(0),
		Engines:  factory,
		Locks:    memory.NewKeyedMutex(),
		Outbox:   f.outbox,
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			counter++
			return fmt.Sprintf("sess-%d", counter)
		},
	})
	return f
}

func (f *fixture) open(t *testing.T, selector string) *dto.SessionView {
	t.Helper()
	view, err := commands.Dispatch[OpenSessionCommand, *dto.SessionView](context.Background(), f.cmds, OpenSessionCommand{SelectorID: selector})
	require.NoError(t, err)
	return view
}

func TestOpenSessionResolvesRule(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, " car ")
	assert.Equal(t, "sess-1", view.ID)
	assert.Equal(t, "car", view.SelectorID)
	assert.Equal(t, 4, view.Rule.Nights)
	assert.Nil(t, view.Outcome)

	stored, err := queries.Ask[GetSessionQuery, dto.SessionView](context.Background(), f.qs, GetSessionQuery{SessionID: view.ID})
	require.NoError(t, err)
	assert.Equal(t, "car", stored.SelectorID)
}

func TestPickupThenInventoryChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	view := f.open(t, "car")

	after, err := commands.Dispatch[SelectPickupCommand, *dto.SessionView](ctx, f.cmds, SelectPickupCommand{SessionID: view.ID, Value: "01/06/2024"})
	require.NoError(t, err)
	assert.Equal(t, bookingwindow.OutcomeAccepted, after.Outcome.Kind)
	assert.Equal(t, "04/06/2024", after.Dropoff)
	assert.True(t, after.Recalculate)
	assert.Equal(t, 1, f.outbox.Pending())

	changed, err := commands.Dispatch[ChangeInventoryCommand, *dto.SessionView](ctx, f.cmds, ChangeInventoryCommand{SessionID: view.ID, SelectorID: "van"})
	require.NoError(t, err)
	assert.Empty(t, changed.Pickup)
	assert.Empty(t, changed.Dropoff)
	assert.Equal(t, 2, changed.Rule.Nights)

	dropoff, err := commands.Dispatch[EditDropoffCommand, *dto.SessionView](ctx, f.cmds, EditDropoffCommand{SessionID: view.ID, Value: "05/06/2024"})
	require.NoError(t, err)
	assert.Equal(t, bookingwindow.OutcomeIncomplete, dropoff.Outcome.Kind)
}

func TestWarningsAreReturnedPerRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	view := f.open(t, "car")
	_, err := commands.Dispatch[SelectPickupCommand, *dto.SessionView](ctx, f.cmds, SelectPickupCommand{SessionID: view.ID, Value: "01/06/2024"})
	require.NoError(t, err)

	bad, err := commands.Dispatch[EditDropoffCommand, *dto.SessionView](ctx, f.cmds, EditDropoffCommand{SessionID: view.ID, Value: "02/06/2024"})
	require.NoError(t, err)
	require.Len(t, bad.Warnings, 1)
	assert.Contains(t, bad.Warnings[0].Body, "umfasst nur 2 Tage")

	again, err := queries.Ask[GetSessionQuery, dto.SessionView](ctx, f.qs, GetSessionQuery{SessionID: view.ID})
	require.NoError(t, err)
	assert.Empty(t, again.Warnings)
	assert.Empty(t, again.Dropoff)
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := commands.Dispatch[SelectPickupCommand, *dto.SessionView](context.Background(), f.cmds, SelectPickupCommand{SessionID: "nope", Value: "01/06/2024"})
	assert.ErrorIs(t, err, bookingwindow.ErrSessionNotFound)
}

func TestConcurrentEditsOnOneSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	view := f.open(t, "car")

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_, err := commands.Dispatch[SelectPickupCommand, *dto.SessionView](ctx, f.cmds, SelectPickupCommand{
				SessionID: view.ID,
				Value:     fmt.Sprintf("%02d/06/2024", day),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := queries.Ask[GetSessionQuery, dto.SessionView](ctx, f.qs, GetSessionQuery{SessionID: view.ID})
	require.NoError(t, err)
	start, err := daterange.MustFormat(daterange.DayMonthYear).Parse(final.Pickup)
	require.NoError(t, err)
	assert.Equal(t, start.AddDays(3).String(), mustISO(t, final.Dropoff))
	assert.Equal(t, 10, f.outbox.Pending())
}

func mustISO(t *testing.T, value string) string {
	t.Helper()
	d, err := daterange.MustFormat(daterange.DayMonthYear).Parse(value)
	require.NoError(t, err)
	return d.String()
}

func TestMissingDependencies(t *testing.T) {
	h := &SelectPickupHandler{}
	_, err := h.Handle(context.Background(), SelectPickupCommand{SessionID: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// racingSessions lets another instance save the session right after each Get.
type racingSessions struct {
	bookingwindow.SessionRepository
	races int
	other func(ctx context.Context)
}

func (r *racingSessions) Get(ctx context.Context, id string) (bookingwindow.Session, error) {
	s, err := r.SessionRepository.Get(ctx, id)
	if err == nil && r.races > 0 {
		r.races--
		r.other(ctx)
	}
	return s, err
}

func newSharedStoreDeps(t *testing.T, sessions bookingwindow.SessionRepository, box *memory.Outbox) Deps {
	t.Helper()
	catalog, err := warnings.NewCatalog(warnings.LocaleEnglish, warnings.ModeAlert)
	require.NoError(t, err)
	factory := bookingwindow.NewFactory(bookingwindow.Options{
		Rules:   rules.Table{"car": {Days: 4}, "van": {Days: 2}},
		Blocked: bookingwindow.CalendarBlockedDates{Calendars: memory.NewAvailabilityRepository()},
		Catalog: catalog,
		Format:  daterange.MustFormat(daterange.DayMonthYear),
	})
	return Deps{Sessions: sessions, Engines: factory, Locks: memory.NewKeyedMutex(), Outbox: box, NewID: func() string { return "shared" }}
}

func TestEditFromOtherInstanceIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionRepository(0)
	box := memory.NewOutbox()
	instanceA := newSharedStoreDeps(t, store, box)

	_, err := (&OpenSessionHandler{instanceA}).Handle(ctx, OpenSessionCommand{SelectorID: "car"})
	require.NoError(t, err)

	racing := &racingSessions{SessionRepository: store, races: 1, other: func(ctx context.Context) {
		_, err := (&ChangeInventoryHandler{instanceA}).Handle(ctx, ChangeInventoryCommand{SessionID: "shared", SelectorID: "van"})
		require.NoError(t, err)
	}}
	instanceB := newSharedStoreDeps(t, racing, box)

	view, err := (&SelectPickupHandler{instanceB}).Handle(ctx, SelectPickupCommand{SessionID: "shared", Value: "01/06/2024"})
	require.NoError(t, err)
	assert.Equal(t, "van", view.SelectorID)
	assert.Equal(t, 2, view.Rule.Nights)
	assert.Equal(t, "02/06/2024", view.Dropoff, "pickup replayed under the new rule")
	assert.Equal(t, 1, box.Pending(), "only the replayed acceptance is published")

	stored, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "van", stored.SelectorID)
	assert.Equal(t, "02/06/2024", stored.Dropoff)
}

func TestPersistentConflictIsReported(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionRepository(0)
	box := memory.NewOutbox()
	instanceA := newSharedStoreDeps(t, store, box)
	_, err := (&OpenSessionHandler{instanceA}).Handle(ctx, OpenSessionCommand{SelectorID: "car"})
	require.NoError(t, err)

	racing := &racingSessions{SessionRepository: store, races: saveAttempts, other: func(ctx context.Context) {
		_, err := (&ChangeInventoryHandler{instanceA}).Handle(ctx, ChangeInventoryCommand{SessionID: "shared", SelectorID: "car"})
		require.NoError(t, err)
	}}
	_, err = (&SelectPickupHandler{newSharedStoreDeps(t, racing, box)}).Handle(ctx, SelectPickupCommand{SessionID: "shared", Value: "01/06/2024"})
	assert.ErrorIs(t, err, bookingwindow.ErrSessionConflict)
	assert.Zero(t, box.Pending())
}

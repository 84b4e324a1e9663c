package bookingwindow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingrule/internal/app/policies"
	"bookingrule/internal/app/warnings"
	"bookingrule/internal/domain/availability"
	"bookingrule/internal/domain/rules"
	"bookingrule/internal/domain/shared/daterange"
)

type stubBlocked struct {
	dates map[string][]daterange.Date
	err   error
	calls int
}

func (s *stubBlocked) BlockedDates(_ context.Context, inventoryID string) (availability.BlockedDates, error) {
	s.calls++
	if s.err != nil {
		return availability.BlockedDates{}, s.err
	}
	return availability.NewBlockedDates(s.dates[inventoryID]...), nil
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[OutcomeKind]int
	warnings map[policies.WarningKind]int
	sizes    []int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: map[OutcomeKind]int{}, warnings: map[policies.WarningKind]int{}}
}

func (m *countingMetrics) OutcomeRecorded(kind OutcomeKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[kind]++
}

func (m *countingMetrics) WarningShown(kind policies.WarningKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings[kind]++
}

func (m *countingMetrics) BlockedSetSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sizes = append(m.sizes, n)
}

var fixedNow = time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC)

func june(d int) daterange.Date {
	return daterange.MustNew(2024, time.June, d)
}

func testTable() rules.Table {
	return rules.Table{
		"car":   {Days: 4},
		"van":   {Days: 3, Weekdays: []string{"friday"}},
		"bike":  {Days: 3, MinOnly: true},
		"day":   {Days: 1},
		"other": {Days: 2},
	}
}

type harness struct {
	engine  *Engine
	blocked *stubBlocked
	notes   *warnings.Collector
	metrics *countingMetrics
}

func newHarness(t *testing.T, selector string, blocked ...daterange.Date) *harness {
	t.Helper()
	catalog, err := warnings.NewCatalog(warnings.LocaleGerman, warnings.ModeModal)
	require.NoError(t, err)
	source := &stubBlocked{dates: map[string][]daterange.Date{selector: blocked}}
	metrics := newCountingMetrics()
	factory := NewFactory(Options{
		Rules:   testTable(),
		Blocked: source,
		Catalog: catalog,
		Format:  daterange.MustFormat(daterange.DayMonthYear),
		Metrics: metrics,
		Now:     func() time.Time { return fixedNow },
	})
	notes := &warnings.Collector{}
	engine := factory.New(Session{ID: "sess-1"}, notes)
	engine.OnSelectorChanged(context.Background(), selector)
	return &harness{engine: engine, blocked: source, notes: notes, metrics: metrics}
}

func TestPickupAcceptedFillsDropoff(t *testing.T) {
	h := newHarness(t, "car")
	ctx := context.Background()

	out := h.engine.OnPickupSelected(ctx, "01/06/2024")
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.Equal(t, "04/06/2024", out.Date)
	assert.True(t, out.Recalculate)
	assert.Equal(t, "04/06/2024", h.engine.Session().Dropoff)
	assert.Empty(t, h.notes.Warnings())

	evs := h.engine.Drain()
	require.Len(t, evs, 1)
	accepted, ok := evs[0].(WindowAccepted)
	require.True(t, ok)
	assert.Equal(t, june(1), accepted.Pickup)
	assert.Equal(t, june(4), accepted.Dropoff)
	assert.Equal(t, "car", accepted.InventoryID)
	assert.Equal(t, "sess-1", accepted.AggregateID())
}

func TestDropoffExactLength(t *testing.T) {
	h := newHarness(t, "car")
	ctx := context.Background()
	h.engine.OnPickupSelected(ctx, "01/06/2024")
	h.engine.Drain()

	out := h.engine.OnDropoffEdited(ctx, "04/06/2024")
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.True(t, out.Recalculate)

	out = h.engine.OnDropoffEdited(ctx, "03/06/2024")
	assert.Equal(t, OutcomeRejectedLengthMismatch, out.Kind)
	assert.Equal(t, 3, out.ExpectedNights)
	assert.Equal(t, 2, out.ActualNights)
	assert.Equal(t, "01/06/2024", h.engine.Session().Pickup, "pickup is kept")
	assert.Empty(t, h.engine.Session().Dropoff)

	notes := h.notes.Warnings()
	require.Len(t, notes, 1)
	assert.Equal(t, policies.WarningLengthMismatch, notes[0].Kind)
	assert.Contains(t, notes[0].Body, "nur 3 Tage")

	out = h.engine.OnDropoffEdited(ctx, "06/06/2024")
	assert.Equal(t, OutcomeRejectedLengthMismatch, out.Kind, "longer stays are rejected too")
}

func TestDropoffBeforePickupCountsZeroDays(t *testing.T) {
	h := newHarness(t, "car")
	ctx := context.Background()
	h.engine.OnPickupSelected(ctx, "05/06/2024")

	out := h.engine.OnDropoffEdited(ctx, "02/06/2024")
	assert.Equal(t, OutcomeRejectedLengthMismatch, out.Kind)
	assert.Equal(t, -3, out.ActualNights)
	notes := h.notes.Warnings()
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Body, "nur 0 Tage")
}

func TestMinimumOnlyRuleAcceptsLongerDropoff(t *testing.T) {
	h := newHarness(t, "bike")
	ctx := context.Background()
	out := h.engine.OnPickupSelected(ctx, "03/06/2024")
	require.Equal(t, OutcomeAccepted, out.Kind)
	assert.Equal(t, "05/06/2024", out.Date)

	assert.Equal(t, OutcomeAccepted, h.engine.OnDropoffEdited(ctx, "09/06/2024").Kind)
	assert.Equal(t, OutcomeRejectedLengthMismatch, h.engine.OnDropoffEdited(ctx, "04/06/2024").Kind)
}

func TestSingleDayRule(t *testing.T) {
	h := newHarness(t, "day", june(2))
	out := h.engine.OnPickupSelected(context.Background(), "01/06/2024")
	assert.Equal(t, OutcomeAccepted, out.Kind, "window of zero extra nights ignores the next day")
	assert.Equal(t, "01/06/2024", out.Date)
}

func TestWeekdayGate(t *testing.T) {
	h := newHarness(t, "van", june(8))
	ctx := context.Background()

	out := h.engine.OnPickupSelected(ctx, "03/06/2024")
	assert.Equal(t, OutcomeRejectedWeekday, out.Kind)
	assert.True(t, out.Allowed.Contains(time.Friday))
	assert.Empty(t, h.engine.Session().Pickup)
	assert.Empty(t, h.engine.Session().Dropoff)
	assert.Equal(t, 0, h.blocked.calls, "weekday rejection happens before availability")

	out = h.engine.OnPickupSelected(ctx, "03/06/2024")
	assert.Equal(t, OutcomeRejectedWeekday, out.Kind)
	assert.False(t, out.Suppressed)
	assert.Len(t, h.notes.Warnings(), 2, "weekday warnings always surface")

	out = h.engine.OnPickupSelected(ctx, "07/06/2024")
	assert.Equal(t, OutcomeRejectedUnavailable, out.Kind, "friday passes the gate and reaches availability")
	assert.Equal(t, "08/06/2024", out.Conflict)
	assert.Equal(t, 1, h.blocked.calls)
}

func TestWarningDedup(t *testing.T) {
	h := newHarness(t, "car", june(3), june(5))
	ctx := context.Background()

	first := h.engine.OnPickupSelected(ctx, "01/06/2024")
	assert.Equal(t, OutcomeRejectedUnavailable, first.Kind)
	assert.False(t, first.Suppressed)
	assert.Equal(t, 4, first.RequiredDays)
	assert.Empty(t, h.engine.Session().Pickup)

	second := h.engine.OnPickupSelected(ctx, "01/06/2024")
	assert.Equal(t, OutcomeRejectedUnavailable, second.Kind)
	assert.True(t, second.Suppressed)
	assert.Equal(t, "01/06/2024", h.engine.Session().Pickup, "suppressed rejection leaves fields alone")
	assert.Len(t, h.notes.Warnings(), 1)

	third := h.engine.OnPickupSelected(ctx, "02/06/2024")
	assert.Equal(t, OutcomeRejectedUnavailable, third.Kind)
	assert.False(t, third.Suppressed)
	assert.Len(t, h.notes.Warnings(), 2)
	assert.Equal(t, 2, h.metrics.warnings[policies.WarningUnavailable])

	rejected := 0
	for _, ev := range h.engine.Drain() {
		if _, ok := ev.(WindowRejected); ok {
			rejected++
		}
	}
	assert.Equal(t, 2, rejected)
}

func TestAcceptanceClearsSuppression(t *testing.T) {
	h := newHarness(t, "car", june(3))
	ctx := context.Background()

	h.engine.OnPickupSelected(ctx, "01/06/2024")
	require.Equal(t, "01/06/2024", h.engine.Session().LastWarned)
	assert.Equal(t, OutcomeAccepted, h.engine.OnPickupSelected(ctx, "10/06/2024").Kind)
	assert.Empty(t, h.engine.Session().LastWarned)

	assert.False(t, h.engine.OnPickupSelected(ctx, "01/06/2024").Suppressed)
	assert.Len(t, h.notes.Warnings(), 2)
}

func TestRuleChangeResetsState(t *testing.T) {
	h := newHarness(t, "car", june(3))
	ctx := context.Background()

	h.engine.OnPickupSelected(ctx, "01/06/2024")
	h.engine.OnPickupSelected(ctx, "01/06/2024")
	require.Len(t, h.notes.Warnings(), 1)

	rule := h.engine.OnSelectorChanged(ctx, "other")
	assert.Equal(t, 2, rule.Nights)
	s := h.engine.Session()
	assert.Empty(t, s.Pickup)
	assert.Empty(t, s.Dropoff)
	assert.Empty(t, s.LastWarned)

	h.engine.OnSelectorChanged(ctx, "car")
	out := h.engine.OnPickupSelected(ctx, "01/06/2024")
	assert.False(t, out.Suppressed)
	assert.Len(t, h.notes.Warnings(), 2)
}

func TestRuleChangeClearsAcceptedSelection(t *testing.T) {
	h := newHarness(t, "car")
	ctx := context.Background()
	require.Equal(t, OutcomeAccepted, h.engine.OnPickupSelected(ctx, "10/06/2024").Kind)

	h.engine.OnSelectorChanged(ctx, "other")
	assert.Empty(t, h.engine.Session().Pickup)
	assert.Empty(t, h.engine.Session().Dropoff)
	assert.Equal(t, "other", h.engine.Session().SelectorID)
}

func TestInertPassthrough(t *testing.T) {
	h := newHarness(t, "unknown", june(2))
	ctx := context.Background()

	assert.Equal(t, rules.KindNone, h.engine.Session().Rule.Kind)
	assert.Equal(t, OutcomeInert, h.engine.OnPickupSelected(ctx, "01/06/2024").Kind)
	assert.Equal(t, OutcomeInert, h.engine.OnDropoffEdited(ctx, "02/06/2024").Kind)
	assert.Equal(t, OutcomeInert, h.engine.OnPickupSelected(ctx, "not a date").Kind)
	assert.Equal(t, "not a date", h.engine.Session().Pickup)
	assert.Equal(t, "02/06/2024", h.engine.Session().Dropoff)
	assert.Empty(t, h.notes.Warnings())
	assert.Equal(t, 0, h.blocked.calls)
	assert.Empty(t, h.engine.Drain())
}

func TestMissingBlockedSourceIsInert(t *testing.T) {
	factory := NewFactory(Options{Rules: testTable()})
	engine := factory.New(Session{ID: "s"}, &warnings.Collector{})
	rule := engine.OnSelectorChanged(context.Background(), "car")
	assert.False(t, rule.Active())
	assert.Equal(t, OutcomeInert, engine.OnPickupSelected(context.Background(), "01/06/2024").Kind)
}

func TestBlockedSourceErrorFailsOpen(t *testing.T) {
	h := newHarness(t, "car")
	h.blocked.err = errors.New("calendar down")

	out := h.engine.OnPickupSelected(context.Background(), "01/06/2024")
	assert.Equal(t, OutcomeInert, out.Kind)
	assert.Equal(t, "01/06/2024", h.engine.Session().Pickup)
	assert.Empty(t, h.notes.Warnings())
}

func TestIncompleteInput(t *testing.T) {
	h := newHarness(t, "car")
	ctx := context.Background()

	assert.Equal(t, OutcomeIncomplete, h.engine.OnPickupSelected(ctx, "01/06").Kind)
	assert.Equal(t, OutcomeIncomplete, h.engine.OnPickupSelected(ctx, "31/02/2024").Kind)
	assert.Equal(t, OutcomeIncomplete, h.engine.OnDropoffEdited(ctx, "04/06/2024").Kind, "pickup is unparseable")

	h.engine.OnPickupSelected(ctx, "01/06/2024")
	assert.Equal(t, OutcomeIncomplete, h.engine.OnDropoffEdited(ctx, "").Kind)
	assert.Equal(t, OutcomeIncomplete, h.engine.OnDropoffEdited(ctx, "04/0").Kind)
	assert.Empty(t, h.notes.Warnings())
	assert.Equal(t, 5, h.metrics.outcomes[OutcomeIncomplete])
}

func TestPartlyTypedYearIsIncomplete(t *testing.T) {
	ctx := context.Background()
	for _, selector := range []string{"car", "van"} {
		h := newHarness(t, selector)
		for _, in := range []string{"07/06/2", "07/06/20", "07/06/202"} {
			out := h.engine.OnPickupSelected(ctx, in)
			assert.Equal(t, OutcomeIncomplete, out.Kind, selector+" "+in)
			assert.False(t, out.Recalculate)
			assert.Equal(t, in, h.engine.Session().Pickup)
			assert.Empty(t, h.engine.Session().Dropoff, selector+" "+in)
		}
		assert.Empty(t, h.engine.Drain(), selector)
		assert.Empty(t, h.notes.Warnings(), selector)
		assert.Zero(t, h.blocked.calls, selector)
	}

	h := newHarness(t, "car")
	require.Equal(t, OutcomeAccepted, h.engine.OnPickupSelected(ctx, "01/06/2024").Kind)
	h.engine.Drain()
	assert.Equal(t, OutcomeIncomplete, h.engine.OnDropoffEdited(ctx, "04/06/20").Kind)
	assert.Empty(t, h.engine.Drain())
	assert.Empty(t, h.notes.Warnings())
}

func TestEmptyPickupClearsDropoff(t *testing.T) {
	h := newHarness(t, "car")
	ctx := context.Background()
	h.engine.OnPickupSelected(ctx, "01/06/2024")
	require.NotEmpty(t, h.engine.Session().Dropoff)

	out := h.engine.OnPickupSelected(ctx, "  ")
	assert.Equal(t, OutcomeInert, out.Kind)
	assert.Empty(t, h.engine.Session().Dropoff)
}

func TestResolverIgnoresBrokenEntries(t *testing.T) {
	r := NewResolver(rules.Table{"bad": {Days: 0}, "ok": {Days: 2}}, nil)
	ctx := context.Background()
	assert.False(t, r.Resolve(ctx, "bad").Active())
	assert.False(t, r.Resolve(ctx, "").Active())
	assert.True(t, r.Resolve(ctx, "ok").Active())

	var nilResolver *Resolver
	assert.False(t, nilResolver.Resolve(ctx, "ok").Active())
}

func TestCalendarBlockedDates(t *testing.T) {
	cal := availability.NewCalendar("car")
	require.NoError(t, cal.Block(daterange.Range{Start: june(2), End: june(3)}, availability.ReasonBooking, "bk", fixedNow))
	src := CalendarBlockedDates{Calendars: singleCalendar{cal: cal}}

	blocked, err := src.BlockedDates(context.Background(), "car")
	require.NoError(t, err)
	assert.True(t, blocked.Contains(june(3)))

	_, err = CalendarBlockedDates{}.BlockedDates(context.Background(), "car")
	assert.Error(t, err)
}

type singleCalendar struct {
	cal *availability.Calendar
}

func (s singleCalendar) Calendar(context.Context, string) (*availability.Calendar, error) {
	return s.cal, nil
}

func (s singleCalendar) Save(context.Context, *availability.Calendar) error { return nil }

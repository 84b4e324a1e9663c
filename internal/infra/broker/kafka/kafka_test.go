package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingrule/internal/app/commands"
	availabilityapp "bookingrule/internal/app/handlers/availability"
	"bookingrule/internal/app/middleware"
	"bookingrule/internal/app/queries"
	"bookingrule/internal/domain/shared/daterange"
	"bookingrule/internal/infra/storage/memory"
)

func newBookingHandler(t *testing.T) (BookingEventsHandler, *memory.AvailabilityRepository) {
	t.Helper()
	calendars := memory.NewAvailabilityRepository()
	bus := commands.NewInMemoryBus()
	availabilityapp.Register(bus, queries.NewInMemoryBus(), availabilityapp.CalendarDeps{
		Calendars: calendars,
		Locks:     memory.NewKeyedMutex(),
		Outbox:    memory.NewOutbox(),
	}, daterange.MustFormat(daterange.DayMonthYear))
	cmds := middleware.ChainCommands(bus, middleware.Validation(middleware.NewStructValidator()))
	return BookingEventsHandler{Commands: cmds}, calendars
}

func message(value string, headers ...*sarama.RecordHeader) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "booking.events.v1", Value: []byte(value), Headers: headers}
}

func TestBookingConfirmedBlocksCalendar(t *testing.T) {
	ctx := context.Background()
	h, calendars := newBookingHandler(t)

	msg := message(`{"type":"booking.confirmed","booking_id":"bk-1","inventory_id":"car","pickup":"2024-06-03","dropoff":"2024-06-05"}`)
	require.NoError(t, h.Handle(ctx, msg))
	require.NoError(t, h.Handle(ctx, msg), "redelivery is a no-op")

	cal, err := calendars.Calendar(ctx, "car")
	require.NoError(t, err)
	require.Len(t, cal.Blocks, 1)
	assert.True(t, cal.BlockedDates().Contains(daterange.MustNew(2024, time.June, 4)))

	overlap := message(`{"type":"booking.confirmed","booking_id":"bk-2","inventory_id":"car","pickup":"2024-06-05","dropoff":"2024-06-07"}`)
	err = h.Handle(ctx, overlap)
	var perm permanentError
	assert.True(t, errors.As(err, &perm))
}

func TestBookingCancelledReleasesCalendar(t *testing.T) {
	ctx := context.Background()
	h, calendars := newBookingHandler(t)

	envelope := `{"specversion":"1.0","type":"booking.confirmed.v1","data":{"booking_id":"bk-1","inventory_id":"van","pickup":"2024-06-03","dropoff":"2024-06-04"}}`
	require.NoError(t, h.Handle(ctx, message(envelope)))

	cancel := message(`{"booking_id":"bk-1","inventory_id":"van"}`, &sarama.RecordHeader{Key: []byte("ce_type"), Value: []byte("booking.cancelled.v1")})
	require.NoError(t, h.Handle(ctx, cancel))
	require.NoError(t, h.Handle(ctx, cancel), "unknown reference counts as released")

	cal, err := calendars.Calendar(ctx, "van")
	require.NoError(t, err)
	assert.Empty(t, cal.Blocks)
}

func TestUndecodableMessagesArePermanent(t *testing.T) {
	h, _ := newBookingHandler(t)
	var perm permanentError
	cases := map[string]string{
		"not json":       `nope`,
		"missing ids":    `{"type":"booking.confirmed"}`,
		"reversed range": `{"type":"booking.confirmed","booking_id":"b","inventory_id":"car","pickup":"2024-06-05","dropoff":"2024-06-01"}`,
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			err := h.Handle(context.Background(), message(value))
			require.Error(t, err)
			assert.True(t, errors.As(err, &perm))
		})
	}

	assert.NoError(t, h.Handle(context.Background(), message(`{"type":"booking.requested","booking_id":"b","inventory_id":"car"}`)))
}

func TestProducerPublishesHeaders(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "booking_window.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Key) != "ce_type" {
			return errors.New("headers not sorted")
		}
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerFrom(mock)
	headers := map[string]string{"content-type": "application/cloudevents+json", "ce_type": "booking_window.accepted.v1"}
	require.NoError(t, p.Publish(context.Background(), "booking_window.events.v1", "sess-1", []byte(`{}`), headers))
	assert.ErrorIs(t, p.Publish(context.Background(), "booking_window.events.v1", "sess-1", []byte(`{}`), nil), sarama.ErrOutOfBrokers)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}

type recordingInbox struct {
	seen      map[string]bool
	forgotten []string
}

func (i *recordingInbox) Seen(_ context.Context, id string) (bool, error) {
	if i.seen[id] {
		return true, nil
	}
	i.seen[id] = true
	return false, nil
}

func (i *recordingInbox) Forget(_ context.Context, id string) error {
	delete(i.seen, id)
	i.forgotten = append(i.forgotten, id)
	return nil
}

func TestInboxSkipsReplayedEnvelope(t *testing.T) {
	ctx := context.Background()
	h, calendars := newBookingHandler(t)
	box := &recordingInbox{seen: map[string]bool{}}
	h.Inbox = box

	confirmed := `{"id":"evt-1","type":"booking.confirmed.v1","data":{"booking_id":"bk-1","inventory_id":"car","pickup":"2024-06-03","dropoff":"2024-06-04"}}`
	require.NoError(t, h.Handle(ctx, message(confirmed)))
	assert.True(t, box.seen["evt-1"])

	cancelled := `{"id":"evt-2","type":"booking.cancelled.v1","data":{"booking_id":"bk-1","inventory_id":"car"}}`
	require.NoError(t, h.Handle(ctx, message(cancelled)))
	// a replay of the confirmation must not block the dates again
	require.NoError(t, h.Handle(ctx, message(confirmed)))

	cal, err := calendars.Calendar(ctx, "car")
	require.NoError(t, err)
	assert.Empty(t, cal.Blocks)
	assert.Empty(t, box.forgotten)
}

func TestPlainMessageIDFallsBackToOffset(t *testing.T) {
	msg := message(`{"type":"booking.confirmed","booking_id":"b","inventory_id":"car"}`)
	msg.Partition = 2
	msg.Offset = 41
	booking, err := DecodeBookingMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "booking.events.v1/2/41", booking.EventID)
}

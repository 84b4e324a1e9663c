package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"bookingrule/internal/app/commands"
	availabilityapp "bookingrule/internal/app/handlers/availability"
	"bookingrule/internal/app/middleware"
	"bookingrule/internal/domain/availability"
	"bookingrule/internal/domain/shared/daterange"
)

const (
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
)

// BookingMessage is the payload of booking lifecycle events. Dates are ISO yyyy-mm-dd.
type BookingMessage struct {
	EventID     string         `json:"event_id"`
	Type        string         `json:"type"`
	BookingID   string         `json:"booking_id"`
	InventoryID string         `json:"inventory_id"`
	Pickup      daterange.Date `json:"pickup"`
	Dropoff     daterange.Date `json:"dropoff"`
}

type envelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbox remembers applied message ids.
type Inbox interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	Forget(ctx context.Context, messageID string) error
}

// BookingEventsHandler turns booking events into calendar blocks and releases.
// With an Inbox set, a message id is applied at most once.
type BookingEventsHandler struct {
	Commands commands.Bus
	Inbox    Inbox
	Logger   *slog.Logger
}

func (h BookingEventsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	booking, err := DecodeBookingMessage(msg)
	if err != nil {
		return Permanent(err)
	}
	if h.Inbox == nil {
		return h.apply(ctx, booking, msg)
	}
	seen, err := h.Inbox.Seen(ctx, booking.EventID)
	if err != nil {
		return err
	}
	if seen {
		h.logger().Debug("booking event already applied", "event_id", booking.EventID)
		return nil
	}
	err = h.apply(ctx, booking, msg)
	var perm permanentError
	if err != nil && !errors.As(err, &perm) {
		if forgetErr := h.Inbox.Forget(ctx, booking.EventID); forgetErr != nil {
			h.logger().Warn("inbox forget failed", "event_id", booking.EventID, "error", forgetErr)
		}
	}
	return err
}

func (h BookingEventsHandler) apply(ctx context.Context, booking BookingMessage, msg *sarama.ConsumerMessage) error {
	switch booking.Type {
	case BookingConfirmed:
		r, err := daterange.NewRange(booking.Pickup, booking.Dropoff)
		if err != nil {
			return Permanent(fmt.Errorf("booking %s: %w", booking.BookingID, err))
		}
		_, err = commands.Dispatch[availabilityapp.BlockDatesCommand, struct{}](ctx, h.Commands, availabilityapp.BlockDatesCommand{
			InventoryID: booking.InventoryID,
			Range:       r,
			Reason:      availability.ReasonBooking,
			Reference:   booking.BookingID,
		})
		return h.classify(booking, err)
	case BookingCancelled:
		_, err := commands.Dispatch[availabilityapp.ReleaseDatesCommand, struct{}](ctx, h.Commands, availabilityapp.ReleaseDatesCommand{
			InventoryID: booking.InventoryID,
			Reference:   booking.BookingID,
		})
		if errors.Is(err, availability.ErrRangeNotFound) {
			return nil
		}
		return h.classify(booking, err)
	default:
		h.logger().Debug("ignoring booking event", "type", booking.Type, "offset", msg.Offset)
		return nil
	}
}

func (h BookingEventsHandler) classify(booking BookingMessage, err error) error {
	if err == nil {
		h.logger().Info("calendar updated from booking", "type", booking.Type, "booking_id", booking.BookingID, "inventory_id", booking.InventoryID)
		return nil
	}
	if errors.Is(err, availability.ErrOverlappingRange) || errors.Is(err, middleware.ErrValidation) {
		return Permanent(err)
	}
	return err
}

func (h BookingEventsHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// DecodeBookingMessage accepts a plain payload or a CloudEvents envelope whose
// type may carry a version suffix such as ".v1".
func DecodeBookingMessage(msg *sarama.ConsumerMessage) (BookingMessage, error) {
	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return BookingMessage{}, fmt.Errorf("decode booking event: %w", err)
	}
	body := msg.Value
	enveloped := len(env.Data) > 0 && env.Data[0] == '{'
	if enveloped {
		body = env.Data
	}
	var out BookingMessage
	if err := json.Unmarshal(body, &out); err != nil {
		return BookingMessage{}, fmt.Errorf("decode booking event: %w", err)
	}
	if env.Type != "" {
		out.Type = env.Type
	}
	if enveloped && env.ID != "" {
		out.EventID = env.ID
	}
	if out.EventID == "" {
		out.EventID = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}
	if out.Type == "" {
		out.Type = headerValue(msg, "ce_type")
	}
	out.Type = strings.TrimSuffix(out.Type, ".v1")
	if out.BookingID == "" || out.InventoryID == "" {
		return BookingMessage{}, errors.New("decode booking event: booking_id and inventory_id are required")
	}
	return out, nil
}

func headerValue(msg *sarama.ConsumerMessage, key string) string {
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

var _ MessageHandler = BookingEventsHandler{}

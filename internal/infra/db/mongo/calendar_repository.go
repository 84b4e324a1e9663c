package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookingrule/internal/domain/availability"
	"bookingrule/internal/domain/shared/daterange"
)

var ErrConcurrentUpdate = fmt.Errorf("mongo: %w", availability.ErrConcurrentUpdate)

type blockDocument struct {
	Start     string    `bson:"start"`
	End       string    `bson:"end"`
	Reason    string    `bson:"reason"`
	Reference string    `bson:"reference,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

type calendarDocument struct {
	InventoryID string          `bson:"_id"`
	Blocks      []blockDocument `bson:"blocks"`
	Version     int64           `bson:"version"`
	UpdatedAt   time.Time       `bson:"updated_at"`
}

// CalendarRepository stores one document per inventory item and uses the
// version field for optimistic concurrency.
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("availability_calendars")}
}

func (r *CalendarRepository) Calendar(ctx context.Context, inventoryID string) (*availability.Calendar, error) {
	var doc calendarDocument
	err := r.col.FindOne(ctx, bson.M{"_id": inventoryID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return availability.NewCalendar(inventoryID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: load calendar %s: %w", inventoryID, err)
	}
	return doc.toDomain()
}

func (r *CalendarRepository) Save(ctx context.Context, cal *availability.Calendar) error {
	doc := fromDomain(cal)
	doc.Version = cal.Version + 1
	doc.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": cal.InventoryID, "version": cal.Version}
	_, err := r.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// the upsert raced with a newer version of the same _id
		return ErrConcurrentUpdate
	}
	if err != nil {
		return fmt.Errorf("mongo: save calendar %s: %w", cal.InventoryID, err)
	}
	cal.Version = doc.Version
	return nil
}

func fromDomain(cal *availability.Calendar) calendarDocument {
	blocks := make([]blockDocument, 0, len(cal.Blocks))
	for _, b := range cal.Blocks {
		blocks = append(blocks, blockDocument{
			Start:     b.Range.Start.String(),
			End:       b.Range.End.String(),
			Reason:    string(b.Reason),
			Reference: b.Reference,
			CreatedAt: b.CreatedAt,
		})
	}
	return calendarDocument{InventoryID: cal.InventoryID, Blocks: blocks, Version: cal.Version}
}

func (d calendarDocument) toDomain() (*availability.Calendar, error) {
	cal := availability.NewCalendar(d.InventoryID)
	cal.Version = d.Version
	for _, b := range d.Blocks {
		start, err := daterange.ParseISO(b.Start)
		if err != nil {
			return nil, fmt.Errorf("mongo: calendar %s: %w", d.InventoryID, err)
		}
		end, err := daterange.ParseISO(b.End)
		if err != nil {
			return nil, fmt.Errorf("mongo: calendar %s: %w", d.InventoryID, err)
		}
		cal.Blocks = append(cal.Blocks, availability.Block{
			Range:     daterange.Range{Start: start, End: end},
			Reason:    availability.BlockReason(b.Reason),
			Reference: b.Reference,
			CreatedAt: b.CreatedAt,
		})
	}
	return cal, nil
}

var _ availability.Repository = (*CalendarRepository)(nil)

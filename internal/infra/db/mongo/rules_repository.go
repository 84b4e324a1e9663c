package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookingrule/internal/domain/rules"
)

type ruleDocument struct {
	SelectorID string      `bson:"_id"`
	Entry      rules.Entry `bson:",inline"`
}

// RulesRepository reads the inventory_rules collection, one document per selector.
type RulesRepository struct {
	col *mongo.Collection
}

func NewRulesRepository(db *mongo.Database) *RulesRepository {
	return &RulesRepository{col: db.Collection("inventory_rules")}
}

func (r *RulesRepository) Lookup(ctx context.Context, selectorID string) (rules.Entry, bool, error) {
	var doc ruleDocument
	err := r.col.FindOne(ctx, bson.M{"_id": selectorID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return rules.Entry{}, false, nil
	}
	if err != nil {
		return rules.Entry{}, false, fmt.Errorf("mongo: lookup rule %s: %w", selectorID, err)
	}
	return doc.Entry, true, nil
}

// Load reads the whole collection.
func (r *RulesRepository) Load(ctx context.Context) (rules.Table, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo: load rules: %w", err)
	}
	defer cur.Close(ctx)
	table := rules.Table{}
	for cur.Next(ctx) {
		var doc ruleDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode rule: %w", err)
		}
		table[doc.SelectorID] = doc.Entry
	}
	return table, cur.Err()
}

func (r *RulesRepository) Upsert(ctx context.Context, selectorID string, entry rules.Entry) error {
	doc := ruleDocument{SelectorID: selectorID, Entry: entry}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": selectorID}, doc, options.Replace().SetUpsert(true))
	return err
}

var _ rules.Source = (*RulesRepository)(nil)

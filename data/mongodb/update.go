package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpdateSpec describes a document update as a combination of MongoDB update
// operators. Empty members are omitted from the update.
type UpdateSpec struct {
	Set      bson.M
	Push     bson.M
	AddToSet bson.M
	Pull     bson.M
}

// pipeline assembles the operator document.
func (u UpdateSpec) pipeline() bson.M {
	update := bson.M{}
	if len(u.Set) > 0 {
		update["$set"] = u.Set
	}
	if len(u.Push) > 0 {
		update["$push"] = u.Push
	}
	if len(u.AddToSet) > 0 {
		update["$addToSet"] = u.AddToSet
	}
	if len(u.Pull) > 0 {
		update["$pull"] = u.Pull
	}
	return update
}

func (u UpdateSpec) empty() bool {
	return len(u.Set) == 0 && len(u.Push) == 0 && len(u.AddToSet) == 0 && len(u.Pull) == 0
}

// UpdateDocumentByID updates the document with the given hex id and returns
// the updated document, or (nil, nil) when no document matched.
func (s *Store) UpdateDocumentByID(ctx context.Context, collection, id string, spec UpdateSpec) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("mongodb: invalid document id %q", id)
	}
	return s.UpdateDocument(ctx, collection, bson.M{"_id": oid}, spec)
}

// UpdateDocument updates the first document matching match and returns the
// updated document, or (nil, nil) when no document matched.
func (s *Store) UpdateDocument(ctx context.Context, collection string, match bson.M, spec UpdateSpec) (bson.M, error) {
	if spec.empty() {
		return nil, errors.New("mongodb: update spec is empty")
	}

	coll, err := s.Collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	result := coll.FindOneAndUpdate(ctx, match, spec.pipeline(),
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if errors.Is(result.Err(), mongo.ErrNoDocuments) {
		return nil, nil
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("mongodb: failed to update document: %w", result.Err())
	}

	var updated bson.M
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("mongodb: failed to decode updated document: %w", err)
	}
	return updated, nil
}

// UpsertDocument sets data on the document matching match, inserting it when
// absent, and returns the resulting document.
func (s *Store) UpsertDocument(ctx context.Context, collection string, match bson.M, data bson.M) (bson.M, error) {
	coll, err := s.Collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	result := coll.FindOneAndUpdate(ctx, match, bson.M{"$set": data},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After))
	if result.Err() != nil {
		return nil, fmt.Errorf("mongodb: failed to upsert document: %w", result.Err())
	}

	var doc bson.M
	if err := result.Decode(&doc); err != nil {
		return nil, fmt.Errorf("mongodb: failed to decode upserted document: %w", err)
	}
	return doc, nil
}

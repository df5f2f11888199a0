package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/wizard/pkg/api"
)

// MongoStateStore is a StateStore backed by MongoDB, one document per
// prefix.
type MongoStateStore struct {
	coll *mongo.Collection
}

var _ api.StateStore = (*MongoStateStore)(nil)

// NewMongoStateStore creates a Mongo-backed state store.
// dbName defaults to "wizard" if empty, collName defaults to "states".
func NewMongoStateStore(client *mongo.Client, dbName, collName string) *MongoStateStore {
	if dbName == "" {
		dbName = "wizard"
	}
	if collName == "" {
		collName = "states"
	}
	return &MongoStateStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoStateDoc struct {
	ID        string    `bson:"_id"`
	State     []byte    `bson:"state"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *MongoStateStore) Load(ctx context.Context, prefix string) (*api.WizardState, error) {
	var doc mongoStateDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": prefix}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return api.NewWizardState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard state %q: %w", prefix, err)
	}
	return DecodeState(doc.State)
}

func (s *MongoStateStore) Save(ctx context.Context, prefix string, state *api.WizardState) error {
	data, err := EncodeState(state)
	if err != nil {
		return err
	}
	doc := mongoStateDoc{
		ID:        prefix,
		State:     data,
		UpdatedAt: time.Now(),
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": prefix}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save wizard state %q: %w", prefix, err)
	}
	return nil
}

func (s *MongoStateStore) Reset(ctx context.Context, prefix string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": prefix})
	if err != nil {
		return fmt.Errorf("reset wizard state %q: %w", prefix, err)
	}
	return nil
}

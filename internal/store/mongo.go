// README: MongoDB-backed implementation of the document-store contract.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// connectTimeout bounds the initial reachability check; past it the caller
// falls back to the memory store.
const connectTimeout = 3 * time.Second

// Mongo is the durable backend. Ids and timestamps are assigned client-side
// through the shared stamping helpers, never by the server, so the two
// backends stay in agreement.
type Mongo struct {
	db *mongo.Database
}

// DialMongo connects and pings within connectTimeout.
func DialMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Mongo{db: client.Database(database)}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}

// EnsureUnique creates a unique index on the field. Index creation is
// idempotent on the server side.
func (m *Mongo) EnsureUnique(ctx context.Context, collection, field string) error {
	_, err := m.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("unique index %s.%s: %w", collection, field, err)
	}
	return nil
}

func (m *Mongo) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	var doc bson.M
	err := m.db.Collection(collection).FindOne(ctx, toBSON(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find one %s: %w", collection, err)
	}
	return fromBSON(doc), nil
}

func (m *Mongo) Find(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	cursor, err := m.db.Collection(collection).Find(ctx, toBSON(filter))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var out []Document
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, fromBSON(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor %s: %w", collection, err)
	}
	return out, nil
}

func (m *Mongo) InsertOne(ctx context.Context, collection string, doc Document) (string, error) {
	stamped, id := stampInsert(doc)
	if _, err := m.db.Collection(collection).InsertOne(ctx, toBSON(stamped)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

func (m *Mongo) UpdateOne(ctx context.Context, collection string, filter Filter, update Update) (int64, error) {
	set := bson.M{"updated_at": now()}
	for k, v := range update.Set {
		set[k] = v
	}
	mod := bson.M{"$set": set}
	if len(update.Unset) > 0 {
		unset := bson.M{}
		for _, k := range update.Unset {
			unset[k] = ""
		}
		mod["$unset"] = unset
	}

	res, err := m.db.Collection(collection).UpdateOne(ctx, toBSON(filter), mod)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return 0, fmt.Errorf("update %s: %w", collection, err)
	}
	// MatchedCount, not ModifiedCount: a $set that leaves the document
	// byte-identical still matched the expected state.
	return res.MatchedCount, nil
}

func (m *Mongo) DeleteOne(ctx context.Context, collection string, filter Filter) (int64, error) {
	res, err := m.db.Collection(collection).DeleteOne(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

func toBSON(in map[string]any) bson.M {
	out := make(bson.M, len(in))
	for k, v := range in {
		if nested, ok := v.(Document); ok {
			out[k] = toBSON(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// fromBSON normalises driver types back to the neutral document shape.
func fromBSON(in bson.M) Document {
	out := make(Document, len(in))
	for k, v := range in {
		out[k] = fromBSONValue(v)
	}
	return out
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return fromBSON(t)
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSONValue(e)
		}
		return out
	case bson.D:
		out := make(Document, len(t))
		for _, e := range t {
			out[e.Key] = fromBSONValue(e.Value)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

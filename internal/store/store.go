// README: Uniform document-store contract shared by the Mongo and in-memory
// backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnavailable reports that the durable backend could not be reached.
var ErrUnavailable = errors.New("store unavailable")

// ErrDuplicate reports a write that would violate a uniqueness constraint
// registered with EnsureUnique.
var ErrDuplicate = errors.New("duplicate value for unique field")

// Document is one stored record. Field names mirror the domain attribute
// names; "_id" holds the store-assigned id.
type Document = map[string]any

// Filter selects documents by field equality. Multiple fields are implicitly
// AND-combined. No range or OR operators.
type Filter map[string]any

// Update describes a partial modification: Set assigns fields, Unset removes
// them. Every Set application also stamps updated_at.
type Update struct {
	Set   map[string]any
	Unset []string
}

// Store is the persistence contract the lifecycle and fare layers operate
// against. Both implementations agree exactly on id assignment and
// created_at/updated_at stamping, so callers are indifferent to the backend.
// Absence of a match is not an error: FindOne returns (nil, nil). UpdateOne
// reports the number of documents the filter matched, not the number whose
// bytes changed. EnsureUnique registers a per-field uniqueness constraint;
// writes that would violate it fail with ErrDuplicate.
type Store interface {
	FindOne(ctx context.Context, collection string, filter Filter) (Document, error)
	Find(ctx context.Context, collection string, filter Filter) ([]Document, error)
	InsertOne(ctx context.Context, collection string, doc Document) (string, error)
	UpdateOne(ctx context.Context, collection string, filter Filter, update Update) (int64, error)
	DeleteOne(ctx context.Context, collection string, filter Filter) (int64, error)
	EnsureUnique(ctx context.Context, collection, field string) error
}

// now returns the stamping timestamp. Millisecond precision is the durable
// backend's native resolution; the memory backend truncates the same way so
// the two agree bit-for-bit.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func newDocID() string {
	return uuid.NewString()
}

// stampInsert assigns the id and creation timestamps on an insert. The input
// document is not mutated.
func stampInsert(doc Document) (Document, string) {
	out := make(Document, len(doc)+3)
	for k, v := range doc {
		out[k] = v
	}
	id := newDocID()
	ts := now()
	out["_id"] = id
	out["created_at"] = ts
	out["updated_at"] = ts
	return out, id
}

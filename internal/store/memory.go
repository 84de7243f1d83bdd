// README: In-memory store fallback; ordered per-collection document lists.
package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Memory is the in-process fallback backend. Collections preserve insertion
// order. All operations are guarded by one mutex, so a conditional UpdateOne
// is an atomic read-modify-write.
type Memory struct {
	mu          sync.Mutex
	collections map[string][]Document
	unique      map[string][]string
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string][]Document),
		unique:      make(map[string][]string),
	}
}

// EnsureUnique registers a uniqueness constraint checked on every insert and
// update touching the field.
func (m *Memory) EnsureUnique(_ context.Context, collection, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.unique[collection] {
		if f == field {
			return nil
		}
	}
	m.unique[collection] = append(m.unique[collection], field)
	return nil
}

func (m *Memory) FindOne(_ context.Context, collection string, filter Filter) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range m.collections[collection] {
		if matches(doc, filter) {
			return copyDoc(doc), nil
		}
	}
	return nil, nil
}

func (m *Memory) Find(_ context.Context, collection string, filter Filter) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Document
	for _, doc := range m.collections[collection] {
		if matches(doc, filter) {
			out = append(out, copyDoc(doc))
		}
	}
	return out, nil
}

func (m *Memory) InsertOne(_ context.Context, collection string, doc Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUnique(collection, doc, -1); err != nil {
		return "", err
	}
	stamped, id := stampInsert(doc)
	m.collections[collection] = append(m.collections[collection], stamped)
	return id, nil
}

func (m *Memory) UpdateOne(_ context.Context, collection string, filter Filter, update Update) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, doc := range m.collections[collection] {
		if !matches(doc, filter) {
			continue
		}
		if err := m.checkUnique(collection, update.Set, i); err != nil {
			return 0, err
		}
		for k, v := range update.Set {
			doc[k] = v
		}
		for _, k := range update.Unset {
			delete(doc, k)
		}
		doc["updated_at"] = now()
		return 1, nil
	}
	return 0, nil
}

func (m *Memory) DeleteOne(_ context.Context, collection string, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			m.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// checkUnique rejects values that collide with another document on a unique
// field. skip excludes the document being updated so a self-assignment passes.
// Callers hold the mutex.
func (m *Memory) checkUnique(collection string, values map[string]any, skip int) error {
	for _, field := range m.unique[collection] {
		want, ok := values[field]
		if !ok {
			continue
		}
		for i, doc := range m.collections[collection] {
			if i == skip {
				continue
			}
			if got, ok := doc[field]; ok && reflect.DeepEqual(got, want) {
				return fmt.Errorf("%w: %s %s=%v", ErrDuplicate, collection, field, want)
			}
		}
	}
	return nil
}

func matches(doc Document, filter Filter) bool {
	for field, want := range filter {
		got, ok := doc[field]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// copyDoc returns a copy deep enough that callers cannot alias stored nested
// maps or slices.
func copyDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case Document:
		return copyDoc(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

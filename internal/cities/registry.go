// README: City registry; document-store backed with a Redis read-through
// cache.
package cities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"swiftcab/internal/store"
	"swiftcab/internal/types"
)

const Collection = "cities"

const (
	cacheKeyPrefix = "cities:name:%s"
	// Reference data changes rarely; a day of cache staleness is acceptable
	// because every write also invalidates.
	cacheTTL = 24 * time.Hour
)

var ErrUnknownCity = errors.New("unknown city")

// Registry resolves city names to coordinates. Lookups go through Redis when
// a client is configured; the document store is the source of truth.
type Registry struct {
	store store.Store
	cache *redis.Client
	log   *slog.Logger
}

func NewRegistry(st store.Store, cache *redis.Client, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{store: st, cache: cache, log: log}
}

// Resolve returns the city record for a name, case-insensitively.
func (r *Registry) Resolve(ctx context.Context, name string) (*City, error) {
	key := nameKey(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownCity)
	}

	if c := r.cacheGet(ctx, key); c != nil {
		return c, nil
	}

	doc, err := r.store.FindOne(ctx, Collection, store.Filter{"name_key": key})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, name)
	}

	c := cityFromDoc(doc)
	r.cacheSet(ctx, key, c)
	return c, nil
}

// Upsert inserts or replaces a city record and invalidates its cache entry.
func (r *Registry) Upsert(ctx context.Context, c City) error {
	if err := c.Coord.Validate(); err != nil {
		return fmt.Errorf("city %s: %w", c.Name, err)
	}
	key := nameKey(c.Name)
	if key == "" {
		return fmt.Errorf("city record without a name")
	}

	filter := store.Filter{"name_key": key}
	modified, err := r.store.UpdateOne(ctx, Collection, filter, store.Update{Set: cityToDoc(c)})
	if err != nil {
		return err
	}
	if modified == 0 {
		if _, err := r.store.InsertOne(ctx, Collection, cityToDoc(c)); err != nil {
			return err
		}
	}
	r.cacheDel(ctx, key)
	return nil
}

// Remove deletes a city record and its cache entry.
func (r *Registry) Remove(ctx context.Context, name string) error {
	key := nameKey(name)
	if _, err := r.store.DeleteOne(ctx, Collection, store.Filter{"name_key": key}); err != nil {
		return err
	}
	r.cacheDel(ctx, key)
	return nil
}

func (r *Registry) cacheGet(ctx context.Context, key string) *City {
	if r.cache == nil {
		return nil
	}
	val, err := r.cache.Get(ctx, fmt.Sprintf(cacheKeyPrefix, key)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		r.log.Warn("city cache read failed", "key", key, "error", err)
		return nil
	}
	var c City
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil
	}
	return &c
}

func (r *Registry) cacheSet(ctx context.Context, key string, c *City) {
	if r.cache == nil {
		return
	}
	buf, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, fmt.Sprintf(cacheKeyPrefix, key), buf, cacheTTL).Err(); err != nil {
		r.log.Warn("city cache write failed", "key", key, "error", err)
	}
}

func (r *Registry) cacheDel(ctx context.Context, key string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, fmt.Sprintf(cacheKeyPrefix, key)).Err(); err != nil {
		r.log.Warn("city cache invalidation failed", "key", key, "error", err)
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cityToDoc(c City) store.Document {
	doc := store.Document{
		"name_key":   nameKey(c.Name),
		"city_name":  c.Name,
		"state":      c.State,
		"latitude":   c.Coord.Lat,
		"longitude":  c.Coord.Lng,
		"is_metro":   c.IsMetro,
		"is_capital": c.IsCapital,
		"timezone":   c.Timezone,
	}
	if c.Pincode != "" {
		doc["pincode"] = c.Pincode
	}
	if c.District != "" {
		doc["district"] = c.District
	}
	if c.Population > 0 {
		doc["population"] = c.Population
	}
	if c.AreaSqKm > 0 {
		doc["area_sq_km"] = c.AreaSqKm
	}
	if len(c.AlternateNames) > 0 {
		names := make([]any, len(c.AlternateNames))
		for i, n := range c.AlternateNames {
			names[i] = n
		}
		doc["alternate_names"] = names
	}
	if len(c.Metadata) > 0 {
		meta := store.Document{}
		for k, v := range c.Metadata {
			meta[k] = v
		}
		doc["metadata"] = meta
	}
	return doc
}

func cityFromDoc(doc store.Document) *City {
	c := &City{
		Name:      asString(doc["city_name"]),
		State:     asString(doc["state"]),
		Pincode:   asString(doc["pincode"]),
		District:  asString(doc["district"]),
		IsMetro:   doc["is_metro"] == true,
		IsCapital: doc["is_capital"] == true,
		Timezone:  asString(doc["timezone"]),
		Coord: types.Coordinate{
			Lat: asFloat(doc["latitude"]),
			Lng: asFloat(doc["longitude"]),
		},
	}
	switch p := doc["population"].(type) {
	case int64:
		c.Population = p
	case int:
		c.Population = int64(p)
	case int32:
		c.Population = int64(p)
	case float64:
		c.Population = int64(p)
	}
	c.AreaSqKm = asFloat(doc["area_sq_km"])
	if names, ok := doc["alternate_names"].([]any); ok {
		for _, n := range names {
			c.AlternateNames = append(c.AlternateNames, asString(n))
		}
	}
	if meta, ok := doc["metadata"].(store.Document); ok {
		c.Metadata = make(map[string]string, len(meta))
		for k, v := range meta {
			c.Metadata[k] = asString(v)
		}
	}
	return c
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	}
	return 0
}

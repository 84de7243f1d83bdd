// README: Backend selection at startup; Mongo when reachable, memory fallback
// otherwise.
package store

import (
	"context"
	"log/slog"
)

// Dial returns the durable backend when the URI is set and reachable within
// the connect timeout. Otherwise it returns the in-memory fallback and warns
// that state is non-durable. The choice is made once, at startup.
func Dial(ctx context.Context, uri, database string, log *slog.Logger) Store {
	if uri == "" {
		log.Warn("no mongo uri configured, using in-memory store; state is non-durable")
		return NewMemory()
	}
	m, err := DialMongo(ctx, uri, database)
	if err != nil {
		log.Warn("mongo unreachable, falling back to in-memory store; state is non-durable",
			"uri", uri, "error", err)
		return NewMemory()
	}
	log.Info("connected to mongo", "database", database)
	return m
}

// README: Config loader with env defaults for HTTP, Mongo, Postgres, Redis, Kafka, and routing settings.
package config

import (
	"os"
	"strconv"
	"strings"
)

type KafkaConfig struct {
	Brokers []string
	GroupID string
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Mongo struct {
		URI      string
		Database string
	}
	Audit struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Kafka   KafkaConfig
	Routing struct {
		MapsAPIKey string
		RoadFactor float64
	}
	Timezone string
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("SWIFTCAB_HTTP_ADDR", ":8080")
	cfg.Mongo.URI = envOrDefault("SWIFTCAB_MONGO_URI", "")
	cfg.Mongo.Database = envOrDefault("SWIFTCAB_MONGO_DB", "swiftcab")
	cfg.Audit.DSN = envOrDefault("SWIFTCAB_AUDIT_DSN", "")
	cfg.Redis.Addr = envOrDefault("SWIFTCAB_REDIS_ADDR", "")
	cfg.Kafka.Brokers = envOrDefaultList("SWIFTCAB_KAFKA_BROKERS", nil)
	cfg.Kafka.GroupID = envOrDefault("SWIFTCAB_KAFKA_GROUP", "swiftcab-reference-data")
	cfg.Routing.MapsAPIKey = envOrDefault("SWIFTCAB_MAPS_API_KEY", "")
	cfg.Routing.RoadFactor = envOrDefaultFloat("SWIFTCAB_ROAD_FACTOR", 1.3)
	cfg.Timezone = envOrDefault("SWIFTCAB_TIMEZONE", "Asia/Kolkata")
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

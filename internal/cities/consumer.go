// README: Kafka consumer applying reference-data events to the city registry.
package cities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Consumer reads the reference-data topics and applies each event to the
// registry. One reader per topic; all run until the context is cancelled.
type Consumer struct {
	registry *Registry
	brokers  []string
	groupID  string
	log      *slog.Logger
}

func NewConsumer(registry *Registry, brokers []string, groupID string, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{registry: registry, brokers: brokers, groupID: groupID, log: log}
}

// Run consumes all three topics until ctx is done. Malformed or failing
// events are logged and skipped; the stream is reference data, not commands,
// so a bad record must not wedge the consumer.
func (c *Consumer) Run(ctx context.Context) {
	topics := []string{TopicLocationUpdates, TopicCityUpdates, TopicPincodeUpdates}
	for _, topic := range topics {
		go c.consumeTopic(ctx, topic)
	}
	<-ctx.Done()
}

func (c *Consumer) consumeTopic(ctx context.Context, topic string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.brokers,
		GroupID:     c.groupID,
		Topic:       topic,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			c.log.Error("read reference event", "topic", topic, "error", err)
			continue
		}

		var ev Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Warn("malformed reference event", "topic", topic, "offset", msg.Offset, "error", err)
			continue
		}
		if err := c.apply(ctx, ev); err != nil {
			c.log.Warn("apply reference event", "topic", topic, "event_id", ev.EventID, "error", err)
		}
	}
}

func (c *Consumer) apply(ctx context.Context, ev Event) error {
	switch ev.EventType {
	case EventCreate, EventUpdate:
		return c.registry.Upsert(ctx, ev.Data.city())
	case EventDelete:
		return c.registry.Remove(ctx, ev.Data.CityName)
	default:
		return fmt.Errorf("unknown event type %q", ev.EventType)
	}
}

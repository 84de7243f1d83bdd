// README: City reference records and the versioned update events they arrive
// on.
package cities

import (
	"time"

	"swiftcab/internal/types"
)

// City is one resolved reference-data record. The booking core only consumes
// these resolved lookups, never the event stream.
type City struct {
	Name           string            `json:"city_name"`
	State          string            `json:"state"`
	Pincode        string            `json:"pincode,omitempty"`
	Coord          types.Coordinate  `json:"coordinates"`
	District       string            `json:"district,omitempty"`
	IsMetro        bool              `json:"is_metro"`
	IsCapital      bool              `json:"is_capital"`
	Population     int64             `json:"population,omitempty"`
	AreaSqKm       float64           `json:"area_sq_km,omitempty"`
	Timezone       string            `json:"timezone"`
	AlternateNames []string          `json:"alternate_names,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type EventType string

const (
	EventCreate EventType = "CREATE"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Topics the reference-data producers publish on.
const (
	TopicLocationUpdates = "location-updates"
	TopicCityUpdates     = "city-updates"
	TopicPincodeUpdates  = "pincode-updates"
)

// Event is the versioned record carried on the reference-data topics.
type Event struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Data      EventData `json:"data"`
}

type EventData struct {
	CityName       string            `json:"city_name"`
	State          string            `json:"state"`
	Pincode        string            `json:"pincode,omitempty"`
	Latitude       float64           `json:"latitude"`
	Longitude      float64           `json:"longitude"`
	District       string            `json:"district,omitempty"`
	IsMetro        bool              `json:"is_metro"`
	IsCapital      bool              `json:"is_capital"`
	Population     int64             `json:"population,omitempty"`
	AreaSqKm       float64           `json:"area_sq_km,omitempty"`
	Timezone       string            `json:"timezone"`
	AlternateNames []string          `json:"alternate_names,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (d EventData) city() City {
	return City{
		Name:           d.CityName,
		State:          d.State,
		Pincode:        d.Pincode,
		Coord:          types.Coordinate{Lat: d.Latitude, Lng: d.Longitude},
		District:       d.District,
		IsMetro:        d.IsMetro,
		IsCapital:      d.IsCapital,
		Population:     d.Population,
		AreaSqKm:       d.AreaSqKm,
		Timezone:       d.Timezone,
		AlternateNames: d.AlternateNames,
		Metadata:       d.Metadata,
	}
}

// README: Common value objects shared across modules.
package types

import "fmt"

// ID is an opaque document identifier. It is a plain string newtype so no
// package outside the store layer depends on a store-native id type.
type ID string

func (id ID) String() string { return string(id) }

// Coordinate is an immutable latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"latitude" bson:"latitude"`
	Lng float64 `json:"longitude" bson:"longitude"`
}

// Validate reports whether the coordinate is within the WGS84 ranges.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", c.Lng)
	}
	return nil
}

// LocationPoint is a named place attached to a booking. Immutable once set.
type LocationPoint struct {
	Name     string     `json:"name" bson:"name"`
	Address  string     `json:"address" bson:"address"`
	City     string     `json:"city" bson:"city"`
	State    string     `json:"state" bson:"state"`
	Coord    Coordinate `json:"coordinates" bson:"coordinates"`
	Landmark string     `json:"landmark,omitempty" bson:"landmark,omitempty"`
}

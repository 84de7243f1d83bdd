// README: Mapping between the Booking aggregate and its store document.
package booking

import (
	"time"

	"swiftcab/internal/fare"
	"swiftcab/internal/store"
	"swiftcab/internal/types"
)

const Collection = "bookings"

func toDoc(b *Booking) store.Document {
	doc := store.Document{
		"booking_id":      b.BookingID,
		"requester_id":    string(b.RequesterID),
		"pickup":          locationToDoc(b.Pickup),
		"drop":            locationToDoc(b.Drop),
		"pickup_datetime": b.PickupTime,
		"trip_type":       string(b.TripType),
		"cab_type":        string(b.CabType),
		"passengers":      b.Passengers,
		"distance_km":     b.DistanceKm,
		"distance_routed": b.DistanceRouted,
		"base_fare":       b.Fare.BaseFare,
		"distance_charge": b.Fare.DistanceCharge,
		"subtotal":        b.Fare.Subtotal,
		"taxes":           b.Fare.Taxes,
		"discount":        b.Fare.Discount,
		"total_fare":      b.Fare.TotalFare,
		"payment_method":  b.PaymentMethod,
		"payment_status":  string(b.PaymentStatus),
		"status":          string(b.Status),
	}
	if b.ReturnTime != nil {
		doc["return_datetime"] = *b.ReturnTime
	}
	if b.SpecialRequests != "" {
		doc["special_requests"] = b.SpecialRequests
	}
	return doc
}

func locationToDoc(p types.LocationPoint) store.Document {
	doc := store.Document{
		"name":      p.Name,
		"address":   p.Address,
		"city":      p.City,
		"state":     p.State,
		"latitude":  p.Coord.Lat,
		"longitude": p.Coord.Lng,
	}
	if p.Landmark != "" {
		doc["landmark"] = p.Landmark
	}
	return doc
}

func fromDoc(doc store.Document) *Booking {
	b := &Booking{
		ID:               types.ID(asString(doc["_id"])),
		BookingID:        asString(doc["booking_id"]),
		RequesterID:      types.ID(asString(doc["requester_id"])),
		Pickup:           locationFromDoc(doc["pickup"]),
		Drop:             locationFromDoc(doc["drop"]),
		PickupTime:       asTime(doc["pickup_datetime"]),
		TripType:         fare.TripType(asString(doc["trip_type"])),
		CabType:          fare.CabType(asString(doc["cab_type"])),
		Passengers:       asInt(doc["passengers"]),
		DistanceKm:       asFloat(doc["distance_km"]),
		DistanceRouted:   doc["distance_routed"] == true,
		PaymentMethod:    asString(doc["payment_method"]),
		PaymentStatus:    PaymentStatus(asString(doc["payment_status"])),
		Status:           Status(asString(doc["status"])),
		VerificationCode: asString(doc["verification_code"]),
		SpecialRequests:  asString(doc["special_requests"]),
		CreatedAt:        asTime(doc["created_at"]),
		UpdatedAt:        asTime(doc["updated_at"]),
		CancelReason:     asString(doc["cancellation_reason"]),
		CancelledBy:      CancelActor(asString(doc["cancelled_by"])),
		Rating:           asInt(doc["rating"]),
		Feedback:         asString(doc["feedback"]),
	}
	b.Fare = fare.Breakdown{
		BaseFare:       asFloat(doc["base_fare"]),
		DistanceCharge: asFloat(doc["distance_charge"]),
		Subtotal:       asFloat(doc["subtotal"]),
		Taxes:          asFloat(doc["taxes"]),
		Discount:       asFloat(doc["discount"]),
		TotalFare:      asFloat(doc["total_fare"]),
	}
	if v, ok := doc["driver_id"]; ok {
		id := types.ID(asString(v))
		b.DriverID = &id
	}
	b.ReturnTime = asTimePtr(doc["return_datetime"])
	b.ConfirmedAt = asTimePtr(doc["confirmed_at"])
	b.DriverAssignedAt = asTimePtr(doc["driver_assigned_at"])
	b.StartedAt = asTimePtr(doc["started_at"])
	b.CompletedAt = asTimePtr(doc["completed_at"])
	b.CancelledAt = asTimePtr(doc["cancelled_at"])
	return b
}

func locationFromDoc(v any) types.LocationPoint {
	doc, ok := v.(store.Document)
	if !ok {
		return types.LocationPoint{}
	}
	return types.LocationPoint{
		Name:     asString(doc["name"]),
		Address:  asString(doc["address"]),
		City:     asString(doc["city"]),
		State:    asString(doc["state"]),
		Coord:    types.Coordinate{Lat: asFloat(doc["latitude"]), Lng: asFloat(doc["longitude"])},
		Landmark: asString(doc["landmark"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt tolerates the integer widths the mongo driver decodes to.
func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	}
	return 0
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

func asTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}

func asTimePtr(v any) *time.Time {
	t, ok := v.(time.Time)
	if !ok {
		return nil
	}
	return &t
}

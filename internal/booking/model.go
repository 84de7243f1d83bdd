// README: Booking aggregate, status definitions, and the transition table.
package booking

import (
	"time"

	"swiftcab/internal/fare"
	"swiftcab/internal/types"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusDriverAssigned Status = "driver_assigned"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDriverAssigned,
		StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentCompleted || p == PaymentFailed
}

// CancelActor tags who cancelled a booking.
type CancelActor string

const (
	CancelledByRequester CancelActor = "requester"
	CancelledByDriver    CancelActor = "driver"
	CancelledBySystem    CancelActor = "system"
)

func (a CancelActor) Valid() bool {
	return a == CancelledByRequester || a == CancelledByDriver || a == CancelledBySystem
}

const (
	MinPassengers      = 1
	MaxPassengers      = 12
	MinCancelReasonLen = 10
	MinRating          = 1
	MaxRating          = 5
)

// AllowedTransitions represents the booking state flow as code. Cancellation
// is reachable from every non-terminal state.
var AllowedTransitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusDriverAssigned, StatusCancelled},
	StatusDriverAssigned: {StatusInProgress, StatusCancelled},
	StatusInProgress:     {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Booking is the ride record. All mutation goes through the service's
// transition function; the store persists each change atomically.
type Booking struct {
	ID               types.ID
	BookingID        string
	RequesterID      types.ID
	Pickup           types.LocationPoint
	Drop             types.LocationPoint
	PickupTime       time.Time
	ReturnTime       *time.Time
	TripType         fare.TripType
	CabType          fare.CabType
	Passengers       int
	DistanceKm       float64
	DistanceRouted   bool
	Fare             fare.Breakdown
	PaymentMethod    string
	PaymentStatus    PaymentStatus
	Status           Status
	VerificationCode string
	DriverID         *types.ID
	SpecialRequests  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ConfirmedAt      *time.Time
	DriverAssignedAt *time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string
	CancelledBy      CancelActor
	Rating           int
	Feedback         string
}

// Event is one applied transition, kept in the audit ledger.
type Event struct {
	ID         int64
	BookingID  string
	FromStatus Status
	ToStatus   Status
	Actor      string
	Notes      string
	CreatedAt  time.Time
}

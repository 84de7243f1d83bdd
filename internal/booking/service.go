// README: Booking service implements guarded lifecycle transitions and
// persistence.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"swiftcab/internal/fare"
	"swiftcab/internal/geo"
	"swiftcab/internal/store"
	"swiftcab/internal/types"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("booking not found")
	ErrConflict   = errors.New("booking state conflict")
)

// FareQuoter supplies the fare breakdown persisted on a new booking.
type FareQuoter interface {
	QuoteTrip(ctx context.Context, pickup, drop types.LocationPoint, cab fare.CabType, trip fare.TripType) (fare.Breakdown, geo.DrivingEstimate, error)
}

// DriverDirectory answers whether an id carries the driver capability.
type DriverDirectory interface {
	HasDriver(ctx context.Context, id types.ID) (bool, error)
}

type Service struct {
	store   store.Store
	quoter  FareQuoter
	drivers DriverDirectory
	ledger  *Ledger
	loc     *time.Location
	log     *slog.Logger
}

func NewService(st store.Store, quoter FareQuoter, drivers DriverDirectory, ledger *Ledger, loc *time.Location, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: st, quoter: quoter, drivers: drivers, ledger: ledger, loc: loc, log: log}
}

type CreateCommand struct {
	RequesterID     types.ID
	Pickup          types.LocationPoint
	Drop            types.LocationPoint
	PickupTime      time.Time
	ReturnTime      *time.Time
	TripType        fare.TripType
	CabType         fare.CabType
	Passengers      int
	SpecialRequests string
	PaymentMethod   string
	DiscountCode    string
}

type TransitionCommand struct {
	BookingID        types.ID
	To               Status
	DriverID         *types.ID
	VerificationCode string
	Notes            string
	Actor            string
}

type CancelCommand struct {
	BookingID types.ID
	Reason    string
	By        CancelActor
}

type RateCommand struct {
	BookingID types.ID
	Rating    int
	Feedback  string
}

// UpdateCommand changes mutable details while the booking is still early in
// its lifecycle. Nil fields are left untouched.
type UpdateCommand struct {
	BookingID       types.ID
	PickupTime      *time.Time
	ReturnTime      *time.Time
	SpecialRequests *string
}

type ListQuery struct {
	RequesterID types.ID
	Status      Status
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.RequesterID == "" {
		return nil, fmt.Errorf("%w: requester_id is required", ErrValidation)
	}
	if !cmd.TripType.Valid() {
		return nil, fmt.Errorf("%w: trip_type must be one-way or round-trip", ErrValidation)
	}
	if !cmd.CabType.Valid() {
		return nil, fmt.Errorf("%w: unknown cab_type %q", ErrValidation, cmd.CabType)
	}
	if cmd.Passengers < MinPassengers || cmd.Passengers > MaxPassengers {
		return nil, fmt.Errorf("%w: passengers must be between %d and %d", ErrValidation, MinPassengers, MaxPassengers)
	}
	if err := cmd.Pickup.Coord.Validate(); err != nil {
		return nil, fmt.Errorf("%w: pickup %v", ErrValidation, err)
	}
	if err := cmd.Drop.Coord.Validate(); err != nil {
		return nil, fmt.Errorf("%w: drop %v", ErrValidation, err)
	}
	now := time.Now().In(s.loc)
	if !cmd.PickupTime.After(now) {
		return nil, fmt.Errorf("%w: pickup_datetime must be in the future", ErrValidation)
	}
	if cmd.ReturnTime != nil && !cmd.ReturnTime.After(cmd.PickupTime) {
		return nil, fmt.Errorf("%w: return_datetime must be after pickup_datetime", ErrValidation)
	}

	b := &Booking{
		BookingID:       NewBookingCode(now),
		RequesterID:     cmd.RequesterID,
		Pickup:          cmd.Pickup,
		Drop:            cmd.Drop,
		PickupTime:      cmd.PickupTime,
		ReturnTime:      cmd.ReturnTime,
		TripType:        cmd.TripType,
		CabType:         cmd.CabType,
		Passengers:      cmd.Passengers,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentStatus:   PaymentPending,
		Status:          StatusPending,
		SpecialRequests: cmd.SpecialRequests,
	}

	if s.quoter != nil {
		breakdown, est, err := s.quoter.QuoteTrip(ctx, cmd.Pickup, cmd.Drop, cmd.CabType, cmd.TripType)
		if err != nil {
			return nil, fmt.Errorf("quote trip: %w", err)
		}
		if cmd.DiscountCode != "" {
			applied := fare.ApplyDiscount(breakdown.TotalFare, cmd.DiscountCode)
			breakdown.Discount = applied.Discount
			breakdown.TotalFare = applied.FinalFare
		}
		b.Fare = breakdown
		b.DistanceKm = est.Km
		b.DistanceRouted = est.Routed
	}

	// the four-character suffix can collide; the store's unique constraint on
	// booking_id rejects the insert and a fresh code is drawn
	id, err := s.store.InsertOne(ctx, Collection, toDoc(b))
	for attempt := 0; errors.Is(err, store.ErrDuplicate) && attempt < bookingCodeRetries; attempt++ {
		b.BookingID = NewBookingCode(now)
		id, err = s.store.InsertOne(ctx, Collection, toDoc(b))
	}
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	b.ID = types.ID(id)

	s.appendEvent(ctx, b.BookingID, "", StatusPending, "requester", "")
	return s.Get(ctx, b.ID)
}

// Get resolves a booking by store id, or by the human-readable booking code
// when no document carries the id.
func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	doc, err := s.store.FindOne(ctx, Collection, store.Filter{"_id": string(id)})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc, err = s.store.FindOne(ctx, Collection, store.Filter{"booking_id": string(id)})
		if err != nil {
			return nil, err
		}
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return fromDoc(doc), nil
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]*Booking, error) {
	filter := store.Filter{}
	if q.RequesterID != "" {
		filter["requester_id"] = string(q.RequesterID)
	}
	if q.Status != "" {
		if !q.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, q.Status)
		}
		filter["status"] = string(q.Status)
	}

	docs, err := s.store.Find(ctx, Collection, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*Booking, len(docs))
	for i, doc := range docs {
		out[i] = fromDoc(doc)
	}
	return out, nil
}

// UpdateStatus applies one forward transition. Cancellation goes through
// Cancel, which demands a reason and an actor.
func (s *Service) UpdateStatus(ctx context.Context, cmd TransitionCommand) (*Booking, error) {
	if !cmd.To.Valid() || cmd.To == StatusPending {
		return nil, fmt.Errorf("%w: invalid target status %q", ErrValidation, cmd.To)
	}
	if cmd.To == StatusCancelled {
		return nil, fmt.Errorf("%w: cancellation requires a reason and an actor", ErrValidation)
	}

	b, err := s.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, cmd.To) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrConflict, b.Status, cmd.To)
	}

	set := map[string]any{"status": string(cmd.To)}
	var unset []string
	guard := store.Filter{"_id": string(b.ID), "status": string(b.Status)}
	now := time.Now().In(s.loc)

	switch cmd.To {
	case StatusConfirmed:
		set["confirmed_at"] = now
	case StatusDriverAssigned:
		if cmd.DriverID == nil || *cmd.DriverID == "" {
			return nil, fmt.Errorf("%w: driver_id is required to assign a driver", ErrValidation)
		}
		if s.drivers != nil {
			ok, err := s.drivers.HasDriver(ctx, *cmd.DriverID)
			if err != nil {
				return nil, fmt.Errorf("driver lookup: %w", err)
			}
			if !ok {
				return nil, fmt.Errorf("%w: %s does not carry the driver capability", ErrValidation, *cmd.DriverID)
			}
		}
		set["driver_id"] = string(*cmd.DriverID)
		set["driver_assigned_at"] = now
		set["verification_code"] = NewVerificationCode()
	case StatusInProgress:
		if cmd.VerificationCode == "" || cmd.VerificationCode != b.VerificationCode {
			return nil, fmt.Errorf("%w: verification code mismatch", ErrConflict)
		}
		// Guard on the code too, so a concurrent re-assignment cannot let a
		// stale code start the trip.
		guard["verification_code"] = cmd.VerificationCode
		set["started_at"] = now
		unset = append(unset, "verification_code")
	case StatusCompleted:
		set["completed_at"] = now
	}

	if err := s.applyGuarded(ctx, b.ID, guard, store.Update{Set: set, Unset: unset}); err != nil {
		return nil, err
	}

	actor := cmd.Actor
	if actor == "" {
		actor = "system"
	}
	s.appendEvent(ctx, b.BookingID, b.Status, cmd.To, actor, cmd.Notes)
	return s.Get(ctx, b.ID)
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Booking, error) {
	if len(strings.TrimSpace(cmd.Reason)) < MinCancelReasonLen {
		return nil, fmt.Errorf("%w: cancellation reason must be at least %d characters", ErrValidation, MinCancelReasonLen)
	}
	if !cmd.By.Valid() {
		return nil, fmt.Errorf("%w: cancelled_by must be requester, driver, or system", ErrValidation)
	}

	b, err := s.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s booking", ErrConflict, b.Status)
	}

	guard := store.Filter{"_id": string(b.ID), "status": string(b.Status)}
	update := store.Update{
		Set: map[string]any{
			"status":              string(StatusCancelled),
			"cancelled_at":        time.Now().In(s.loc),
			"cancellation_reason": cmd.Reason,
			"cancelled_by":        string(cmd.By),
		},
		Unset: []string{"verification_code"},
	}
	if err := s.applyGuarded(ctx, b.ID, guard, update); err != nil {
		return nil, err
	}

	s.appendEvent(ctx, b.BookingID, b.Status, StatusCancelled, string(cmd.By), cmd.Reason)
	return s.Get(ctx, b.ID)
}

func (s *Service) Rate(ctx context.Context, cmd RateCommand) (*Booking, error) {
	if cmd.Rating < MinRating || cmd.Rating > MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRating, MaxRating)
	}

	b, err := s.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: rating is only accepted on a completed booking", ErrValidation)
	}

	set := map[string]any{"rating": cmd.Rating}
	if cmd.Feedback != "" {
		set["feedback"] = cmd.Feedback
	}
	guard := store.Filter{"_id": string(b.ID), "status": string(StatusCompleted)}
	if err := s.applyGuarded(ctx, b.ID, guard, store.Update{Set: set}); err != nil {
		return nil, err
	}
	return s.Get(ctx, b.ID)
}

// UpdateDetails edits pickup/return time and special requests. Only pending
// and confirmed bookings are still editable.
func (s *Service) UpdateDetails(ctx context.Context, cmd UpdateCommand) (*Booking, error) {
	b, err := s.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: a %s booking can no longer be edited", ErrConflict, b.Status)
	}

	// validate the effective pair, new or stored on either side
	pickup := b.PickupTime
	if cmd.PickupTime != nil {
		pickup = *cmd.PickupTime
		if !pickup.After(time.Now().In(s.loc)) {
			return nil, fmt.Errorf("%w: pickup_datetime must be in the future", ErrValidation)
		}
	}
	ret := b.ReturnTime
	if cmd.ReturnTime != nil {
		ret = cmd.ReturnTime
	}
	if ret != nil && !ret.After(pickup) {
		return nil, fmt.Errorf("%w: return_datetime must be after pickup_datetime", ErrValidation)
	}
	set := map[string]any{}
	if cmd.PickupTime != nil {
		set["pickup_datetime"] = pickup
	}
	if cmd.ReturnTime != nil {
		set["return_datetime"] = *cmd.ReturnTime
	}
	if cmd.SpecialRequests != nil {
		set["special_requests"] = *cmd.SpecialRequests
	}
	if len(set) == 0 {
		return b, nil
	}

	guard := store.Filter{"_id": string(b.ID), "status": string(b.Status)}
	if err := s.applyGuarded(ctx, b.ID, guard, store.Update{Set: set}); err != nil {
		return nil, err
	}
	return s.Get(ctx, b.ID)
}

func (s *Service) SetPaymentStatus(ctx context.Context, id types.ID, status PaymentStatus) (*Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: payment_status must be pending, completed, or failed", ErrValidation)
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	guard := store.Filter{"_id": string(b.ID)}
	update := store.Update{Set: map[string]any{"payment_status": string(status)}}
	if err := s.applyGuarded(ctx, b.ID, guard, update); err != nil {
		return nil, err
	}
	return s.Get(ctx, b.ID)
}

// History returns the audit trail of applied transitions.
func (s *Service) History(ctx context.Context, id types.ID) ([]Event, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, b.BookingID)
}

// applyGuarded runs a conditional update scoped by the expected current state.
// Zero matched rows means either the booking vanished or a concurrent
// transition won; the loser observes a conflict.
func (s *Service) applyGuarded(ctx context.Context, id types.ID, guard store.Filter, update store.Update) error {
	modified, err := s.store.UpdateOne(ctx, Collection, guard, update)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if modified == 1 {
		return nil
	}
	doc, err := s.store.FindOne(ctx, Collection, store.Filter{"_id": string(id)})
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: concurrent transition won", ErrConflict)
}

func (s *Service) appendEvent(ctx context.Context, bookingID string, from, to Status, actor, notes string) {
	err := s.ledger.Append(ctx, Event{
		BookingID:  bookingID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Notes:      notes,
		CreatedAt:  time.Now().In(s.loc),
	})
	if err != nil {
		s.log.Warn("audit append failed", "booking_id", bookingID, "to", to, "error", err)
	}
}

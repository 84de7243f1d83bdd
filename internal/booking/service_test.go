// README: Booking service tests (lifecycle flow + invalid requests).
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"swiftcab/internal/fare"
	"swiftcab/internal/store"
	"swiftcab/internal/types"
)

func newTestService() *Service {
	st := store.NewMemory()
	_ = st.EnsureUnique(context.Background(), Collection, "booking_id")
	return NewService(st, nil, nil, nil, time.UTC, nil)
}

func validCreate(requester string) CreateCommand {
	return CreateCommand{
		RequesterID: types.ID(requester),
		Pickup: types.LocationPoint{
			Name: "Jubilee Hills", City: "Hyderabad", State: "Telangana",
			Coord: types.Coordinate{Lat: 17.4326, Lng: 78.4071},
		},
		Drop: types.LocationPoint{
			Name: "MG Road", City: "Bangalore", State: "Karnataka",
			Coord: types.Coordinate{Lat: 12.9752, Lng: 77.6057},
		},
		PickupTime:    time.Now().Add(24 * time.Hour),
		TripType:      fare.TripOneWay,
		CabType:       fare.CabSedan,
		Passengers:    2,
		PaymentMethod: "cash",
	}
}

func mustCreate(t *testing.T, svc *Service, requester string) *Booking {
	t.Helper()
	b, err := svc.Create(context.Background(), validCreate(requester))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func assertStatus(t *testing.T, svc *Service, id types.ID, want Status) {
	t.Helper()
	b, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.Status != want {
		t.Fatalf("status = %s, want %s", b.Status, want)
	}
}

func TestCreate(t *testing.T) {
	svc := newTestService()
	b := mustCreate(t, svc, "u1")

	if b.Status != StatusPending {
		t.Errorf("status = %s, want pending", b.Status)
	}
	if !strings.HasPrefix(b.BookingID, "BK") || len(b.BookingID) != 12 {
		t.Errorf("booking code %q malformed", b.BookingID)
	}
	if b.PaymentStatus != PaymentPending {
		t.Errorf("payment_status = %s, want pending", b.PaymentStatus)
	}
	if b.CreatedAt.IsZero() || b.UpdatedAt.IsZero() {
		t.Error("created_at/updated_at not stamped")
	}
	if b.VerificationCode != "" {
		t.Error("verification code must not exist before driver assignment")
	}

	// lookup by booking code resolves the same record
	byCode, err := svc.Get(context.Background(), types.ID(b.BookingID))
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if byCode.ID != b.ID {
		t.Errorf("lookup by code resolved %s, want %s", byCode.ID, b.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateCommand)
	}{
		{"missing requester", func(c *CreateCommand) { c.RequesterID = "" }},
		{"bad trip type", func(c *CreateCommand) { c.TripType = "circular" }},
		{"bad cab type", func(c *CreateCommand) { c.CabType = "rickshaw" }},
		{"zero passengers", func(c *CreateCommand) { c.Passengers = 0 }},
		{"too many passengers", func(c *CreateCommand) { c.Passengers = 13 }},
		{"pickup in the past", func(c *CreateCommand) { c.PickupTime = time.Now().Add(-time.Hour) }},
		{"return before pickup", func(c *CreateCommand) {
			rt := c.PickupTime.Add(-time.Minute)
			c.ReturnTime = &rt
		}},
		{"pickup latitude out of range", func(c *CreateCommand) { c.Pickup.Coord.Lat = 91 }},
		{"drop longitude out of range", func(c *CreateCommand) { c.Drop.Coord.Lng = -181 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validCreate("u_invalid")
			tt.mutate(&cmd)
			if _, err := svc.Create(ctx, cmd); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	driverID := types.ID("drv1")

	b := mustCreate(t, svc, "u_happy")

	b, err := svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusConfirmed})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if b.ConfirmedAt == nil {
		t.Fatal("confirmed_at not stamped")
	}

	b, err = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusDriverAssigned, DriverID: &driverID})
	if err != nil {
		t.Fatalf("assign driver: %v", err)
	}
	if b.DriverAssignedAt == nil {
		t.Fatal("driver_assigned_at not stamped")
	}
	if b.DriverID == nil || *b.DriverID != driverID {
		t.Fatalf("driver_id = %v, want drv1", b.DriverID)
	}
	if len(b.VerificationCode) != 6 {
		t.Fatalf("verification code %q not generated on assignment", b.VerificationCode)
	}

	otp := b.VerificationCode
	b, err = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusInProgress, VerificationCode: otp})
	if err != nil {
		t.Fatalf("start trip: %v", err)
	}
	if b.StartedAt == nil {
		t.Fatal("started_at not stamped")
	}
	if b.VerificationCode != "" {
		t.Fatal("verification code not cleared once consumed")
	}

	b, err = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusCompleted})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if b.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}

	// stamps are monotonic in transition order
	if b.ConfirmedAt.After(*b.DriverAssignedAt) ||
		b.DriverAssignedAt.After(*b.StartedAt) ||
		b.StartedAt.After(*b.CompletedAt) {
		t.Error("audit timestamps out of transition order")
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	b := mustCreate(t, svc, "u_illegal")

	// pending to in_progress is not in the allowed set
	_, err := svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusInProgress, VerificationCode: "123456"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("pending to in_progress: err = %v, want ErrConflict", err)
	}
	assertStatus(t, svc, b.ID, StatusPending)

	_, err = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusCompleted})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("pending to completed: err = %v, want ErrConflict", err)
	}
	assertStatus(t, svc, b.ID, StatusPending)
}

func TestVerificationCodeGate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	driverID := types.ID("drv1")

	b := mustCreate(t, svc, "u_otp")
	if _, err := svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusConfirmed}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	b, err := svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusDriverAssigned, DriverID: &driverID})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	wrong := "000000"
	if wrong == b.VerificationCode {
		wrong = "000001"
	}
	_, err = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusInProgress, VerificationCode: wrong})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("wrong code: err = %v, want ErrConflict", err)
	}
	assertStatus(t, svc, b.ID, StatusDriverAssigned)

	_, err = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusInProgress})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("missing code: err = %v, want ErrConflict", err)
	}
	assertStatus(t, svc, b.ID, StatusDriverAssigned)

	// the stored code survives failed attempts
	again, _ := svc.Get(ctx, b.ID)
	if again.VerificationCode != b.VerificationCode {
		t.Error("failed attempt mutated the stored verification code")
	}
}

func TestAssignDriverRequiresDriverID(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	b := mustCreate(t, svc, "u_nodrv")
	if _, err := svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusConfirmed}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	_, err := svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusDriverAssigned})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	assertStatus(t, svc, b.ID, StatusConfirmed)
}

func TestCancel(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	b := mustCreate(t, svc, "u_cancel")

	// too-short reason is a validation failure, not a state change
	_, err := svc.Cancel(ctx, CancelCommand{BookingID: b.ID, Reason: "nope!", By: CancelledByRequester})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("short reason: err = %v, want ErrValidation", err)
	}
	assertStatus(t, svc, b.ID, StatusPending)

	_, err = svc.Cancel(ctx, CancelCommand{BookingID: b.ID, Reason: "plans changed, trip no longer needed", By: ""})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("missing actor: err = %v, want ErrValidation", err)
	}

	b, err = svc.Cancel(ctx, CancelCommand{BookingID: b.ID, Reason: "plans changed, trip no longer needed", By: CancelledByRequester})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if b.Status != StatusCancelled || b.CancelledAt == nil {
		t.Fatalf("cancel not applied: %s %v", b.Status, b.CancelledAt)
	}
	if b.CancelledBy != CancelledByRequester {
		t.Errorf("cancelled_by = %s, want requester", b.CancelledBy)
	}
	firstCancelledAt := *b.CancelledAt

	// terminal: no further transitions, cancelled_at stays set exactly once
	_, err = svc.Cancel(ctx, CancelCommand{BookingID: b.ID, Reason: "cancelling a second time now", By: CancelledBySystem})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second cancel: err = %v, want ErrConflict", err)
	}
	_, err = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusConfirmed})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("confirm after cancel: err = %v, want ErrConflict", err)
	}
	again, _ := svc.Get(ctx, b.ID)
	if !again.CancelledAt.Equal(firstCancelledAt) {
		t.Error("cancelled_at changed after rejection")
	}
}

func TestRate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	driverID := types.ID("drv1")

	b := mustCreate(t, svc, "u_rate")

	// rating before completion is a validation error
	_, err := svc.Rate(ctx, RateCommand{BookingID: b.ID, Rating: 5})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("rate pending booking: err = %v, want ErrValidation", err)
	}

	b, _ = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusConfirmed})
	b, _ = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusDriverAssigned, DriverID: &driverID})
	b, _ = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusInProgress, VerificationCode: b.VerificationCode})
	b, err = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusCompleted})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	for _, bad := range []int{0, 6, -1} {
		if _, err := svc.Rate(ctx, RateCommand{BookingID: b.ID, Rating: bad}); !errors.Is(err, ErrValidation) {
			t.Errorf("rating %d: err = %v, want ErrValidation", bad, err)
		}
	}

	b, err = svc.Rate(ctx, RateCommand{BookingID: b.ID, Rating: 4, Feedback: "smooth ride"})
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if b.Rating != 4 || b.Feedback != "smooth ride" {
		t.Errorf("rating not persisted: %d %q", b.Rating, b.Feedback)
	}
}

func TestUpdateDetails(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	b := mustCreate(t, svc, "u_edit")

	newPickup := time.Now().Add(48 * time.Hour)
	newReturn := newPickup.Add(12 * time.Hour)
	notes := "need a child seat"
	b, err := svc.UpdateDetails(ctx, UpdateCommand{
		BookingID:       b.ID,
		PickupTime:      &newPickup,
		ReturnTime:      &newReturn,
		SpecialRequests: &notes,
	})
	if err != nil {
		t.Fatalf("update details: %v", err)
	}
	if b.SpecialRequests != notes {
		t.Errorf("special_requests = %q", b.SpecialRequests)
	}
	if b.ReturnTime == nil || !b.ReturnTime.Equal(newReturn) {
		t.Errorf("return_datetime not updated: %v", b.ReturnTime)
	}

	// once past confirmed the booking is frozen
	driverID := types.ID("drv1")
	b, _ = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusConfirmed})
	b, _ = svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusDriverAssigned, DriverID: &driverID})
	_, err = svc.UpdateDetails(ctx, UpdateCommand{BookingID: b.ID, SpecialRequests: &notes})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("edit after assignment: err = %v, want ErrConflict", err)
	}
}

func TestUpdateDetailsPickupHonorsStoredReturn(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cmd := validCreate("u_roundtrip")
	cmd.TripType = fare.TripRoundTrip
	ret := cmd.PickupTime.Add(2 * time.Hour)
	cmd.ReturnTime = &ret
	b, err := svc.Create(ctx, cmd)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	// moving only the pickup must still respect the stored return leg
	latePickup := ret.Add(time.Hour)
	_, err = svc.UpdateDetails(ctx, UpdateCommand{BookingID: b.ID, PickupTime: &latePickup})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("pickup past stored return: err = %v, want ErrValidation", err)
	}

	okPickup := cmd.PickupTime.Add(time.Hour)
	b, err = svc.UpdateDetails(ctx, UpdateCommand{BookingID: b.ID, PickupTime: &okPickup})
	if err != nil {
		t.Fatalf("pickup within return window: %v", err)
	}
	if !b.PickupTime.Equal(okPickup) {
		t.Errorf("pickup_datetime = %v, want %v", b.PickupTime, okPickup)
	}
}

// collidingStore rejects the first n inserts with a duplicate error.
type collidingStore struct {
	store.Store
	rejections int
}

func (c *collidingStore) InsertOne(ctx context.Context, collection string, doc store.Document) (string, error) {
	if c.rejections > 0 {
		c.rejections--
		return "", fmt.Errorf("%w: booking_id", store.ErrDuplicate)
	}
	return c.Store.InsertOne(ctx, collection, doc)
}

func TestCreateRetriesOnBookingCodeCollision(t *testing.T) {
	cs := &collidingStore{Store: store.NewMemory(), rejections: 2}
	svc := NewService(cs, nil, nil, nil, time.UTC, nil)

	b, err := svc.Create(context.Background(), validCreate("u_retry"))
	if err != nil {
		t.Fatalf("create with transient collisions: %v", err)
	}
	if !strings.HasPrefix(b.BookingID, "BK") {
		t.Errorf("booking code %q malformed", b.BookingID)
	}

	cs = &collidingStore{Store: store.NewMemory(), rejections: bookingCodeRetries + 2}
	svc = NewService(cs, nil, nil, nil, time.UTC, nil)
	if _, err := svc.Create(context.Background(), validCreate("u_retry2")); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("exhausted retries: err = %v, want ErrDuplicate", err)
	}
}

func TestSetPaymentStatus(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	b := mustCreate(t, svc, "u_pay")

	if _, err := svc.SetPaymentStatus(ctx, b.ID, "refunded"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad payment status: err = %v, want ErrValidation", err)
	}

	b, err := svc.SetPaymentStatus(ctx, b.ID, PaymentCompleted)
	if err != nil {
		t.Fatalf("set payment status: %v", err)
	}
	if b.PaymentStatus != PaymentCompleted {
		t.Errorf("payment_status = %s, want completed", b.PaymentStatus)
	}

	// repeating the same value must not surface as a conflict
	if _, err := svc.SetPaymentStatus(ctx, b.ID, PaymentCompleted); err != nil {
		t.Fatalf("idempotent payment update: %v", err)
	}
}

func TestGetUnknownBooking(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, "u_list")
	b2 := mustCreate(t, svc, "u_list")
	mustCreate(t, svc, "u_other")

	if _, err := svc.UpdateStatus(ctx, TransitionCommand{BookingID: b2.ID, To: StatusConfirmed}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	all, err := svc.List(ctx, ListQuery{RequesterID: "u_list"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d bookings for u_list, want 2", len(all))
	}

	confirmed, err := svc.List(ctx, ListQuery{RequesterID: "u_list", Status: StatusConfirmed})
	if err != nil {
		t.Fatalf("list confirmed: %v", err)
	}
	if len(confirmed) != 1 || confirmed[0].ID != b2.ID {
		t.Fatalf("confirmed filter returned %d records", len(confirmed))
	}

	if _, err := svc.List(ctx, ListQuery{Status: "teleporting"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad status filter: err = %v, want ErrValidation", err)
	}
}

type stubDirectory struct{ known map[types.ID]bool }

func (d stubDirectory) HasDriver(_ context.Context, id types.ID) (bool, error) {
	return d.known[id], nil
}

func TestAssignChecksDriverCapability(t *testing.T) {
	dir := stubDirectory{known: map[types.ID]bool{"drv_ok": true}}
	svc := NewService(store.NewMemory(), nil, dir, nil, time.UTC, nil)
	ctx := context.Background()

	b := mustCreate(t, svc, "u_cap")
	if _, err := svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusConfirmed}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	unknown := types.ID("drv_unknown")
	_, err := svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusDriverAssigned, DriverID: &unknown})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown driver: err = %v, want ErrValidation", err)
	}

	known := types.ID("drv_ok")
	if _, err := svc.UpdateStatus(ctx, TransitionCommand{BookingID: b.ID, To: StatusDriverAssigned, DriverID: &known}); err != nil {
		t.Fatalf("assign known driver: %v", err)
	}
}

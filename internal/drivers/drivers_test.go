package drivers

import (
	"context"
	"errors"
	"testing"

	"swiftcab/internal/fare"
	"swiftcab/internal/store"
)

func TestCapabilityComposition(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	id, err := svc.CreateIdentity(ctx, Identity{Name: "Ravi", Phone: "+91900000001"})
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}

	// a fresh identity does not carry the driver capability
	has, err := svc.HasDriver(ctx, id)
	if err != nil {
		t.Fatalf("has driver: %v", err)
	}
	if has {
		t.Fatal("identity must not be a driver before attachment")
	}

	profile := DriverProfile{
		IdentityID:    id,
		LicenceNumber: "TS09 20260001234",
		VehicleReg:    "TS09EA1234",
		CabType:       fare.CabSedan,
		Rating:        4.7,
	}
	if err := svc.AttachDriver(ctx, profile); err != nil {
		t.Fatalf("attach driver: %v", err)
	}

	has, err = svc.HasDriver(ctx, id)
	if err != nil || !has {
		t.Fatalf("HasDriver = %v, %v after attachment", has, err)
	}

	got, err := svc.Driver(ctx, id)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	if got.VehicleReg != "TS09EA1234" || got.CabType != fare.CabSedan || got.Rating != 4.7 {
		t.Errorf("profile = %+v", got)
	}
}

func TestAttachDriverValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	err := svc.AttachDriver(ctx, DriverProfile{IdentityID: "ghost", CabType: fare.CabSedan})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("attach to missing identity: err = %v, want ErrNotFound", err)
	}

	id, _ := svc.CreateIdentity(ctx, Identity{Name: "Meena"})
	if err := svc.AttachDriver(ctx, DriverProfile{IdentityID: id, CabType: "tank"}); err == nil {
		t.Fatal("bad cab type must be rejected")
	}
}

func TestAttachDriverReplacesProfile(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	id, _ := svc.CreateIdentity(ctx, Identity{Name: "Arjun"})
	first := DriverProfile{IdentityID: id, VehicleReg: "KA01AB0001", CabType: fare.CabSUV}
	if err := svc.AttachDriver(ctx, first); err != nil {
		t.Fatalf("attach: %v", err)
	}
	second := first
	second.VehicleReg = "KA01AB0002"
	if err := svc.AttachDriver(ctx, second); err != nil {
		t.Fatalf("re-attach: %v", err)
	}

	got, err := svc.Driver(ctx, id)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	if got.VehicleReg != "KA01AB0002" {
		t.Errorf("vehicle reg = %s, want replacement", got.VehicleReg)
	}
}

func TestDriverForUnknownIdentity(t *testing.T) {
	svc := NewService(store.NewMemory())
	if _, err := svc.Driver(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// README: Identity records and the attachable driver capability.
package drivers

import (
	"context"
	"errors"
	"fmt"

	"swiftcab/internal/fare"
	"swiftcab/internal/store"
	"swiftcab/internal/types"
)

const (
	identityCollection = "identities"
	driverCollection   = "drivers"
)

var ErrNotFound = errors.New("identity not found")

// Identity is the core person record shared by requesters and drivers.
type Identity struct {
	ID    types.ID
	Name  string
	Phone string
	Email string
}

// DriverProfile is the driver capability attached to an identity. It is a
// separate record keyed by the same id, not a subtype of Identity.
type DriverProfile struct {
	IdentityID    types.ID
	LicenceNumber string
	VehicleReg    string
	CabType       fare.CabType
	Rating        float64
}

// CapabilitySet resolves which capabilities an identity carries.
type CapabilitySet interface {
	HasDriver(ctx context.Context, id types.ID) (bool, error)
	Driver(ctx context.Context, id types.ID) (*DriverProfile, error)
}

// Service is the store-backed capability set.
type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) CreateIdentity(ctx context.Context, id Identity) (types.ID, error) {
	if id.Name == "" {
		return "", fmt.Errorf("identity name is required")
	}
	doc := store.Document{"name": id.Name, "phone": id.Phone, "email": id.Email}
	docID, err := s.store.InsertOne(ctx, identityCollection, doc)
	if err != nil {
		return "", err
	}
	return types.ID(docID), nil
}

func (s *Service) Identity(ctx context.Context, id types.ID) (*Identity, error) {
	doc, err := s.store.FindOne(ctx, identityCollection, store.Filter{"_id": string(id)})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return &Identity{
		ID:    id,
		Name:  str(doc["name"]),
		Phone: str(doc["phone"]),
		Email: str(doc["email"]),
	}, nil
}

// AttachDriver grants the driver capability to an existing identity.
func (s *Service) AttachDriver(ctx context.Context, p DriverProfile) error {
	if _, err := s.Identity(ctx, p.IdentityID); err != nil {
		return err
	}
	if !p.CabType.Valid() {
		return fmt.Errorf("unknown cab_type %q", p.CabType)
	}

	doc := store.Document{
		"identity_id":    string(p.IdentityID),
		"licence_number": p.LicenceNumber,
		"vehicle_reg":    p.VehicleReg,
		"cab_type":       string(p.CabType),
		"rating":         p.Rating,
	}
	filter := store.Filter{"identity_id": string(p.IdentityID)}
	modified, err := s.store.UpdateOne(ctx, driverCollection, filter, store.Update{Set: doc})
	if err != nil {
		return err
	}
	if modified == 0 {
		_, err = s.store.InsertOne(ctx, driverCollection, doc)
	}
	return err
}

func (s *Service) HasDriver(ctx context.Context, id types.ID) (bool, error) {
	doc, err := s.store.FindOne(ctx, driverCollection, store.Filter{"identity_id": string(id)})
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

func (s *Service) Driver(ctx context.Context, id types.ID) (*DriverProfile, error) {
	doc, err := s.store.FindOne(ctx, driverCollection, store.Filter{"identity_id": string(id)})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: no driver capability for %s", ErrNotFound, id)
	}
	p := &DriverProfile{
		IdentityID:    id,
		LicenceNumber: str(doc["licence_number"]),
		VehicleReg:    str(doc["vehicle_reg"]),
		CabType:       fare.CabType(str(doc["cab_type"])),
	}
	switch r := doc["rating"].(type) {
	case float64:
		p.Rating = r
	case int:
		p.Rating = float64(r)
	case int32:
		p.Rating = float64(r)
	case int64:
		p.Rating = float64(r)
	}
	return p, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

package offers

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/internal/gateway"
	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
)

type fakeGateway struct {
	gateway.Gateway

	offers     map[uuid.UUID]models.Offer
	productIDs map[uuid.UUID]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		offers:     map[uuid.UUID]models.Offer{},
		productIDs: map[uuid.UUID]bool{},
	}
}

func (f *fakeGateway) Insert(_ context.Context, _ string, rows any) error {
	offer := rows.(*models.Offer)
	f.offers[offer.ID] = *offer
	return nil
}

func (f *fakeGateway) QueryOne(_ context.Context, _ string, filter map[string]any, dest any) error {
	id := filter["id"].(uuid.UUID)
	offer, ok := f.offers[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "offer row not found")
	}
	*dest.(*models.Offer) = offer
	return nil
}

func (f *fakeGateway) Query(_ context.Context, table string, filter map[string]any, dest any, opts ...gateway.QueryOpt) error {
	switch table {
	case gateway.TableProducts:
		// products existing in the fixture are "found"
		out := dest.(*[]models.Product)
		for id := range f.productIDs {
			*out = append(*out, models.Product{ID: id})
		}
	case gateway.TableOffers:
		out := dest.(*[]models.Offer)
		onlyActive := filter["is_active"] == true
		for _, offer := range f.offers {
			if onlyActive && !offer.IsActive {
				continue
			}
			*out = append(*out, offer)
		}
	}
	return nil
}

func (f *fakeGateway) Update(_ context.Context, _ string, filter map[string]any, patch map[string]any) (int64, error) {
	id := filter["id"].(uuid.UUID)
	offer, ok := f.offers[id]
	if !ok {
		return 0, nil
	}
	if active, has := patch["is_active"].(bool); has {
		offer.IsActive = active
	}
	if name, has := patch["name"].(string); has {
		offer.Name = name
	}
	f.offers[id] = offer
	return 1, nil
}

func (f *fakeGateway) Delete(_ context.Context, _ string, filter map[string]any) (int64, error) {
	id := filter["id"].(uuid.UUID)
	if _, ok := f.offers[id]; !ok {
		return 0, nil
	}
	delete(f.offers, id)
	return 1, nil
}

func newTestService(t *testing.T, gw gateway.Gateway) Service {
	t.Helper()
	svc, err := NewService(gw)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateValidatesProducts(t *testing.T) {
	gw := newFakeGateway()
	known := uuid.New()
	gw.productIDs[known] = true
	svc := newTestService(t, gw)

	offer, err := svc.Create(context.Background(), CreateOfferInput{
		Name:       "Desayuno",
		ProductIDs: []uuid.UUID{known},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !offer.IsActive {
		t.Error("new offers must start active")
	}

	_, err = svc.Create(context.Background(), CreateOfferInput{
		Name:       "Fantasma",
		ProductIDs: []uuid.UUID{known, uuid.New()},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for unknown product, got %v", err)
	}
}

func TestCreateRequiresProducts(t *testing.T) {
	svc := newTestService(t, newFakeGateway())

	_, err := svc.Create(context.Background(), CreateOfferInput{Name: "Vacio"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestListFiltersInactive(t *testing.T) {
	gw := newFakeGateway()
	known := uuid.New()
	gw.productIDs[known] = true
	svc := newTestService(t, gw)

	active, err := svc.Create(context.Background(), CreateOfferInput{Name: "Activa", ProductIDs: []uuid.UUID{known}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	retired, err := svc.Create(context.Background(), CreateOfferInput{Name: "Retirada", ProductIDs: []uuid.UUID{known}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	off := false
	if _, err := svc.Update(context.Background(), retired.ID, UpdateOfferInput{IsActive: &off}); err != nil {
		t.Fatalf("update: %v", err)
	}

	onlyActive, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(onlyActive) != 1 || onlyActive[0].ID != active.ID {
		t.Errorf("expected only the active offer, got %+v", onlyActive)
	}

	all, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected both offers, got %d", len(all))
	}
}

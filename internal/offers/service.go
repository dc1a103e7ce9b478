package offers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/internal/gateway"
	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	dbtypes "github.com/puntosclub/kiosk-backend/pkg/db/types"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
)

// CreateOfferInput captures the data required to publish an offer.
type CreateOfferInput struct {
	Name        string
	Description *string
	ProductIDs  []uuid.UUID
}

// UpdateOfferInput patches mutable offer fields; nil means keep.
type UpdateOfferInput struct {
	Name        *string
	Description *string
	ProductIDs  *[]uuid.UUID
	IsActive    *bool
}

// Service manages promotional offers. Offers bundle products for display
// only; they never touch the points ledger.
type Service interface {
	Create(ctx context.Context, input CreateOfferInput) (*models.Offer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	List(ctx context.Context, onlyActive bool) ([]models.Offer, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateOfferInput) (*models.Offer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	gw gateway.Gateway
}

// NewService wires the offer service over the data gateway.
func NewService(gw gateway.Gateway) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway required")
	}
	return &service{gw: gw}, nil
}

func (s *service) Create(ctx context.Context, input CreateOfferInput) (*models.Offer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(input.ProductIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "an offer needs at least one product")
	}
	if err := s.verifyProducts(ctx, input.ProductIDs); err != nil {
		return nil, err
	}

	offer := &models.Offer{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		ProductIDs:  dbtypes.UUIDArray(input.ProductIDs),
		IsActive:    true,
	}
	if err := s.gw.Insert(ctx, gateway.TableOffers, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	var offer models.Offer
	if err := s.gw.QueryOne(ctx, gateway.TableOffers, map[string]any{"id": id}, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (s *service) List(ctx context.Context, onlyActive bool) ([]models.Offer, error) {
	filter := map[string]any{}
	if onlyActive {
		filter["is_active"] = true
	}
	var offers []models.Offer
	err := s.gw.Query(ctx, gateway.TableOffers, filter, &offers,
		gateway.WithOrder("created_at DESC, id DESC"))
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateOfferInput) (*models.Offer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}

	patch := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		patch["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		patch["description"] = *input.Description
	}
	if input.ProductIDs != nil {
		if len(*input.ProductIDs) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "an offer needs at least one product")
		}
		if err := s.verifyProducts(ctx, *input.ProductIDs); err != nil {
			return nil, err
		}
		patch["product_ids"] = dbtypes.UUIDArray(*input.ProductIDs)
	}
	if input.IsActive != nil {
		patch["is_active"] = *input.IsActive
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	affected, err := s.gw.Update(ctx, gateway.TableOffers, map[string]any{"id": id}, patch)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer row not found")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	affected, err := s.gw.Delete(ctx, gateway.TableOffers, map[string]any{"id": id})
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "offer row not found")
	}
	return nil
}

// verifyProducts ensures every referenced product exists.
func (s *service) verifyProducts(ctx context.Context, ids []uuid.UUID) error {
	var found []models.Product
	err := s.gw.Query(ctx, gateway.TableProducts, nil, &found,
		gateway.WithCondition("id IN ?", ids))
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer references unknown products").
			WithDetails(map[string]any{"expected": len(ids), "found": len(found)})
	}
	return nil
}

package prizes

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/internal/gateway"
	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
)

// CreatePrizeInput captures the data required to add a prize.
type CreatePrizeInput struct {
	Name   string
	Points int
}

// UpdatePrizeInput patches mutable prize fields; nil means keep.
type UpdatePrizeInput struct {
	Name   *string
	Points *int
}

// Service manages the prize catalog. Prizes are freely deletable: redemptions
// snapshot the prize description, so history never dangles.
type Service interface {
	Create(ctx context.Context, input CreatePrizeInput) (*models.Prize, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Prize, error)
	List(ctx context.Context) ([]models.Prize, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePrizeInput) (*models.Prize, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	gw gateway.Gateway
}

// NewService wires the prize service over the data gateway.
func NewService(gw gateway.Gateway) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway required")
	}
	return &service{gw: gw}, nil
}

func (s *service) Create(ctx context.Context, input CreatePrizeInput) (*models.Prize, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Points <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}

	prize := &models.Prize{
		ID:     uuid.New(),
		Name:   strings.TrimSpace(input.Name),
		Points: input.Points,
	}
	if err := s.gw.Insert(ctx, gateway.TablePrizes, prize); err != nil {
		return nil, err
	}
	return prize, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Prize, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prize id is required")
	}
	var prize models.Prize
	if err := s.gw.QueryOne(ctx, gateway.TablePrizes, map[string]any{"id": id}, &prize); err != nil {
		return nil, err
	}
	return &prize, nil
}

// List returns the whole catalog in kiosk display order (cheapest first).
func (s *service) List(ctx context.Context) ([]models.Prize, error) {
	var prizes []models.Prize
	err := s.gw.Query(ctx, gateway.TablePrizes, nil, &prizes,
		gateway.WithOrder("points ASC, created_at ASC, id ASC"))
	if err != nil {
		return nil, err
	}
	return prizes, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePrizeInput) (*models.Prize, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prize id is required")
	}

	patch := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		patch["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Points != nil {
		if *input.Points <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
		}
		patch["points"] = *input.Points
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	affected, err := s.gw.Update(ctx, gateway.TablePrizes, map[string]any{"id": id}, patch)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "prize row not found")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "prize id is required")
	}
	affected, err := s.gw.Delete(ctx, gateway.TablePrizes, map[string]any{"id": id})
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "prize row not found")
	}
	return nil
}

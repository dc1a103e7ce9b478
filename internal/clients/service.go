package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/internal/gateway"
	"github.com/puntosclub/kiosk-backend/pkg/config"
	"github.com/puntosclub/kiosk-backend/pkg/db"
	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	"github.com/puntosclub/kiosk-backend/pkg/enums"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/pagination"
	"github.com/puntosclub/kiosk-backend/pkg/security"
)

// CreateClientInput captures the data required to register a loyalty client.
type CreateClientInput struct {
	Phone  string
	Name   string
	Email  *string
	Secret string
	Role   enums.Role
}

// UpdateClientInput patches mutable client fields; nil means keep.
type UpdateClientInput struct {
	Name   *string
	Email  *string
	Secret *string
}

// Service manages the client roster. Points balances are owned by the ledger
// and never mutated here.
type Service interface {
	Create(ctx context.Context, input CreateClientInput) (*models.Client, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Client, error)
	GetByPhone(ctx context.Context, phone string) (*models.Client, error)
	List(ctx context.Context, params pagination.Params) ([]models.Client, string, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateClientInput) (*models.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	gw    gateway.Gateway
	pwCfg config.PasswordConfig
}

// NewService wires the client service over the data gateway.
func NewService(gw gateway.Gateway, pwCfg config.PasswordConfig) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway required")
	}
	return &service{gw: gw, pwCfg: pwCfg}, nil
}

func (s *service) Create(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "secret is required")
	}
	role := input.Role
	if role == "" {
		role = enums.RoleClient
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}

	hash, err := security.HashSecret(input.Secret, s.pwCfg)
	if err != nil {
		return nil, fmt.Errorf("hashing secret: %w", err)
	}

	client := &models.Client{
		ID:         uuid.New(),
		Phone:      phone,
		Name:       strings.TrimSpace(input.Name),
		Email:      input.Email,
		Role:       role,
		SecretHash: hash,
	}
	if err := s.gw.Insert(ctx, gateway.TableClients, client); err != nil {
		if db.IsUniqueViolation(err, "clients_phone_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
		}
		return nil, err
	}
	return client, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	var client models.Client
	if err := s.gw.QueryOne(ctx, gateway.TableClients, map[string]any{"id": id}, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *service) GetByPhone(ctx context.Context, phone string) (*models.Client, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	var client models.Client
	if err := s.gw.QueryOne(ctx, gateway.TableClients, map[string]any{"phone": phone}, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Client, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	opts := []gateway.QueryOpt{
		gateway.WithOrder("created_at DESC, id DESC"),
		gateway.WithLimit(pagination.LimitWithBuffer(params.Limit)),
	}
	if cursor != nil {
		opts = append(opts, gateway.WithCondition(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		))
	}

	var list []models.Client
	if err := s.gw.Query(ctx, gateway.TableClients, nil, &list, opts...); err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(list) > limit {
		list = list[:limit]
		last := list[len(list)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, next, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateClientInput) (*models.Client, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}

	patch := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		patch["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		patch["email"] = *input.Email
	}
	if input.Secret != nil {
		if *input.Secret == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "secret must not be empty")
		}
		hash, err := security.HashSecret(*input.Secret, s.pwCfg)
		if err != nil {
			return nil, fmt.Errorf("hashing secret: %w", err)
		}
		patch["secret_hash"] = hash
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	affected, err := s.gw.Update(ctx, gateway.TableClients, map[string]any{"id": id}, patch)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client row not found")
	}
	return s.Get(ctx, id)
}

// Delete refuses to remove a client with recorded sales; history rows point
// at the client and must stay interpretable.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}

	var sales []models.Sale
	if err := s.gw.Query(ctx, gateway.TableSales, map[string]any{"client_id": id}, &sales,
		gateway.WithLimit(1)); err != nil {
		return err
	}
	if len(sales) > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "client has recorded sales and cannot be deleted")
	}

	affected, err := s.gw.Delete(ctx, gateway.TableClients, map[string]any{"id": id})
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "client row not found")
	}
	return nil
}

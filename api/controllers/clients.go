package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/api/responses"
	"github.com/puntosclub/kiosk-backend/api/validators"
	clientsvc "github.com/puntosclub/kiosk-backend/internal/clients"
	"github.com/puntosclub/kiosk-backend/pkg/enums"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/logger"
)

type createClientRequest struct {
	Phone  string  `json:"phone" validate:"required"`
	Name   string  `json:"name" validate:"required"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email"`
	Secret string  `json:"secret" validate:"required,min=4"`
	Role   *string `json:"role,omitempty" validate:"omitempty,oneof=client admin"`
}

type updateClientRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email"`
	Secret *string `json:"secret,omitempty" validate:"omitempty,min=4"`
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id")
	}
	return id, nil
}

// CreateClient registers a loyalty client from the admin panel.
func CreateClient(svc clientsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		var body createClientRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.RoleClient
		if body.Role != nil {
			role = enums.Role(*body.Role)
		}

		client, err := svc.Create(r.Context(), clientsvc.CreateClientInput{
			Phone:  body.Phone,
			Name:   body.Name,
			Email:  body.Email,
			Secret: body.Secret,
			Role:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client.SecretHash = ""
		responses.WriteSuccessStatus(w, http.StatusCreated, client)
	}
}

// GetClient fetches one client by id.
func GetClient(svc clientsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		id, err := pathUUID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client.SecretHash = ""
		responses.WriteSuccess(w, client)
	}
}

// ListClients pages through the client roster.
func ListClients(svc clientsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		for i := range list {
			list[i].SecretHash = ""
		}
		responses.WriteSuccess(w, map[string]any{"clients": list, "next_cursor": next})
	}
}

// UpdateClient patches mutable client fields.
func UpdateClient(svc clientsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		id, err := pathUUID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateClientRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Update(r.Context(), id, clientsvc.UpdateClientInput{
			Name:   body.Name,
			Email:  body.Email,
			Secret: body.Secret,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client.SecretHash = ""
		responses.WriteSuccess(w, client)
	}
}

// DeleteClient removes a client without purchase history.
func DeleteClient(svc clientsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		id, err := pathUUID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

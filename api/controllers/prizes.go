package controllers

import (
	"net/http"

	"github.com/puntosclub/kiosk-backend/api/responses"
	"github.com/puntosclub/kiosk-backend/api/validators"
	prizesvc "github.com/puntosclub/kiosk-backend/internal/prizes"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/logger"
)

type createPrizeRequest struct {
	Name   string `json:"name" validate:"required"`
	Points int    `json:"points" validate:"required,gt=0"`
}

type updatePrizeRequest struct {
	Name   *string `json:"name,omitempty"`
	Points *int    `json:"points,omitempty" validate:"omitempty,gt=0"`
}

// CreatePrize adds a prize to the redemption catalog.
func CreatePrize(svc prizesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prize service unavailable"))
			return
		}

		var body createPrizeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prize, err := svc.Create(r.Context(), prizesvc.CreatePrizeInput{
			Name:   body.Name,
			Points: body.Points,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, prize)
	}
}

// GetPrize fetches one prize by id.
func GetPrize(svc prizesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prize service unavailable"))
			return
		}

		id, err := pathUUID(r, "prizeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prize, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, prize)
	}
}

// ListPrizes returns the full catalog in kiosk display order.
func ListPrizes(svc prizesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prize service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"prizes": list})
	}
}

// UpdatePrize patches mutable prize fields.
func UpdatePrize(svc prizesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prize service unavailable"))
			return
		}

		id, err := pathUUID(r, "prizeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePrizeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prize, err := svc.Update(r.Context(), id, prizesvc.UpdatePrizeInput{
			Name:   body.Name,
			Points: body.Points,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, prize)
	}
}

// DeletePrize removes a prize. Past redemptions keep their snapshot.
func DeletePrize(svc prizesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prize service unavailable"))
			return
		}

		id, err := pathUUID(r, "prizeId")
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

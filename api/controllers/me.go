package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/api/middleware"
	"github.com/puntosclub/kiosk-backend/api/responses"
	"github.com/puntosclub/kiosk-backend/api/validators"
	ledgersvc "github.com/puntosclub/kiosk-backend/internal/ledger"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/logger"
)

func authedClientID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ClientIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "client context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid client id")
	}
	return id, nil
}

// MyBalance returns the authenticated client's points balance.
func MyBalance(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		clientID, err := authedClientID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.GetBalance(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"balance": balance})
	}
}

// MyOutlook returns the prize catalog partitioned against the client's balance.
func MyOutlook(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		clientID, err := authedClientID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outlook, err := svc.OutlookFor(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outlook)
	}
}

// MySales lists the authenticated client's purchase history.
func MySales(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		clientID, err := authedClientID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sales, next, err := svc.ListSales(r.Context(), &clientID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"sales": sales, "next_cursor": next})
	}
}

// MyRedemptions lists the authenticated client's redemption history.
func MyRedemptions(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		clientID, err := authedClientID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		redemptions, next, err := svc.ListRedemptions(r.Context(), &clientID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"redemptions": redemptions, "next_cursor": next})
	}
}

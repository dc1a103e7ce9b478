package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/puntosclub/kiosk-backend/api/responses"
	"github.com/puntosclub/kiosk-backend/api/validators"
	ledgersvc "github.com/puntosclub/kiosk-backend/internal/ledger"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/logger"
)

type cartLineRequest struct {
	ProductID *string         `json:"product_id,omitempty"`
	Name      string          `json:"name" validate:"required"`
	Qty       int             `json:"qty" validate:"required,min=1"`
	Price     decimal.Decimal `json:"price" validate:"required"`
}

type recordSaleRequest struct {
	ClientID string            `json:"client_id" validate:"required,uuid"`
	Lines    []cartLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (req recordSaleRequest) toInput() (ledgersvc.RecordSaleInput, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return ledgersvc.RecordSaleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client id")
	}

	lines := make([]ledgersvc.CartLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		var productID *uuid.UUID
		if line.ProductID != nil && *line.ProductID != "" {
			parsed, err := uuid.Parse(*line.ProductID)
			if err != nil {
				return ledgersvc.RecordSaleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
			}
			productID = &parsed
		}
		lines = append(lines, ledgersvc.CartLine{
			ProductID: productID,
			Name:      line.Name,
			Qty:       line.Qty,
			Price:     line.Price,
		})
	}

	return ledgersvc.RecordSaleInput{ClientID: clientID, Lines: lines}, nil
}

// RecordSale records a cart against a client's points balance.
func RecordSale(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		var body recordSaleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.RecordSale(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}

// ListSales lists sales, optionally scoped to one client via ?client_id=.
func ListSales(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var clientID *uuid.UUID
		if raw := r.URL.Query().Get("client_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client id"))
				return
			}
			clientID = &parsed
		}

		sales, next, err := svc.ListSales(r.Context(), clientID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"sales": sales, "next_cursor": next})
	}
}

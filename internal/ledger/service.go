package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/puntosclub/kiosk-backend/internal/gateway"
	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/logger"
	"github.com/puntosclub/kiosk-backend/pkg/metrics"
	"github.com/puntosclub/kiosk-backend/pkg/pagination"
)

// Service defines the loyalty ledger operations.
type Service interface {
	RecordSale(ctx context.Context, input RecordSaleInput) (*SaleReceipt, error)
	RedeemPrize(ctx context.Context, clientID, prizeID uuid.UUID) (*RedemptionReceipt, error)
	GetBalance(ctx context.Context, clientID uuid.UUID) (int, error)
	OutlookFor(ctx context.Context, clientID uuid.UUID) (*PrizeOutlook, error)
	AffordablePrizes(ctx context.Context, balance int) (*PrizeOutlook, error)
	ListSales(ctx context.Context, clientID *uuid.UUID, params pagination.Params) ([]models.Sale, string, error)
	ListRedemptions(ctx context.Context, clientID *uuid.UUID, params pagination.Params) ([]models.Redemption, string, error)
}

type service struct {
	gw      gateway.Gateway
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	taxRate decimal.Decimal
}

// NewService wires the ledger over the data gateway. taxRate is a fraction
// (0.21 means 21%).
func NewService(gw gateway.Gateway, logg *logger.Logger, m *metrics.LedgerMetrics, taxRate float64) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if taxRate < 0 || taxRate >= 1 {
		return nil, fmt.Errorf("tax rate %v out of range [0,1)", taxRate)
	}
	return &service{
		gw:      gw,
		logg:    logg,
		metrics: m,
		taxRate: decimal.NewFromFloat(taxRate),
	}, nil
}

// computeTotals derives money and points from the cart. Amount is rounded to
// cents; points are the floor of the rounded amount.
func (s *service) computeTotals(lines []CartLine) SaleTotals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	tax := subtotal.Mul(s.taxRate).Round(2)
	amount := subtotal.Add(subtotal.Mul(s.taxRate)).Round(2)
	return SaleTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Amount:   amount,
		Points:   int(amount.Floor().IntPart()),
	}
}

func validateCart(lines []CartLine) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidCart, "cart is empty")
	}
	for i, line := range lines {
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidCart, "line quantity must be positive").
				WithDetails(map[string]any{"line": i, "qty": line.Qty})
		}
		if line.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeInvalidCart, "line price must not be negative").
				WithDetails(map[string]any{"line": i, "price": line.Price.String()})
		}
	}
	return nil
}

// RecordSale validates the cart, writes the sale, credits the balance, then
// decrements stock per line. Validation happens before any write, so an
// invalid cart never reaches the backend. A balance failure after the sale
// row landed is a partial inconsistency: terminal, never retried here.
func (s *service) RecordSale(ctx context.Context, input RecordSaleInput) (*SaleReceipt, error) {
	track := newTracker()
	track.to(StateValidating)

	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if err := validateCart(input.Lines); err != nil {
		return nil, err
	}
	totals := s.computeTotals(input.Lines)

	var client models.Client
	if err := s.gw.QueryOne(ctx, gateway.TableClients, map[string]any{"id": input.ClientID}, &client); err != nil {
		return nil, err
	}

	track.to(StateWriting)
	sale := models.Sale{
		ID:           uuid.New(),
		ClientID:     client.ID,
		Amount:       totals.Amount,
		PointsEarned: totals.Points,
		Items:        snapshotLines(input.Lines),
	}
	if err := s.gw.Insert(ctx, gateway.TableSales, &sale); err != nil {
		track.to(StateAborted)
		s.logError(ctx, track, "sale write failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeSaleFailed, err, "recording sale")
	}

	track.to(StateUpdatingBalance)
	// Read-then-write: a concurrent balance mutation between the load above
	// and this update is lost. Known limitation of the current ledger.
	newBalance := client.PointsBalance + totals.Points
	if err := s.updateBalance(ctx, client.ID, newBalance); err != nil {
		track.to(StateInconsistent)
		s.metrics.IncInconsistency("sale")
		s.logError(ctx, track, "sale recorded but balance not credited", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodePartialSaleInconsistency, err, "sale recorded but balance not credited").
			WithDetails(map[string]any{"sale_id": sale.ID, "points_pending": totals.Points})
	}

	s.decrementStock(ctx, sale.ID, input.Lines)

	track.to(StateDone)
	s.metrics.ObserveSale(totals.Points)
	return &SaleReceipt{Sale: sale, Totals: totals, NewBalance: newBalance}, nil
}

// RedeemPrize exchanges points for a prize. The redemption row snapshots the
// prize name and cost, so deleting the prize later never rewrites history.
func (s *service) RedeemPrize(ctx context.Context, clientID, prizeID uuid.UUID) (*RedemptionReceipt, error) {
	track := newTracker()
	track.to(StateValidating)

	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if prizeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prize id is required")
	}

	var client models.Client
	if err := s.gw.QueryOne(ctx, gateway.TableClients, map[string]any{"id": clientID}, &client); err != nil {
		return nil, err
	}
	var prize models.Prize
	if err := s.gw.QueryOne(ctx, gateway.TablePrizes, map[string]any{"id": prizeID}, &prize); err != nil {
		return nil, err
	}

	if client.PointsBalance < prize.Points {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "not enough points for this prize").
			WithDetails(map[string]any{
				"balance":       client.PointsBalance,
				"required":      prize.Points,
				"points_needed": prize.Points - client.PointsBalance,
			})
	}

	track.to(StateWriting)
	redemption := models.Redemption{
		ID:               uuid.New(),
		ClientID:         client.ID,
		PrizeDescription: prize.Name,
		PointsCost:       prize.Points,
	}
	if err := s.gw.Insert(ctx, gateway.TableRedemptions, &redemption); err != nil {
		track.to(StateAborted)
		s.logError(ctx, track, "redemption write failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeRedemptionFailed, err, "recording redemption")
	}

	track.to(StateUpdatingBalance)
	newBalance := client.PointsBalance - prize.Points
	if err := s.updateBalance(ctx, client.ID, newBalance); err != nil {
		track.to(StateInconsistent)
		s.metrics.IncInconsistency("redemption")
		s.logError(ctx, track, "redemption recorded but balance not debited", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodePartialRedemptionInconsistency, err, "redemption recorded but balance not debited").
			WithDetails(map[string]any{"redemption_id": redemption.ID, "points_pending": prize.Points})
	}

	track.to(StateDone)
	s.metrics.ObserveRedemption(prize.Points)
	return &RedemptionReceipt{Redemption: redemption, NewBalance: newBalance}, nil
}

func (s *service) updateBalance(ctx context.Context, clientID uuid.UUID, newBalance int) error {
	affected, err := s.gw.Update(ctx, gateway.TableClients,
		map[string]any{"id": clientID},
		map[string]any{"points_balance": newBalance},
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("client %s missing during balance update", clientID)
	}
	return nil
}

// decrementStock is best effort: a failed decrement is logged per line and
// never rolls back the sale.
func (s *service) decrementStock(ctx context.Context, saleID uuid.UUID, lines []CartLine) {
	for _, line := range lines {
		if line.ProductID == nil {
			continue
		}
		if err := s.gw.CallProcedure(ctx, "decrement_stock", *line.ProductID, line.Qty); err != nil {
			ctx := s.logg.WithFields(ctx, map[string]any{
				"sale_id":    saleID,
				"product_id": *line.ProductID,
				"qty":        line.Qty,
			})
			s.logg.Error(ctx, "stock decrement failed", err)
		}
	}
}

func (s *service) GetBalance(ctx context.Context, clientID uuid.UUID) (int, error) {
	if clientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	var client models.Client
	if err := s.gw.QueryOne(ctx, gateway.TableClients, map[string]any{"id": clientID}, &client); err != nil {
		return 0, err
	}
	return client.PointsBalance, nil
}

// OutlookFor loads the client's balance and partitions the catalog against it.
func (s *service) OutlookFor(ctx context.Context, clientID uuid.UUID) (*PrizeOutlook, error) {
	balance, err := s.GetBalance(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.AffordablePrizes(ctx, balance)
}

// AffordablePrizes splits the catalog into prizes the balance covers and the
// single cheapest prize it does not, with the points still needed. Ties on
// cost resolve by catalog order (oldest first).
func (s *service) AffordablePrizes(ctx context.Context, balance int) (*PrizeOutlook, error) {
	var prizes []models.Prize
	err := s.gw.Query(ctx, gateway.TablePrizes, nil, &prizes,
		gateway.WithOrder("points ASC, created_at ASC, id ASC"))
	if err != nil {
		return nil, err
	}

	outlook := &PrizeOutlook{Balance: balance, Affordable: []models.Prize{}}
	for _, prize := range prizes {
		if prize.Points <= balance {
			outlook.Affordable = append(outlook.Affordable, prize)
			continue
		}
		if outlook.NextGoal == nil {
			outlook.NextGoal = &NextGoal{
				Prize:        prize,
				PointsNeeded: prize.Points - balance,
			}
		}
	}
	return outlook, nil
}

func (s *service) ListSales(ctx context.Context, clientID *uuid.UUID, params pagination.Params) ([]models.Sale, string, error) {
	opts, err := historyOpts(params)
	if err != nil {
		return nil, "", err
	}

	filter := map[string]any{}
	if clientID != nil {
		filter["client_id"] = *clientID
	}

	var sales []models.Sale
	if err := s.gw.Query(ctx, gateway.TableSales, filter, &sales, opts...); err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(sales) > limit {
		sales = sales[:limit]
		last := sales[len(sales)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return sales, next, nil
}

func (s *service) ListRedemptions(ctx context.Context, clientID *uuid.UUID, params pagination.Params) ([]models.Redemption, string, error) {
	opts, err := historyOpts(params)
	if err != nil {
		return nil, "", err
	}

	filter := map[string]any{}
	if clientID != nil {
		filter["client_id"] = *clientID
	}

	var redemptions []models.Redemption
	if err := s.gw.Query(ctx, gateway.TableRedemptions, filter, &redemptions, opts...); err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(redemptions) > limit {
		redemptions = redemptions[:limit]
		last := redemptions[len(redemptions)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return redemptions, next, nil
}

func historyOpts(params pagination.Params) ([]gateway.QueryOpt, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
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
	return opts, nil
}

func (s *service) logError(ctx context.Context, track *tracker, msg string, err error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"op_state": string(track.current()),
		"op_path":  track.pathString(),
	})
	s.logg.Error(ctx, msg, err)
}

package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	dbtypes "github.com/puntosclub/kiosk-backend/pkg/db/types"
)

// CartLine is one line of a sale as entered at the kiosk. ProductID is
// optional; when present, stock is decremented after the sale is recorded.
type CartLine struct {
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

// RecordSaleInput captures the data required to record a sale.
type RecordSaleInput struct {
	ClientID uuid.UUID
	Lines    []CartLine
}

// SaleTotals is the derived money/points breakdown of a cart.
type SaleTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Amount   decimal.Decimal `json:"amount"`
	Points   int             `json:"points"`
}

// SaleReceipt is returned after a sale has been fully recorded.
type SaleReceipt struct {
	Sale       models.Sale `json:"sale"`
	Totals     SaleTotals  `json:"totals"`
	NewBalance int         `json:"new_balance"`
}

// RedemptionReceipt is returned after a prize redemption.
type RedemptionReceipt struct {
	Redemption models.Redemption `json:"redemption"`
	NewBalance int               `json:"new_balance"`
}

// NextGoal is the cheapest prize the client cannot afford yet.
type NextGoal struct {
	Prize        models.Prize `json:"prize"`
	PointsNeeded int          `json:"points_needed"`
}

// PrizeOutlook partitions the prize catalog against a balance.
type PrizeOutlook struct {
	Balance    int            `json:"balance"`
	Affordable []models.Prize `json:"affordable"`
	NextGoal   *NextGoal      `json:"next_goal,omitempty"`
}

func snapshotLines(lines []CartLine) dbtypes.SaleLines {
	snapshot := make(dbtypes.SaleLines, 0, len(lines))
	for _, line := range lines {
		snapshot = append(snapshot, dbtypes.SaleLine{
			Name:  line.Name,
			Qty:   line.Qty,
			Price: line.Price,
		})
	}
	return snapshot
}

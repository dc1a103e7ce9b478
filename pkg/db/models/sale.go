package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/puntosclub/kiosk-backend/pkg/db/types"
)

// Sale is the immutable record of a completed purchase. Items carries the cart
// snapshot at the time of sale; rows are never mutated after creation.
type Sale struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID     uuid.UUID         `gorm:"column:client_id;type:uuid;not null"`
	Amount       decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	PointsEarned int               `gorm:"column:points_earned;not null"`
	Items        dbtypes.SaleLines `gorm:"column:items;type:jsonb;not null"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}

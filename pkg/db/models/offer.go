package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/puntosclub/kiosk-backend/pkg/db/types"
)

// Offer bundles one or more products into a promotional view. Offers are
// independent of the points ledger.
type Offer struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	Description *string           `gorm:"column:description"`
	ProductIDs  dbtypes.UUIDArray `gorm:"type:uuid[];column:product_ids;not null;default:ARRAY[]::uuid[]"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

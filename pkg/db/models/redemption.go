package models

import (
	"time"

	"github.com/google/uuid"
)

// Redemption is the immutable record of a prize exchange. PrizeDescription is
// a free-text snapshot, not a live foreign key, so deleting a Prize never
// rewrites history.
type Redemption struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID         uuid.UUID `gorm:"column:client_id;type:uuid;not null"`
	PrizeDescription string    `gorm:"column:prize_description;not null"`
	PointsCost       int       `gorm:"column:points_cost;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

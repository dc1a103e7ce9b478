package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/pkg/enums"
)

// Client represents a loyalty participant. The phone number is the natural key
// used at the kiosk; the points balance is a running counter mutated only by
// completed sales and redemptions.
type Client struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone         string     `gorm:"column:phone;type:text;not null;uniqueIndex"`
	Name          string     `gorm:"column:name;not null"`
	Email         *string    `gorm:"column:email"`
	Role          enums.Role `gorm:"column:role;not null;default:'client'"`
	PointsBalance int        `gorm:"column:points_balance;not null;default:0"`
	SecretHash    string     `gorm:"column:secret_hash;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

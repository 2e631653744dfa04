package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a named geographic point owned by a user.
type Location struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Address   string    `gorm:"column:address;not null"`
	State     string    `gorm:"column:state;not null"`
	City      string    `gorm:"column:city;not null"`
	Village   *string   `gorm:"column:village"`
	Latitude  float64   `gorm:"column:latitude;not null"`
	Longitude float64   `gorm:"column:longitude;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

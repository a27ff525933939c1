package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a buyer/seller conversation entry, optionally attached to
// a listing.
type Message struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   *uuid.UUID `gorm:"column:product_id;type:uuid;index"`
	SenderID    uuid.UUID  `gorm:"column:sender_id;type:uuid;not null;index"`
	RecipientID uuid.UUID  `gorm:"column:recipient_id;type:uuid;not null;index"`
	Body        string     `gorm:"column:body;not null"`
	ReadAt      *time.Time `gorm:"column:read_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

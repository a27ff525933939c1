package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is buyer feedback left against a seller after a sale.
type Review struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID      uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;index"`
	ReviewerID    uuid.UUID  `gorm:"column:reviewer_id;type:uuid;not null;index"`
	TransactionID *uuid.UUID `gorm:"column:transaction_id;type:uuid;uniqueIndex"`
	Rating        int        `gorm:"column:rating;not null"`
	Body          *string    `gorm:"column:body"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}

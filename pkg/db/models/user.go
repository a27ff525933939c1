package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// User represents the canonical identity entity. Every user can buy and
// sell; the tier controls the commission taken on their sales.
type User struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email             string           `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash      string           `gorm:"column:password_hash;not null"`
	FirstName         string           `gorm:"column:first_name;not null"`
	LastName          string           `gorm:"column:last_name;not null"`
	Role              enums.UserRole   `gorm:"column:role;not null;default:user"`
	Tier              enums.SellerTier `gorm:"column:tier;not null;default:free"`
	StripeAccountID   *string          `gorm:"column:stripe_account_id;uniqueIndex"`
	PGAMemberNumber   *string          `gorm:"column:pga_member_number"`
	StudentVerifiedAt *time.Time       `gorm:"column:student_verified_at"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true"`
	LastLoginAt       *time.Time       `gorm:"column:last_login_at"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                uuid.UUID        `json:"id"`
	Email             string           `json:"email"`
	FirstName         string           `json:"first_name"`
	LastName          string           `json:"last_name"`
	Role              enums.UserRole   `json:"role"`
	Tier              enums.SellerTier `json:"tier"`
	StripeAccountID   *string          `json:"stripe_account_id,omitempty"`
	PGAMemberNumber   *string          `json:"pga_member_number,omitempty"`
	StudentVerifiedAt *time.Time       `json:"student_verified_at,omitempty"`
	IsActive          bool             `json:"is_active"`
	LastLoginAt       *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         enums.UserRole
	Tier         enums.SellerTier
	IsActive     *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                u.ID,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Role:              u.Role,
		Tier:              u.Tier,
		StripeAccountID:   u.StripeAccountID,
		PGAMemberNumber:   u.PGAMemberNumber,
		StudentVerifiedAt: u.StudentVerifiedAt,
		IsActive:          u.IsActive,
		LastLoginAt:       u.LastLoginAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	role := c.Role
	if role == "" {
		role = enums.UserRoleUser
	}
	tier := c.Tier
	if tier == "" {
		tier = enums.SellerTierFree
	}

	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Role:         role,
		Tier:         tier,
		IsActive:     isActive,
	}
}

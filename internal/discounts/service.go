package discounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

// StudentDiscountPercent is the cart discount granted to verified
// students.
var StudentDiscountPercent = decimal.NewFromInt(10)

// Institution email domains accepted for student verification.
var studentDomainSuffixes = []string{
	".ac.uk",
	".edu",
	".edu.au",
	".edu.ie",
}

var pgaMemberNumberPattern = regexp.MustCompile(`^[0-9]{6,8}$`)

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetStudentVerifiedAt(ctx context.Context, id uuid.UUID, at time.Time) error
	SetPGAMemberNumber(ctx context.Context, id uuid.UUID, memberNumber string) error
}

// StudentVerification reports the outcome of a verification attempt.
type StudentVerification struct {
	VerifiedAt      time.Time       `json:"verified_at"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Service grants marketplace discounts and professional tiers.
type Service interface {
	VerifyStudent(ctx context.Context, userID uuid.UUID, institutionEmail string) (*StudentVerification, error)
	VerifyPGAMembership(ctx context.Context, userID uuid.UUID, memberNumber string) error
	DiscountPercentFor(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

type service struct {
	users userRepository
}

// NewService constructs a discounts service instance.
func NewService(users userRepository) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{users: users}, nil
}

// IsStudentEmail reports whether the address belongs to a recognised
// academic domain.
func IsStudentEmail(email string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(trimmed, "@")
	if at <= 0 || at == len(trimmed)-1 {
		return false
	}
	domain := trimmed[at+1:]
	for _, suffix := range studentDomainSuffixes {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	return false
}

// VerifyStudent checks the institution email's domain and stamps the
// account. The verification is permanent; re-verifying refreshes the
// timestamp.
func (s *service) VerifyStudent(ctx context.Context, userID uuid.UUID, institutionEmail string) (*StudentVerification, error) {
	if !IsStudentEmail(institutionEmail) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is not from a recognised academic institution")
	}

	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.SetStudentVerifiedAt(ctx, userID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store student verification")
	}

	return &StudentVerification{VerifiedAt: now, DiscountPercent: StudentDiscountPercent}, nil
}

// VerifyPGAMembership records the member number and upgrades the
// seller to the pga-pro tier.
func (s *service) VerifyPGAMembership(ctx context.Context, userID uuid.UUID, memberNumber string) error {
	trimmed := strings.TrimSpace(memberNumber)
	if !pgaMemberNumberPattern.MatchString(trimmed) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid PGA member number")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.PGAMemberNumber != nil && *user.PGAMemberNumber != "" {
		return pkgerrors.New(pkgerrors.CodeConflict, "PGA membership already verified")
	}

	if err := s.users.SetPGAMemberNumber(ctx, userID, trimmed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store PGA membership")
	}
	return nil
}

// DiscountPercentFor returns the buyer's active discount percent, zero
// when none applies.
func (s *service) DiscountPercentFor(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if user.StudentVerifiedAt == nil {
		return decimal.Zero, nil
	}
	return StudentDiscountPercent, nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

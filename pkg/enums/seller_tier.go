package enums

import "fmt"

// SellerTier is the subscription level controlling commission rate and feature access.
type SellerTier string

const (
	SellerTierFree     SellerTier = "free"
	SellerTierPro      SellerTier = "pro"
	SellerTierBusiness SellerTier = "business"
	SellerTierPGAPro   SellerTier = "pga-pro"
)

var validSellerTiers = []SellerTier{
	SellerTierFree,
	SellerTierPro,
	SellerTierBusiness,
	SellerTierPGAPro,
}

// String implements fmt.Stringer.
func (t SellerTier) String() string {
	return string(t)
}

// IsValid reports whether the tier is recognized.
func (t SellerTier) IsValid() bool {
	for _, candidate := range validSellerTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSellerTier converts raw input into a SellerTier.
func ParseSellerTier(value string) (SellerTier, error) {
	for _, candidate := range validSellerTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller tier %q", value)
}

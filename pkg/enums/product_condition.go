package enums

import "fmt"

// ProductCondition grades the wear of second-hand golf equipment.
type ProductCondition string

const (
	ProductConditionNew       ProductCondition = "new"
	ProductConditionExcellent ProductCondition = "excellent"
	ProductConditionGood      ProductCondition = "good"
	ProductConditionFair      ProductCondition = "fair"
	ProductConditionWorn      ProductCondition = "worn"
)

var validProductConditions = []ProductCondition{
	ProductConditionNew,
	ProductConditionExcellent,
	ProductConditionGood,
	ProductConditionFair,
	ProductConditionWorn,
}

// String implements fmt.Stringer.
func (c ProductCondition) String() string {
	return string(c)
}

// IsValid reports whether the condition is known.
func (c ProductCondition) IsValid() bool {
	for _, candidate := range validProductConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCondition converts raw input into a ProductCondition.
func ParseProductCondition(value string) (ProductCondition, error) {
	for _, candidate := range validProductConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product condition %q", value)
}

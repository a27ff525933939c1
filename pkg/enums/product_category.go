package enums

import "fmt"

// ProductCategory buckets listings for search and shipping quotes.
type ProductCategory string

const (
	ProductCategoryDrivers     ProductCategory = "drivers"
	ProductCategoryIrons       ProductCategory = "irons"
	ProductCategoryWedges      ProductCategory = "wedges"
	ProductCategoryPutters     ProductCategory = "putters"
	ProductCategoryBags        ProductCategory = "bags"
	ProductCategoryApparel     ProductCategory = "apparel"
	ProductCategoryAccessories ProductCategory = "accessories"
)

var validProductCategories = []ProductCategory{
	ProductCategoryDrivers,
	ProductCategoryIrons,
	ProductCategoryWedges,
	ProductCategoryPutters,
	ProductCategoryBags,
	ProductCategoryApparel,
	ProductCategoryAccessories,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the category is known.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

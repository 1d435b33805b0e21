package enums

import "fmt"

// ProductStatus controls catalog visibility.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

var validProductStatuses = []ProductStatus{
	ProductStatusActive,
	ProductStatusDraft,
	ProductStatusArchived,
}

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductStatus.
func (p ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

// VariantKind distinguishes size and color variants of a product.
type VariantKind string

const (
	VariantKindSize  VariantKind = "size"
	VariantKindColor VariantKind = "color"
)

var validVariantKinds = []VariantKind{
	VariantKindSize,
	VariantKindColor,
}

// String implements fmt.Stringer.
func (v VariantKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VariantKind.
func (v VariantKind) IsValid() bool {
	for _, candidate := range validVariantKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVariantKind converts raw input into a VariantKind.
func ParseVariantKind(value string) (VariantKind, error) {
	for _, candidate := range validVariantKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid variant kind %q", value)
}

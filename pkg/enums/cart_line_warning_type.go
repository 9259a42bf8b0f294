package enums

import "fmt"

// CartLineWarningType flags a line whose snapshot no longer backs its quantity.
type CartLineWarningType string

const (
	CartLineWarningOutOfStock     CartLineWarningType = "out_of_stock"
	CartLineWarningStockBelowCart CartLineWarningType = "stock_below_quantity"
)

var validCartLineWarningTypes = []CartLineWarningType{
	CartLineWarningOutOfStock,
	CartLineWarningStockBelowCart,
}

// String implements fmt.Stringer.
func (w CartLineWarningType) String() string {
	return string(w)
}

// IsValid reports whether the warning type is recognized.
func (w CartLineWarningType) IsValid() bool {
	for _, candidate := range validCartLineWarningTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseCartLineWarningType converts a raw string into a CartLineWarningType.
func ParseCartLineWarningType(value string) (CartLineWarningType, error) {
	for _, candidate := range validCartLineWarningTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart line warning type %q", value)
}

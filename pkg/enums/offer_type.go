package enums

import "fmt"

// OfferType determines how an offer's value is applied to a subtotal.
type OfferType string

const (
	OfferTypePercent OfferType = "percent"
	OfferTypeFixed   OfferType = "fixed"
)

var validOfferTypes = []OfferType{
	OfferTypePercent,
	OfferTypeFixed,
}

// String implements fmt.Stringer.
func (o OfferType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OfferType.
func (o OfferType) IsValid() bool {
	for _, candidate := range validOfferTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOfferType converts raw input into an OfferType.
func ParseOfferType(value string) (OfferType, error) {
	for _, candidate := range validOfferTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer type %q", value)
}

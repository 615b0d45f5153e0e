package orders

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOfferNotAvailable  = errors.New("offer not active or expired")
	ErrOfferMinAmount     = errors.New("minimum order amount not met")
	ErrOfferNotApplicable = errors.New("offer not applicable to cart items")
)

type InvalidItem struct {
	ProductID string
	Name      string
	Reason    string
}

// CartValidationError lists the items that can no longer be purchased.
type CartValidationError struct {
	Items []InvalidItem
}

func (e *CartValidationError) Error() string {
	names := make([]string, len(e.Items))
	for i, it := range e.Items {
		names[i] = it.Name
	}
	return fmt.Sprintf("cart validation failed: %s", strings.Join(names, ", "))
}

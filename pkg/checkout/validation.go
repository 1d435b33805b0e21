package checkout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
)

// CartLine is one client-supplied line of a checkout request.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
	Size      *string
	Color     *string
}

// LineViolation explains why a submitted line was rejected.
type LineViolation struct {
	Index     int       `json:"index"`
	ProductID uuid.UUID `json:"product_id,omitempty"`
	Reason    string    `json:"reason"`
}

// ValidateLines checks the shape of the cart before any product is loaded.
func ValidateLines(lines []CartLine) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	var violations []LineViolation
	for i, line := range lines {
		switch {
		case line.ProductID == uuid.Nil:
			violations = append(violations, LineViolation{Index: i, Reason: "product id required"})
		case line.Quantity <= 0:
			violations = append(violations, LineViolation{Index: i, ProductID: line.ProductID, Reason: "quantity must be positive"})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid cart line(s): %d", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}

// Normalize trims optional variant selectors, turning blanks into nil.
func (l CartLine) Normalize() CartLine {
	l.Size = trimmedOrNil(l.Size)
	l.Color = trimmedOrNil(l.Color)
	return l
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

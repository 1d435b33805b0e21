package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/checkout"
	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// pricedLine is a cart line with the price snapshot taken at validation.
type pricedLine struct {
	checkout.CartLine
	ProductName string
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// stockKey identifies the counter a line draws from.
type stockKey struct {
	productID uuid.UUID
	kind      enums.VariantKind
	name      string
}

type pricedCart struct {
	lines    []pricedLine
	subtotal decimal.Decimal
}

// validateCart loads every product, checks the stock counter the line will
// later decrement, and prices the cart from stored prices. Quantities for
// the same counter are summed before comparing against stock.
func validateCart(ctx context.Context, products productLoader, lines []checkout.CartLine) (*pricedCart, error) {
	if err := checkout.ValidateLines(lines); err != nil {
		return nil, err
	}

	cache := make(map[uuid.UUID]*models.Product, len(lines))
	requested := make(map[stockKey]int, len(lines))
	available := make(map[stockKey]int, len(lines))
	out := &pricedCart{lines: make([]pricedLine, 0, len(lines)), subtotal: decimal.Zero}

	for i, raw := range lines {
		line := raw.Normalize()
		product, ok := cache[line.ProductID]
		if !ok {
			loaded, err := products.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, productNotFound(i, line.ProductID)
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if loaded.Status != enums.ProductStatusActive {
				return nil, productNotFound(i, line.ProductID)
			}
			cache[line.ProductID] = loaded
			product = loaded
		}

		unitPrice := product.Price
		key := stockKey{productID: product.ID}
		stock := product.Stock

		var sizeVariant, colorVariant *models.ProductVariant
		if line.Size != nil {
			v, ok := product.Variant(enums.VariantKindSize, *line.Size)
			if !ok {
				return nil, variantUnavailable(i, product, enums.VariantKindSize, *line.Size)
			}
			sizeVariant = &v
		}
		if line.Color != nil {
			v, ok := product.Variant(enums.VariantKindColor, *line.Color)
			if !ok {
				return nil, variantUnavailable(i, product, enums.VariantKindColor, *line.Color)
			}
			colorVariant = &v
		}
		switch {
		case sizeVariant != nil:
			key.kind, key.name, stock = enums.VariantKindSize, sizeVariant.Name, sizeVariant.Stock
		case colorVariant != nil:
			key.kind, key.name, stock = enums.VariantKindColor, colorVariant.Name, colorVariant.Stock
		}
		switch {
		case sizeVariant != nil && sizeVariant.Price.Valid:
			unitPrice = sizeVariant.Price.Decimal
		case colorVariant != nil && colorVariant.Price.Valid:
			unitPrice = colorVariant.Price.Decimal
		}

		requested[key] += line.Quantity
		available[key] = stock
		if requested[key] > stock {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", describe(product, key))).
				WithDetails(map[string]any{
					"index":      i,
					"product_id": product.ID,
					"product":    product.Name,
					"variant":    key.name,
					"requested":  requested[key],
					"available":  available[key],
				})
		}

		subtotal := checkout.LineSubtotal(unitPrice, line.Quantity)
		out.lines = append(out.lines, pricedLine{
			CartLine:    line,
			ProductName: product.Name,
			UnitPrice:   unitPrice,
			Subtotal:    subtotal,
		})
		out.subtotal = out.subtotal.Add(subtotal)
	}
	return out, nil
}

func productNotFound(index int, id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeProductNotFound, fmt.Sprintf("product %s not found", id)).
		WithDetails(map[string]any{"index": index, "product_id": id})
}

func variantUnavailable(index int, product *models.Product, kind enums.VariantKind, name string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %q is not offered for %s", kind, name, product.Name)).
		WithDetails(map[string]any{"index": index, "product_id": product.ID, string(kind): name})
}

func describe(product *models.Product, key stockKey) string {
	if key.name == "" {
		return product.Name
	}
	return fmt.Sprintf("%s (%s %s)", product.Name, key.kind, key.name)
}

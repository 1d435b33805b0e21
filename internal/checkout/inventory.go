package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/pawpantry/storefront-api/pkg/enums"
)

type stockAdjuster interface {
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
	DecrementVariantStock(ctx context.Context, productID uuid.UUID, kind enums.VariantKind, name string, qty int) error
}

// adjustInventory decrements the counter each line drew from: size variant,
// else color variant, else base stock. Every line is attempted; failures
// are combined.
func adjustInventory(ctx context.Context, stock stockAdjuster, lines []pricedLine) error {
	var errs error
	for _, line := range lines {
		var err error
		switch {
		case line.Size != nil:
			err = stock.DecrementVariantStock(ctx, line.ProductID, enums.VariantKindSize, *line.Size, line.Quantity)
		case line.Color != nil:
			err = stock.DecrementVariantStock(ctx, line.ProductID, enums.VariantKindColor, *line.Color, line.Quantity)
		default:
			err = stock.DecrementStock(ctx, line.ProductID, line.Quantity)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", line.ProductID, err))
		}
	}
	return errs
}

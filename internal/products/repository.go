package products

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/pagination"
)

// clampedDecrement subtracts a quantity and floors at zero in one statement.
const clampedDecrement = "CASE WHEN stock >= ? THEN stock - ? ELSE 0 END"

// Repository wraps product and variant persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a product with its variants.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("kind ASC, name ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveBySlug loads a published product by slug.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("kind ASC, name ASC")
		}).
		Where("slug = ? AND status = ?", slug, enums.ProductStatusActive).
		First(&product).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CatalogFilters narrows the public listing; zero values mean no filter.
type CatalogFilters struct {
	PetTypes   []string
	Categories []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       Sort
}

// CategoryCount is the number of active products in one category.
type CategoryCount struct {
	Category string
	Count    int64
}

// ListActive returns one page of active products and the total number of
// matches.
func (r *Repository) ListActive(ctx context.Context, filters CatalogFilters, page pagination.Page) ([]models.Product, int64, error) {
	var total int64
	if err := r.catalogQuery(ctx, filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.catalogQuery(ctx, filters).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("kind ASC, name ASC")
		})
	switch filters.Sort {
	case SortPriceLow:
		q = q.Order("price ASC").Order("id ASC")
	case SortPriceHigh:
		q = q.Order("price DESC").Order("id DESC")
	default:
		q = q.Order("created_at DESC").Order("id DESC")
	}

	var rows []models.Product
	if err := q.Offset(page.Offset()).Limit(page.Size).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CategoryCounts groups the active catalog by category.
func (r *Repository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("category, COUNT(*) AS count").
		Where("status = ?", enums.ProductStatusActive).
		Group("category").
		Order("category ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) catalogQuery(ctx context.Context, filters CatalogFilters) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("status = ?", enums.ProductStatusActive)
	if len(filters.PetTypes) > 0 {
		q = q.Where("pet_type IN ?", filters.PetTypes)
	}
	if len(filters.Categories) > 0 {
		q = q.Where("category IN ?", filters.Categories)
	}
	if filters.MinPrice != nil {
		q = q.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		q = q.Where("price <= ?", *filters.MaxPrice)
	}
	return q
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// Create inserts the product and any variants attached to it.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update saves the product columns without touching variants.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Variants").Save(product).Error
}

// ReplaceVariants swaps every variant of the given kind for the provided list.
func (r *Repository) ReplaceVariants(ctx context.Context, productID uuid.UUID, kind enums.VariantKind, variants []models.ProductVariant) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ? AND kind = ?", productID, kind).Delete(&models.ProductVariant{}).Error; err != nil {
		return err
	}
	if len(variants) == 0 {
		return nil
	}
	for i := range variants {
		variants[i].ProductID = productID
		variants[i].Kind = kind
	}
	return tx.Create(&variants).Error
}

// DecrementStock lowers base stock atomically without going negative.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr(clampedDecrement, qty, qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementVariantStock lowers a named variant's stock atomically without
// going negative.
func (r *Repository) DecrementVariantStock(ctx context.Context, productID uuid.UUID, kind enums.VariantKind, name string, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("product_id = ? AND kind = ? AND name = ?", productID, kind, name).
		Update("stock", gorm.Expr(clampedDecrement, qty, qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

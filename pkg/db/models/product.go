package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/types"
)

// Product is a catalog entry sold by the storefront.
type Product struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name         string              `gorm:"column:name;not null"`
	Slug         string              `gorm:"column:slug;not null;uniqueIndex"`
	Description  *string             `gorm:"column:description"`
	Price        decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Category     string              `gorm:"column:category;not null"`
	PetType      string              `gorm:"column:pet_type;not null"`
	Stock        int                 `gorm:"column:stock;not null;default:0"`
	Status       enums.ProductStatus `gorm:"column:status;type:text;not null;default:active"`
	Images       types.StringList    `gorm:"column:images"`
	SupplierLink *string             `gorm:"column:supplier_link"`
	VideoURL     *string             `gorm:"column:video_url"`
	Variants     []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Variant returns the variant of the given kind and name, if any.
func (p Product) Variant(kind enums.VariantKind, name string) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.Kind == kind && v.Name == name {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// ProductVariant is a size or color option with its own stock counter.
type ProductVariant struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID           `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_variants_identity"`
	Kind      enums.VariantKind   `gorm:"column:kind;type:text;not null;uniqueIndex:idx_product_variants_identity"`
	Name      string              `gorm:"column:name;not null;uniqueIndex:idx_product_variants_identity"`
	Stock     int                 `gorm:"column:stock;not null;default:0"`
	Price     decimal.NullDecimal `gorm:"column:price;type:numeric(12,2)"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
)

// ProductDTO is the public product payload.
type ProductDTO struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	Description  *string             `json:"description,omitempty"`
	Price        decimal.Decimal     `json:"price"`
	Category     string              `json:"category"`
	PetType      string              `json:"pet_type"`
	Stock        int                 `json:"stock"`
	Status       enums.ProductStatus `json:"status"`
	Images       []string            `json:"images"`
	SupplierLink *string             `json:"supplier_link,omitempty"`
	VideoURL     *string             `json:"video_url,omitempty"`
	Sizes        []VariantDTO        `json:"sizes"`
	Colors       []VariantDTO        `json:"colors"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type VariantDTO struct {
	Name  string           `json:"name"`
	Stock int              `json:"stock"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

func NewProductDTO(p *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        p.Price,
		Category:     p.Category,
		PetType:      p.PetType,
		Stock:        p.Stock,
		Status:       p.Status,
		Images:       append([]string{}, p.Images...),
		SupplierLink: p.SupplierLink,
		VideoURL:     p.VideoURL,
		Sizes:        []VariantDTO{},
		Colors:       []VariantDTO{},
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	for _, v := range p.Variants {
		out := VariantDTO{Name: v.Name, Stock: v.Stock}
		if v.Price.Valid {
			price := v.Price.Decimal
			out.Price = &price
		}
		switch v.Kind {
		case enums.VariantKindSize:
			dto.Sizes = append(dto.Sizes, out)
		case enums.VariantKindColor:
			dto.Colors = append(dto.Colors, out)
		}
	}
	return dto
}

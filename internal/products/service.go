package products

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/types"
)

// Service exposes catalog reads and admin product management.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	ListCatalog(ctx context.Context, query CatalogQuery) (*CatalogPageDTO, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name         string
	Slug         string
	Description  *string
	Price        decimal.Decimal
	Category     string
	PetType      string
	Stock        int
	Status       enums.ProductStatus
	Images       []string
	SupplierLink *string
	VideoURL     *string
	Sizes        []VariantInput
	Colors       []VariantInput
}

// UpdateProductInput carries optional changes; a non-nil variant list
// replaces every variant of that kind.
type UpdateProductInput struct {
	Name         *string
	Description  *string
	Price        *decimal.Decimal
	Category     *string
	PetType      *string
	Stock        *int
	Status       *enums.ProductStatus
	Images       *[]string
	SupplierLink *string
	VideoURL     *string
	Sizes        *[]VariantInput
	Colors       *[]VariantInput
}

type VariantInput struct {
	Name  string
	Stock int
	Price *decimal.Decimal
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	status := input.Status
	if status == "" {
		status = enums.ProductStatusActive
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}

	sizes, err := buildVariants(enums.VariantKindSize, input.Sizes)
	if err != nil {
		return nil, err
	}
	colors, err := buildVariants(enums.VariantKindColor, input.Colors)
	if err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, input.Slug, name)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:         name,
		Slug:         slug,
		Description:  input.Description,
		Price:        input.Price,
		Category:     strings.TrimSpace(input.Category),
		PetType:      strings.TrimSpace(input.PetType),
		Stock:        input.Stock,
		Status:       status,
		Images:       types.StringList(input.Images),
		SupplierLink: input.SupplierLink,
		VideoURL:     input.VideoURL,
		Variants:     append(sizes, colors...),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return NewProductDTO(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if err := applyUpdate(product, input); err != nil {
			return err
		}
		if err := repo.Update(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		if err := replaceVariants(ctx, repo, productID, enums.VariantKindSize, input.Sizes); err != nil {
			return err
		}
		if err := replaceVariants(ctx, repo, productID, enums.VariantKindColor, input.Colors); err != nil {
			return err
		}
		updated, err = repo.FindByID(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return NewProductDTO(updated), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return NewProductDTO(product), nil
}

func applyUpdate(p *models.Product, input UpdateProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		p.Name = name
	}
	if input.Description != nil {
		p.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		p.Price = *input.Price
	}
	if input.Category != nil {
		p.Category = strings.TrimSpace(*input.Category)
	}
	if input.PetType != nil {
		p.PetType = strings.TrimSpace(*input.PetType)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		p.Stock = *input.Stock
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
		}
		p.Status = *input.Status
	}
	if input.Images != nil {
		p.Images = types.StringList(*input.Images)
	}
	if input.SupplierLink != nil {
		p.SupplierLink = input.SupplierLink
	}
	if input.VideoURL != nil {
		p.VideoURL = input.VideoURL
	}
	return nil
}

func replaceVariants(ctx context.Context, repo *Repository, productID uuid.UUID, kind enums.VariantKind, input *[]VariantInput) error {
	if input == nil {
		return nil
	}
	variants, err := buildVariants(kind, *input)
	if err != nil {
		return err
	}
	if err := repo.ReplaceVariants(ctx, productID, kind, variants); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace variants")
	}
	return nil
}

func buildVariants(kind enums.VariantKind, input []VariantInput) ([]models.ProductVariant, error) {
	seen := make(map[string]struct{}, len(input))
	out := make([]models.ProductVariant, 0, len(input))
	for _, v := range input {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s name is required", kind))
		}
		if _, dup := seen[name]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate %s %q", kind, name))
		}
		seen[name] = struct{}{}
		if v.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %q stock cannot be negative", kind, name))
		}
		variant := models.ProductVariant{Kind: kind, Name: name, Stock: v.Stock}
		if v.Price != nil {
			if v.Price.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %q price cannot be negative", kind, name))
			}
			variant.Price = decimal.NewNullDecimal(*v.Price)
		}
		out = append(out, variant)
	}
	return out, nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (s *service) uniqueSlug(ctx context.Context, requested, name string) (string, error) {
	base := Slugify(requested)
	if base == "" {
		base = Slugify(name)
	}
	if base == "" {
		base = "product"
	}
	exists, err := s.repo.SlugExists(ctx, base)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}
	if !exists {
		return base, nil
	}
	if requested != "" {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
	}
	return base + "-" + uuid.NewString()[:8], nil
}

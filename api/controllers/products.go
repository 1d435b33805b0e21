package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/api/responses"
	"github.com/pawpantry/storefront-api/api/validators"
	"github.com/pawpantry/storefront-api/internal/products"
	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/logger"
	"github.com/pawpantry/storefront-api/pkg/pagination"
)

func ProductBySlug(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		slug, err := validators.PathParam(r, "slug", 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetBySlug(r.Context(), strings.ToLower(slug))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductCatalog lists active products with storefront filters.
func ProductCatalog(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		query, err := catalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListCatalog(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func catalogQuery(r *http.Request) (products.CatalogQuery, error) {
	var (
		query products.CatalogQuery
		err   error
	)
	if query.Page, err = validators.ParseQueryInt(r, "page", 1, 1, 10000); err != nil {
		return query, err
	}
	if query.PerPage, err = validators.ParseQueryInt(r, "per_page", products.CatalogPageSize, 1, pagination.MaxLimit); err != nil {
		return query, err
	}
	if query.MinPrice, err = validators.ParseOptionalQueryDecimal(r, "min_price"); err != nil {
		return query, err
	}
	if query.MaxPrice, err = validators.ParseOptionalQueryDecimal(r, "max_price"); err != nil {
		return query, err
	}
	query.Categories = validators.ParseQueryList(r, "categories")
	if len(query.Categories) == 0 {
		query.Categories = validators.ParseQueryList(r, "category")
	}
	query.PetType = validators.SanitizeString(r.URL.Query().Get("pet_type"), 40)
	query.Sort = validators.SanitizeString(r.URL.Query().Get("sort"), 20)
	return query, nil
}

type variantRequest struct {
	Name  string           `json:"name" validate:"required,max=80"`
	Stock int              `json:"stock" validate:"gte=0"`
	Price *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
}

type createProductRequest struct {
	Name         string           `json:"name" validate:"required,max=200"`
	Slug         string           `json:"slug,omitempty" validate:"omitempty,max=200"`
	Description  *string          `json:"description,omitempty"`
	Price        decimal.Decimal  `json:"price" validate:"gte=0"`
	Category     string           `json:"category" validate:"required,max=80"`
	PetType      string           `json:"pet_type" validate:"required,max=40"`
	Stock        int              `json:"stock" validate:"gte=0"`
	Status       string           `json:"status,omitempty" validate:"omitempty,oneof=active draft archived"`
	Images       []string         `json:"images,omitempty" validate:"omitempty,dive,url"`
	SupplierLink *string          `json:"supplier_link,omitempty" validate:"omitempty,url"`
	VideoURL     *string          `json:"video_url,omitempty" validate:"omitempty,url"`
	Sizes        []variantRequest `json:"sizes,omitempty" validate:"omitempty,dive"`
	Colors       []variantRequest `json:"colors,omitempty" validate:"omitempty,dive"`
}

func AdminCreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), products.CreateProductInput{
			Name:         payload.Name,
			Slug:         payload.Slug,
			Description:  payload.Description,
			Price:        payload.Price,
			Category:     payload.Category,
			PetType:      payload.PetType,
			Stock:        payload.Stock,
			Status:       enums.ProductStatus(payload.Status),
			Images:       payload.Images,
			SupplierLink: validators.OptionalString(payload.SupplierLink),
			VideoURL:     validators.OptionalString(payload.VideoURL),
			Sizes:        toVariantInputs(payload.Sizes),
			Colors:       toVariantInputs(payload.Colors),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

type updateProductRequest struct {
	Name         *string           `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string           `json:"description,omitempty"`
	Price        *decimal.Decimal  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category     *string           `json:"category,omitempty" validate:"omitempty,max=80"`
	PetType      *string           `json:"pet_type,omitempty" validate:"omitempty,max=40"`
	Stock        *int              `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Status       *string           `json:"status,omitempty" validate:"omitempty,oneof=active draft archived"`
	Images       *[]string         `json:"images,omitempty"`
	SupplierLink *string           `json:"supplier_link,omitempty" validate:"omitempty,url"`
	VideoURL     *string           `json:"video_url,omitempty" validate:"omitempty,url"`
	Sizes        *[]variantRequest `json:"sizes,omitempty"`
	Colors       *[]variantRequest `json:"colors,omitempty"`
}

func AdminUpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := products.UpdateProductInput{
			Name:         payload.Name,
			Description:  payload.Description,
			Price:        payload.Price,
			Category:     payload.Category,
			PetType:      payload.PetType,
			Stock:        payload.Stock,
			Images:       payload.Images,
			SupplierLink: payload.SupplierLink,
			VideoURL:     payload.VideoURL,
		}
		if payload.Status != nil {
			status := enums.ProductStatus(*payload.Status)
			input.Status = &status
		}
		if input.Sizes, err = replacementVariants(payload.Sizes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.Colors, err = replacementVariants(payload.Colors); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type variantList struct {
	Variants []variantRequest `json:"variants" validate:"dive"`
}

// replacementVariants validates a variant list sent on PATCH. nil keeps the
// stored variants; an empty list removes them.
func replacementVariants(list *[]variantRequest) (*[]products.VariantInput, error) {
	if list == nil {
		return nil, nil
	}
	if err := validators.Struct(variantList{Variants: *list}); err != nil {
		return nil, err
	}
	converted := toVariantInputs(*list)
	return &converted, nil
}

func toVariantInputs(in []variantRequest) []products.VariantInput {
	out := make([]products.VariantInput, 0, len(in))
	for _, v := range in {
		out = append(out, products.VariantInput{Name: v.Name, Stock: v.Stock, Price: v.Price})
	}
	return out
}

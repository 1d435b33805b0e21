package products

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/pagination"
)

// CatalogPageSize matches the storefront grid.
const CatalogPageSize = 12

// Sort orders the public catalog.
type Sort string

const (
	SortLatest    Sort = "latest"
	SortPriceLow  Sort = "price-low"
	SortPriceHigh Sort = "price-high"
)

func (s Sort) IsValid() bool {
	switch s {
	case SortLatest, SortPriceLow, SortPriceHigh:
		return true
	}
	return false
}

// petTypeBoth marks products suited to dogs and cats alike.
const petTypeBoth = "both"

// CatalogQuery is a storefront listing request. "all" or blank filters are
// ignored.
type CatalogQuery struct {
	PetType    string
	Categories []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
	Page       int
	PerPage    int
}

// CatalogPageDTO is one page of the storefront listing.
type CatalogPageDTO struct {
	Products       []ProductDTO     `json:"products"`
	Page           int              `json:"page"`
	PerPage        int              `json:"per_page"`
	Total          int64            `json:"total"`
	TotalPages     int              `json:"total_pages"`
	CategoryCounts map[string]int64 `json:"category_counts"`
}

func (s *service) ListCatalog(ctx context.Context, query CatalogQuery) (*CatalogPageDTO, error) {
	filters, err := catalogFilters(query)
	if err != nil {
		return nil, err
	}
	page := pagination.NewPage(query.Page, query.PerPage, CatalogPageSize)

	rows, total, err := s.repo.ListActive(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	counts, err := s.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count categories")
	}

	out := &CatalogPageDTO{
		Products:       make([]ProductDTO, 0, len(rows)),
		Page:           page.Number,
		PerPage:        page.Size,
		Total:          total,
		TotalPages:     page.TotalPages(total),
		CategoryCounts: make(map[string]int64, len(counts)),
	}
	for i := range rows {
		out.Products = append(out.Products, *NewProductDTO(&rows[i]))
	}
	for _, c := range counts {
		out.CategoryCounts[c.Category] = c.Count
	}
	return out, nil
}

func catalogFilters(query CatalogQuery) (CatalogFilters, error) {
	sort := Sort(strings.ToLower(strings.TrimSpace(query.Sort)))
	if sort == "" {
		sort = SortLatest
	}
	if !sort.IsValid() {
		return CatalogFilters{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown sort order").
			WithDetails(map[string]any{"field": "sort", "allowed": []Sort{SortLatest, SortPriceLow, SortPriceHigh}})
	}
	if query.MinPrice != nil && query.MaxPrice != nil && query.MinPrice.GreaterThan(*query.MaxPrice) {
		return CatalogFilters{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}

	filters := CatalogFilters{MinPrice: query.MinPrice, MaxPrice: query.MaxPrice, Sort: sort}
	switch pet := strings.ToLower(strings.TrimSpace(query.PetType)); pet {
	case "", "all":
	case "dog", "cat":
		filters.PetTypes = []string{pet, petTypeBoth}
	default:
		filters.PetTypes = []string{pet}
	}
	for _, c := range query.Categories {
		c = strings.TrimSpace(c)
		if c == "" || strings.EqualFold(c, "all") {
			continue
		}
		filters.Categories = append(filters.Categories, c)
	}
	return filters, nil
}

package catalog

import (
	"slices"
	"strings"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

// AllBrands is the brand filter value that shows every product.
const AllBrands = "All"

// Brands returns the distinct brands of list, sorted.
func Brands(list []domain.Product) []string {
	seen := make(map[string]bool)
	var brands []string
	for _, p := range list {
		b := strings.TrimSpace(p.Brand)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		brands = append(brands, b)
	}
	slices.Sort(brands)
	return brands
}

// FilterByBrand returns the products of brand; "" and AllBrands keep all.
func FilterByBrand(list []domain.Product, brand string) []domain.Product {
	if brand == "" || brand == AllBrands {
		return slices.Clone(list)
	}
	out := make([]domain.Product, 0, len(list))
	for _, p := range list {
		if strings.TrimSpace(p.Brand) == brand {
			out = append(out, p)
		}
	}
	return out
}

// ApplyDelete returns a copy of list without the product whose ID is id.
func ApplyDelete(list []domain.Product, id string) []domain.Product {
	return slices.DeleteFunc(slices.Clone(list), func(p domain.Product) bool { return p.ID == id })
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

func products() []domain.Product {
	return []domain.Product{
		{ID: "1", Brand: "Zara"},
		{ID: "2", Brand: "Dika"},
		{ID: "3", Brand: " Dika "},
		{ID: "4", Brand: ""},
	}
}

func TestBrands(t *testing.T) {
	assert.Equal(t, []string{"Dika", "Zara"}, Brands(products()))
	assert.Empty(t, Brands(nil))
}

func TestFilterByBrand(t *testing.T) {
	list := products()

	assert.Len(t, FilterByBrand(list, AllBrands), 4)
	assert.Len(t, FilterByBrand(list, ""), 4)

	got := FilterByBrand(list, "Dika")
	assert.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Empty(t, FilterByBrand(list, "Uniqlo"))
}

func TestProductApplyDelete(t *testing.T) {
	list := products()

	got := ApplyDelete(list, "2")

	assert.Len(t, got, 3)
	assert.Len(t, list, 4)
	for _, p := range got {
		assert.NotEqual(t, "2", p.ID)
	}
}

package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fields are the text fields of a product form.
type Fields struct {
	Title       string
	Brand       string
	Description string
	Color       string
	Price       decimal.Decimal
	Stock       int
}

// FieldError reports an invalid form field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ParseFields reads and validates product fields from a submitted form.
func ParseFields(form url.Values) (Fields, error) {
	f := Fields{
		Title:       strings.TrimSpace(form.Get("title")),
		Brand:       strings.TrimSpace(form.Get("brand")),
		Description: strings.TrimSpace(form.Get("description")),
		Color:       strings.TrimSpace(form.Get("color")),
	}
	if f.Title == "" {
		return f, &FieldError{Field: "title", Reason: "required"}
	}
	if f.Brand == "" {
		return f, &FieldError{Field: "brand", Reason: "required"}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(form.Get("price")))
	if err != nil {
		return f, &FieldError{Field: "price", Reason: "must be a number"}
	}
	if price.IsNegative() {
		return f, &FieldError{Field: "price", Reason: "must not be negative"}
	}
	f.Price = price

	stock, err := strconv.Atoi(strings.TrimSpace(form.Get("stock")))
	if err != nil {
		return f, &FieldError{Field: "stock", Reason: "must be a whole number"}
	}
	if stock < 0 {
		return f, &FieldError{Field: "stock", Reason: "must not be negative"}
	}
	f.Stock = stock
	return f, nil
}

// values renders the fields in the order the API expects them.
func (f Fields) values() [][2]string {
	v := [][2]string{
		{"title", f.Title},
		{"brand", f.Brand},
		{"description", f.Description},
		{"price", f.Price.String()},
		{"stock", strconv.Itoa(f.Stock)},
	}
	if f.Color != "" {
		v = append(v, [2]string{"color", f.Color})
	}
	return v
}

// Package customer holds the list rules of the customer screen.
package customer

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode"

	"github.com/vbonduro/dikaadmin/internal/api"
	"github.com/vbonduro/dikaadmin/internal/domain"
)

// FilterByWhatsApp returns the customers whose WhatsApp number contains
// query. An empty query keeps everyone.
func FilterByWhatsApp(list []domain.Customer, query string) []domain.Customer {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(list)
	}
	out := make([]domain.Customer, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.WhatsApp), q) {
			out = append(out, c)
		}
	}
	return out
}

// ApplyUpdate returns a copy of list with the entry matching updated.ID
// replaced.
func ApplyUpdate(list []domain.Customer, updated domain.Customer) []domain.Customer {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = updated
		}
	}
	return out
}

func Find(list []domain.Customer, id string) (domain.Customer, bool) {
	i := slices.IndexFunc(list, func(c domain.Customer) bool { return c.ID == id })
	if i < 0 {
		return domain.Customer{}, false
	}
	return list[i], true
}

// ParseUpdate reads the edit form. A blank password leaves the credential
// unchanged.
func ParseUpdate(form url.Values) (api.CustomerUpdate, error) {
	upd := api.CustomerUpdate{
		Name:     strings.TrimSpace(form.Get("name")),
		WhatsApp: strings.TrimSpace(form.Get("whatsapp")),
		Password: form.Get("password"),
	}
	if upd.Name == "" {
		return upd, fmt.Errorf("name is required")
	}
	if upd.WhatsApp == "" {
		return upd, fmt.Errorf("whatsapp is required")
	}
	if strings.TrimSpace(upd.Password) == "" {
		upd.Password = ""
	}
	return upd, nil
}

// ChatLink returns the wa.me link for a WhatsApp number, or "" when it holds
// no digits.
func ChatLink(whatsapp string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, whatsapp)
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits
}

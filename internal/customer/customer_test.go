package customer

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

func customers() []domain.Customer {
	return []domain.Customer{
		{ID: "1", Name: "Budi", WhatsApp: "6281234"},
		{ID: "2", Name: "Sari", WhatsApp: "6285678"},
		{ID: "3", Name: "Tono", WhatsApp: "+62 812 99"},
	}
}

func TestFilterByWhatsApp(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3"}},
		{"   ", []string{"1", "2", "3"}},
		{"6281", []string{"1"}},
		{"5678", []string{"2"}},
		{"812", []string{"1", "3"}},
		{"999", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var ids []string
			for _, c := range FilterByWhatsApp(customers(), tt.query) {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestApplyUpdate(t *testing.T) {
	list := customers()

	got := ApplyUpdate(list, domain.Customer{ID: "2", Name: "Sari W", WhatsApp: "62800"})

	assert.Equal(t, "Sari W", got[1].Name)
	assert.Equal(t, "Sari", list[1].Name)
	assert.Equal(t, list[0], got[0])
	assert.Equal(t, list[2], got[2])

	c, ok := Find(got, "2")
	require.True(t, ok)
	assert.Equal(t, "62800", c.WhatsApp)
	_, ok = Find(got, "9")
	assert.False(t, ok)
}

func TestParseUpdate(t *testing.T) {
	upd, err := ParseUpdate(url.Values{"name": {" Budi "}, "whatsapp": {"62812"}, "password": {"  "}})
	require.NoError(t, err)
	assert.Equal(t, "Budi", upd.Name)
	assert.Empty(t, upd.Password)

	upd, err = ParseUpdate(url.Values{"name": {"Budi"}, "whatsapp": {"62812"}, "password": {"baru123"}})
	require.NoError(t, err)
	assert.Equal(t, "baru123", upd.Password)

	_, err = ParseUpdate(url.Values{"whatsapp": {"62812"}})
	assert.Error(t, err)
	_, err = ParseUpdate(url.Values{"name": {"Budi"}})
	assert.Error(t, err)
}

func TestChatLink(t *testing.T) {
	assert.Equal(t, "https://wa.me/6281299", ChatLink("+62 812-99"))
	assert.Empty(t, ChatLink("n/a"))
}

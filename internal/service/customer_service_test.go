package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dikaadmin/internal/api"
	"github.com/vbonduro/dikaadmin/internal/domain"
)

func sampleCustomers() []domain.Customer {
	return []domain.Customer{
		{ID: "c1", Name: "Sari", WhatsApp: "081234567890"},
		{ID: "c2", Name: "Budi", WhatsApp: "085700011122"},
	}
}

func TestCustomerSearch(t *testing.T) {
	fake := &fakeAPI{customers: sampleCustomers()}
	svc := NewCustomerService(fake, slog.Default())
	ctx := context.Background()

	all, err := svc.Search(ctx, "s1", "tok", "  ")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := svc.Search(ctx, "s1", "tok", "0857")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "c2", found[0].ID)
}

func TestCustomerUpdateReplacesEntry(t *testing.T) {
	fake := &fakeAPI{customers: sampleCustomers()}
	svc := NewCustomerService(fake, slog.Default())
	ctx := context.Background()

	_, err := svc.Load(ctx, "s1", "tok")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "s1", "tok", "c1", api.CustomerUpdate{Name: "Sari W", WhatsApp: "0899"})
	require.NoError(t, err)
	assert.Equal(t, "Sari W", updated.Name)

	c, found, err := svc.Get(ctx, "s1", "tok", "c1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "0899", c.WhatsApp)

	list, err := svc.Search(ctx, "s1", "tok", "")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCustomerUpdateFailureLeavesList(t *testing.T) {
	fake := &fakeAPI{customers: sampleCustomers()}
	svc := NewCustomerService(fake, slog.Default())
	ctx := context.Background()

	_, err := svc.Load(ctx, "s1", "tok")
	require.NoError(t, err)

	fake.err = &api.Error{StatusCode: 400, Message: "Nomor sudah terdaftar"}
	_, err = svc.Update(ctx, "s1", "tok", "c1", api.CustomerUpdate{Name: "X"})
	require.Error(t, err)
	assert.Equal(t, "Nomor sudah terdaftar", api.Message(err, ""))

	fake.err = nil
	c, found, err := svc.Get(ctx, "s1", "tok", "c1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Sari", c.Name)
}

func TestCustomerGetMissing(t *testing.T) {
	svc := NewCustomerService(&fakeAPI{customers: sampleCustomers()}, slog.Default())
	_, found, err := svc.Get(context.Background(), "s1", "tok", "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCustomerForget(t *testing.T) {
	fake := &fakeAPI{customers: sampleCustomers()}
	svc := NewCustomerService(fake, slog.Default())
	ctx := context.Background()

	_, err := svc.Load(ctx, "s1", "tok")
	require.NoError(t, err)
	svc.Forget("s1")

	fake.customers = fake.customers[:1]
	list, err := svc.Search(ctx, "s1", "tok", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

package service

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"sync"

	"github.com/vbonduro/dikaadmin/internal/api"
	"github.com/vbonduro/dikaadmin/internal/domain"
	"github.com/vbonduro/dikaadmin/internal/events"
)

// fakeAPI stands in for the shop API.
type fakeAPI struct {
	mu sync.Mutex

	orders    []domain.Order
	products  []domain.Product
	customers []domain.Customer

	listOrderCalls int
	updateCalls    int
	deleteCalls    int
	productCalls   int
	err            error
	block          chan struct{}

	lastParts map[string][]string
}

func (f *fakeAPI) Login(_ context.Context, username, password string) (string, error) {
	if password != "rahasia" {
		return "", &api.Error{StatusCode: 401, Message: "Password salah"}
	}
	return "tok-" + username, nil
}

func (f *fakeAPI) ListOrders(context.Context, string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listOrderCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Order(nil), f.orders...), nil
}

func (f *fakeAPI) UpdateOrderStatus(_ context.Context, _, id string, status domain.OrderStatus) (*domain.Order, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = status
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, &api.Error{StatusCode: 404, Message: "Order tidak ditemukan"}
}

func (f *fakeAPI) DeleteOrder(_ context.Context, _, id string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.err != nil {
		return f.err
	}
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders = append(f.orders[:i], f.orders[i+1:]...)
			return nil
		}
	}
	return &api.Error{StatusCode: 404}
}

func (f *fakeAPI) ListProducts(context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Product(nil), f.products...), nil
}

func (f *fakeAPI) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, &api.Error{StatusCode: 404, Message: "Produk tidak ditemukan"}
}

func (f *fakeAPI) CreateProduct(_ context.Context, body io.Reader, contentType string) (string, error) {
	return f.recordMultipart(body, contentType, "Produk berhasil dibuat")
}

func (f *fakeAPI) UpdateProduct(_ context.Context, _ string, body io.Reader, contentType string) (string, error) {
	return f.recordMultipart(body, contentType, "Produk berhasil diperbarui")
}

func (f *fakeAPI) recordMultipart(body io.Reader, contentType, msg string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	if f.err != nil {
		return "", f.err
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", err
	}
	parts := make(map[string][]string)
	r := multipart.NewReader(body, params["boundary"])
	for {
		p, err := r.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		data, _ := io.ReadAll(p)
		v := string(data)
		if p.FileName() != "" {
			v = p.FileName()
		}
		parts[p.FormName()] = append(parts[p.FormName()], v)
	}
	f.lastParts = parts
	return msg, nil
}

func (f *fakeAPI) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAPI) ListCustomers(context.Context, string) ([]domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Customer(nil), f.customers...), nil
}

func (f *fakeAPI) UpdateCustomer(_ context.Context, _, id string, upd api.CustomerUpdate) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Customer{ID: id, Name: upd.Name, WhatsApp: upd.WhatsApp}, nil
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// memActivity is an in-memory activityRepository.
type memActivity struct {
	mu      sync.Mutex
	entries []*domain.Activity
	err     error
}

func (m *memActivity) Record(_ context.Context, a domain.Activity) (*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, &a)
	return &a, nil
}

func (m *memActivity) Recent(_ context.Context, limit int) ([]*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Activity
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vbonduro/dikaadmin/internal/catalog"
	"github.com/vbonduro/dikaadmin/internal/domain"
)

// productAPI is the subset of api.Client that CatalogService requires.
type productAPI interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, body io.Reader, contentType string) (string, error)
	UpdateProduct(ctx context.Context, id string, body io.Reader, contentType string) (string, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductShelf is the product screen after the brand filter is applied.
type ProductShelf struct {
	Brand    string
	Brands   []string
	Products []domain.Product
}

type CatalogService struct {
	api    productAPI
	drafts *catalog.Drafts
	views  *views[domain.Product]
	logger *slog.Logger
}

func NewCatalogService(api productAPI, drafts *catalog.Drafts, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		api:    api,
		drafts: drafts,
		views:  newViews[domain.Product](),
		logger: logger,
	}
}

func (s *CatalogService) Drafts() *catalog.Drafts { return s.drafts }

// Shelf fetches the products for the session and applies the brand filter.
func (s *CatalogService) Shelf(ctx context.Context, sid, brand string) (*ProductShelf, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	s.views.set(sid, products)
	return shelf(products, brand), nil
}

func shelf(products []domain.Product, brand string) *ProductShelf {
	if brand == "" {
		brand = catalog.AllBrands
	}
	return &ProductShelf{
		Brand:    brand,
		Brands:   catalog.Brands(products),
		Products: catalog.FilterByBrand(products, brand),
	}
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.api.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// StartCreate opens a draft for a new product.
func (s *CatalogService) StartCreate() catalog.Draft {
	return s.drafts.Start("", 0)
}

// StartUpdate loads product id and opens a draft whose detail cap accounts
// for the photos the product already has.
func (s *CatalogService) StartUpdate(ctx context.Context, id string) (*domain.Product, catalog.Draft, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, catalog.Draft{}, err
	}
	return p, s.drafts.Start(p.ID, len(p.PhotoDetails)), nil
}

// Create submits the draft as a new product. A draft without a display
// photo is rejected before anything is sent.
func (s *CatalogService) Create(ctx context.Context, draftID string, fields catalog.Fields) (string, error) {
	var msg string
	err := s.drafts.Submit(ctx, draftID, func(d catalog.Draft) error {
		if err := d.Photos.ValidateCreate(); err != nil {
			return err
		}
		var err error
		msg, err = s.send(ctx, d, fields, func(p *catalog.Payload) (string, error) {
			return s.api.CreateProduct(ctx, p.Body, p.ContentType)
		})
		return err
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("product created", "title", fields.Title, "brand", fields.Brand)
	return msg, nil
}

// Update submits the draft as changes to product id. Without a new display
// photo the server keeps the current one.
func (s *CatalogService) Update(ctx context.Context, id, draftID string, fields catalog.Fields) (string, error) {
	var msg string
	err := s.drafts.Submit(ctx, draftID, func(d catalog.Draft) error {
		if d.ProductID != id {
			return fmt.Errorf("draft belongs to product %q, not %q", d.ProductID, id)
		}
		if err := d.Photos.ValidateUpdate(); err != nil {
			return err
		}
		var err error
		msg, err = s.send(ctx, d, fields, func(p *catalog.Payload) (string, error) {
			return s.api.UpdateProduct(ctx, id, p.Body, p.ContentType)
		})
		return err
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("product updated", "product_id", id)
	return msg, nil
}

func (s *CatalogService) send(ctx context.Context, d catalog.Draft, fields catalog.Fields, call func(*catalog.Payload) (string, error)) (string, error) {
	var closers []func()
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	var display *catalog.File
	if d.Photos.Display != nil {
		f, closeFn, err := s.drafts.Open(ctx, *d.Photos.Display)
		if err != nil {
			return "", err
		}
		closers = append(closers, closeFn)
		display = &f
	}
	details := make([]catalog.File, 0, len(d.Photos.Details))
	for _, p := range d.Photos.Details {
		f, closeFn, err := s.drafts.Open(ctx, p)
		if err != nil {
			return "", err
		}
		closers = append(closers, closeFn)
		details = append(details, f)
	}

	payload, err := catalog.BuildPayload(fields, display, details)
	if err != nil {
		return "", err
	}
	return call(payload)
}

// Delete removes product id and drops it from the session's list.
func (s *CatalogService) Delete(ctx context.Context, sid, id, brand string) (*ProductShelf, error) {
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	s.logger.Info("product deleted", "product_id", id)
	list, ok := s.views.update(sid, func(list []domain.Product) []domain.Product {
		return catalog.ApplyDelete(list, id)
	})
	if !ok {
		return s.Shelf(ctx, sid, brand)
	}
	return shelf(list, brand), nil
}

// Forget drops the session's list.
func (s *CatalogService) Forget(sid string) {
	s.views.forget(sid)
}

// Evict drops the lists of sessions idle for longer than idle.
func (s *CatalogService) Evict(idle time.Duration) int {
	return s.views.evict(idle)
}

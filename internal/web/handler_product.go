package web

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/csrf"

	"github.com/vbonduro/dikaadmin/internal/api"
	"github.com/vbonduro/dikaadmin/internal/catalog"
	"github.com/vbonduro/dikaadmin/internal/domain"
	"github.com/vbonduro/dikaadmin/internal/logging"
	"github.com/vbonduro/dikaadmin/internal/service"
)

type productsView struct {
	CSRFField template.HTML
	Brand     string
	Brands    []string
	AllBrand  string
	Products  []domain.Product
}

// productForm is the create/edit form. Product is nil when creating.
type productForm struct {
	CSRFField template.HTML
	Product   *domain.Product
	Draft     catalog.Draft
	Max       int
	Values    url.Values
	Error     string
}

func (f productForm) Action() string {
	if f.Product == nil {
		return "/products"
	}
	return "/products/" + f.Product.ID
}

// Photos is the photo section of the form.
func (f productForm) Photos() draftPhotos {
	return draftPhotos{CSRFField: f.CSRFField, Draft: f.Draft, Max: catalog.MaxDetailPhotos}
}

func productsURL(brand string) string {
	if brand == "" || brand == catalog.AllBrands {
		return "/products"
	}
	return "/products?brand=" + url.QueryEscape(brand)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	shelf, err := s.svc.Catalog.Shelf(r.Context(), sid, r.URL.Query().Get("brand"))
	if err != nil {
		s.apiFailed(w, r, err, "Gagal memuat produk", "/products")
		return
	}
	s.renderProducts(w, r, shelf)
}

func (s *Server) renderProducts(w http.ResponseWriter, r *http.Request, shelf *service.ProductShelf) {
	log := logging.FromContext(r.Context())
	v := productsView{
		CSRFField: csrf.TemplateField(r),
		Brand:     shelf.Brand,
		Brands:    shelf.Brands,
		AllBrand:  catalog.AllBrands,
		Products:  shelf.Products,
	}
	if isHTMX(r) {
		if err := s.renderPartial(w, "partials/product_list.html", "product_list", v); err != nil {
			log.Error("render partial failed", "error", err)
		}
		return
	}
	p := s.newPage(w, r, "Produk", "products", v)
	if err := s.renderPage(w, p, "base.html", "pages/products.html", "partials/product_list.html"); err != nil {
		log.Error("render page failed", "error", err)
	}
}

// resumeDraft returns the draft named by ?draft= when it belongs to productID.
func (s *Server) resumeDraft(r *http.Request, productID string) (catalog.Draft, bool) {
	id := r.URL.Query().Get("draft")
	if id == "" {
		return catalog.Draft{}, false
	}
	d, err := s.svc.Catalog.Drafts().Get(id)
	if err != nil || d.ProductID != productID {
		return catalog.Draft{}, false
	}
	return d, true
}

func (s *Server) handleNewProduct(w http.ResponseWriter, r *http.Request) {
	d, ok := s.resumeDraft(r, "")
	if !ok {
		d = s.svc.Catalog.StartCreate()
	}
	s.renderProductForm(w, r, http.StatusOK, productForm{Draft: d, Values: url.Values{}})
}

func (s *Server) handleEditProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if d, ok := s.resumeDraft(r, id); ok {
		p, err := s.svc.Catalog.Get(r.Context(), id)
		if err != nil {
			s.apiFailed(w, r, err, "Produk tidak ditemukan", "/products")
			return
		}
		s.renderProductForm(w, r, http.StatusOK, productForm{Product: p, Draft: d, Values: productValues(p)})
		return
	}

	p, d, err := s.svc.Catalog.StartUpdate(r.Context(), id)
	if err != nil {
		s.apiFailed(w, r, err, "Produk tidak ditemukan", "/products")
		return
	}
	s.renderProductForm(w, r, http.StatusOK, productForm{Product: p, Draft: d, Values: productValues(p)})
}

func productValues(p *domain.Product) url.Values {
	return url.Values{
		"title":       {p.Title},
		"brand":       {p.Brand},
		"description": {p.Description},
		"color":       {p.Color},
		"price":       {p.Price.String()},
		"stock":       {strconv.Itoa(p.Stock)},
	}
}

func (s *Server) renderProductForm(w http.ResponseWriter, r *http.Request, status int, f productForm) {
	f.Max = catalog.MaxDetailPhotos
	f.CSRFField = csrf.TemplateField(r)
	title := "Tambah Produk"
	if f.Product != nil {
		title = "Ubah Produk"
	}
	p := s.newPage(w, r, title, "products", f)
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	if err := s.renderPage(w, p, "base.html", "pages/product_form.html", "partials/draft_photos.html"); err != nil {
		logging.FromContext(r.Context()).Error("render page failed", "error", err)
	}
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	s.submitProduct(w, r, nil)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.apiFailed(w, r, err, "Produk tidak ditemukan", "/products")
		return
	}
	s.submitProduct(w, r, p)
}

// submitProduct sends the form and its draft photos. On any rejection the
// form is shown again with the same draft so nothing has to be re-selected.
func (s *Server) submitProduct(w http.ResponseWriter, r *http.Request, existing *domain.Product) {
	log := logging.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	draftID := r.PostFormValue("draft")
	d, err := s.svc.Catalog.Drafts().Get(draftID)
	if err != nil {
		s.notice(w, r, "Formulir kedaluwarsa, silakan ulangi", "/products")
		return
	}
	form := productForm{Product: existing, Draft: d, Values: r.PostForm}

	fields, err := catalog.ParseFields(r.PostForm)
	if err != nil {
		form.Error = fieldMessage(err)
		s.renderProductForm(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	var msg string
	if existing == nil {
		msg, err = s.svc.Catalog.Create(r.Context(), draftID, fields)
	} else {
		msg, err = s.svc.Catalog.Update(r.Context(), existing.ID, draftID, fields)
	}
	switch {
	case err == nil:
		if msg == "" {
			msg = "Produk disimpan"
		}
		s.sessions.AddFlash(w, r, "success", msg)
		http.Redirect(w, r, "/products", http.StatusSeeOther)
	case errors.Is(err, catalog.ErrDisplayPhotoRequired):
		form.Error = "Foto utama wajib dipilih"
		s.renderProductForm(w, r, http.StatusUnprocessableEntity, form)
	case errors.Is(err, catalog.ErrTooManyDetailPhotos):
		form.Error = "Maksimal 5 foto detail"
		s.renderProductForm(w, r, http.StatusUnprocessableEntity, form)
	case errors.Is(err, catalog.ErrDraftNotFound):
		s.notice(w, r, "Formulir sudah dikirim atau kedaluwarsa", "/products")
	default:
		if errors.Is(err, api.ErrUnauthorized) {
			s.apiFailed(w, r, err, "", "/products")
			return
		}
		log.Error("save product failed", "error", err)
		form.Error = api.Message(err, "Gagal menyimpan produk")
		s.renderProductForm(w, r, http.StatusBadGateway, form)
	}
}

func fieldMessage(err error) string {
	var fe *catalog.FieldError
	if !errors.As(err, &fe) {
		return err.Error()
	}
	switch fe.Field {
	case "title":
		return "Nama produk wajib diisi"
	case "brand":
		return "Brand wajib diisi"
	case "price":
		return "Harga tidak valid"
	case "stock":
		return "Stok tidak valid"
	}
	return fe.Error()
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	brand := r.FormValue("brand")
	shelf, err := s.svc.Catalog.Delete(r.Context(), sid, r.PathValue("id"), brand)
	if err != nil {
		s.apiFailed(w, r, err, "Gagal menghapus produk", productsURL(brand))
		return
	}
	if isHTMX(r) {
		s.renderProducts(w, r, shelf)
		return
	}
	s.sessions.AddFlash(w, r, "success", "Produk dihapus")
	http.Redirect(w, r, productsURL(brand), http.StatusSeeOther)
}

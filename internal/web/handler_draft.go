package web

import (
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"

	"github.com/vbonduro/dikaadmin/internal/catalog"
	"github.com/vbonduro/dikaadmin/internal/logging"
	"github.com/vbonduro/dikaadmin/internal/photostore"
)

const maxPhotoSize = 10 * 1024 * 1024 // 10 MB

// maxFormOverhead covers the multipart framing and the CSRF field around one
// photo.
const maxFormOverhead = 64 * 1024

// allowedImageTypes is the set of MIME types accepted for product photos.
// DetectContentType recognises JPEG, PNG and GIF; it has no WebP signature,
// so isWebP checks that one by hand.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// draftPhotos is the photo section of the product form.
type draftPhotos struct {
	CSRFField template.HTML
	Draft     catalog.Draft
	Max       int
	Error     string
}

// readUpload reads the "photo" file of a multipart request. The body is cut
// off past one photo's worth of bytes.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (catalog.Upload, string) {
	if r.ContentLength > maxPhotoSize+maxFormOverhead {
		return catalog.Upload{}, "Ukuran foto maksimal 10 MB"
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+maxFormOverhead)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return catalog.Upload{}, "Ukuran foto maksimal 10 MB"
		}
		return catalog.Upload{}, "Pilih foto terlebih dahulu"
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		return catalog.Upload{}, "Pilih foto terlebih dahulu"
	}
	if header.Size > maxPhotoSize {
		_ = file.Close()
		return catalog.Upload{}, "Ukuran foto maksimal 10 MB"
	}
	defer closeWithLog(file, "upload file", logging.FromContext(r.Context()))

	data, err := io.ReadAll(file)
	if err != nil {
		logging.FromContext(r.Context()).Error("read upload failed", "error", err)
		return catalog.Upload{}, "Foto tidak dapat dibaca"
	}
	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return catalog.Upload{}, "Format foto tidak didukung"
	}
	return catalog.Upload{Filename: header.Filename, MimeType: mimeType, Data: data}, ""
}

func (s *Server) handleDraftDisplay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("draft")
	u, problem := s.readUpload(w, r)
	if problem != "" {
		s.renderDraftPhotos(w, r, id, problem)
		return
	}
	_, err := s.svc.Catalog.Drafts().SetDisplay(r.Context(), id, u)
	s.draftChanged(w, r, id, err)
}

func (s *Server) handleDraftDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("draft")
	u, problem := s.readUpload(w, r)
	if problem != "" {
		s.renderDraftPhotos(w, r, id, problem)
		return
	}
	_, err := s.svc.Catalog.Drafts().AddDetail(r.Context(), id, u)
	s.draftChanged(w, r, id, err)
}

func (s *Server) handleDraftRemoveDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("draft")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "invalid photo index", http.StatusBadRequest)
		return
	}
	_, err = s.svc.Catalog.Drafts().RemoveDetail(r.Context(), id, index)
	s.draftChanged(w, r, id, err)
}

func (s *Server) handleDraftDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Catalog.Drafts().Discard(r.Context(), r.PathValue("draft")); err != nil && !errors.Is(err, catalog.ErrDraftNotFound) {
		logging.FromContext(r.Context()).Error("discard draft failed", "error", err)
	}
	redirect(w, r, "/products")
}

// draftChanged renders the photo section after a change to draft id, with a
// message when err rejected the change.
func (s *Server) draftChanged(w http.ResponseWriter, r *http.Request, id string, err error) {
	var problem string
	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrDraftNotFound):
		s.notice(w, r, "Formulir kedaluwarsa, silakan ulangi", "/products")
		return
	case errors.Is(err, catalog.ErrTooManyDetailPhotos):
		problem = "Maksimal 5 foto detail"
	case errors.Is(err, catalog.ErrNoSuchPhoto):
		problem = "Foto tidak ditemukan"
	default:
		logging.FromContext(r.Context()).Warn("draft photo rejected", "draft_id", id, "error", err)
		problem = "Foto tidak dapat diproses"
	}
	s.renderDraftPhotos(w, r, id, problem)
}

func (s *Server) renderDraftPhotos(w http.ResponseWriter, r *http.Request, id, problem string) {
	d, err := s.svc.Catalog.Drafts().Get(id)
	if err != nil {
		s.notice(w, r, "Formulir kedaluwarsa, silakan ulangi", "/products")
		return
	}
	if !isHTMX(r) {
		if problem != "" {
			s.sessions.AddFlash(w, r, "error", problem)
		}
		http.Redirect(w, r, draftFormURL(d), http.StatusSeeOther)
		return
	}
	v := draftPhotos{CSRFField: csrf.TemplateField(r), Draft: d, Max: catalog.MaxDetailPhotos, Error: problem}
	if err := s.renderPartial(w, "partials/draft_photos.html", "draft_photos", v); err != nil {
		logging.FromContext(r.Context()).Error("render partial failed", "error", err)
	}
}

// draftFormURL is the form page that resumes d.
func draftFormURL(d catalog.Draft) string {
	if d.ProductID == "" {
		return "/products/new?draft=" + d.ID
	}
	return "/products/" + d.ProductID + "/edit?draft=" + d.ID
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	reader, mimeType, err := s.photoStore.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		if !errors.Is(err, photostore.ErrNotFound) {
			logging.FromContext(r.Context()).Warn("preview unavailable", "key", r.PathValue("key"), "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "preview reader", logging.FromContext(r.Context()))

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, reader); err != nil {
		logging.FromContext(r.Context()).Error("write preview failed", "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}

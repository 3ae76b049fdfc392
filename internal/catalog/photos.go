// Package catalog composes product create and update requests: form fields,
// the display photo and up to MaxDetailPhotos detail photos.
package catalog

import (
	"errors"
	"fmt"
)

// MaxDetailPhotos caps the detail photos of a product, counting photos the
// product already has.
const MaxDetailPhotos = 5

var (
	ErrTooManyDetailPhotos  = fmt.Errorf("a product can have at most %d detail photos", MaxDetailPhotos)
	ErrDisplayPhotoRequired = errors.New("a display photo is required")
	ErrNoSuchPhoto          = errors.New("no such detail photo")
)

// Photo is an uploaded file staged in the photo store. PreviewKey points at
// the downscaled JPEG shown in the form.
type Photo struct {
	Key        string
	PreviewKey string
	Filename   string
	MimeType   string
}

// PhotoSet is the set of photos selected in a product form. Existing counts
// detail photos the product already has on the server; they are kept by the
// server and only count toward the cap.
type PhotoSet struct {
	Display  *Photo
	Details  []Photo
	Existing int
}

// DetailCount is the number of detail photos the product would end up with.
func (s PhotoSet) DetailCount() int {
	return s.Existing + len(s.Details)
}

// Remaining is how many more detail photos may be added.
func (s PhotoSet) Remaining() int {
	return max(0, MaxDetailPhotos-s.DetailCount())
}

// SetDisplay selects p as display photo and returns the photo it replaced.
func (s *PhotoSet) SetDisplay(p Photo) (replaced *Photo) {
	replaced = s.Display
	s.Display = &p
	return replaced
}

// CanAddDetail reports whether one more detail photo fits.
func (s *PhotoSet) CanAddDetail() error {
	if s.DetailCount() >= MaxDetailPhotos {
		return ErrTooManyDetailPhotos
	}
	return nil
}

// AddDetail appends p. When the set is full it is left unchanged.
func (s *PhotoSet) AddDetail(p Photo) error {
	if err := s.CanAddDetail(); err != nil {
		return err
	}
	s.Details = append(s.Details, p)
	return nil
}

// RemoveDetail drops the newly selected detail photo at index i.
func (s *PhotoSet) RemoveDetail(i int) (Photo, error) {
	if i < 0 || i >= len(s.Details) {
		return Photo{}, ErrNoSuchPhoto
	}
	removed := s.Details[i]
	s.Details = append(s.Details[:i:i], s.Details[i+1:]...)
	return removed, nil
}

// ValidateCreate checks the set before a product is created.
func (s *PhotoSet) ValidateCreate() error {
	if s.Display == nil {
		return ErrDisplayPhotoRequired
	}
	if s.DetailCount() > MaxDetailPhotos {
		return ErrTooManyDetailPhotos
	}
	return nil
}

// ValidateUpdate checks the set before a product is updated. The display
// photo is optional; the server keeps the current one.
func (s *PhotoSet) ValidateUpdate() error {
	if s.DetailCount() > MaxDetailPhotos {
		return ErrTooManyDetailPhotos
	}
	return nil
}

// Keys lists every stored key held by the set, previews included.
func (s *PhotoSet) Keys() []string {
	var keys []string
	add := func(p Photo) {
		for _, k := range []string{p.Key, p.PreviewKey} {
			if k != "" {
				keys = append(keys, k)
			}
		}
	}
	if s.Display != nil {
		add(*s.Display)
	}
	for _, p := range s.Details {
		add(p)
	}
	return keys
}

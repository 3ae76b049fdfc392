package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/dikaadmin/internal/photostore"
)

var ErrDraftNotFound = errors.New("draft not found")

// Upload is a file as received from the browser.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

// Draft is a product form in progress. ProductID is empty for a new product.
type Draft struct {
	ID        string
	ProductID string
	Photos    PhotoSet
	UpdatedAt time.Time
}

type draftEntry struct {
	mu    sync.Mutex
	draft Draft
}

// Drafts stages the photos of product forms in progress. Every staged file
// and preview is deleted from the photo store as soon as it is superseded,
// removed, the draft is discarded or submitted, or the draft expires.
type Drafts struct {
	store  photostore.PhotoStore
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	drafts map[string]*draftEntry
}

func NewDrafts(store photostore.PhotoStore, ttl time.Duration, logger *slog.Logger) *Drafts {
	return &Drafts{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
		drafts: make(map[string]*draftEntry),
	}
}

// Start opens a draft. existingDetails is the number of detail photos the
// product already has.
func (d *Drafts) Start(productID string, existingDetails int) Draft {
	e := &draftEntry{draft: Draft{
		ID:        uuid.NewString(),
		ProductID: productID,
		Photos:    PhotoSet{Existing: existingDetails},
		UpdatedAt: d.now(),
	}}
	d.mu.Lock()
	d.drafts[e.draft.ID] = e
	d.mu.Unlock()
	return e.draft
}

func (d *Drafts) entry(id string) (*draftEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return e, nil
}

// Get returns a snapshot of the draft.
func (d *Drafts) Get(id string) (Draft, error) {
	e, err := d.entry(id)
	if err != nil {
		return Draft{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.draft), nil
}

// SetDisplay stages u as display photo, releasing the one it replaces.
func (d *Drafts) SetDisplay(ctx context.Context, id string, u Upload) (Draft, error) {
	e, err := d.entry(id)
	if err != nil {
		return Draft{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := d.stage(ctx, id+"_display", u)
	if err != nil {
		return Draft{}, err
	}
	if old := e.draft.Photos.SetDisplay(p); old != nil {
		d.release(ctx, *old)
	}
	e.draft.UpdatedAt = d.now()
	return snapshot(e.draft), nil
}

// AddDetail stages u as a detail photo. A full set rejects the photo before
// anything is stored and stays as it was.
func (d *Drafts) AddDetail(ctx context.Context, id string, u Upload) (Draft, error) {
	e, err := d.entry(id)
	if err != nil {
		return Draft{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.draft.Photos.CanAddDetail(); err != nil {
		return snapshot(e.draft), err
	}
	p, err := d.stage(ctx, id+"_detail", u)
	if err != nil {
		return Draft{}, err
	}
	if err := e.draft.Photos.AddDetail(p); err != nil {
		d.release(ctx, p)
		return snapshot(e.draft), err
	}
	e.draft.UpdatedAt = d.now()
	return snapshot(e.draft), nil
}

// RemoveDetail drops a newly added detail photo and releases its files.
func (d *Drafts) RemoveDetail(ctx context.Context, id string, index int) (Draft, error) {
	e, err := d.entry(id)
	if err != nil {
		return Draft{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	removed, err := e.draft.Photos.RemoveDetail(index)
	if err != nil {
		return snapshot(e.draft), err
	}
	d.release(ctx, removed)
	e.draft.UpdatedAt = d.now()
	return snapshot(e.draft), nil
}

// Discard forgets the draft and releases all its files.
func (d *Drafts) Discard(ctx context.Context, id string) error {
	d.mu.Lock()
	e, ok := d.drafts[id]
	delete(d.drafts, id)
	d.mu.Unlock()
	if !ok {
		return ErrDraftNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	d.releaseKeys(ctx, e.draft.Photos.Keys())
	return nil
}

// Submit runs send with the draft locked. When send succeeds the draft is
// forgotten and its files released; otherwise it is kept for another try. A
// second submit of the same draft waits for the first and then finds the
// draft gone.
func (d *Drafts) Submit(ctx context.Context, id string, send func(Draft) error) error {
	e, err := d.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	d.mu.Lock()
	_, live := d.drafts[id]
	d.mu.Unlock()
	if !live {
		return ErrDraftNotFound
	}

	if err := send(snapshot(e.draft)); err != nil {
		return err
	}

	d.mu.Lock()
	delete(d.drafts, id)
	d.mu.Unlock()
	d.releaseKeys(ctx, e.draft.Photos.Keys())
	return nil
}

// Sweep discards drafts untouched for longer than the TTL and returns how
// many were dropped.
func (d *Drafts) Sweep(ctx context.Context) int {
	cutoff := d.now().Add(-d.ttl)

	d.mu.Lock()
	entries := make(map[string]*draftEntry, len(d.drafts))
	for id, e := range d.drafts {
		entries[id] = e
	}
	d.mu.Unlock()

	var stale []string
	for id, e := range entries {
		e.mu.Lock()
		if e.draft.UpdatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
		e.mu.Unlock()
	}

	for _, id := range stale {
		if err := d.Discard(ctx, id); err != nil && !errors.Is(err, ErrDraftNotFound) {
			d.logger.Error("failed to discard stale draft", "draft_id", id, "error", err)
		}
	}
	return len(stale)
}

// RunSweeper sweeps every interval until ctx is done.
func (d *Drafts) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.Sweep(ctx); n > 0 {
				d.logger.Info("discarded stale drafts", "count", n)
			}
		}
	}
}

// Open returns a File reading the staged original of p. The caller closes it.
func (d *Drafts) Open(ctx context.Context, p Photo) (File, func(), error) {
	rc, _, err := d.store.Get(ctx, p.Key)
	if err != nil {
		return File{}, nil, fmt.Errorf("failed to open staged photo: %w", err)
	}
	closeFn := func() {
		if err := rc.Close(); err != nil {
			d.logger.Error("failed to close staged photo", "key", p.Key, "error", err)
		}
	}
	return File{Filename: p.Filename, MimeType: p.MimeType, Body: rc}, closeFn, nil
}

func (d *Drafts) stage(ctx context.Context, prefix string, u Upload) (Photo, error) {
	preview, err := MakePreview(u.Data, PreviewWidth)
	if err != nil {
		return Photo{}, err
	}

	key, err := d.store.Save(ctx, prefix, u.MimeType, bytes.NewReader(u.Data))
	if err != nil {
		return Photo{}, fmt.Errorf("failed to stage photo: %w", err)
	}
	previewKey, err := d.store.Save(ctx, prefix+"_preview", "image/jpeg", bytes.NewReader(preview))
	if err != nil {
		d.releaseKeys(ctx, []string{key})
		return Photo{}, fmt.Errorf("failed to stage preview: %w", err)
	}
	return Photo{Key: key, PreviewKey: previewKey, Filename: u.Filename, MimeType: u.MimeType}, nil
}

func (d *Drafts) release(ctx context.Context, p Photo) {
	d.releaseKeys(ctx, []string{p.Key, p.PreviewKey})
}

func (d *Drafts) releaseKeys(ctx context.Context, keys []string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := d.store.Delete(ctx, k); err != nil && !errors.Is(err, photostore.ErrNotFound) {
			d.logger.Error("failed to release staged photo", "key", k, "error", err)
		}
	}
}

func snapshot(dr Draft) Draft {
	out := dr
	if dr.Photos.Display != nil {
		p := *dr.Photos.Display
		out.Photos.Display = &p
	}
	out.Photos.Details = append([]Photo(nil), dr.Photos.Details...)
	return out
}

package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photo(n int) Photo {
	return Photo{Key: fmt.Sprintf("k%d", n), PreviewKey: fmt.Sprintf("p%d", n), Filename: fmt.Sprintf("%d.jpg", n)}
}

func TestSixthDetailPhotoRejected(t *testing.T) {
	var s PhotoSet
	for i := 0; i < MaxDetailPhotos; i++ {
		require.NoError(t, s.AddDetail(photo(i)))
	}

	err := s.AddDetail(photo(99))

	assert.ErrorIs(t, err, ErrTooManyDetailPhotos)
	assert.Len(t, s.Details, MaxDetailPhotos)
	assert.Equal(t, 0, s.Remaining())
}

func TestExistingPhotosCountTowardCap(t *testing.T) {
	s := PhotoSet{Existing: 3}
	require.NoError(t, s.AddDetail(photo(1)))
	require.NoError(t, s.AddDetail(photo(2)))

	assert.ErrorIs(t, s.AddDetail(photo(3)), ErrTooManyDetailPhotos)
	assert.Len(t, s.Details, 2)
	assert.Equal(t, 5, s.DetailCount())
}

func TestRemoveDetail(t *testing.T) {
	var s PhotoSet
	for i := 0; i < 3; i++ {
		require.NoError(t, s.AddDetail(photo(i)))
	}

	removed, err := s.RemoveDetail(1)
	require.NoError(t, err)
	assert.Equal(t, "k1", removed.Key)
	assert.Equal(t, []string{"k0", "k2"}, []string{s.Details[0].Key, s.Details[1].Key})

	_, err = s.RemoveDetail(5)
	assert.ErrorIs(t, err, ErrNoSuchPhoto)
	_, err = s.RemoveDetail(-1)
	assert.ErrorIs(t, err, ErrNoSuchPhoto)
}

func TestSetDisplayReturnsReplaced(t *testing.T) {
	var s PhotoSet
	assert.Nil(t, s.SetDisplay(photo(1)))

	old := s.SetDisplay(photo(2))
	require.NotNil(t, old)
	assert.Equal(t, "k1", old.Key)
	assert.Equal(t, "k2", s.Display.Key)
}

func TestValidate(t *testing.T) {
	var s PhotoSet
	assert.ErrorIs(t, s.ValidateCreate(), ErrDisplayPhotoRequired)
	assert.NoError(t, s.ValidateUpdate())

	s.SetDisplay(photo(1))
	assert.NoError(t, s.ValidateCreate())

	over := PhotoSet{Existing: 6}
	assert.ErrorIs(t, over.ValidateUpdate(), ErrTooManyDetailPhotos)
}

func TestKeys(t *testing.T) {
	var s PhotoSet
	s.SetDisplay(photo(0))
	require.NoError(t, s.AddDetail(photo(1)))
	require.NoError(t, s.AddDetail(Photo{Key: "only"}))

	assert.Equal(t, []string{"k0", "p0", "k1", "p1", "only"}, s.Keys())
}

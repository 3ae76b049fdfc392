package catalog

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngImage returns an encoded w×h PNG.
func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMakePreviewDownscales(t *testing.T) {
	out, err := MakePreview(pngImage(t, 1280, 640), PreviewWidth)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, PreviewWidth, img.Bounds().Dx())
	assert.Equal(t, PreviewWidth/2, img.Bounds().Dy())
}

func TestMakePreviewKeepsSmallImages(t *testing.T) {
	out, err := MakePreview(pngImage(t, 100, 50), PreviewWidth)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestMakePreviewRejectsGarbage(t *testing.T) {
	_, err := MakePreview([]byte("%PDF-1.4"), PreviewWidth)
	assert.Error(t, err)
}

func TestMakePreviewDecodesWebP(t *testing.T) {
	data, err := os.ReadFile("testdata/photo.webp")
	require.NoError(t, err)

	out, err := MakePreview(data, PreviewWidth)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}

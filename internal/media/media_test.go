package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestParseDataURI(t *testing.T) {
	mimeType, data, err := ParseDataURI("data:image/jpeg;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	assert.Equal(t, []byte("hello"), data)

	_, _, err = ParseDataURI("hello")
	assert.ErrorIs(t, err, ErrNotDataURI)

	_, _, err = ParseDataURI("data:image/jpeg,aGVsbG8=")
	assert.ErrorIs(t, err, ErrNotDataURI)

	_, _, err = ParseDataURI("data:image/jpeg;base64,!!!")
	assert.Error(t, err)
}

func TestBuildDataURIRoundTrip(t *testing.T) {
	uri := BuildDataURI(MIMETypePNG, []byte{1, 2, 3})
	assert.Equal(t, "data:image/png;base64,AQID", uri)
}

func TestSniffImage(t *testing.T) {
	mimeType, err := SniffImage(encodePNG(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, MIMETypePNG, mimeType)

	_, err = SniffImage([]byte("plain text"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestMIMETypeForExt(t *testing.T) {
	assert.Equal(t, MIMETypeJPEG, MIMETypeForExt(".jpg"))
	assert.Equal(t, MIMETypeJPEG, MIMETypeForExt("JPEG"))
	assert.Equal(t, MIMETypePNG, MIMETypeForExt(".PNG"))
	assert.Equal(t, MIMETypeGIF, MIMETypeForExt(".gif"))
}

func TestThumbnailDownscales(t *testing.T) {
	uri := BuildDataURI(MIMETypePNG, encodePNG(t, 400, 100))

	thumb, err := Thumbnail(uri, 200)
	require.NoError(t, err)

	mimeType, data, err := ParseDataURI(thumb)
	require.NoError(t, err)
	assert.Equal(t, MIMETypePNG, mimeType)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestThumbnailJPEGStaysJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 100, 300)), nil))

	thumb, err := Thumbnail(BuildDataURI(MIMETypeJPEG, buf.Bytes()), 60)
	require.NoError(t, err)

	mimeType, data, err := ParseDataURI(thumb)
	require.NoError(t, err)
	assert.Equal(t, MIMETypeJPEG, mimeType)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 60, cfg.Height)
}

func TestThumbnailSmallImageUnchanged(t *testing.T) {
	uri := BuildDataURI(MIMETypePNG, encodePNG(t, 10, 10))
	thumb, err := Thumbnail(uri, 200)
	require.NoError(t, err)
	assert.Equal(t, uri, thumb)
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	_, err := Thumbnail("data:image/png;base64,aGVsbG8=", 50)
	assert.Error(t, err)
}

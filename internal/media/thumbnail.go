package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	_ "image/gif" // Register GIF decoder

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// DefaultQuality is the JPEG quality used for thumbnails.
const DefaultQuality = 80

// Thumbnail downscales the image in a data URI so its longest side is at most
// maxSide pixels. Images already within the bound are returned unchanged.
func Thumbnail(uri string, maxSide int) (string, error) {
	mimeType, data, err := ParseDataURI(uri)
	if err != nil {
		return "", err
	}
	if maxSide <= 0 {
		return uri, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := targetSize(bounds.Dx(), bounds.Dy(), maxSide)
	if w == bounds.Dx() && h == bounds.Dy() {
		return uri, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png", "gif":
		// Keep transparency; GIF thumbnails are re-encoded as PNG.
		err = png.Encode(&buf, dst)
		mimeType = MIMETypePNG
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: DefaultQuality})
		mimeType = MIMETypeJPEG
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return BuildDataURI(mimeType, buf.Bytes()), nil
}

func targetSize(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		nh := int(float64(h) * float64(maxSide) / float64(w))
		return maxSide, max(nh, 1)
	}
	nw := int(float64(w) * float64(maxSide) / float64(h))
	return max(nw, 1), maxSide
}

// Package media handles the data URIs exchanged with the origin and the
// downscaled thumbnails served to the gallery strip.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotDataURI means the string lacks the data:<mime>;base64, prefix.
	ErrNotDataURI = errors.New("not a base64 data URI")
	// ErrNotImage means the payload does not sniff as an image.
	ErrNotImage = errors.New("payload is not an image")
)

// MIME type constants.
const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeGIF  = "image/gif"
	MIMETypeWebP = "image/webp"
)

// BuildDataURI encodes data as data:<mime>;base64,<payload>.
func BuildDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a base64 data URI into its MIME type and decoded bytes.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	mimeType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok || mimeType == "" {
		return "", nil, ErrNotDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}
	return mimeType, data, nil
}

// SniffImage returns the image MIME type of data or ErrNotImage.
func SniffImage(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mimeType)
	}
	return mimeType, nil
}

// MIMETypeForExt maps a file extension to the MIME type used in data URIs.
func MIMETypeForExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return MIMETypePNG
	case "gif":
		return MIMETypeGIF
	case "webp":
		return MIMETypeWebP
	default:
		return MIMETypeJPEG
	}
}

// Package imagefile recognises uploaded image bytes and reads their natural
// size.
package imagefile

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned for data that is not one of the accepted formats.
var ErrNotImage = errors.New("not a supported image")

// allowedTypes is the set of MIME types accepted for uploaded images.
// net/http.DetectContentType handles JPEG, PNG, GIF and BMP via magic-byte
// sniffing. WebP is checked first by its RIFF header.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// Sniff returns the detected MIME type and true if data is an accepted image
// format, or ("", false) otherwise.
func Sniff(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedTypes[mime] {
		return mime, true
	}
	return "", false
}

// IsImageMIME reports whether a declared content type permits an image
// upload. An empty or application/octet-stream type declares nothing and is
// accepted; the bytes decide. Any other type must be image/*.
func IsImageMIME(mimeType string) bool {
	if mimeType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	return mediaType == "application/octet-stream" || strings.HasPrefix(mediaType, "image/")
}

// Size decodes only the image header and returns the pixel dimensions.
func Size(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: empty image", ErrNotImage)
	}
	return cfg.Width, cfg.Height, nil
}

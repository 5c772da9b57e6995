package storage

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"minato/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register the WebP decoder
)

const (
	// maxImageEdge caps the longer edge of stored media.
	maxImageEdge = 2048
	webpQuality  = 80
)

// NormalizeImage validates an uploaded picture, caps its dimensions, and
// re-encodes it as WebP so every stored media object shares one format. The
// returned error is a validation error for anything that is not a decodable
// JPEG, PNG, GIF, or WebP image.
func NormalizeImage(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, models.NewValidationError("file is empty")
	}
	if !isAllowedImageType(http.DetectContentType(data)) {
		return nil, models.NewValidationError("unsupported media type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewValidationError("invalid image file")
	}

	resized := shrinkToFit(decoded, maxImageEdge)
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, resized, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

func isAllowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// shrinkToFit scales the image down so neither edge exceeds max, keeping the
// aspect ratio. Images already within bounds pass through untouched.
func shrinkToFit(src image.Image, max int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return src
	}

	scale := float64(max) / float64(w)
	if h > w {
		scale = float64(max) / float64(h)
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

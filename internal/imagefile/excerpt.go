package imagefile

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Excerpt cuts a window x window square centred on (cx, cy), clipped to the
// image, scales it so the longer side is at most maxSide and returns it as
// PNG.
func Excerpt(data []byte, cx, cy float64, window, maxSide int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	half := window / 2
	x, y := b.Min.X+int(cx), b.Min.Y+int(cy)
	crop := image.Rect(x-half, y-half, x+half, y+half).Intersect(b)
	if crop.Empty() {
		return nil, fmt.Errorf("excerpt at (%.0f, %.0f) lies outside the image", cx, cy)
	}

	w, h := crop.Dx(), crop.Dy()
	if longest := max(w, h); longest > maxSide {
		w = w * maxSide / longest
		h = h * maxSide / longest
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode excerpt: %w", err)
	}
	return buf.Bytes(), nil
}

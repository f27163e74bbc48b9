package annotate

import "github.com/vbonduro/explainui/internal/domain"

const (
	MinZoom     = domain.MinZoom
	MaxZoom     = domain.MaxZoom
	zoomInStep  = 1.1
	zoomOutStep = 0.9
)

// Rect is the viewport position of the canvas container.
type Rect struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// View is the pan/zoom transform from image space to container space:
// container = image*Zoom + Pan.
type View struct {
	Zoom float64
	Pan  domain.Point
}

// DefaultView is the identity transform.
func DefaultView() View {
	return View{Zoom: 1}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampToImage clamps p to [0, width] x [0, height].
func ClampToImage(p domain.Point, size domain.NaturalSize) domain.Point {
	return domain.Point{
		X: clamp(p.X, 0, size.Width),
		Y: clamp(p.Y, 0, size.Height),
	}
}

// ViewportToImagePoint converts a pointer position into image-intrinsic
// coordinates. ok is false when the container is not mounted or the image
// size is not known yet; callers ignore the interaction in that case.
func ViewportToImagePoint(clientX, clientY float64, container *Rect, view View, size domain.NaturalSize) (domain.Point, bool) {
	if container == nil || !size.Known() || view.Zoom <= 0 {
		return domain.Point{}, false
	}
	p := domain.Point{
		X: (clientX - container.Left - view.Pan.X) / view.Zoom,
		Y: (clientY - container.Top - view.Pan.Y) / view.Zoom,
	}
	return ClampToImage(p, size), true
}

// ImageToViewportPoint is the unclamped inverse of ViewportToImagePoint.
func ImageToViewportPoint(p domain.Point, container Rect, view View) domain.Point {
	return domain.Point{
		X: p.X*view.Zoom + view.Pan.X + container.Left,
		Y: p.Y*view.Zoom + view.Pan.Y + container.Top,
	}
}

// ZoomAt rescales view by one wheel notch around cursor (container-relative)
// so the image point under the cursor stays put. deltaY < 0 zooms in,
// deltaY > 0 zooms out and zero leaves the view unchanged.
func ZoomAt(view View, cursor domain.Point, deltaY float64) View {
	var factor float64
	switch {
	case deltaY < 0:
		factor = zoomInStep
	case deltaY > 0:
		factor = zoomOutStep
	default:
		return view
	}

	next := clamp(view.Zoom*factor, MinZoom, MaxZoom)

	imageX := (cursor.X - view.Pan.X) / view.Zoom
	imageY := (cursor.Y - view.Pan.Y) / view.Zoom

	return View{
		Zoom: next,
		Pan: domain.Point{
			X: cursor.X - imageX*next,
			Y: cursor.Y - imageY*next,
		},
	}
}

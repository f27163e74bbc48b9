package annotate

import (
	"context"

	"github.com/vbonduro/explainui/internal/domain"
)

// ImageReleaser frees the backing resource of an image reference.
type ImageReleaser interface {
	Release(ctx context.Context, ref string) error
}

// ImageHandle is the editor's owned reference to the loaded image. Release
// must be called whenever the image is superseded or the session is cleared;
// it is safe to call more than once.
type ImageHandle struct {
	ref      string
	size     domain.NaturalSize
	releaser ImageReleaser
	released bool
}

func newImageHandle(ref string, size domain.NaturalSize, r ImageReleaser) *ImageHandle {
	return &ImageHandle{ref: ref, size: size, releaser: r}
}

func (h *ImageHandle) Ref() string { return h.ref }

// Size is the natural size decoded when the image was loaded. It is not
// affected by imports.
func (h *ImageHandle) Size() domain.NaturalSize { return h.size }

func (h *ImageHandle) Released() bool { return h.released }

func (h *ImageHandle) Release(ctx context.Context) error {
	if h == nil || h.released {
		return nil
	}
	h.released = true
	if h.releaser == nil {
		return nil
	}
	return h.releaser.Release(ctx, h.ref)
}

package steps

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/pipeline"
)

// ImageChangeDetection flags whether the screen changed since the client's
// previous frame, using a sampled checksum rather than perceptual hashing
// so it stays well inside the frame budget.
//
// The first frame seen for a client caches its checksum but reports no
// change: a change is always relative to a previous observation.
type ImageChangeDetection struct {
	mu        sync.Mutex
	checksums map[uuid.UUID]uint64
	stride    int
}

// NewImageChangeDetection creates the detector with the default sampling
// stride.
func NewImageChangeDetection() *ImageChangeDetection {
	return &ImageChangeDetection{
		checksums: make(map[uuid.UUID]uint64),
		stride:    16,
	}
}

// WithStride overrides the pixel sampling stride (minimum 1).
func (d *ImageChangeDetection) WithStride(stride int) *ImageChangeDetection {
	if stride < 1 {
		stride = 1
	}
	d.stride = stride
	return d
}

func (d *ImageChangeDetection) Name() string { return "ImageChangeDetection" }

func (d *ImageChangeDetection) Phase() pipeline.Phase { return pipeline.PhaseDetection }

func (d *ImageChangeDetection) ShouldExecute(*pipeline.Accumulator) bool { return true }

func (d *ImageChangeDetection) Execute(fc *pipeline.Context, acc *pipeline.Accumulator, _ []string) pipeline.Result {
	img := fc.Frame.Image
	if img == nil || len(img.Pixels) == 0 {
		return pipeline.Fail(ErrNoImage)
	}

	sum := d.checksum(img)

	d.mu.Lock()
	prev, seen := d.checksums[fc.ClientID]
	d.checksums[fc.ClientID] = sum
	d.mu.Unlock()

	acc.ImageChanged = seen && prev != sum
	return pipeline.Completed()
}

// Forget drops the cached checksum for a departed client.
func (d *ImageChangeDetection) Forget(client uuid.UUID) {
	d.mu.Lock()
	delete(d.checksums, client)
	d.mu.Unlock()
}

func (d *ImageChangeDetection) checksum(img *bot.Image) uint64 {
	var sum uint64
	var pixels uint64
	for y := 0; y < img.Height; y += d.stride {
		for x := 0; x < img.Width; x += d.stride {
			r, g, b := img.At(x, y)
			px := uint64(r)<<16 | uint64(g)<<8 | uint64(b)
			sum = sum*31 + px
			pixels++
		}
	}
	// Fold in the sample count so dimension changes always register.
	return sum*31 + pixels
}

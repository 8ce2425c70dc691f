package audio

import (
	"math"
	"sync/atomic"
)

// Tap keeps the most recent mono samples for spectral analysis on the frame loop.
// Each sample is an atomic slot, so the capture callback never waits on the reader.
// A reader racing the writer may see a buffer spanning two callbacks, which is fine
// for display purposes.
type Tap struct {
	samples []atomic.Uint32
	written atomic.Uint64
}

const defaultBufferSize = 2048

// NewTap allocates a tap holding size samples.
func NewTap(size int) *Tap {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Tap{samples: make([]atomic.Uint32, size)}
}

// Write downmixes an interleaved buffer into the ring.
func (t *Tap) Write(in []float32, channels int) {
	if channels <= 0 {
		channels = 1
	}
	size := uint64(len(t.samples))
	pos := t.written.Load()
	frames := len(in) / channels
	for i := 0; i < frames; i++ {
		base := i * channels
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += in[base+ch]
		}
		t.samples[(pos+uint64(i))%size].Store(math.Float32bits(sum / float32(channels)))
	}
	t.written.Store(pos + uint64(frames))
}

// Read copies the newest samples into dst, oldest first, and returns how many were copied.
func (t *Tap) Read(dst []float32) int {
	size := uint64(len(t.samples))
	written := t.written.Load()
	n := uint64(len(dst))
	if n > size {
		n = size
	}
	if n > written {
		n = written
	}
	start := written - n
	for i := uint64(0); i < n; i++ {
		dst[i] = math.Float32frombits(t.samples[(start+i)%size].Load())
	}
	return int(n)
}

// Size returns the ring capacity.
func (t *Tap) Size() int {
	return len(t.samples)
}

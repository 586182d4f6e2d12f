/*package accel is the boundary between the CPU-side tree pipeline and the
accelerator that evaluates forces. The pipeline only ever touches
accelerator memory through the StagingMemory interface, whose Map calls
block until the accelerator has released the buffer. Host is the in-process
implementation used by the headless runner and the tests; a real device
backend satisfies the same interface.
*/
package accel

import (
	"fmt"
	"unsafe"

	"github.com/gravitree/gravitree/geom"
	"github.com/gravitree/gravitree/tree"
)

// Params is the per-dispatch uniform state handed to a force kernel. The
// coordinator refreshes RootWidth every step so the kernel's opening-angle
// test runs against the same spatial scale the tree was built with.
type Params struct {
	G, E, DT  float32
	Theta     float32
	RootWidth float32
}

// Buffer is a handle to one accelerator-visible allocation. Its contents
// may only be touched between a successful Map call and the matching Unmap.
type Buffer struct {
	data   []byte
	mapped bool
}

// Size returns the buffer's capacity in bytes.
func (b *Buffer) Size() int { return len(b.data) }

// StagingMemory hands out host-visible views of accelerator buffers. Map
// calls block until the view is safe to touch; a mapping that cannot be
// satisfied is fatal to the step that requested it.
type StagingMemory interface {
	NewBuffer(size int) *Buffer
	MapForRead(b *Buffer) ([]byte, error)
	MapForWrite(b *Buffer) ([]byte, error)
	Unmap(b *Buffer) error
	// Copy moves the first n bytes of src into dst. Both buffers must be
	// unmapped.
	Copy(dst, src *Buffer, n int) error
}

// Host is a StagingMemory whose buffers are plain host allocations. Mapping
// never waits; the discipline errors are kept so coordinator bugs surface
// the same way they would against a real device.
type Host struct{}

// NewHost returns a host-memory StagingMemory.
func NewHost() *Host { return &Host{} }

func (h *Host) NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

func (h *Host) MapForRead(b *Buffer) ([]byte, error) {
	return h.mapBuffer(b)
}

func (h *Host) MapForWrite(b *Buffer) ([]byte, error) {
	return h.mapBuffer(b)
}

func (h *Host) mapBuffer(b *Buffer) ([]byte, error) {
	if b.mapped {
		return nil, fmt.Errorf("accel: buffer is already mapped.")
	}
	b.mapped = true
	return b.data, nil
}

func (h *Host) Unmap(b *Buffer) error {
	if !b.mapped {
		return fmt.Errorf("accel: buffer is not mapped.")
	}
	b.mapped = false
	return nil
}

func (h *Host) Copy(dst, src *Buffer, n int) error {
	if dst.mapped || src.mapped {
		return fmt.Errorf("accel: cannot copy between mapped buffers.")
	}
	if n > len(src.data) || n > len(dst.data) {
		return fmt.Errorf(
			"accel: copy of %d bytes exceeds buffer sizes %d and %d.",
			n, len(src.data), len(dst.data),
		)
	}
	copy(dst.data[:n], src.data[:n])
	return nil
}

const (
	// ParticleSize is the wire size of one particle record.
	ParticleSize = int(unsafe.Sizeof(geom.Particle{}))
	// NodeSize is the wire size of one flattened tree node.
	NodeSize = int(unsafe.Sizeof(tree.FlatNode{}))
)

// ParticleView reinterprets a mapped byte view as a particle slice.
func ParticleView(b []byte) []geom.Particle {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice(
		(*geom.Particle)(unsafe.Pointer(&b[0])), len(b)/ParticleSize,
	)
}

// NodeView reinterprets a mapped byte view as a flat node slice.
func NodeView(b []byte) []tree.FlatNode {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice(
		(*tree.FlatNode)(unsafe.Pointer(&b[0])), len(b)/NodeSize,
	)
}

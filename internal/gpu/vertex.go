package gpu

import (
	"encoding/binary"
	"math"
)

// putFloat32 writes a little-endian float32 at dst[off:] and returns the
// next offset. Vertex and uniform data is packed this way so the byte layout
// matches the shader regardless of host struct padding.
func putFloat32(dst []byte, off int, v float32) int {
	binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(v))
	return off + 4
}

// float32SliceToBytes converts a float32 slice to its little-endian byte
// representation. Returns nil for empty input.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// generateQuadIndices builds the static index data shared by all quad lanes:
// two counter-clockwise triangles per quad, vertices (0,1,2) and (0,2,3).
// Index data never changes after creation; draws consume a prefix of it.
func generateQuadIndices(quadCount int) []uint16 {
	indices := make([]uint16, 0, quadCount*6)
	for q := 0; q < quadCount; q++ {
		base := uint16(q * 4)
		indices = append(indices,
			base+0, base+1, base+2,
			base+0, base+2, base+3,
		)
	}
	return indices
}

// indicesToBytes converts index data to little-endian bytes for upload.
func indicesToBytes(indices []uint16) []byte {
	buf := make([]byte, len(indices)*2)
	for i, v := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

// orthoProjection packs a top-left-origin orthographic projection for a
// logical viewport of the given size into a 4x4 row-major matrix:
// x maps [0,w] to [-1,1], y maps [0,h] to [1,-1]. The shaders multiply
// vec4(pos, 0, 1) on the left, so the row-major layout lands in WGSL's
// column-major mat4x4 in the order the multiply expects.
func orthoProjection(width, height float64) [16]float32 {
	sx := float32(2 / width)
	sy := float32(-2 / height)
	return [16]float32{
		sx, 0, 0, -1,
		0, sy, 0, 1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

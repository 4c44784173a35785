package gpu

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestPutFloat32(t *testing.T) {
	buf := make([]byte, 8)
	off := putFloat32(buf, 0, 1.5)
	if off != 4 {
		t.Errorf("expected next offset 4, got %d", off)
	}
	off = putFloat32(buf, off, -2.25)
	if off != 8 {
		t.Errorf("expected next offset 8, got %d", off)
	}

	got0 := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
	got1 := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
	if got0 != 1.5 || got1 != -2.25 {
		t.Errorf("expected [1.5, -2.25], got [%v, %v]", got0, got1)
	}
}

func TestFloat32SliceToBytes(t *testing.T) {
	if b := float32SliceToBytes(nil); b != nil {
		t.Errorf("expected nil for nil input, got %v", b)
	}
	if b := float32SliceToBytes([]float32{}); b != nil {
		t.Errorf("expected nil for empty input, got %v", b)
	}

	b := float32SliceToBytes([]float32{1.0, -0.5})
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	got0 := math.Float32frombits(binary.LittleEndian.Uint32(b[0:4]))
	got1 := math.Float32frombits(binary.LittleEndian.Uint32(b[4:8]))
	if got0 != 1.0 || got1 != -0.5 {
		t.Errorf("expected [1.0, -0.5], got [%v, %v]", got0, got1)
	}
}

func TestGenerateQuadIndices(t *testing.T) {
	indices := generateQuadIndices(2)
	want := []uint16{
		0, 1, 2, 0, 2, 3,
		4, 5, 6, 4, 6, 7,
	}
	if len(indices) != len(want) {
		t.Fatalf("expected %d indices, got %d", len(want), len(indices))
	}
	for i, v := range want {
		if indices[i] != v {
			t.Errorf("index %d: expected %d, got %d", i, v, indices[i])
		}
	}
}

func TestGenerateQuadIndicesEmpty(t *testing.T) {
	if indices := generateQuadIndices(0); len(indices) != 0 {
		t.Errorf("expected no indices for zero quads, got %d", len(indices))
	}
}

func TestGenerateQuadIndicesFullLane(t *testing.T) {
	// The last vertex index of a full sprite lane must still fit uint16.
	indices := generateQuadIndices(MaxQuadsPerBatch)
	if len(indices) != MaxQuadsPerBatch*6 {
		t.Fatalf("expected %d indices, got %d", MaxQuadsPerBatch*6, len(indices))
	}
	last := indices[len(indices)-1]
	if want := uint16(MaxQuadsPerBatch*4 - 1); last != want {
		t.Errorf("expected last index %d, got %d", want, last)
	}
}

func TestIndicesToBytes(t *testing.T) {
	b := indicesToBytes([]uint16{0x0102, 0x0304})
	want := []byte{0x02, 0x01, 0x04, 0x03}
	if len(b) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(b))
	}
	for i, v := range want {
		if b[i] != v {
			t.Errorf("byte %d: expected %#x, got %#x", i, v, b[i])
		}
	}
}

func TestOrthoProjection(t *testing.T) {
	m := orthoProjection(800, 600)

	const eps = 1e-6
	approx := func(got, want float32) bool {
		return math.Abs(float64(got-want)) < eps
	}
	if !approx(m[0], 2.0/800) {
		t.Errorf("m[0]: expected %v, got %v", 2.0/800, m[0])
	}
	if !approx(m[5], -2.0/600) {
		t.Errorf("m[5]: expected %v, got %v", -2.0/600, m[5])
	}
	if m[3] != -1 || m[7] != 1 || m[10] != 1 || m[15] != 1 {
		t.Errorf("expected translation/identity terms [-1, 1, 1, 1], got [%v, %v, %v, %v]",
			m[3], m[7], m[10], m[15])
	}
}

func TestOrthoProjectionMapsCorners(t *testing.T) {
	const w, h = 800.0, 600.0
	m := orthoProjection(w, h)

	// Mirror of the shader multiply: vec4(pos, 0, 1) * M, with the packed
	// rows landing as WGSL columns.
	project := func(x, y float32) (float32, float32) {
		px := x*m[0] + y*m[1] + m[3]
		py := x*m[4] + y*m[5] + m[7]
		return px, py
	}

	cases := []struct {
		name         string
		x, y         float32
		wantX, wantY float32
	}{
		{"top-left", 0, 0, -1, 1},
		{"bottom-right", w, h, 1, -1},
		{"center", w / 2, h / 2, 0, 0},
	}
	for _, tc := range cases {
		gotX, gotY := project(tc.x, tc.y)
		if math.Abs(float64(gotX-tc.wantX)) > 1e-6 || math.Abs(float64(gotY-tc.wantY)) > 1e-6 {
			t.Errorf("%s: expected (%v, %v), got (%v, %v)", tc.name, tc.wantX, tc.wantY, gotX, gotY)
		}
	}
}

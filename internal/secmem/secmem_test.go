package secmem

import (
	"bytes"
	"testing"
)

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zero(b)
	if !bytes.Equal(b, []byte{0, 0, 0, 0}) {
		t.Errorf("expected zeroed slice, got %v", b)
	}
}

func TestEqual(t *testing.T) {
	if !Equal([]byte("abc"), []byte("abc")) {
		t.Error("identical slices should compare equal")
	}
	if Equal([]byte("abc"), []byte("abd")) {
		t.Error("different slices should not compare equal")
	}
	if Equal([]byte("abc"), []byte("abcd")) {
		t.Error("different lengths should not compare equal")
	}
}

func TestBufferZeroesSource(t *testing.T) {
	src := []byte{9, 9, 9, 9}
	b := NewBuffer(src)
	defer b.Destroy()

	if !bytes.Equal(src, []byte{0, 0, 0, 0}) {
		t.Error("source must be wiped after copy")
	}
	if !bytes.Equal(b.Bytes(), []byte{9, 9, 9, 9}) {
		t.Error("buffer must hold the original bytes")
	}
}

func TestBufferDestroy(t *testing.T) {
	b := NewBuffer([]byte{1, 2, 3})
	data := b.Bytes()

	b.Destroy()
	if b.Bytes() != nil {
		t.Error("destroyed buffer should return nil")
	}
	if !bytes.Equal(data, []byte{0, 0, 0}) {
		t.Error("backing memory must be wiped on destroy")
	}

	// Second destroy and nil receiver are no-ops.
	b.Destroy()
	var nilBuf *Buffer
	nilBuf.Destroy()
	if nilBuf.Bytes() != nil {
		t.Error("nil buffer should return nil bytes")
	}
}

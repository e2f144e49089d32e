// Package secmem provides best-effort hygiene for short-lived sensitive
// buffers: explicit zeroization and, where the platform allows it, pinning
// key material out of swap.
//
// Go's runtime may still copy bytes during garbage collection or stack
// growth, so none of this is a guarantee. Callers should keep secrets in
// []byte rather than string so they remain wipeable at all.
package secmem

import "crypto/subtle"

// Zero overwrites a byte slice with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Equal compares two byte slices in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Buffer holds a fixed-size piece of key material. The backing memory is
// locked against swapping on platforms that support it and wiped on Destroy.
type Buffer struct {
	data   []byte
	locked bool
}

// NewBuffer copies src into a fresh locked buffer and zeroes src.
func NewBuffer(src []byte) *Buffer {
	b := &Buffer{data: make([]byte, len(src))}
	copy(b.data, src)
	Zero(src)
	if err := lockMemory(b.data); err == nil {
		b.locked = true
	}
	return b
}

// Bytes returns the underlying key material. The slice must not outlive the
// buffer.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Destroy wipes and releases the buffer. Safe to call more than once.
func (b *Buffer) Destroy() {
	if b == nil || b.data == nil {
		return
	}
	Zero(b.data)
	if b.locked {
		_ = unlockMemory(b.data)
		b.locked = false
	}
	b.data = nil
}

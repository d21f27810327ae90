package frame

import (
	"fmt"

	"github.com/danmuck/wirespec/bytecodec"
)

// BitField is a sub-byte value inside a Field. It has no wire presence
// of its own: the owning Field packs all of its BitFields back into
// whole bytes on serialization. Bits are kept most-significant first.
type BitField struct {
	name   string
	width  int
	bits   []uint8
	strict bool
}

// NewBitField creates a standalone bit field of the given width holding
// value. Widths below 1 are clamped to 1.
func NewBitField(name string, width int, value uint64) *BitField {
	if width < 1 {
		width = 1
	}
	b := &BitField{name: name, width: width}
	b.SetUint(value)
	return b
}

func (b *BitField) Name() string { return b.name }

func (b *BitField) Width() int { return b.width }

// Bits returns a copy of the bit sequence, MSB first, always exactly
// Width entries.
func (b *BitField) Bits() []uint8 {
	return append([]uint8(nil), b.bits...)
}

// SetBits replaces the bit sequence. A width mismatch pads or truncates
// on the most significant side; in strict mode it is an error instead.
// Non-binary entries are clamped to 1.
func (b *BitField) SetBits(bits []uint8) error {
	if b.strict && len(bits) != b.width {
		return fmt.Errorf("%w: %q wants %d bits, got %d", ErrBitWidth, b.name, b.width, len(bits))
	}
	clamped := make([]uint8, len(bits))
	for i, v := range bits {
		if v != 0 {
			clamped[i] = 1
		}
	}
	b.bits = resizeBits(clamped, b.width)
	return nil
}

// SetUint stores the low Width bits of v.
func (b *BitField) SetUint(v uint64) {
	b.bits = resizeBits(unpackBits(bytecodec.FromUint(v, 0, bytecodec.BigEndian)), b.width)
}

// Uint returns the bit sequence as an unsigned integer.
func (b *BitField) Uint() uint64 {
	return bytecodec.ToUint(packBits(b.bits), bytecodec.BigEndian)
}

// unpackBits expands bytes into a bit list, MSB first.
func unpackBits(data []byte) []uint8 {
	bits := make([]uint8, 0, len(data)*8)
	for _, c := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (c>>uint(i))&1)
		}
	}
	return bits
}

// packBits packs a bit list back into bytes, padding on the left up to
// a byte boundary.
func packBits(bits []uint8) []byte {
	if rem := len(bits) % 8; rem != 0 {
		bits = append(make([]uint8, 8-rem), bits...)
	}
	data := make([]byte, len(bits)/8)
	for i, bit := range bits {
		if bit != 0 {
			data[i/8] |= 1 << uint(7-i%8)
		}
	}
	return data
}

// resizeBits pads or truncates on the most significant side.
func resizeBits(bits []uint8, width int) []uint8 {
	switch {
	case len(bits) > width:
		return append([]uint8(nil), bits[len(bits)-width:]...)
	case len(bits) < width:
		return append(make([]uint8, width-len(bits)), bits...)
	}
	return append([]uint8(nil), bits...)
}

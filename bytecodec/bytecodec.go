// Package bytecodec converts between byte arrays, unsigned/signed
// integers and IPv4 strings, honoring an explicit byte order.
//
// There is no package-level byte order: every conversion takes an Order
// argument so two frames built with different orders never interfere.
package bytecodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"net/netip"
	"strings"
)

var (
	ErrByteOrder = errors.New("bytecodec: byte order is either \"big\" or \"little\"")
	ErrValueType = errors.New("bytecodec: unsupported value type")
	ErrNotIPv4   = errors.New("bytecodec: not an IPv4 address")
)

// Order selects the byte order for int conversion and resize operations.
type Order int

const (
	BigEndian Order = iota
	LittleEndian
)

func (o Order) String() string {
	if o == LittleEndian {
		return "little"
	}
	return "big"
}

// ParseOrder maps "big"/"little" to an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big":
		return BigEndian, nil
	case "little":
		return LittleEndian, nil
	}
	return BigEndian, fmt.Errorf("%w: %q", ErrByteOrder, s)
}

// Resize pads or truncates b to exactly size bytes and returns a fresh
// slice. Big endian pads and truncates on the left (most significant
// side), little endian on the right. Truncation is lossy.
func Resize(b []byte, size int, o Order) []byte {
	if size < 0 {
		size = 0
	}
	switch {
	case size < len(b):
		if o == BigEndian {
			return append([]byte(nil), b[len(b)-size:]...)
		}
		return append([]byte(nil), b[:size]...)
	case size > len(b):
		pad := make([]byte, size-len(b))
		if o == BigEndian {
			return append(pad, b...)
		}
		return append(append([]byte(nil), b...), pad...)
	}
	return append([]byte(nil), b...)
}

// FromUint encodes v at the requested size. A size of 0 means the
// minimal encoding (one byte for zero).
func FromUint(v uint64, size int, o Order) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	n := (bits.Len64(v) + 7) / 8
	if n == 0 {
		n = 1
	}
	raw := append([]byte(nil), tmp[8-n:]...)
	if o == LittleEndian {
		reverse(raw)
	}
	if size == 0 {
		size = n
	}
	return Resize(raw, size, o)
}

// FromInt encodes v at the requested size; negative values use two's
// complement. A size of 0 selects the minimal width that holds v.
func FromInt(v int64, size int, o Order) []byte {
	if v >= 0 {
		return FromUint(uint64(v), size, o)
	}
	if size == 0 {
		size = 1
		for size < 8 && v < -(int64(1)<<(uint(size)*8-1)) {
			size++
		}
	}
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	raw := append([]byte(nil), tmp[:]...)
	if o == LittleEndian {
		reverse(raw)
	}
	return Resize(raw, size, o)
}

// ToUint decodes b as an unsigned integer. Inputs longer than 8 bytes
// keep their least significant 8 bytes.
func ToUint(b []byte, o Order) uint64 {
	if o == BigEndian {
		if len(b) > 8 {
			b = b[len(b)-8:]
		}
		var v uint64
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
		return v
	}
	if len(b) > 8 {
		b = b[:8]
	}
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// FromIPv4 converts a dotted "A.B.C.D" string to its 4-byte form.
func FromIPv4(s string) ([]byte, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return nil, fmt.Errorf("%w: %q", ErrNotIPv4, s)
	}
	b := addr.As4()
	return b[:], nil
}

// ToIPv4 converts a 4-byte array to its dotted string form.
func ToIPv4(b []byte) (string, error) {
	if len(b) != 4 {
		return "", fmt.Errorf("%w: %d bytes", ErrNotIPv4, len(b))
	}
	return netip.AddrFrom4([4]byte(b)).String(), nil
}

// IsIPv4 reports whether s parses as a dotted IPv4 address.
func IsIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}

// Size returns the number of bytes v fits into: the length of a byte
// slice, or the minimal width of an integer.
func Size(v any) (int, error) {
	switch x := v.(type) {
	case []byte:
		return len(x), nil
	case int:
		return Size(int64(x))
	case int64:
		if x < 0 {
			return len(FromInt(x, 0, BigEndian)), nil
		}
		return (bits.Len64(uint64(x)) + 7) / 8, nil
	case uint64:
		return (bits.Len64(x) + 7) / 8, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrValueType, v)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

package frame

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/danmuck/wirespec/bytecodec"
	"github.com/danmuck/wirespec/internal/logging"
	"github.com/danmuck/wirespec/spec"
)

// Field is a named, byte-aligned leaf of the tree. Its raw value always
// holds exactly Size bytes (resize on write). A field declared with
// comma-separated names and matching bitsizes is split into BitFields
// that pack transparently back into the byte value.
type Field struct {
	rawName    string
	names      []string
	size       int
	value      []byte
	isLength   bool
	fixedSize  bool
	fixedValue bool
	optional   bool
	bitfields  []*BitField
	parent     *Block
	order      bytecodec.Order
	strict     bool
}

// NewField builds a field from an item template. The size comes from
// the template, or from the declared value's length (minimum 1). An
// optional template with no value yields a zero-size placeholder that
// exists structurally but serializes to nothing.
func NewField(tpl spec.ItemTemplate, opts ...Option) (*Field, error) {
	return newField(tpl, nil, nil, buildOptions(opts))
}

// newField is the construction path shared with Block building: raw is
// a parsed byte prefix, uvVal a user-supplied override value. uvVal
// wins over raw wins over the template default.
func newField(tpl spec.ItemTemplate, raw []byte, uvVal any, o Options) (*Field, error) {
	if tpl.Name == "" {
		return nil, ErrMissingName
	}
	names := splitNames(tpl.Name)
	if len(names) > 1 && len(tpl.Bitsizes) != len(names) {
		return nil, fmt.Errorf("%w: %q has %d names and %d bitsizes",
			ErrBitsizeMismatch, tpl.Name, len(names), len(tpl.Bitsizes))
	}
	if len(names) == 1 && len(tpl.Bitsizes) > 1 {
		return nil, fmt.Errorf("%w: %q declares %d bitsizes for a single name",
			ErrBitsizeMismatch, tpl.Name, len(tpl.Bitsizes))
	}

	f := &Field{
		rawName:    tpl.Name,
		names:      names,
		isLength:   tpl.IsLength,
		fixedSize:  tpl.FixedSize,
		fixedValue: tpl.FixedValue,
		optional:   tpl.Optional,
		order:      o.ByteOrder,
		strict:     o.StrictBits,
	}

	declared := tpl.Value
	if declared == "" {
		declared = tpl.Default
	}
	var initial []byte
	switch {
	case uvVal != nil:
		b, err := coerceValue(uvVal, 0, f.order)
		if err != nil {
			return nil, err
		}
		initial = b
	case raw != nil:
		initial = raw
	case declared != "":
		b, err := coerceValue(declared, 0, f.order)
		if err != nil {
			return nil, err
		}
		initial = b
	}

	sumBits := 0
	for _, w := range tpl.Bitsizes {
		sumBits += w
	}

	switch {
	case initial == nil && tpl.Optional && sumBits == 0:
		// An absent optional field exists structurally but has no wire
		// presence, whatever size its template declares.
		f.size = 0
	case tpl.Size > 0:
		f.size = tpl.Size
	case sumBits > 0:
		if sumBits%8 != 0 {
			return nil, fmt.Errorf("%w: %q bitsizes sum to %d bits", ErrBitsizeMismatch, tpl.Name, sumBits)
		}
		f.size = sumBits / 8
	case len(initial) > 1:
		f.size = len(initial)
	default:
		f.size = 1
	}
	if sumBits > 0 && sumBits != f.size*8 {
		return nil, fmt.Errorf("%w: %q packs %d bits into %d bytes", ErrBitsizeMismatch, tpl.Name, sumBits, f.size)
	}

	f.value = bytecodec.Resize(initial, f.size, f.order)
	if len(tpl.Bitsizes) > 0 {
		for i, name := range names {
			f.bitfields = append(f.bitfields, &BitField{
				name:   name,
				width:  tpl.Bitsizes[i],
				bits:   make([]uint8, tpl.Bitsizes[i]),
				strict: o.StrictBits,
			})
		}
		f.distribute()
	}
	return f, nil
}

// Name returns the declared template name (comma-joined for bit-packed
// fields).
func (f *Field) Name() string { return f.rawName }

// Names returns the individual declared names.
func (f *Field) Names() []string { return append([]string(nil), f.names...) }

func (f *Field) Size() int { return f.size }

func (f *Field) IsLength() bool { return f.isLength }

// Fixed reports whether the value is pinned against auto-updates.
func (f *Field) Fixed() bool { return f.fixedValue }

// Pin toggles the fixed-value flag without touching the value.
func (f *Field) Pin(fixed bool) { f.fixedValue = fixed }

// Bytes returns the wire form: the byte-packed concatenation of the
// bit fields when present (always rebuilt, never cached), the stored
// value otherwise.
func (f *Field) Bytes() []byte {
	if len(f.bitfields) > 0 {
		return bytecodec.Resize(f.assemble(), f.size, bytecodec.BigEndian)
	}
	return append([]byte(nil), f.value...)
}

func (f *Field) Len() int { return f.size }

// Uint decodes the current value as an unsigned integer.
func (f *Field) Uint() uint64 {
	return bytecodec.ToUint(f.Bytes(), f.order)
}

// BitField returns the named sub-field, or nil.
func (f *Field) BitField(name string) *BitField {
	want := spec.Normalize(name)
	for _, b := range f.bitfields {
		if spec.Normalize(b.name) == want {
			return b
		}
	}
	return nil
}

// BitFields returns the ordered sub-fields (nil for plain fields).
func (f *Field) BitFields() []*BitField {
	return append([]*BitField(nil), f.bitfields...)
}

// Set replaces the value and pins it against auto-updates. Accepted
// types: []byte (resized to the field size), signed/unsigned integers
// (encoded at the field size), and strings (IPv4-dotted converted to 4
// bytes, hex digit sequences decoded, anything else UTF-8 encoded).
// Validation happens before any state is touched.
func (f *Field) Set(v any) error {
	b, err := coerceValue(v, f.size, f.order)
	if err != nil {
		return err
	}
	f.store(b)
	f.fixedValue = true
	return nil
}

// SetSize resizes the field, padding or truncating the current value.
// Accepts an int or a byte-encoded int.
func (f *Field) SetSize(v any) error {
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case []byte:
		n = int(bytecodec.ToUint(x, f.order))
	default:
		return fmt.Errorf("%w: got %T", ErrBadSize, v)
	}
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrBadSize, n)
	}
	if len(f.bitfields) > 0 && n*8 != f.totalBits() {
		return fmt.Errorf("%w: %d bytes cannot hold %d bits", ErrBadSize, n, f.totalBits())
	}
	f.size = n
	f.value = bytecodec.Resize(f.value, n, f.order)
	return nil
}

// set applies a value through the non-pinning path, used when template
// construction threads user values into fields.
func (f *Field) set(v any) error {
	b, err := coerceValue(v, f.size, f.order)
	if err != nil {
		return err
	}
	f.store(b)
	return nil
}

// autoUpdate is the internal write path used by length recomputation.
// It refuses to clobber a pinned value and leaves the field unpinned so
// future updates keep working.
func (f *Field) autoUpdate(b []byte) {
	if f.fixedValue {
		logging.Debugf("frame: field %q is fixed, skipping auto update", f.rawName)
		return
	}
	f.value = bytecodec.Resize(b, f.size, f.order)
	f.distribute()
	f.fixedValue = false
}

func (f *Field) store(b []byte) {
	if f.size == 0 && !f.fixedSize && len(b) > 0 {
		f.size = len(b)
	}
	f.value = bytecodec.Resize(b, f.size, f.order)
	f.distribute()
}

// distribute slices the byte value into the bit fields, in declared
// order, MSB first.
func (f *Field) distribute() {
	if len(f.bitfields) == 0 {
		return
	}
	bits := unpackBits(f.value)
	i := 0
	for _, b := range f.bitfields {
		b.bits = append([]uint8(nil), bits[i:i+b.width]...)
		i += b.width
	}
}

// assemble concatenates the bit fields back into bytes.
func (f *Field) assemble() []byte {
	bits := make([]uint8, 0, f.size*8)
	for _, b := range f.bitfields {
		bits = append(bits, b.bits...)
	}
	return packBits(bits)
}

func (f *Field) totalBits() int {
	n := 0
	for _, b := range f.bitfields {
		n += b.width
	}
	return n
}

func (f *Field) hasName(normalized string) bool {
	for _, n := range f.names {
		if spec.Normalize(n) == normalized {
			return true
		}
	}
	return spec.Normalize(f.joinedName()) == normalized
}

func (f *Field) joinedName() string {
	return strings.Join(f.names, "_")
}

func (f *Field) setParent(b *Block) { f.parent = b }

func (f *Field) update(bytecodec.Order) {}

func (f *Field) bytes() []byte { return f.Bytes() }

func (f *Field) length() int { return f.size }

// coerceValue converts a caller value to bytes at the requested size
// (0 keeps the natural length). Strings are tried as IPv4, then as hex
// digits, then fall back to UTF-8.
func coerceValue(v any, size int, o bytecodec.Order) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		if size == 0 {
			return append([]byte(nil), x...), nil
		}
		return bytecodec.Resize(x, size, o), nil
	case int:
		return bytecodec.FromInt(int64(x), size, o), nil
	case int8:
		return bytecodec.FromInt(int64(x), size, o), nil
	case int16:
		return bytecodec.FromInt(int64(x), size, o), nil
	case int32:
		return bytecodec.FromInt(int64(x), size, o), nil
	case int64:
		return bytecodec.FromInt(x, size, o), nil
	case uint:
		return bytecodec.FromUint(uint64(x), size, o), nil
	case uint8:
		return bytecodec.FromUint(uint64(x), size, o), nil
	case uint16:
		return bytecodec.FromUint(uint64(x), size, o), nil
	case uint32:
		return bytecodec.FromUint(uint64(x), size, o), nil
	case uint64:
		return bytecodec.FromUint(x, size, o), nil
	case string:
		b := stringBytes(x)
		if size == 0 {
			return b, nil
		}
		return bytecodec.Resize(b, size, o), nil
	}
	return nil, fmt.Errorf("%w: got %T", ErrBadValueType, v)
}

func stringBytes(s string) []byte {
	if bytecodec.IsIPv4(s) {
		b, err := bytecodec.FromIPv4(s)
		if err == nil {
			return b
		}
	}
	if isHexString(s) {
		if b, err := hex.DecodeString(s); err == nil {
			return b
		}
	}
	return []byte(s)
}

func isHexString(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func splitNames(name string) []string {
	parts := strings.Split(name, spec.NameSeparator)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

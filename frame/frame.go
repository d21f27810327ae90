package frame

import (
	"fmt"
	"net/netip"

	"github.com/danmuck/wirespec/bytecodec"
	"github.com/danmuck/wirespec/internal/logging"
	"github.com/danmuck/wirespec/spec"
)

// Frame is a top-level message: the ordered named blocks of a protocol
// frame layout, conventionally a header and a body. A frame built from
// raw bytes remembers the sender so callers can address a reply.
type Frame struct {
	root   *Block
	reg    *spec.Registry
	opts   Options
	source netip.AddrPort
}

// New returns an empty frame for manual construction.
func New(reg *spec.Registry, opts ...Option) *Frame {
	o := buildOptions(opts)
	root := &Block{name: "frame", index: make(map[string]int), reg: reg, opts: o}
	return &Frame{root: root, reg: reg, opts: o}
}

// NewFromType builds a frame from a type identifier: a symbolic name or
// the wire code bytes, resolved through the type field's association
// table. Overrides supply values for dependency resolution and initial
// field content; keys run through Options.Aliases, values given as
// symbolic strings are translated to wire codes when the matching table
// has one.
func NewFromType(reg *spec.Registry, typeID any, overrides map[string]any, opts ...Option) (*Frame, error) {
	f := New(reg, opts...)
	if len(reg.Frame) == 0 {
		return nil, ErrNoFrameLayout
	}

	uv := make(map[string]any, len(overrides)+1)
	for key, v := range overrides {
		fieldName := key
		if alias, ok := f.opts.Aliases[spec.Normalize(key)]; ok {
			fieldName = alias
		}
		uv[spec.Normalize(fieldName)] = translateOverride(reg, fieldName, v)
	}

	code, err := resolveTypeID(reg, f.opts.TypeField, typeID)
	if err != nil {
		return nil, err
	}
	uv[spec.Normalize(f.opts.TypeField)] = code
	logging.Debugf("frame: building frame type=%x overrides=%d", code, len(overrides))

	for _, tpl := range reg.Frame {
		blk, _, err := buildBlock(reg, tpl, nil, uv, f.root, f.opts)
		if err != nil {
			return nil, err
		}
		if err := f.root.Append(blk); err != nil {
			return nil, err
		}
	}
	f.Update()
	return f, nil
}

// NewFromBytes parses a frame from raw bytes: the fixed header block
// first, then the body blocks selected by the header's type identifier
// field, each consuming a chunk of the input until it is exhausted.
// The source address, when known, is kept for reply construction.
func NewFromBytes(reg *spec.Registry, raw []byte, source netip.AddrPort, opts ...Option) (*Frame, error) {
	f := New(reg, opts...)
	if len(reg.Frame) == 0 {
		return nil, ErrNoFrameLayout
	}
	f.source = source

	value := raw
	uv := map[string]any{}
	for i, tpl := range reg.Frame {
		chunk := value
		// The leading header block is sized by its own first byte; the
		// blocks after it share whatever input remains.
		if i == 0 && len(value) > 0 && !f.opts.NoLengthPrefix {
			if n := int(value[0]); n > 0 && n <= len(value) {
				chunk = value[:n]
			}
		}
		blk, _, err := buildBlock(reg, tpl, chunk, uv, f.root, f.opts)
		if err != nil {
			return nil, err
		}
		if err := f.root.Append(blk); err != nil {
			return nil, err
		}
		consumed := blk.length()
		if consumed > len(value) {
			consumed = len(value)
		}
		value = value[consumed:]
		if len(value) == 0 {
			break
		}
	}
	f.Update()
	logging.Debugf("frame: parsed %d bytes from %s, %d trailing", len(raw), source, len(value))
	return f, nil
}

func resolveTypeID(reg *spec.Registry, typeField string, typeID any) ([]byte, error) {
	switch id := typeID.(type) {
	case string:
		if code := reg.CodeID(typeField, id); code != nil {
			return code, nil
		}
		// Symbolic table keys ("HEL") identify the type directly.
		if reg.CodeName(typeField, id) != "" {
			return []byte(id), nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, id)
	case []byte:
		if reg.CodeName(typeField, id) == "" {
			return nil, fmt.Errorf("%w: %x", ErrUnknownType, id)
		}
		return id, nil
	}
	return nil, fmt.Errorf("%w: got %T", ErrUnknownType, typeID)
}

func translateOverride(reg *spec.Registry, fieldName string, v any) any {
	if s, ok := v.(string); ok {
		if code := reg.CodeID(fieldName, s); code != nil {
			return code
		}
	}
	return v
}

// Append adds a block to the frame under the given name.
func (f *Frame) Append(name string, b *Block) error {
	if b == nil {
		return fmt.Errorf("%w: cannot append nil block", ErrUsage)
	}
	b.name = name
	return f.root.Append(b)
}

// Update recomputes every length field, blocks first, then the
// header's total-length field across all blocks.
func (f *Frame) Update() {
	f.root.Update()
	header, ok := f.root.Get(spec.HeaderName).(*Block)
	if !ok {
		return
	}
	total, ok := header.Get(f.opts.TotalField).(*Field)
	if !ok {
		return
	}
	total.autoUpdate(bytecodec.FromUint(uint64(f.root.length()), total.size, f.opts.ByteOrder))
}

// Remove detaches the first field or block matching name across all
// blocks.
func (f *Frame) Remove(name string) error {
	return f.root.Remove(name)
}

// Bytes serializes the frame, updating length fields first.
func (f *Frame) Bytes() []byte {
	f.Update()
	return f.root.bytes()
}

// Len returns the serialized byte length, lengths current.
func (f *Frame) Len() int {
	f.Update()
	return f.root.length()
}

// Fields returns every field of the frame, flattened depth-first.
func (f *Frame) Fields() []*Field {
	f.Update()
	return f.root.collectFields()
}

// Attributes returns the accessor names of all blocks, in order,
// lengths current.
func (f *Frame) Attributes() []string {
	f.Update()
	var out []string
	for _, c := range f.root.children {
		if b, ok := c.(*Block); ok {
			out = append(out, b.Attributes()...)
		}
	}
	return out
}

// Block returns the named top-level block, or nil.
func (f *Frame) Block(name string) *Block {
	b, _ := f.root.Get(name).(*Block)
	return b
}

// Blocks returns the top-level blocks in order.
func (f *Frame) Blocks() []*Block {
	var out []*Block
	for _, c := range f.root.children {
		if b, ok := c.(*Block); ok {
			out = append(out, b)
		}
	}
	return out
}

// Header returns the block named "header", or nil.
func (f *Frame) Header() *Block { return f.Block(spec.HeaderName) }

// Body returns the block named "body", or nil.
func (f *Frame) Body() *Block { return f.Block(spec.BodyName) }

// Source returns the sender address a parsed frame originated from;
// the zero AddrPort when unknown.
func (f *Frame) Source() netip.AddrPort { return f.source }

// TypeName resolves the frame's type identifier field back to its
// symbolic name, or "" when it is unset or unknown.
func (f *Frame) TypeName() string {
	header := f.Header()
	if header == nil {
		return ""
	}
	field := header.Field(f.opts.TypeField)
	if field == nil {
		return ""
	}
	return f.reg.CodeName(f.opts.TypeField, field.Bytes())
}

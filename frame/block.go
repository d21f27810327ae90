package frame

import (
	"encoding/hex"
	"fmt"

	"github.com/danmuck/wirespec/bytecodec"
	"github.com/danmuck/wirespec/internal/logging"
	"github.com/danmuck/wirespec/spec"
)

// Node is a tree member: a Field or a Block. The set is closed.
type Node interface {
	Name() string
	Bytes() []byte
	Len() int

	setParent(*Block)
	update(bytecodec.Order)
	bytes() []byte
	length() int
}

// Block is a named, ordered container of Fields and nested Blocks. Its
// serialized form is the concatenation of its children, in order, and
// its length is always recomputed from the current children.
type Block struct {
	name     string
	children []Node
	index    map[string]int
	attrs    []string
	parent   *Block
	reg      *spec.Registry
	opts     Options
}

// NewBlock returns an empty block to be filled with Append.
func NewBlock(name string, reg *spec.Registry, opts ...Option) *Block {
	return &Block{
		name:  name,
		index: make(map[string]int),
		reg:   reg,
		opts:  buildOptions(opts),
	}
}

// NewBlockFromTemplate builds a block from an item template, resolving
// "depends:" placeholders against userValues first and the tree second,
// filling children from raw when supplied. See buildBlock for the
// construction algorithm.
func NewBlockFromTemplate(reg *spec.Registry, tpl spec.ItemTemplate, raw []byte,
	userValues map[string]any, opts ...Option) (*Block, error) {
	b, _, err := buildBlock(reg, tpl, raw, normalizeValues(userValues), nil, buildOptions(opts))
	return b, err
}

// BuildBlock is a convenience over NewBlockFromTemplate for a bare
// block type name.
func BuildBlock(reg *spec.Registry, typeName string, opts ...Option) (*Block, error) {
	tpl := spec.ItemTemplate{Name: typeName, Type: typeName}
	return NewBlockFromTemplate(reg, tpl, nil, nil, opts...)
}

// buildBlock instantiates tpl: resolve the block type (following any
// depends: placeholder), look its template up in the registry, then
// build children left to right, each consuming a prefix of raw.
// Returns the unconsumed remainder of raw.
func buildBlock(reg *spec.Registry, tpl spec.ItemTemplate, raw []byte,
	uv map[string]any, parent *Block, o Options) (*Block, []byte, error) {
	b := &Block{
		name:   tpl.Name,
		index:  make(map[string]int),
		parent: parent,
		reg:    reg,
		opts:   o,
	}

	btype := tpl.Type
	if btype == "" || btype == spec.BlockType {
		return b, raw, nil
	}
	if dep := tpl.DependsOn(); dep != "" {
		resolved, err := b.resolveDepends(dep, uv)
		// The fallbacks never second-guess an explicit user value: a
		// supplied selector that resolves to nothing is an error.
		if _, supplied := lookupValue(uv, dep); err != nil && !supplied {
			if len(raw) > 0 {
				// The selector field may live inside this very block,
				// still unparsed: try the candidates against the input.
				resolved, err = peekDepends(reg, dep, raw)
			}
			if err != nil {
				if name, ok := defaultDepends(reg, dep); ok {
					resolved, err = name, nil
				}
			}
		}
		if err != nil {
			return nil, nil, err
		}
		logging.Debugf("frame: block %q resolved depends:%s -> %s", tpl.Name, dep, resolved)
		btype = resolved
	}

	items := reg.BlockTemplate(btype)
	if items == nil {
		return nil, nil, fmt.Errorf("%w (%s)", ErrUnknownBlockType, btype)
	}
	exhausted := false
	for _, item := range items {
		if exhausted {
			// The input ran out: remaining optional fields still exist
			// structurally as zero-size placeholders, everything else
			// is treated as absent.
			if !item.IsField() || !item.Optional {
				break
			}
		}
		node, rest, err := buildNode(reg, item, raw, uv, b, o)
		if err != nil {
			return nil, nil, &BuildError{Block: tpl.Name, Item: item.Name, Err: err}
		}
		if err := b.Append(node); err != nil {
			return nil, nil, err
		}
		if raw != nil {
			raw = rest
			if len(raw) == 0 {
				exhausted = true
			}
		}
	}
	return b, raw, nil
}

// buildNode is the template factory: one item template in, one Field or
// Block out, plus the unconsumed raw remainder.
func buildNode(reg *spec.Registry, item spec.ItemTemplate, raw []byte,
	uv map[string]any, parent *Block, o Options) (Node, []byte, error) {
	if item.IsField() {
		uvVal, hasUV := lookupValue(uv, item.Name)
		var fraw []byte
		if !hasUV && len(raw) > 0 {
			n := item.Size
			if n == 0 {
				// A size-less field owns whatever remains of the chunk.
				n = len(raw)
			}
			if n > len(raw) {
				n = len(raw)
			}
			fraw = raw[:n]
		}
		f, err := newField(item, fraw, uvVal, o)
		if err != nil {
			return nil, nil, err
		}
		rest := raw
		if len(raw) > 0 {
			n := f.size
			if n > len(raw) {
				n = len(raw)
			}
			rest = raw[n:]
		}
		return f, rest, nil
	}

	// Nested block. By convention a structural item's first byte holds
	// its own length, which caps the chunk it may consume.
	chunk := raw
	if len(raw) > 0 && !o.NoLengthPrefix {
		if n := int(raw[0]); n > 0 && n <= len(raw) {
			chunk = raw[:n]
		}
	}
	nb, _, err := buildBlock(reg, item, chunk, uv, parent, o)
	if err != nil {
		return nil, nil, err
	}
	rest := raw
	if len(raw) > 0 {
		consumed := nb.length()
		if consumed > len(raw) {
			consumed = len(raw)
		}
		rest = raw[consumed:]
	}
	return nb, rest, nil
}

// resolveDepends maps a depends: field name to a block type. User
// values win; otherwise the accumulated fields of self and ancestors
// are scanned most-recently-added first, and the first name match is
// taken to the association table.
func (b *Block) resolveDepends(fieldName string, uv map[string]any) (string, error) {
	if v, ok := lookupValue(uv, fieldName); ok {
		if name := b.reg.CodeName(fieldName, v); name != "" {
			return name, nil
		}
		return "", fmt.Errorf("%w for field %q", ErrAssociationNotFound, fieldName)
	}
	want := spec.Normalize(fieldName)
	fields := b.searchFields()
	for i := len(fields) - 1; i >= 0; i-- {
		if !fields[i].hasName(want) {
			continue
		}
		if name := b.reg.CodeName(fieldName, fields[i].Bytes()); name != "" {
			return name, nil
		}
		return "", fmt.Errorf("%w for field %q", ErrAssociationNotFound, fieldName)
	}
	return "", fmt.Errorf("%w for field %q", ErrAssociationNotFound, fieldName)
}

// peekDepends resolves a depends: type from unparsed input. Each
// candidate block of the association table carries the selector field
// at a fixed offset; the candidate whose wire code matches the input
// bytes at that offset wins.
func peekDepends(reg *spec.Registry, fieldName string, raw []byte) (string, error) {
	for key, blockName := range reg.CodeTable(fieldName) {
		code := tableKeyBytes(key)
		off, size, ok := fieldOffset(reg, blockName, fieldName)
		if !ok || off+size > len(raw) {
			continue
		}
		if string(raw[off:off+size]) == string(code) {
			return blockName, nil
		}
	}
	return "", fmt.Errorf("%w for field %q", ErrAssociationNotFound, fieldName)
}

// defaultDepends resolves a depends: type through template defaults: a
// candidate block whose selector field declares the matching wire code
// as its value or default is taken.
func defaultDepends(reg *spec.Registry, fieldName string) (string, bool) {
	want := spec.Normalize(fieldName)
	for key, blockName := range reg.CodeTable(fieldName) {
		code := tableKeyBytes(key)
		for _, item := range reg.BlockTemplate(blockName) {
			if !item.IsField() || spec.Normalize(item.Name) != want {
				continue
			}
			declared := item.Value
			if declared == "" {
				declared = item.Default
			}
			if declared == "" {
				continue
			}
			if d, err := hex.DecodeString(declared); err == nil && string(d) == string(code) {
				return blockName, true
			}
		}
	}
	return "", false
}

// fieldOffset locates a field inside a block template built purely of
// fixed-size fields. Reports false when the template nests blocks or
// the field sits behind a variable-size item.
func fieldOffset(reg *spec.Registry, blockName, fieldName string) (off, size int, ok bool) {
	want := spec.Normalize(fieldName)
	for _, item := range reg.BlockTemplate(blockName) {
		if !item.IsField() || item.Size == 0 {
			return 0, 0, false
		}
		if spec.Normalize(item.Name) == want {
			return off, item.Size, true
		}
		off += item.Size
	}
	return 0, 0, false
}

func tableKeyBytes(key string) []byte {
	if code, err := hex.DecodeString(key); err == nil {
		return code
	}
	return []byte(key)
}

// searchFields collects the fields visible for dependency resolution:
// every field accumulated so far by this block and its ancestors, in
// insertion order from the outermost ancestor down.
func (b *Block) searchFields() []*Field {
	var chain []*Block
	for p := b; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	var out []*Field
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].collectFields()...)
	}
	return out
}

func (b *Block) Name() string { return b.name }

// Append adds fields or blocks to the end of the block, registering a
// named accessor for each (one per bit-field sub-name, plus the joined
// name), and runs Update.
func (b *Block) Append(nodes ...Node) error {
	for _, n := range nodes {
		if n == nil {
			return fmt.Errorf("%w: cannot append nil node", ErrUsage)
		}
		n.setParent(b)
		b.children = append(b.children, n)
		idx := len(b.children) - 1
		for _, name := range accessorNames(n) {
			b.register(name, idx)
		}
	}
	b.Update()
	return nil
}

func accessorNames(n Node) []string {
	switch x := n.(type) {
	case *Field:
		if len(x.names) == 1 {
			return []string{spec.Normalize(x.names[0])}
		}
		names := make([]string, 0, len(x.names)+1)
		for _, sub := range x.names {
			names = append(names, spec.Normalize(sub))
		}
		return append(names, spec.Normalize(x.joinedName()))
	case *Block:
		return []string{spec.Normalize(x.name)}
	}
	return nil
}

// register points an accessor name at a child index; a duplicate name
// is re-pointed at the newest child.
func (b *Block) register(name string, idx int) {
	if _, exists := b.index[name]; !exists {
		b.attrs = append(b.attrs, name)
	}
	b.index[name] = idx
}

// Update walks the subtree bottom-up and rewrites every is_length field
// to the owning block's current serialized length, skipping pinned
// values. Calling it twice in a row yields identical bytes.
func (b *Block) Update() {
	b.update(b.opts.ByteOrder)
}

func (b *Block) update(order bytecodec.Order) {
	for _, c := range b.children {
		if nb, ok := c.(*Block); ok {
			nb.update(order)
		}
	}
	total := b.length()
	for _, c := range b.children {
		if f, ok := c.(*Field); ok && f.isLength {
			f.autoUpdate(bytecodec.FromUint(uint64(total), f.size, order))
		}
	}
}

// Remove detaches the first field or block matching name anywhere in
// the subtree, depth-first, together with all of its descendants'
// accessors.
func (b *Block) Remove(name string) error {
	want := spec.Normalize(name)
	if want == "" || !b.removeFirst(want) {
		return fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	b.Update()
	return nil
}

func (b *Block) removeFirst(want string) bool {
	for i, c := range b.children {
		if nodeMatches(c, want) {
			b.children = append(b.children[:i], b.children[i+1:]...)
			b.reindex()
			return true
		}
		if nb, ok := c.(*Block); ok && nb.removeFirst(want) {
			return true
		}
	}
	return false
}

func nodeMatches(n Node, want string) bool {
	switch x := n.(type) {
	case *Field:
		return x.hasName(want)
	case *Block:
		return spec.Normalize(x.name) == want
	}
	return false
}

func (b *Block) reindex() {
	b.index = make(map[string]int)
	b.attrs = nil
	for i, c := range b.children {
		for _, name := range accessorNames(c) {
			b.register(name, i)
		}
	}
}

// Get returns the direct child registered under name, or nil.
func (b *Block) Get(name string) Node {
	if i, ok := b.index[spec.Normalize(name)]; ok {
		return b.children[i]
	}
	return nil
}

// Field returns the first field matching name in the subtree,
// depth-first, or nil.
func (b *Block) Field(name string) *Field {
	want := spec.Normalize(name)
	for _, f := range b.collectFields() {
		if f.hasName(want) {
			return f
		}
	}
	return nil
}

// Block returns the first nested block matching name, depth-first, or
// nil.
func (b *Block) Block(name string) *Block {
	want := spec.Normalize(name)
	for _, c := range b.children {
		nb, ok := c.(*Block)
		if !ok {
			continue
		}
		if spec.Normalize(nb.name) == want {
			return nb
		}
		if found := nb.Block(name); found != nil {
			return found
		}
	}
	return nil
}

// Fields returns the flattened depth-first field list, lengths current.
func (b *Block) Fields() []*Field {
	b.Update()
	return b.collectFields()
}

func (b *Block) collectFields() []*Field {
	var out []*Field
	for _, c := range b.children {
		switch x := c.(type) {
		case *Field:
			out = append(out, x)
		case *Block:
			out = append(out, x.collectFields()...)
		}
	}
	return out
}

// Attributes returns the registered accessor names, in insertion
// order, lengths current.
func (b *Block) Attributes() []string {
	b.Update()
	return append([]string(nil), b.attrs...)
}

// Children returns the ordered child nodes.
func (b *Block) Children() []Node {
	return append([]Node(nil), b.children...)
}

// Bytes serializes the block, updating length fields first.
func (b *Block) Bytes() []byte {
	b.Update()
	return b.bytes()
}

// Len returns the serialized byte length, lengths current.
func (b *Block) Len() int {
	b.Update()
	return b.length()
}

func (b *Block) setParent(p *Block) { b.parent = p }

func (b *Block) bytes() []byte {
	out := make([]byte, 0, b.length())
	for _, c := range b.children {
		out = append(out, c.bytes()...)
	}
	return out
}

func (b *Block) length() int {
	n := 0
	for _, c := range b.children {
		n += c.length()
	}
	return n
}

func lookupValue(uv map[string]any, name string) (any, bool) {
	v, ok := uv[spec.Normalize(name)]
	return v, ok
}

func normalizeValues(uv map[string]any) map[string]any {
	out := make(map[string]any, len(uv))
	for k, v := range uv {
		out[spec.Normalize(k)] = v
	}
	return out
}

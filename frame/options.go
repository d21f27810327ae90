package frame

import "github.com/danmuck/wirespec/bytecodec"

// Options carries the per-tree construction settings. There is no
// hidden global: every Frame, Block and Field keeps the options it was
// built with.
type Options struct {
	// ByteOrder drives every int/bytes conversion and resize in the tree.
	ByteOrder bytecodec.Order
	// StrictBits rejects bit-width mismatches on BitField writes instead
	// of padding/truncating. Off by default so deliberately malformed
	// frames stay constructible.
	StrictBits bool
	// TypeField names the header field (and code table) carrying the
	// frame type identifier.
	TypeField string
	// TotalField names the header field holding the whole-frame length,
	// the one length computation that crosses block boundaries.
	TotalField string
	// Aliases maps friendly override names to spec field names, e.g.
	// "connection" -> "connection type code".
	Aliases map[string]string
	// NoLengthPrefix disables the parse-time convention that a
	// structural item's first byte encodes its own length.
	NoLengthPrefix bool
}

// Option mutates Options at construction time.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		ByteOrder:  bytecodec.BigEndian,
		TypeField:  "service identifier",
		TotalField: "total_length",
	}
}

func buildOptions(opts []Option) Options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithByteOrder selects the byte order for the whole tree.
func WithByteOrder(order bytecodec.Order) Option {
	return func(o *Options) { o.ByteOrder = order }
}

// WithStrictBits makes bit-width mismatches an error.
func WithStrictBits() Option {
	return func(o *Options) { o.StrictBits = true }
}

// WithTypeField names the field holding the frame type identifier.
func WithTypeField(name string) Option {
	return func(o *Options) { o.TypeField = name }
}

// WithTotalField names the header field holding the whole-frame length.
func WithTotalField(name string) Option {
	return func(o *Options) { o.TotalField = name }
}

// WithAliases maps friendly override argument names to field names.
func WithAliases(aliases map[string]string) Option {
	return func(o *Options) { o.Aliases = aliases }
}

// WithoutLengthPrefix disables first-byte length chunking during parse,
// for protocols whose structures carry no leading length byte.
func WithoutLengthPrefix() Option {
	return func(o *Options) { o.NoLengthPrefix = true }
}

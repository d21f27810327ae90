// Package spec holds the declarative wire-format templates a protocol is
// described with: an ordered top-level frame layout, block templates by
// type name, and code tables translating between symbolic names and wire
// codes. The registry is read-mostly: load it once, pass it by reference
// to frame construction, and never mutate it afterwards.
package spec

import (
	"encoding/hex"
	"errors"
	"strings"
)

var ErrSpecFile = errors.New("spec: specification file cannot be used")

// ItemTemplate describes one item of a block template. An item is a
// field when Type is "field" and a nested block otherwise; a Type of
// "depends:<field>" is resolved at construction time against the value
// of a previously built field.
type ItemTemplate struct {
	Name       string `json:"name" toml:"name"`
	Type       string `json:"type" toml:"type"`
	Size       int    `json:"size,omitempty" toml:"size,omitempty"`
	Value      string `json:"value,omitempty" toml:"value,omitempty"`
	Default    string `json:"default,omitempty" toml:"default,omitempty"`
	IsLength   bool   `json:"is_length,omitempty" toml:"is_length,omitempty"`
	FixedSize  bool   `json:"fixed_size,omitempty" toml:"fixed_size,omitempty"`
	FixedValue bool   `json:"fixed_value,omitempty" toml:"fixed_value,omitempty"`
	Optional   bool   `json:"optional,omitempty" toml:"optional,omitempty"`
	Bitsizes   []int  `json:"bitsizes,omitempty" toml:"bitsizes,omitempty"`
}

// IsField reports whether the item describes a leaf field.
func (t ItemTemplate) IsField() bool {
	return t.Type == FieldType
}

// DependsOn returns the field name a "depends:" type points at, or "".
func (t ItemTemplate) DependsOn() string {
	if strings.HasPrefix(t.Type, DependsPrefix) {
		return strings.TrimPrefix(t.Type, DependsPrefix)
	}
	return ""
}

// Template syntax constants.
const (
	FieldType     = "field"
	BlockType     = "block"
	DependsPrefix = "depends:"
	NameSeparator = ","
)

// Conventional top-level block names.
const (
	HeaderName = "header"
	BodyName   = "body"
)

// Registry is the loaded specification content.
type Registry struct {
	// Frame is the ordered top-level block layout (header, body, ...).
	Frame []ItemTemplate
	// Blocks maps a block type name to its ordered item templates.
	Blocks map[string][]ItemTemplate
	// Codes maps an association table name to its key/value pairs,
	// wire code (hex string) or symbolic key to symbolic value.
	Codes map[string]map[string]string
}

// New returns an empty registry, to be filled with Load calls.
func New() *Registry {
	return &Registry{
		Blocks: make(map[string][]ItemTemplate),
		Codes:  make(map[string]map[string]string),
	}
}

// Clear drops all loaded content.
func (r *Registry) Clear() {
	r.Frame = nil
	r.Blocks = make(map[string][]ItemTemplate)
	r.Codes = make(map[string]map[string]string)
}

// BlockTemplate returns the item templates of a block type, or nil if
// the type is unknown. The name match is normalization-insensitive.
func (r *Registry) BlockTemplate(typeName string) []ItemTemplate {
	if typeName == "" {
		return nil
	}
	want := Normalize(typeName)
	for name, items := range r.Blocks {
		if Normalize(name) == want {
			return items
		}
	}
	return nil
}

// ItemTemplate returns the named item of a block template, or nil.
func (r *Registry) ItemTemplate(blockName, itemName string) *ItemTemplate {
	want := Normalize(itemName)
	for _, item := range r.BlockTemplate(blockName) {
		if Normalize(item.Name) == want {
			item := item
			return &item
		}
	}
	return nil
}

// CodeName resolves an identifier inside an association table to its
// value. The identifier is either a wire code ([]byte, matched against
// hex-decoded table keys) or a symbolic string (normalized match
// against keys first, then values). Returns "" when the table or
// identifier is unknown.
func (r *Registry) CodeName(table string, id any) string {
	entries := r.codeTable(table)
	if entries == nil {
		return ""
	}
	switch key := id.(type) {
	case []byte:
		for k, v := range entries {
			code, err := hex.DecodeString(k)
			if err != nil {
				// Symbolic keys match their raw bytes.
				code = []byte(k)
			}
			if string(code) == string(key) {
				return v
			}
		}
	case string:
		want := Normalize(key)
		for k, v := range entries {
			if Normalize(k) == want {
				return v
			}
		}
		// A symbolic name resolves against hex-keyed tables too.
		for _, v := range entries {
			if Normalize(v) == want {
				return v
			}
		}
	}
	return ""
}

// CodeID is the reverse of CodeName: it resolves a symbolic value to
// its wire code. Table keys that are not hex strings are returned as
// their raw bytes. Returns nil when absent.
func (r *Registry) CodeID(table, name string) []byte {
	entries := r.codeTable(table)
	if entries == nil {
		return nil
	}
	want := Normalize(name)
	for k, v := range entries {
		if Normalize(v) != want {
			continue
		}
		if code, err := hex.DecodeString(k); err == nil {
			return code
		}
		return []byte(k)
	}
	return nil
}

// CodeTable returns the named association table, or nil. The table
// name match is normalization-insensitive.
func (r *Registry) CodeTable(table string) map[string]string {
	return r.codeTable(table)
}

func (r *Registry) codeTable(table string) map[string]string {
	want := Normalize(table)
	for name, entries := range r.Codes {
		if Normalize(name) == want {
			return entries
		}
	}
	return nil
}

// Normalize maps a template or lookup name to its canonical accessor
// form: lower case, spaces and dashes as underscores, all other
// non-alphanumerics stripped.
func Normalize(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		switch {
		case c == ' ' || c == '-' || c == '_':
			b.WriteByte('_')
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			b.WriteRune(c)
		}
	}
	return b.String()
}

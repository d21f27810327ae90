package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/wirespec/internal/logging"
)

// specFile mirrors the on-disk layout shared by the JSON and TOML
// specification formats.
type specFile struct {
	Frame  []ItemTemplate               `json:"frame" toml:"frame"`
	Blocks map[string][]ItemTemplate    `json:"blocks" toml:"blocks"`
	Codes  map[string]map[string]string `json:"codes" toml:"codes"`
}

// Load reads a specification file into a fresh registry, dispatching on
// the file extension (.json or .toml).
func Load(path string) (*Registry, error) {
	r := New()
	if err := r.Load(path); err != nil {
		return nil, err
	}
	return r, nil
}

// Load merges the content of a specification file into the registry.
// Previously loaded categories are kept; block types and code tables
// with the same name are replaced. On error the registry is unchanged.
func (r *Registry) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSpecFile, path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = r.ParseTOML(data)
	default:
		err = r.ParseJSON(data)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logging.Debugf("spec.Load path=%s blocks=%d codes=%d", path, len(r.Blocks), len(r.Codes))
	return nil
}

// LoadJSON reads a JSON specification file into a fresh registry.
func LoadJSON(path string) (*Registry, error) {
	r := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpecFile, path, err)
	}
	if err := r.ParseJSON(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// LoadTOML reads a TOML specification file into a fresh registry.
func LoadTOML(path string) (*Registry, error) {
	r := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpecFile, path, err)
	}
	if err := r.ParseTOML(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseJSON merges a JSON specification document into the registry.
func (r *Registry) ParseJSON(data []byte) error {
	var content specFile
	if err := json.Unmarshal(data, &content); err != nil {
		return fmt.Errorf("%w: %v", ErrSpecFile, err)
	}
	return r.merge(content)
}

// ParseTOML merges a TOML specification document into the registry.
func (r *Registry) ParseTOML(data []byte) error {
	var content specFile
	if err := toml.Unmarshal(data, &content); err != nil {
		return fmt.Errorf("%w: %v", ErrSpecFile, err)
	}
	return r.merge(content)
}

func (r *Registry) merge(content specFile) error {
	for name, items := range content.Blocks {
		for _, item := range items {
			if item.Name == "" {
				return fmt.Errorf("%w: block %q has an unnamed item", ErrSpecFile, name)
			}
		}
	}
	if len(content.Frame) > 0 {
		r.Frame = content.Frame
	}
	if r.Blocks == nil {
		r.Blocks = make(map[string][]ItemTemplate)
	}
	if r.Codes == nil {
		r.Codes = make(map[string]map[string]string)
	}
	for name, items := range content.Blocks {
		r.Blocks[name] = items
	}
	for name, entries := range content.Codes {
		r.Codes[name] = entries
	}
	return nil
}

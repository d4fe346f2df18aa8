package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk layout of a catalog file.
type Document struct {
	Pieces []Piece `yaml:"pieces"`
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Pieces) == 0 {
		return nil, ErrEmpty
	}
	cat, err := New(doc.Pieces)
	if err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return cat, nil
}

// Load reads a catalog document from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the expanded catalog back into a YAML document.
func Marshal(c *Catalog) ([]byte, error) {
	doc := Document{Pieces: c.Pieces()}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	return data, nil
}

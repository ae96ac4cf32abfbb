package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadDocument reads a page document from a .json, .yaml or .yml file.
// The file holds the root component list.
func LoadDocument(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(filepath.Ext(path), data)
}

// ParseDocument decodes data according to the file extension ext.
func ParseDocument(ext string, data []byte) (domain.Document, error) {
	var doc domain.Document

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid json document: %w", err)
		}
	case ".yaml", ".yml":
		var raw []any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid yaml document: %w", err)
		}
		if err := mapstructure.Decode(raw, &doc); err != nil {
			return nil, fmt.Errorf("invalid yaml document: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q", ext)
	}

	if doc == nil {
		doc = domain.Document{}
	}
	return doc, nil
}

// PageName derives a page title from a document path.
func PageName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

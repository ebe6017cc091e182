package contract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"
)

// Load reads a contract file. The format follows the extension: .json,
// .yaml/.yml or .toml.
func Load(path string) (Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(b, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes contract bytes in the format named by ext.
func Parse(b []byte, ext string) (Set, error) {
	var s Set
	var err error
	switch strings.ToLower(ext) {
	case ".json", "":
		err = json.Unmarshal(b, &s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &s)
	case ".toml":
		err = toml.Unmarshal(b, &s)
	default:
		return nil, fmt.Errorf("unsupported contract format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Verify(); err != nil {
		return nil, err
	}
	return s, nil
}

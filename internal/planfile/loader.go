package planfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Loader reads plan definition files through an afero.Fs. Use afero.NewOsFs()
// for real files or afero.NewMemMapFs() in tests.
type Loader struct {
	fs afero.Fs
}

func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs}
}

// NewOsLoader creates a Loader over the operating system filesystem.
func NewOsLoader() *Loader {
	return NewLoader(afero.NewOsFs())
}

// Load reads, parses and validates one definition file. The format is picked
// from the extension: .json is JSON, anything else is YAML.
func (l *Loader) Load(path string) (*Definition, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	def, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def.Source = path
	return def, nil
}

// LoadDir loads every *.yaml, *.yml and *.json file directly under dir,
// sorted by file name. A missing directory yields no definitions.
func (l *Loader) LoadDir(dir string) ([]*Definition, error) {
	exists, err := afero.DirExists(l.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("checking templates directory: %w", err)
	}
	if !exists {
		return []*Definition{}, nil
	}

	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading templates directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isPlanFile(e) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	defs := make([]*Definition, 0, len(paths))
	for _, p := range paths {
		def, err := l.Load(p)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Parse decodes data as "yaml" or "json" and validates the result.
func Parse(data []byte, format string) (*Definition, error) {
	var def Definition
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

func isPlanFile(info os.FileInfo) bool {
	switch strings.ToLower(filepath.Ext(info.Name())) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

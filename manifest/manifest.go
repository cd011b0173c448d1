// Package manifest declares protocols and adapter offers in YAML so they can
// be registered without code changes, including from a watched plugin
// directory.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/effectus/adaptation/protocol"
	"gopkg.in/yaml.v3"
)

// Manifest is one YAML document of declarations
type Manifest struct {
	Requires string         `yaml:"requires,omitempty"`
	Types    []TypeDecl     `yaml:"types,omitempty"`
	Offers   []Offer        `yaml:"offers,omitempty"`
	Provides []ProvidesDecl `yaml:"provides,omitempty"`

	// Source is the file the manifest was loaded from, if any
	Source string `yaml:"-"`
}

// TypeDecl declares a class or interface
type TypeDecl struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind,omitempty"`
	Bases    []string `yaml:"bases,omitempty"`
	Provides []string `yaml:"provides,omitempty"`
}

// Offer registers a named converter between two protocols. In YAML it is
// either a mapping or the compact string form
//
//	"plugs.UKStandard -> plugs.EUStandard via plugs.UKToEU when 'adaptee.Mode == \"EU\"'"
type Offer struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Factory string `yaml:"factory"`
	When    string `yaml:"when,omitempty"`

	guard *Guard
}

// ProvidesDecl declares that every provider provides a protocol
type ProvidesDecl struct {
	Provider string `yaml:"provider"`
	Protocol string `yaml:"protocol"`
}

// offerFields are the keys of the mapping form. The nested decode does not
// inherit the document decoder's KnownFields setting.
var offerFields = map[string]bool{"from": true, "to": true, "factory": true, "when": true}

// UnmarshalYAML accepts both offer forms
func (o *Offer) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseOffer(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*o = *parsed
		return nil
	}

	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if !offerFields[key.Value] {
				return fmt.Errorf("line %d: field %s not found in offer", key.Line, key.Value)
			}
		}
	}

	type plain Offer
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*o = Offer(decoded)
	return nil
}

// String renders the offer in compact form
func (o Offer) String() string {
	s := fmt.Sprintf("%s -> %s via %s", o.From, o.To, o.Factory)
	if o.When != "" {
		s += fmt.Sprintf(" when %q", o.When)
	}
	return s
}

// Guard returns the compiled when expression, or nil when the offer is
// unconditional. Available after Parse or Compile.
func (o *Offer) Guard() *Guard {
	return o.guard
}

// Parse decodes and validates a manifest. Guards are compiled eagerly so
// syntax errors surface here rather than during adaptation.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		if strings.TrimSpace(string(data)) == "" {
			return &m, nil
		}
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if err := m.Compile(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses a manifest file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Source = path
	return m, nil
}

// LoadDir loads every .yaml and .yml file in dir, in name order
func LoadDir(dir string) ([]*Manifest, error) {
	paths, err := ManifestFiles(dir)
	if err != nil {
		return nil, err
	}

	manifests := make([]*Manifest, 0, len(paths))
	for _, path := range paths {
		m, err := Load(path)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// ManifestFiles lists the manifest files directly inside dir, sorted
func ManifestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading manifest directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsManifestFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// IsManifestFile reports whether name has a manifest extension
func IsManifestFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Compile validates the declarations and compiles guards
func (m *Manifest) Compile() error {
	if m.Requires != "" {
		if _, err := parseConstraint(m.Requires); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(m.Types))
	for i, decl := range m.Types {
		if strings.TrimSpace(decl.Name) == "" {
			return fmt.Errorf("types[%d]: name is required", i)
		}
		if seen[decl.Name] {
			return fmt.Errorf("types[%d]: %s declared twice", i, decl.Name)
		}
		seen[decl.Name] = true
		if _, err := decl.kind(); err != nil {
			return fmt.Errorf("types[%d]: %w", i, err)
		}
	}

	for i := range m.Offers {
		offer := &m.Offers[i]
		if offer.From == "" || offer.To == "" || offer.Factory == "" {
			return fmt.Errorf("offers[%d]: from, to and factory are required", i)
		}
		if offer.When == "" {
			offer.guard = nil
			continue
		}
		guard, err := CompileGuard(offer.When)
		if err != nil {
			return fmt.Errorf("offers[%d] %s: %w", i, offer.From, err)
		}
		offer.guard = guard
	}

	for i, p := range m.Provides {
		if p.Provider == "" || p.Protocol == "" {
			return fmt.Errorf("provides[%d]: provider and protocol are required", i)
		}
	}
	return nil
}

func (d TypeDecl) kind() (protocol.Kind, error) {
	if d.Kind == "" {
		return protocol.KindClass, nil
	}
	return protocol.ParseKind(d.Kind)
}

// Marshal renders the manifest as YAML
func (m *Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(m); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package preset

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/eugenenazirov/config-composer/internal/compose"
	"github.com/eugenenazirov/config-composer/internal/document"
)

// DefaultName is the preset used when a caller does not name one.
const DefaultName = "jest"

var (
	// ErrPresetNotFound indicates no preset is registered under the requested name.
	ErrPresetNotFound = errors.New("preset not found")
	// ErrInvalidPreset indicates the preset name or body violates validation rules.
	ErrInvalidPreset = errors.New("preset must have a non-empty name and a mapping body")
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Registry provides access to the named base configurations.
type Registry interface {
	Get(name string) (map[string]any, error)
	Put(name string, cfg map[string]any) error
	Names() []string
}

// MemoryRegistry keeps presets in-memory and guards access with a RWMutex.
type MemoryRegistry struct {
	mu      sync.RWMutex
	presets map[string]map[string]any
}

// NewMemoryRegistry initialises a registry seeded with the built-in presets.
func NewMemoryRegistry() (*MemoryRegistry, error) {
	r := &MemoryRegistry{presets: make(map[string]map[string]any)}
	if err := r.load(defaultsYAML, document.FormatYAML); err != nil {
		return nil, fmt.Errorf("load built-in presets: %w", err)
	}
	return r, nil
}

// Get returns a deep copy of the named preset.
func (r *MemoryRegistry) Get(name string) (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.presets[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return compose.CloneMap(cfg), nil
}

// Put validates and stores a copy of cfg under name, replacing any existing preset.
func (r *MemoryRegistry) Put(name string, cfg map[string]any) error {
	name = strings.TrimSpace(name)
	if name == "" || cfg == nil {
		return ErrInvalidPreset
	}

	stored := compose.CloneMap(cfg)

	r.mu.Lock()
	r.presets[name] = stored
	r.mu.Unlock()

	return nil
}

// Names returns the registered preset names in sorted order.
func (r *MemoryRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile merges presets from a document whose top-level keys are preset
// names. Existing presets with the same name are replaced.
func (r *MemoryRegistry) LoadFile(path string) error {
	doc, err := document.ReadMappingFile(path)
	if err != nil {
		return fmt.Errorf("read presets file: %w", err)
	}
	return r.putAll(doc)
}

func (r *MemoryRegistry) load(data []byte, format document.Format) error {
	doc, err := document.DecodeMapping(data, format)
	if err != nil {
		return err
	}
	return r.putAll(doc)
}

func (r *MemoryRegistry) putAll(doc map[string]any) error {
	for name, body := range doc {
		cfg, ok := compose.Clone(body).(map[string]any)
		if !ok {
			return fmt.Errorf("%w: preset %q is %T", ErrInvalidPreset, name, body)
		}
		if err := r.Put(name, cfg); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return nil
}

package compose

import (
	"fmt"
	"sort"
	"strings"
)

const pathSeparator = "."

type shallowComposer struct{}

// New creates the default Composer.
func New() Composer {
	return shallowComposer{}
}

func (shallowComposer) Compose(base, overrides map[string]any) (map[string]any, error) {
	return Compose(base, overrides)
}

// Compose applies overrides on top of base and returns a freshly allocated mapping.
//
// Top-level keys are merged shallowly: when both sides hold a mapping, the
// override's entries are laid over the base's entries one level deep and
// everything below that level is replaced wholesale. Keys containing a dot
// (for example "coverageThreshold.global.lines") address a single leaf and
// are applied after the structural merge in lexical order.
//
// Neither base nor overrides is modified, and the result shares no mutable
// state with them.
func Compose(base, overrides map[string]any) (map[string]any, error) {
	if base == nil {
		return nil, errBaseAbsent
	}

	merged := cloneMap(base)

	var paths []string
	for key, value := range overrides {
		if strings.Contains(key, pathSeparator) {
			paths = append(paths, key)
			continue
		}
		merged[key] = mergeValue(merged[key], value)
	}

	sort.Strings(paths)
	for _, path := range paths {
		segments, err := splitPath(path)
		if err != nil {
			return nil, err
		}
		setPath(merged, segments, Clone(overrides[path]))
	}

	return merged, nil
}

// ComposeDocument is Compose for an untyped decoded document such as the
// output of yaml.Unmarshal. It fails with ErrInvalidInput when base is nil
// or not a mapping.
func ComposeDocument(base any, overrides map[string]any) (map[string]any, error) {
	m, ok := asMapping(base)
	if !ok {
		return nil, fmt.Errorf("%w: base configuration must be a mapping, got %T", ErrInvalidInput, base)
	}
	return Compose(m, overrides)
}

// Chain folds the override layers onto base from left to right so later layers win.
func Chain(base map[string]any, layers ...map[string]any) (map[string]any, error) {
	if base == nil {
		return nil, errBaseAbsent
	}

	merged := cloneMap(base)
	for i, layer := range layers {
		next, err := Compose(merged, layer)
		if err != nil {
			return nil, fmt.Errorf("apply override layer %d: %w", i, err)
		}
		merged = next
	}
	return merged, nil
}

// mergeValue expects current to be owned by the caller's result.
func mergeValue(current, override any) any {
	overrideMap, ok := asMapping(override)
	if !ok {
		return Clone(override)
	}

	currentMap, ok := current.(map[string]any)
	if !ok {
		return cloneMap(overrideMap)
	}

	for key, value := range overrideMap {
		currentMap[key] = Clone(value)
	}
	return currentMap
}

func splitPath(path string) ([]string, error) {
	segments := strings.Split(path, pathSeparator)
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			return nil, fmt.Errorf("%w: malformed override path %q", ErrInvalidInput, path)
		}
	}
	return segments, nil
}

func setPath(root map[string]any, segments []string, value any) {
	node := root
	for _, segment := range segments[:len(segments)-1] {
		next, ok := node[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[segment] = next
		}
		node = next
	}
	node[segments[len(segments)-1]] = value
}

// Package loader reads configuration layers into plain maps.
//
// A layer is a map[string]any keyed by section ("logging", "undo") holding
// the settings of that section. TOML files and environment variables each
// produce a layer; Layers merges them in order so later layers win.
package loader

import (
	"os"
)

// Loader produces one configuration layer.
type Loader interface {
	// Load returns the layer, or nil, nil if the source does not exist.
	Load() (map[string]any, error)
}

// FileSystem reads files. Tests substitute an in-memory implementation.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// Layers loads every loader and merges the results in order on top of
// base. base is not modified.
func Layers(base map[string]any, loaders ...Loader) (map[string]any, error) {
	merged := Clone(base)
	if merged == nil {
		merged = make(map[string]any)
	}
	for _, l := range loaders {
		layer, err := l.Load()
		if err != nil {
			return nil, err
		}
		merged = DeepMerge(merged, layer)
	}
	return merged, nil
}

// DeepMerge recursively merges src into dst and returns dst.
// Maps are merged; any other src value replaces the dst value.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}

	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = srcVal
	}

	return dst
}

// Clone returns a deep copy of a configuration map.
func Clone(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for key, val := range src {
		dst[key] = cloneValue(val)
	}
	return dst
}

func cloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return Clone(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return val
	}
}

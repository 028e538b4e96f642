package engine

import "sort"

// Metadata collects the key/value pairs discovered during a parse. Keys are
// unique; values may be multi-valued and are passed through uninterpreted.
type Metadata struct {
	values map[string][]string
}

func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string][]string)}
}

// Set replaces any existing values for key.
func (m *Metadata) Set(key, value string) {
	m.values[key] = []string{value}
}

// Add appends value to the values recorded for key.
func (m *Metadata) Add(key, value string) {
	m.values[key] = append(m.values[key], value)
}

// Get returns the first value for key, or "".
func (m *Metadata) Get(key string) string {
	if vs := m.values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Names returns the recorded keys, sorted.
func (m *Metadata) Names() []string {
	names := make([]string, 0, len(m.values))
	for k := range m.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Map flattens the metadata for serialization: single values come out as
// strings, multi-values as string slices.
func (m *Metadata) Map() map[string]any {
	out := make(map[string]any, len(m.values))
	for k, vs := range m.values {
		if len(vs) == 1 {
			out[k] = vs[0]
		} else {
			out[k] = append([]string(nil), vs...)
		}
	}
	return out
}

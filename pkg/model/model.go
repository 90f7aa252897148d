package model

import (
	"reflect"
	"sort"
	"strings"
)

// Model is the data supplied to a single render call.
type Model map[string]any

// Get returns the value stored under key.
func (m Model) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	value, ok := m[key]
	return value, ok
}

// String returns the value under key when it holds a string.
func (m Model) String(key string) string {
	value, _ := m.Get(key)
	s, _ := value.(string)
	return s
}

// Path walks dotted keys ("post.author.name") through nested mappings.
func (m Model) Path(path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	var current any = m
	for _, segment := range strings.Split(path, ".") {
		next, ok := lookupKey(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Keys returns the model keys in sorted order.
func (m Model) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy.
func (m Model) Clone() Model {
	if m == nil {
		return nil
	}
	out := make(Model, len(m))
	for key, value := range m {
		out[key] = value
	}
	return out
}

// With returns a shallow copy with extra values layered on top.
func (m Model) With(extra map[string]any) Model {
	out := make(Model, len(m)+len(extra))
	for key, value := range m {
		out[key] = value
	}
	for key, value := range extra {
		out[key] = value
	}
	return out
}

// From converts a generic mapping into a Model. It accepts Model,
// map[string]any, the map[any]any shape some decoders produce, and any other
// map keyed by strings.
func From(value any) (Model, bool) {
	switch v := value.(type) {
	case Model:
		return v, true
	case map[string]any:
		return Model(v), true
	case map[any]any:
		out := make(Model, len(v))
		for key, item := range v {
			name, ok := key.(string)
			if !ok {
				return nil, false
			}
			out[name] = item
		}
		return out, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(Model, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func lookupKey(value any, key string) (any, bool) {
	mapping, ok := From(value)
	if !ok {
		return nil, false
	}
	return mapping.Get(key)
}

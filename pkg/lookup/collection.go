package lookup

import (
	"fmt"
	"reflect"
)

// Element is one item of a DecoratedCollection.
type Element struct {
	Index int
	First bool
	Last  bool
	Value any
}

// String prints the wrapped value so templates can emit an element directly.
func (e Element) String() string {
	if e.Value == nil {
		return ""
	}
	return fmt.Sprint(e.Value)
}

// DecoratedCollection exposes a sequence together with per-element position
// metadata. The source sequence is copied, never mutated.
type DecoratedCollection []Element

// Decorate wraps items in a DecoratedCollection.
func Decorate[T any](items []T) DecoratedCollection {
	out := make(DecoratedCollection, len(items))
	for i, item := range items {
		out[i] = Element{
			Index: i,
			First: i == 0,
			Last:  i == len(items)-1,
			Value: item,
		}
	}
	return out
}

// Values returns the wrapped values in order.
func (c DecoratedCollection) Values() []any {
	out := make([]any, len(c))
	for i, e := range c {
		out[i] = e.Value
	}
	return out
}

// Len returns the number of elements.
func (c DecoratedCollection) Len() int {
	return len(c)
}

// Normalize wraps raw collections (slices and arrays other than byte slices)
// in a DecoratedCollection. Decorated collections, mappings and scalars are
// returned unchanged, so Normalize is idempotent.
func Normalize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case DecoratedCollection, *DecoratedCollection:
		return v
	case []byte, string:
		return v
	case []any:
		return Decorate(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return DecoratedCollection{}
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return value
		}
	case reflect.Array:
	default:
		return value
	}

	n := rv.Len()
	out := make(DecoratedCollection, n)
	for i := 0; i < n; i++ {
		out[i] = Element{
			Index: i,
			First: i == 0,
			Last:  i == n-1,
			Value: rv.Index(i).Interface(),
		}
	}
	return out
}

// IsDecorated reports whether value is already a DecoratedCollection.
func IsDecorated(value any) bool {
	switch value.(type) {
	case DecoratedCollection, *DecoratedCollection:
		return true
	default:
		return false
	}
}

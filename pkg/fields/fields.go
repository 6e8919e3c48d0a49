// Package fields provides Bag, an open set of named values.
//
// Entities exchange Bags with clients, and keep fields unknown to their schema in Bags
// so that they survive a read-modify-write round trip.
package fields

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

type Bag map[string]any

// Clone makes a deep copy. Nested maps and slices are copied; other values are shared.
func (b Bag) Clone() Bag {
	if b == nil {
		return nil
	}
	return cloneValue(map[string]any(b)).(map[string]any)
}

func cloneValue(v any) any {
	switch vv := v.(type) {
	case Bag:
		return Bag(cloneValue(map[string]any(vv)).(map[string]any))
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, x := range vv {
			out[k] = cloneValue(x)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, x := range vv {
			out[i] = cloneValue(x)
		}
		return out
	case []string:
		out := make([]string, len(vv))
		copy(out, vv)
		return out
	default:
		return v
	}
}

// Merge returns a new Bag having all fields of bags.
// When keys collide, a later bag wins. Values are not merged deeply.
func Merge(bags ...Bag) Bag {
	out := Bag{}
	for _, b := range bags {
		for k, v := range b {
			out[k] = v
		}
	}
	return out
}

// Keys in sorted order.
func (b Bag) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b Bag) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// Str returns the value for key if it is a string. Otherwise empty.
func (b Bag) Str(key string) string {
	s, _ := b[key].(string)
	return s
}

func (b Bag) Bool(key string) bool {
	v, _ := b[key].(bool)
	return v
}

// Map returns the value for key as a Bag, if it is a map. Otherwise nil.
func (b Bag) Map(key string) Bag {
	return AsBag(b[key])
}

// Slice returns the value for key if it is a slice. Otherwise nil.
func (b Bag) Slice(key string) []any {
	switch v := b[key].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case []Bag:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	default:
		return nil
	}
}

// Strings returns the value for key as []string. Non-string items are dropped.
func (b Bag) Strings(key string) []string {
	items := b.Slice(key)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, i := range items {
		if s, ok := i.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Without returns a shallow copy lacking keys.
func (b Bag) Without(keys ...string) Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// AsBag converts map-ish values (Bag, map[string]any, map[string]string) into Bag.
//
// Others are converted to nil.
func AsBag(v any) Bag {
	switch m := v.(type) {
	case Bag:
		return m
	case map[string]any:
		return Bag(m)
	case map[string]string:
		out := make(Bag, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out
	default:
		return nil
	}
}

// Decode fills `into` with fields of the bag, through JSON.
func (b Bag) Decode(into any) error {
	buf, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, into)
}

// FromStruct converts v into a Bag, through JSON.
func FromStruct(v any) (Bag, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	b := Bag{}
	if err := json.Unmarshal(buf, &b); err != nil {
		return nil, fmt.Errorf("%T is not an object: %w", v, err)
	}
	return b, nil
}

// Normalize converts b into the shape JSON decoding would give:
// numbers are float64, maps are map[string]any and slices are []any.
func (b Bag) Normalize() (Bag, error) {
	if b == nil {
		return nil, nil
	}
	return FromStruct(b)
}

// Equal compares two bags deeply, after normalization.
func Equal(a, b Bag) bool {
	na, err := a.Normalize()
	if err != nil {
		return false
	}
	nb, err := b.Normalize()
	if err != nil {
		return false
	}
	if len(na) == 0 && len(nb) == 0 {
		return true
	}
	return reflect.DeepEqual(na, nb)
}

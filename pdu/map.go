// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package pdu

// MapEntry is a single key/value pair of a Map
type MapEntry struct {
	Key   interface{}
	Value interface{}
}

// Map is a Bysant map which keeps its entries in order.
//
// Decoded maps hold their entries in wire order with keys of type string or
// uint32. When encoding, entries are written in slice order; keys may be
// strings, byte slices or non-negative integers.
type Map []MapEntry

// NewMap builds a Map from alternating keys and values. It panics if given
// an odd number of arguments.
func NewMap(kv ...interface{}) Map {
	if len(kv)%2 != 0 {
		panic("pdu: NewMap requires an even number of arguments")
	}

	m := make(Map, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		m = m.Set(kv[i], kv[i+1])
	}
	return m
}

func (m Map) index(key interface{}) int {
	for i := range m {
		if keyEqual(m[i].Key, key) {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key
func (m Map) Get(key interface{}) (interface{}, bool) {
	if i := m.index(key); i >= 0 {
		return m[i].Value, true
	}
	return nil, false
}

// Set replaces the value stored under key, or appends a new entry
func (m Map) Set(key, value interface{}) Map {
	if i := m.index(key); i >= 0 {
		m[i].Value = value
		return m
	}
	return append(m, MapEntry{key, value})
}

// Keys returns the keys in order
func (m Map) Keys() []interface{} {
	keys := make([]interface{}, len(m))
	for i := range m {
		keys[i] = m[i].Key
	}
	return keys
}

// keyEqual compares map keys loosely: strings match byte slices of the same
// content and unsigned keys match any integer of the same value.
func keyEqual(a, b interface{}) bool {
	if as, ok := keyString(a); ok {
		bs, ok := keyString(b)
		return ok && as == bs
	}
	if au, ok := keyUint(a); ok {
		bu, ok := keyUint(b)
		return ok && au == bu
	}
	return false
}

func keyString(k interface{}) (string, bool) {
	switch k := k.(type) {
	case string:
		return k, true
	case []byte:
		return string(k), true
	default:
		return "", false
	}
}

func keyUint(k interface{}) (uint64, bool) {
	switch k := k.(type) {
	case uint8:
		return uint64(k), true
	case uint16:
		return uint64(k), true
	case uint32:
		return uint64(k), true
	case uint64:
		return k, true
	case uint:
		return uint64(k), true
	case int8:
		return uint64(k), k >= 0
	case int16:
		return uint64(k), k >= 0
	case int32:
		return uint64(k), k >= 0
	case int64:
		return uint64(k), k >= 0
	case int:
		return uint64(k), k >= 0
	default:
		return 0, false
	}
}

// TypedList is a list whose elements are all encoded in Context. Decoding a
// typed list yields a plain []interface{}.
type TypedList struct {
	Context Context
	Values  []interface{}
}

// TypedMap is a map whose values are all encoded in Context (keys are always
// in UintsAndStrs). Decoding a typed map yields a plain Map.
type TypedMap struct {
	Context Context
	Entries Map
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"fmt"
	"reflect"
	"sort"

	"go.e43.eu/m3da/internal/errors"
)

// mapCodec handles Go maps. Go map iteration order is random, so keys are
// sorted: unsigned keys ascending, then string keys.
type mapCodec struct {
	valueCodec xCodec
}

func makeMapCodec(cr *Coder, t reflect.Type) xCodec {
	switch t.Key().Kind() {
	case reflect.String, reflect.Interface,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return &errorCodec{errors.ErrUnsupportedValue}
	}

	return &mapCodec{
		valueCodec: cr.getCodec(t.Elem()),
	}
}

// sortKey orders map keys
type sortKey struct {
	rank int // 0: negative, 1: unsigned, 2: string, 3: anything else
	n    uint64
	s    string
}

func makeSortKey(k reflect.Value) sortKey {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return sortKey{rank: 3}
		}
		k = k.Elem()
	}

	switch k.Kind() {
	case reflect.String:
		return sortKey{rank: 2, s: k.String()}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i := k.Int(); i < 0 {
			return sortKey{rank: 0, n: uint64(-i)}
		}
		return sortKey{rank: 1, n: uint64(k.Int())}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return sortKey{rank: 1, n: k.Uint()}
	case reflect.Slice:
		if k.Type().Elem().Kind() == reflect.Uint8 {
			return sortKey{rank: 2, s: string(k.Bytes())}
		}
	}
	return sortKey{rank: 3}
}

func (a sortKey) less(b sortKey) bool {
	switch {
	case a.rank != b.rank:
		return a.rank < b.rank
	case a.rank == 0:
		return a.n > b.n
	case a.rank == 1:
		return a.n < b.n
	default:
		return a.s < b.s
	}
}

func (c *mapCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	if v.IsNil() {
		e.encodeNull()
		return nil
	}

	l := v.Len()
	if err := e.collectionHeader(ctx.maps, l, nil); err != nil {
		return err
	}

	keys := v.MapKeys()
	sortKeys := make([]sortKey, len(keys))
	for i, k := range keys {
		sortKeys[i] = makeSortKey(k)
	}
	sort.Sort(keySorter{keys, sortKeys})

	for _, k := range keys {
		ko := k.Interface()
		if err := e.encodeKey(ko); err != nil {
			return err
		}
		if err := e.encodeWith(globalContext, c.valueCodec, v.MapIndex(k)); err != nil {
			return errors.WithFieldError(err, fmt.Sprintf("[%v]", ko))
		}
	}
	return nil
}

type keySorter struct {
	keys []reflect.Value
	sk   []sortKey
}

func (s keySorter) Len() int           { return len(s.keys) }
func (s keySorter) Less(i, j int) bool { return s.sk[i].less(s.sk[j]) }
func (s keySorter) Swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.sk[i], s.sk[j] = s.sk[j], s.sk[i]
}

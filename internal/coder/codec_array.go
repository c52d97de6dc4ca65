// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"fmt"
	"reflect"
	"sync"

	"go.e43.eu/m3da/internal/errors"
)

func newForT(t reflect.Type) func() interface{} {
	return func() interface{} {
		return reflect.New(t)
	}
}

// binaryArrayCodec handles byte arrays, which are encoded as binary strings
type binaryArrayCodec struct {
	bufs sync.Pool
}

var _ xCodec = &binaryArrayCodec{}

// binarySliceCodec handles byte slices of named types
type binarySliceCodec struct{}

// listCodec handles other arrays and slices, which are encoded as untyped
// lists
type listCodec struct {
	elem xCodec
}

func makeArrayCodec(cr *Coder, t reflect.Type) xCodec {
	if t.Elem().Kind() == reflect.Uint8 {
		c := new(binaryArrayCodec)
		c.bufs.New = newForT(t)
		return c
	}
	return &listCodec{elem: cr.getCodec(t.Elem())}
}

func makeSliceCodec(cr *Coder, t reflect.Type) xCodec {
	if t.Elem().Kind() == reflect.Uint8 {
		return binarySliceCodec{}
	}
	return &listCodec{elem: cr.getCodec(t.Elem())}
}

func (c *binaryArrayCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	// Arrays passed by value cannot be sliced, so copy them into an
	// addressable temporary from the pool
	if !v.CanAddr() {
		p := c.bufs.Get().(reflect.Value)
		defer c.bufs.Put(p)

		pe := p.Elem()
		pe.Set(v)
		v = pe
	}

	return e.encodeBinary(ctx, v.Slice(0, v.Len()).Bytes())
}

func (binarySliceCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	if v.IsNil() {
		e.encodeNull()
		return nil
	}
	return e.encodeBinary(ctx, v.Bytes())
}

func (c *listCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	if v.Kind() == reflect.Slice && v.IsNil() {
		e.encodeNull()
		return nil
	}

	l := v.Len()
	if err := e.collectionHeader(ctx.lists, l, nil); err != nil {
		return err
	}

	for i := 0; i < l; i++ {
		if err := e.encodeWith(globalContext, c.elem, v.Index(i)); err != nil {
			return errors.WithFieldError(err, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"reflect"
)

// ptrCodec handles pointers. A nil pointer is null; anything else is
// encoded as its pointee.
type ptrCodec struct {
	elem xCodec
}

func makePtrCodec(cr *Coder, t reflect.Type) xCodec {
	return &ptrCodec{
		elem: cr.getCodec(t.Elem()),
	}
}

func (c *ptrCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	if v.IsNil() {
		e.encodeNull()
		return nil
	}
	return e.encodeWith(ctx, c.elem, v.Elem())
}

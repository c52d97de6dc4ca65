// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"reflect"
)

// boolCodec handles booleans
type boolCodec struct{}

var boolCodecI xCodec = boolCodec{}

func (boolCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	return e.encodeBool(ctx, v.Bool())
}

// intCodec handles all signed integers. Their Bysant encoding depends only
// on value, never on width.
type intCodec struct{}

var intCodecI xCodec = intCodec{}

func (intCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	return e.encodeInt(ctx, v.Int())
}

// uintCodec handles all unsigned integers
type uintCodec struct{}

var uintCodecI xCodec = uintCodec{}

func (uintCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	return e.encodeUint(ctx, v.Uint())
}

// floatCodec handles floats
type floatCodec struct{}

var floatCodecI xCodec = floatCodec{}

func (floatCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	return e.encodeFloat32(ctx, float32(v.Float()))
}

// doubleCodec handles doubles
type doubleCodec struct{}

var doubleCodecI xCodec = doubleCodec{}

func (doubleCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	return e.encodeFloat64(ctx, v.Float())
}

// stringCodec handles named string types
type stringCodec struct{}

var stringCodecI xCodec = stringCodec{}

func (stringCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	return e.encodeString(ctx, v.String())
}

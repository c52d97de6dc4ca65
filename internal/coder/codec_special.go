// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"reflect"
	"sync"
	"sync/atomic"

	m3dainterfaces "go.e43.eu/m3da/interfaces"
	"go.e43.eu/m3da/pdu"
)

// codec embedding a fixed, memoised error (generally
// indicating that a type can't be marshalled)
type errorCodec struct {
	err error
}

func (c *errorCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	return c.err
}

// placeholder codec for types under construction, to handle cycles
type deferredCodec struct {
	real atomic.Value // xCodec
	wg   sync.WaitGroup
}

var _ xCodec = &deferredCodec{}

func newDeferredCodec() *deferredCodec {
	dc := new(deferredCodec)
	dc.wg.Add(1)
	return dc
}

func (dc *deferredCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	real := dc.real.Load()
	if real == nil {
		dc.wg.Wait()
		real = dc.real.Load()
	}
	return real.(xCodec).encode(e, ctx, v)
}

func (dc *deferredCodec) resolve(real xCodec) {
	dc.real.Store(real)
	dc.wg.Done()
}

// marshalerCodec handles types which know how to represent themselves as
// another value
type marshalerCodec struct{}

var marshalerCodecI xCodec = marshalerCodec{}

func (marshalerCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	if v.Kind() == reflect.Ptr && v.IsNil() {
		e.encodeNull()
		return nil
	}

	o, err := v.Interface().(m3dainterfaces.Marshaler).MarshalBysant()
	if err != nil {
		return err
	}
	return e.encodeValue(ctx, o)
}

// interfaceCodec dispatches on the dynamic type of an interface value
type interfaceCodec struct{}

var interfaceCodecI xCodec = interfaceCodec{}

func (interfaceCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	if v.IsNil() {
		e.encodeNull()
		return nil
	}
	return e.encodeValue(ctx, v.Elem().Interface())
}

// valueCodec hands values of the types the encoder knows natively (maps,
// typed collections and PDUs) back to it
type valueCodec struct{}

var valueCodecI xCodec = valueCodec{}

func (valueCodec) encode(e *encoder, ctx *context, v reflect.Value) error {
	return e.encodeDynamic(ctx, v.Interface())
}

var nativeTypes = map[reflect.Type]struct{}{
	reflect.TypeOf(pdu.Map(nil)):              {},
	reflect.TypeOf(pdu.TypedList{}):           {},
	reflect.TypeOf(pdu.TypedMap{}):            {},
	reflect.TypeOf(pdu.Envelope{}):            {},
	reflect.TypeOf(pdu.Message{}):             {},
	reflect.TypeOf(pdu.Response{}):            {},
	reflect.TypeOf(pdu.DeltasVector{}):        {},
	reflect.TypeOf(pdu.QuasiPeriodicVector{}): {},
	reflect.TypeOf([]interface{}(nil)):        {},
}

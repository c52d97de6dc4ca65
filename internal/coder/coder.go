// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"reflect"
	"strconv"
	"sync"

	m3dainterfaces "go.e43.eu/m3da/interfaces"
	"go.e43.eu/m3da/internal/errors"
	"go.e43.eu/m3da/pdu"
)

var (
	marshalerType = reflect.TypeOf((*m3dainterfaces.Marshaler)(nil)).Elem()
)

// type xCodec encodes values of one Go type (found by reflection) in a
// context
type xCodec interface {
	encode(e *encoder, ctx *context, v reflect.Value) error
}

type Coder struct {
	knownCodecs sync.Map // map[reflect.Type]xCodec
}

var (
	_ m3dainterfaces.Coder   = &Coder{}
	_ m3dainterfaces.Encoder = &Coder{}
)

func NewCoder() *Coder {
	return new(Coder)
}

func (cr *Coder) getCodec(t reflect.Type) xCodec {
	// Common case: already known
	c, ok := cr.knownCodecs.Load(t)
	if ok {
		return c.(xCodec)
	}

	// Less common case: need to construct a codec
	return cr.getNewCodec(t)
}

func (cr *Coder) getNewCodec(t reflect.Type) xCodec {
	// We create a "deferred codec" in order to handle cycles in the type graph
	// (e.g. type List []List). Another goroutine may be building or looking up
	// the same type at the same time, so the deferred codec blocks callers
	// until the real one is published.
	dc := newDeferredCodec()

	c, ok := cr.knownCodecs.LoadOrStore(t, dc)
	if ok {
		return c.(xCodec)
	}

	cc := cr.buildCodec(t)

	cr.knownCodecs.Store(t, cc)
	dc.resolve(cc)
	return cc
}

func (cr *Coder) buildCodec(t reflect.Type) xCodec {
	if t.Implements(marshalerType) {
		return marshalerCodecI
	}
	if _, ok := nativeTypes[t]; ok {
		return valueCodecI
	}

	switch t.Kind() {
	case reflect.Bool:
		return boolCodecI
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intCodecI
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintCodecI
	case reflect.Float32:
		return floatCodecI
	case reflect.Float64:
		return doubleCodecI
	case reflect.String:
		return stringCodecI
	case reflect.Array:
		return makeArrayCodec(cr, t)
	case reflect.Slice:
		return makeSliceCodec(cr, t)
	case reflect.Map:
		return makeMapCodec(cr, t)
	case reflect.Ptr:
		return makePtrCodec(cr, t)
	case reflect.Interface:
		return interfaceCodecI
	default:
		return &errorCodec{errors.ErrUnsupportedValue}
	}
}

// encode runs the size pass and then, unless sizeOnly, the write pass over
// values
func (cr *Coder) encode(ctx pdu.Context, values []interface{}, sizeOnly bool) ([]byte, int, error) {
	c, err := lookupContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	e := encoderPool.Get().(*encoder)
	defer e.release()

	e.reset(cr, nil)
	for i, v := range values {
		if err := e.encodeValue(c, v); err != nil {
			if len(values) > 1 {
				err = errors.WithFieldError(err, "#"+strconv.Itoa(i))
			}
			return nil, 0, err
		}
	}

	size := e.n
	if sizeOnly {
		return nil, size, nil
	}

	buf := make([]byte, size)
	e.reset(cr, buf)
	for _, v := range values {
		if err := e.encodeValue(c, v); err != nil {
			return nil, 0, err
		}
	}

	if e.overflow || e.n != size {
		return nil, 0, errors.ErrSizeMismatch
	}
	return buf, size, nil
}

// Encode returns the concatenated encoding of values in ctx
func (cr *Coder) Encode(ctx pdu.Context, values ...interface{}) ([]byte, error) {
	buf, _, err := cr.encode(ctx, values, false)
	return buf, err
}

// EncodeTo encodes values in ctx and hands the result to out
func (cr *Coder) EncodeTo(out m3dainterfaces.EncoderOutput, ctx pdu.Context, values ...interface{}) error {
	buf, _, err := cr.encode(ctx, values, false)
	if err != nil {
		return err
	}
	return out.Encoded(buf)
}

// Size returns the number of bytes Encode would return
func (cr *Coder) Size(ctx pdu.Context, values ...interface{}) (int, error) {
	_, n, err := cr.encode(ctx, values, true)
	return n, err
}

// EncodeEnvelope encodes a single envelope in the Global context
func (cr *Coder) EncodeEnvelope(env *pdu.Envelope) ([]byte, error) {
	if env == nil {
		return nil, errors.UnexpectedValueError{Expected: errors.ErrNotEnvelope, Value: env}
	}
	return cr.Encode(pdu.Global, env)
}

func (cr *Coder) NewDecoder() m3dainterfaces.Decoder {
	return newDecoder()
}

func (cr *Coder) NewEnvelopeDecoder() m3dainterfaces.EnvelopeDecoder {
	return newEnvelopeDecoder()
}

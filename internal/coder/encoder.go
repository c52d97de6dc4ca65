// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"fmt"
	"math"
	"reflect"
	"sync"

	"go.e43.eu/m3da/internal/errors"
	"go.e43.eu/m3da/pdu"
)

// maxChunk is the largest chunk of a chunked string
const maxChunk = 0xFFFF

var encoderPool = sync.Pool{
	New: func() interface{} {
		return &encoder{
			codecCacheSlot: 3,
		}
	},
}

// encoder runs in two passes over the same code: with a nil buf it only
// counts bytes, and with a buf sized by the first pass it writes them.
type encoder struct {
	// Our coder
	cr *Coder

	// Destination buffer, or nil when sizing
	buf []byte
	// Bytes counted or written so far
	n int
	// Set if a write would have run past the end of buf
	overflow bool

	// Small cache of most recently encoded types. Typically a small number of types
	// are repeatedly written to an encoder
	codecCache [4]struct {
		type_ reflect.Type
		codec xCodec
	}
	// Next slot for replacement
	codecCacheSlot int
}

func (e *encoder) reset(cr *Coder, buf []byte) {
	if e.cr != cr {
		for i := range e.codecCache {
			e.codecCache[i].type_ = nil
			e.codecCache[i].codec = nil
		}
	}

	e.cr = cr
	e.buf = buf
	e.n = 0
	e.overflow = false
}

func (e *encoder) release() {
	e.buf = nil
	encoderPool.Put(e)
}

// reserve accounts for k bytes and returns the slice to write them to, or
// nil when sizing (or on overflow)
func (e *encoder) reserve(k int) []byte {
	start := e.n
	e.n += k
	switch {
	case e.buf == nil:
		return nil
	case e.n > len(e.buf):
		e.overflow = true
		return nil
	default:
		return e.buf[start:e.n]
	}
}

func (e *encoder) byte(b byte) {
	if p := e.reserve(1); p != nil {
		p[0] = b
	}
}

// uint writes the low n bytes of v, big-endian
func (e *encoder) uint(v uint64, n int) {
	p := e.reserve(n)
	if p == nil {
		return
	}
	for i := n - 1; i >= 0; i-- {
		p[i] = byte(v)
		v >>= 8
	}
}

func (e *encoder) str(s string) {
	if p := e.reserve(len(s)); p != nil {
		copy(p, s)
	}
}

func (e *encoder) bytes(b []byte) {
	if p := e.reserve(len(b)); p != nil {
		copy(p, b)
	}
}

// encodeValue encodes a single value in context c
func (e *encoder) encodeValue(c *context, o interface{}) error {
	err := e.encodeDynamic(c, o)
	if err == errors.ErrUnsupportedValue {
		return errors.InvalidTypeError{T: reflect.TypeOf(o), Context: c.id}
	}
	return err
}

func (e *encoder) encodeDynamic(c *context, o interface{}) error {
	switch v := o.(type) {
	case nil:
		e.byte(opNull)
		return nil
	case bool:
		return e.encodeBool(c, v)
	case int:
		return e.encodeInt(c, int64(v))
	case int8:
		return e.encodeInt(c, int64(v))
	case int16:
		return e.encodeInt(c, int64(v))
	case int32:
		return e.encodeInt(c, int64(v))
	case int64:
		return e.encodeInt(c, v)
	case uint:
		return e.encodeUint(c, uint64(v))
	case uint8:
		return e.encodeUint(c, uint64(v))
	case uint16:
		return e.encodeUint(c, uint64(v))
	case uint32:
		return e.encodeUint(c, uint64(v))
	case uint64:
		return e.encodeUint(c, v)
	case float32:
		return e.encodeFloat32(c, v)
	case float64:
		return e.encodeFloat64(c, v)
	case string:
		return e.encodeString(c, v)
	case []byte:
		if v == nil {
			e.byte(opNull)
			return nil
		}
		return e.encodeBinary(c, v)
	case []interface{}:
		if v == nil {
			e.byte(opNull)
			return nil
		}
		return e.encodeList(c, nil, v)
	case pdu.Map:
		if v == nil {
			e.byte(opNull)
			return nil
		}
		return e.encodeMap(c, nil, v)
	case pdu.TypedList:
		return e.encodeTypedList(c, &v)
	case *pdu.TypedList:
		return e.encodeTypedList(c, v)
	case pdu.TypedMap:
		return e.encodeTypedMap(c, &v)
	case *pdu.TypedMap:
		return e.encodeTypedMap(c, v)
	case pdu.Envelope:
		return e.encodeEnvelope(c, &v)
	case *pdu.Envelope:
		return e.encodeEnvelope(c, v)
	case pdu.Message:
		return e.encodeMessage(c, &v)
	case *pdu.Message:
		return e.encodeMessage(c, v)
	case pdu.Response:
		return e.encodeResponse(c, &v)
	case *pdu.Response:
		return e.encodeResponse(c, v)
	case pdu.DeltasVector:
		return e.encodeDeltasVector(c, &v)
	case *pdu.DeltasVector:
		return e.encodeDeltasVector(c, v)
	case pdu.QuasiPeriodicVector:
		return e.encodeQuasiPeriodicVector(c, &v)
	case *pdu.QuasiPeriodicVector:
		return e.encodeQuasiPeriodicVector(c, v)
	}

	return e.encodeReflect(c, reflect.ValueOf(o))
}

// encodeReflect encodes v using the codec for its type
func (e *encoder) encodeReflect(c *context, v reflect.Value) error {
	t := v.Type()

	for _, ce := range e.codecCache {
		if ce.type_ == t {
			return e.encodeWith(c, ce.codec, v)
		}
	}

	xc := e.cr.getCodec(t)
	e.codecCacheSlot = (e.codecCacheSlot + 1) & (len(e.codecCache) - 1)
	e.codecCache[e.codecCacheSlot].type_ = t
	e.codecCache[e.codecCacheSlot].codec = xc

	return e.encodeWith(c, xc, v)
}

func (e *encoder) encodeWith(c *context, xc xCodec, v reflect.Value) error {
	err := xc.encode(e, c, v)
	if err == errors.ErrUnsupportedValue {
		return errors.InvalidTypeError{T: v.Type(), Context: c.id}
	}
	return err
}

func (e *encoder) encodeNull() {
	e.byte(opNull)
}

func (e *encoder) encodeBool(c *context, b bool) error {
	switch {
	case c.booleans == nil:
		return errors.ErrUnsupportedValue
	case b:
		e.byte(c.booleans.trueOp)
	default:
		e.byte(c.booleans.falseOp)
	}
	return nil
}

func (e *encoder) encodeInt(c *context, i int64) error {
	switch {
	case c.numbers != nil:
		e.encodeSigned(c.numbers, i)
		return nil
	case c.uints != nil:
		if i < 0 {
			return errors.RangeError{Value: i, Context: c.id}
		}
		return e.encodeUnsigned(c, uint64(i))
	default:
		return errors.ErrUnsupportedValue
	}
}

func (e *encoder) encodeUint(c *context, u uint64) error {
	switch {
	case c.uints != nil:
		return e.encodeUnsigned(c, u)
	case c.numbers != nil:
		if u > math.MaxInt64 {
			return errors.RangeError{Value: u, Context: c.id}
		}
		e.encodeSigned(c.numbers, int64(u))
		return nil
	default:
		return errors.ErrUnsupportedValue
	}
}

func (e *encoder) encodeUnsigned(c *context, u uint64) error {
	switch {
	case c.uints.tiers.put(e, u):
	case u <= math.MaxUint32:
		e.byte(c.uints.uint32Op)
		e.uint(u, 4)
	default:
		return errors.RangeError{Value: u, Context: c.id}
	}
	return nil
}

func (e *encoder) encodeSigned(n *numberEncoding, i int64) {
	switch {
	case i >= n.tinyMin && i <= n.tinyMax:
		e.byte(n.tinyOp + byte(i-n.tinyMin))
	case i > 0 && n.positive.put(e, uint64(i)):
	case i < 0 && n.negative.put(e, uint64(-i)):
	case i >= math.MinInt32 && i <= math.MaxInt32:
		e.byte(n.int32Op)
		e.uint(uint64(uint32(int32(i))), 4)
	default:
		e.byte(n.int64Op)
		e.uint(uint64(i), 8)
	}
}

func (e *encoder) encodeFloat32(c *context, f float32) error {
	if c.numbers == nil {
		return errors.ErrUnsupportedValue
	}
	e.byte(c.numbers.float32Op)
	e.uint(uint64(math.Float32bits(f)), 4)
	return nil
}

func (e *encoder) encodeFloat64(c *context, f float64) error {
	if c.numbers == nil {
		return errors.ErrUnsupportedValue
	}
	e.byte(c.numbers.float64Op)
	e.uint(math.Float64bits(f), 8)
	return nil
}

func (e *encoder) encodeString(c *context, s string) error {
	if c.strings == nil {
		return errors.ErrUnsupportedValue
	}
	if c.strings.tiers.put(e, uint64(len(s))) {
		e.str(s)
		return nil
	}

	e.byte(c.strings.chunkedOp)
	for len(s) > 0 {
		n := len(s)
		if n > maxChunk {
			n = maxChunk
		}
		e.uint(uint64(n), 2)
		e.str(s[:n])
		s = s[n:]
	}
	e.uint(0, 2)
	return nil
}

func (e *encoder) encodeBinary(c *context, b []byte) error {
	if c.strings == nil {
		return errors.ErrUnsupportedValue
	}
	if c.strings.tiers.put(e, uint64(len(b))) {
		e.bytes(b)
		return nil
	}

	e.byte(c.strings.chunkedOp)
	for len(b) > 0 {
		n := len(b)
		if n > maxChunk {
			n = maxChunk
		}
		e.uint(uint64(n), 2)
		e.bytes(b[:n])
		b = b[n:]
	}
	e.uint(0, 2)
	return nil
}

// encodeSize writes the size of a large list or map
func (e *encoder) encodeSize(size uint64) error {
	uis := uintsAndStrsContext
	if uis.uints.tiers.put(e, size) {
		return nil
	}
	if size > math.MaxUint32 {
		return errors.LengthError{Actual: size, Max: math.MaxUint32}
	}
	e.byte(uis.uints.uint32Op)
	e.uint(size, 4)
	return nil
}

// collectionHeader writes the opcode (and for large or typed collections
// the size and context byte) of a collection of n elements. typed is nil
// for untyped collections.
func (e *encoder) collectionHeader(ce *collectionEncoding, n int, typed *context) error {
	if ce == nil {
		return errors.ErrUnsupportedValue
	}

	limit := ce.limit()
	switch {
	case n == 0:
		e.byte(ce.emptyOp)
		return nil

	case typed == nil && n <= limit:
		e.byte(ce.tiny.op + byte(n-1))
		return nil

	case typed == nil:
		e.byte(ce.largeOp)
		return e.encodeSize(uint64(n - limit - 1))

	case n <= limit:
		e.byte(ce.typedTiny.op + byte(n-1))
		e.byte(byte(typed.id))
		return nil

	default:
		e.byte(ce.typedLargeOp)
		if err := e.encodeSize(uint64(n - limit - 1)); err != nil {
			return err
		}
		e.byte(byte(typed.id))
		return nil
	}
}

// elementContext returns the context elements of a collection are encoded
// in
func elementContext(typed *context) *context {
	if typed != nil {
		return typed
	}
	return globalContext
}

func (e *encoder) encodeList(c *context, typed *context, vs []interface{}) error {
	if err := e.collectionHeader(c.lists, len(vs), typed); err != nil {
		return err
	}

	ec := elementContext(typed)
	for i, v := range vs {
		if err := e.encodeValue(ec, v); err != nil {
			return errors.WithFieldError(err, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

func (e *encoder) encodeMap(c *context, typed *context, m pdu.Map) error {
	if err := e.collectionHeader(c.maps, len(m), typed); err != nil {
		return err
	}

	ec := elementContext(typed)
	for i := range m {
		if err := e.encodeKey(m[i].Key); err != nil {
			return err
		}
		if err := e.encodeValue(ec, m[i].Value); err != nil {
			return errors.WithFieldError(err, fmt.Sprintf("[%v]", m[i].Key))
		}
	}
	return nil
}

func (e *encoder) encodeKey(k interface{}) error {
	if k == nil {
		return errors.WithFieldError(errors.ErrInvalidValue, "<nil key>")
	}
	if err := e.encodeValue(uintsAndStrsContext, k); err != nil {
		return errors.WithFieldError(err, fmt.Sprintf("<key %v>", k))
	}
	return nil
}

func (e *encoder) encodeTypedList(c *context, l *pdu.TypedList) error {
	if l == nil {
		e.encodeNull()
		return nil
	}
	if c.lists == nil {
		return errors.ErrUnsupportedValue
	}

	typed, err := lookupContext(l.Context)
	if err != nil {
		return err
	}
	return e.encodeList(c, typed, l.Values)
}

func (e *encoder) encodeTypedMap(c *context, m *pdu.TypedMap) error {
	if m == nil {
		e.encodeNull()
		return nil
	}
	if c.maps == nil {
		return errors.ErrUnsupportedValue
	}

	typed, err := lookupContext(m.Context)
	if err != nil {
		return err
	}
	return e.encodeMap(c, typed, m.Entries)
}

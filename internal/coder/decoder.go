// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"fmt"
	"math"

	m3dainterfaces "go.e43.eu/m3da/interfaces"
	"go.e43.eu/m3da/internal/errors"
	"go.e43.eu/m3da/pdu"
)

// reader is a cursor over the accumulated bytes. Every read past the end
// returns ErrShortBuffer.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) peek() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errors.ErrShortBuffer
	}
	return r.buf[r.pos], nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.peek()
	if err == nil {
		r.pos++
	}
	return b, err
}

// uint reads an n byte big-endian unsigned integer
func (r *reader) uint(n int) (uint64, error) {
	if r.remaining() < n {
		return 0, errors.ErrShortBuffer
	}
	var v uint64
	for _, b := range r.buf[r.pos : r.pos+n] {
		v = v<<8 | uint64(b)
	}
	r.pos += n
	return v, nil
}

// bytes returns a copy of the next n bytes, so that decoded values never
// alias the accumulator
func (r *reader) bytes(n uint64) ([]byte, error) {
	if uint64(r.remaining()) < n {
		return nil, errors.ErrShortBuffer
	}
	b := make([]byte, int(n))
	copy(b, r.buf[r.pos:])
	r.pos += int(n)
	return b, nil
}

// fieldError annotates err with a position, except for underrun which must
// reach the accumulator untouched
func fieldError(err error, parts ...string) error {
	if err == errors.ErrShortBuffer {
		return err
	}
	return errors.WithFieldError(err, parts...)
}

// decodeValue decodes any value valid in context c
func decodeValue(r *reader, c *context) (interface{}, error) {
	op, err := r.byte()
	if err != nil {
		return nil, err
	}

	switch {
	case op == opNull:
		return nil, nil
	case c.strings != nil && c.strings.owns(op):
		return decodeStringBody(r, c.strings, op)
	case c.numbers != nil && c.numbers.owns(op):
		return decodeNumberBody(r, c.numbers, op)
	case c.uints != nil && c.uints.owns(op):
		u, err := decodeUintBody(r, c.uints, op)
		return uint32(u), err
	case c.maps != nil && c.maps.owns(op):
		return decodeMapBody(r, c.maps, op)
	case c.lists != nil && c.lists.owns(op):
		return decodeListBody(r, c.lists, op)
	case c.pdus != nil && c.pdus.owns(op):
		return decodePDUBody(r, c.pdus, op)
	case c.booleans != nil && c.booleans.owns(op):
		return op == c.booleans.trueOp, nil
	default:
		return nil, errors.OpcodeError{Opcode: op, Context: c.id}
	}
}

func decodeStringBody(r *reader, s *stringEncoding, op byte) ([]byte, error) {
	if op != s.chunkedOp {
		n, _, err := s.tiers.get(r, op)
		if err != nil {
			return nil, err
		}
		return r.bytes(n)
	}

	out := []byte{}
	for {
		n, err := r.uint(2)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
		chunk, err := r.bytes(n)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
}

func decodeNumberBody(r *reader, n *numberEncoding, op byte) (interface{}, error) {
	switch {
	case n.ownsTiny(op):
		return int32(int64(op-n.tinyOp) + n.tinyMin), nil

	case n.positive.owns(op):
		v, _, err := n.positive.get(r, op)
		return int32(v), err

	case n.negative.owns(op):
		v, _, err := n.negative.get(r, op)
		return -int32(v), err

	case op == n.int32Op:
		v, err := r.uint(4)
		return int32(uint32(v)), err

	case op == n.int64Op:
		v, err := r.uint(8)
		return int64(v), err

	case op == n.float32Op:
		v, err := r.uint(4)
		return math.Float32frombits(uint32(v)), err

	case op == n.float64Op:
		v, err := r.uint(8)
		return math.Float64frombits(v), err

	default:
		return nil, errors.OpcodeError{Opcode: op, Kind: "number"}
	}
}

func decodeUintBody(r *reader, u *uintEncoding, op byte) (uint64, error) {
	if op == u.uint32Op {
		return r.uint(4)
	}
	v, _, err := u.tiers.get(r, op)
	return v, err
}

// decodeSize reads the size of a large collection. Every element takes at
// least one byte, so a size beyond the buffered bytes is an underrun.
func decodeSize(r *reader, limit int) (int, error) {
	uis := uintsAndStrsContext
	op, err := r.byte()
	if err != nil {
		return 0, err
	}
	if !uis.uints.owns(op) {
		return 0, errors.OpcodeError{Opcode: op, Context: uis.id, Kind: "size"}
	}

	v, err := decodeUintBody(r, uis.uints, op)
	if err != nil {
		return 0, err
	}
	n := v + uint64(limit) + 1
	if n > uint64(r.remaining()) {
		return 0, errors.ErrShortBuffer
	}
	return int(n), nil
}

// decodeTypedContext reads the context byte of a typed collection
func decodeTypedContext(r *reader) (*context, error) {
	id, err := r.byte()
	if err != nil {
		return nil, err
	}
	return lookupContext(pdu.Context(id))
}

// decodeCollectionHeader decodes the opcode (already read) and any size
// or context byte of a list or map. The returned size is -1 for null
// terminated collections; typed is nil for untyped ones.
func decodeCollectionHeader(r *reader, ce *collectionEncoding, op byte) (n int, typed *context, err error) {
	switch {
	case op == ce.emptyOp:
		return 0, nil, nil

	case ce.tiny.owns(op):
		return int(op - ce.emptyOp), nil, nil

	case op == ce.largeOp:
		n, err = decodeSize(r, ce.limit())
		return n, nil, err

	case op == ce.nullOp:
		return -1, nil, nil

	case ce.typedTiny.owns(op):
		typed, err = decodeTypedContext(r)
		return int(op-ce.typedTiny.op) + 1, typed, err

	case op == ce.typedLargeOp:
		if n, err = decodeSize(r, ce.limit()); err != nil {
			return 0, nil, err
		}
		typed, err = decodeTypedContext(r)
		return n, typed, err

	case op == ce.typedNullOp:
		typed, err = decodeTypedContext(r)
		return -1, typed, err

	default:
		return 0, nil, errors.OpcodeError{Opcode: op, Kind: ce.kind}
	}
}

// atTerminator consumes the null ending a null terminated collection
func atTerminator(r *reader) (bool, error) {
	b, err := r.peek()
	if err != nil || b != opNull {
		return false, err
	}
	r.pos++
	return true, nil
}

func decodeListBody(r *reader, ce *collectionEncoding, op byte) ([]interface{}, error) {
	n, typed, err := decodeCollectionHeader(r, ce, op)
	if err != nil {
		return nil, err
	}
	ec := elementContext(typed)

	capacity := n
	if capacity < 0 {
		capacity = 0
	}
	out := make([]interface{}, 0, capacity)

	for i := 0; n < 0 || i < n; i++ {
		if n < 0 {
			done, err := atTerminator(r)
			if err != nil {
				return nil, err
			}
			if done {
				break
			}
		}

		v, err := decodeValue(r, ec)
		if err != nil {
			return nil, fieldError(err, fmt.Sprintf("[%d]", i))
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeKey decodes a map key: a string (binary keys are converted) or an
// unsigned int
func decodeKey(r *reader) (interface{}, error) {
	v, err := decodeValue(r, uintsAndStrsContext)
	switch v := v.(type) {
	case []byte:
		return string(v), err
	case nil:
		if err == nil {
			err = errors.UnexpectedValueError{Expected: errors.ErrInvalidValue, Value: nil}
		}
		return nil, err
	default:
		return v, err
	}
}

func decodeMapBody(r *reader, ce *collectionEncoding, op byte) (pdu.Map, error) {
	n, typed, err := decodeCollectionHeader(r, ce, op)
	if err != nil {
		return nil, err
	}
	ec := elementContext(typed)

	capacity := n
	if capacity < 0 {
		capacity = 0
	}
	out := make(pdu.Map, 0, capacity)
	var idx mapIndex

	for i := 0; n < 0 || i < n; i++ {
		if n < 0 {
			done, err := atTerminator(r)
			if err != nil {
				return nil, err
			}
			if done {
				break
			}
		}

		k, err := decodeKey(r)
		if err != nil {
			return nil, fieldError(err, fmt.Sprintf("<key %d>", i))
		}

		v, err := decodeValue(r, ec)
		if err != nil {
			return nil, fieldError(err, fmt.Sprintf("[%v]", k))
		}

		if j, ok := idx.lookup(k, len(out)); ok {
			out[j].Value = v
		} else {
			out = append(out, pdu.MapEntry{Key: k, Value: v})
		}
	}
	return out, nil
}

// mapIndex locates decoded keys in a map under construction. Decoded keys
// are strings or uint32s, which never compare equal to each other.
type mapIndex struct {
	strs  map[string]int
	uints map[uint32]int
}

// lookup returns the position of k, or records it at next and returns false
func (m *mapIndex) lookup(k interface{}, next int) (int, bool) {
	switch k := k.(type) {
	case string:
		if m.strs == nil {
			m.strs = make(map[string]int)
		}
		j, ok := m.strs[k]
		if !ok {
			m.strs[k] = next
		}
		return j, ok
	case uint32:
		if m.uints == nil {
			m.uints = make(map[uint32]int)
		}
		j, ok := m.uints[k]
		if !ok {
			m.uints[k] = next
		}
		return j, ok
	default:
		return 0, false
	}
}

// Field decoders read one value of a known kind, consuming its opcode. A
// null is accepted and reported with a nil value or a false ok.

func readString(r *reader, c *context) ([]byte, bool, error) {
	op, err := r.byte()
	switch {
	case err != nil:
		return nil, false, err
	case op == opNull:
		return nil, false, nil
	case !c.strings.owns(op):
		return nil, false, errors.OpcodeError{Opcode: op, Context: c.id, Kind: "string"}
	}
	b, err := decodeStringBody(r, c.strings, op)
	return b, err == nil, err
}

func readUint(r *reader, c *context) (uint64, bool, error) {
	op, err := r.byte()
	switch {
	case err != nil:
		return 0, false, err
	case op == opNull:
		return 0, false, nil
	case !c.uints.owns(op):
		return 0, false, errors.OpcodeError{Opcode: op, Context: c.id, Kind: "unsigned int"}
	}
	v, err := decodeUintBody(r, c.uints, op)
	return v, err == nil, err
}

func readNumber(r *reader, c *context) (interface{}, error) {
	op, err := r.byte()
	switch {
	case err != nil:
		return nil, err
	case op == opNull:
		return nil, nil
	case !c.numbers.owns(op):
		return nil, errors.OpcodeError{Opcode: op, Context: c.id, Kind: "number"}
	}
	return decodeNumberBody(r, c.numbers, op)
}

func readMap(r *reader, c *context) (pdu.Map, error) {
	op, err := r.byte()
	switch {
	case err != nil:
		return nil, err
	case op == opNull:
		return nil, nil
	case !c.maps.owns(op):
		return nil, errors.OpcodeError{Opcode: op, Context: c.id, Kind: "map"}
	}
	return decodeMapBody(r, c.maps, op)
}

func readList(r *reader, c *context) ([]interface{}, error) {
	op, err := r.byte()
	switch {
	case err != nil:
		return nil, err
	case op == opNull:
		return nil, nil
	case !c.lists.owns(op):
		return nil, errors.OpcodeError{Opcode: op, Context: c.id, Kind: "list"}
	}
	return decodeListBody(r, c.lists, op)
}

// decoder is the accumulating decoder. Bytes which do not yet make up a
// complete value are kept until the next call.
type decoder struct {
	acc []byte
}

var _ m3dainterfaces.Decoder = &decoder{}

func newDecoder() *decoder {
	return new(decoder)
}

func (d *decoder) DecodeAndAccumulate(buf []byte, ctx pdu.Context, out m3dainterfaces.DecoderOutput) error {
	c, err := lookupContext(ctx)
	if err != nil {
		return err
	}
	return d.decode(buf, c, out.Decoded)
}

func (d *decoder) decode(buf []byte, c *context, out func(interface{}) error) (err error) {
	d.acc = append(d.acc, buf...)

	start := 0
	for start < len(d.acc) {
		r := reader{buf: d.acc, pos: start}
		v, derr := decodeValue(&r, c)
		if derr == errors.ErrShortBuffer {
			break
		}
		if derr != nil {
			// The stream can not be resynchronised after a malformed value
			d.acc = d.acc[:0]
			return derr
		}

		start = r.pos
		if err = out(v); err != nil {
			break
		}
	}

	d.compact(start)
	return err
}

// compact drops the first n bytes of the accumulator
func (d *decoder) compact(n int) {
	switch {
	case n == 0:
	case n == len(d.acc):
		d.acc = d.acc[:0]
	default:
		d.acc = d.acc[:copy(d.acc, d.acc[n:])]
	}
}

func (d *decoder) FinishDecode() error {
	if len(d.acc) != 0 {
		d.acc = d.acc[:0]
		return errors.ErrTrailingBytes
	}
	return nil
}

func (d *decoder) Buffered() int {
	return len(d.acc)
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

// tier is one size class of a variable length integer: a run of ops
// opcodes starting at op, each followed by extra bytes. Together the opcode
// offset and the extra bytes (big-endian) hold value-min.
//
// String lengths, unsigned ints, list/map sizes and the magnitudes of signed
// numbers are all encoded with tiers, and both the encoder's size and write
// passes and the decoder go through the methods below.
type tier struct {
	op    byte
	ops   int
	extra int
	min   uint64
}

// max returns the largest value the tier can represent
func (t tier) max() uint64 {
	return t.min + uint64(t.ops)<<(8*uint(t.extra)) - 1
}

func (t tier) fits(v uint64) bool {
	return v >= t.min && v <= t.max()
}

// owns reports whether op is one of the tier's opcodes
func (t tier) owns(op byte) bool {
	return op >= t.op && int(op-t.op) < t.ops
}

// put writes v, which must fit the tier
func (t tier) put(e *encoder, v uint64) {
	off := v - t.min
	shift := 8 * uint(t.extra)
	e.byte(t.op + byte(off>>shift))
	e.uint(off, t.extra)
}

// get reads the extra bytes following op, which must be owned by the tier
func (t tier) get(r *reader, op byte) (uint64, error) {
	lo, err := r.uint(t.extra)
	if err != nil {
		return 0, err
	}
	return t.min + uint64(op-t.op)<<(8*uint(t.extra)) + lo, nil
}

// tiers is an ordered set of tiers; each starts where the previous ends
type tiers []tier

func (ts tiers) max() uint64 {
	return ts[len(ts)-1].max()
}

// put writes v using the smallest tier which fits. It reports false if none
// does.
func (ts tiers) put(e *encoder, v uint64) bool {
	for _, t := range ts {
		if t.fits(v) {
			t.put(e, v)
			return true
		}
	}
	return false
}

// get decodes a value whose opcode is owned by one of the tiers
func (ts tiers) get(r *reader, op byte) (uint64, bool, error) {
	for _, t := range ts {
		if t.owns(op) {
			v, err := t.get(r, op)
			return v, true, err
		}
	}
	return 0, false, nil
}

func (ts tiers) owns(op byte) bool {
	for _, t := range ts {
		if t.owns(op) {
			return true
		}
	}
	return false
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"go.e43.eu/m3da/internal/errors"
	"go.e43.eu/m3da/pdu"
)

// opNull is the null opcode, shared by every context
const opNull = 0x00

// context is the opcode table of one pdu.Context. A nil capability means
// the context has no encoding for that kind.
type context struct {
	id pdu.Context

	strings  *stringEncoding
	uints    *uintEncoding
	numbers  *numberEncoding
	lists    *collectionEncoding
	maps     *collectionEncoding
	pdus     *pduEncoding
	booleans *boolEncoding
}

type stringEncoding struct {
	tiers     tiers
	chunkedOp byte
}

func (s *stringEncoding) owns(op byte) bool {
	return s.tiers.owns(op) || op == s.chunkedOp
}

type uintEncoding struct {
	tiers    tiers
	uint32Op byte
}

func (u *uintEncoding) owns(op byte) bool {
	return u.tiers.owns(op) || op == u.uint32Op
}

// numberEncoding covers signed integers and floats. Values in the tiny
// range are stored in the opcode; the positive tiers store the value itself
// and the negative tiers store its magnitude.
type numberEncoding struct {
	tinyOp           byte
	tinyMin, tinyMax int64

	positive tiers
	negative tiers

	int32Op, int64Op, float32Op, float64Op byte
}

func (n *numberEncoding) owns(op byte) bool {
	return op >= n.tinyOp && op <= n.float64Op
}

func (n *numberEncoding) ownsTiny(op byte) bool {
	return op >= n.tinyOp && int64(op-n.tinyOp) <= n.tinyMax-n.tinyMin
}

// collectionEncoding covers lists and maps, which share one layout. The
// tiny tiers hold sizes 1..limit in the opcode.
type collectionEncoding struct {
	kind string

	emptyOp byte

	tiny    tier
	largeOp byte
	nullOp  byte

	typedTiny    tier
	typedLargeOp byte
	typedNullOp  byte
}

func (c *collectionEncoding) owns(op byte) bool {
	return op >= c.emptyOp && op <= c.typedNullOp
}

func (c *collectionEncoding) limit() int {
	return c.tiny.ops
}

type pduEncoding struct {
	envelopeOp, messageOp, responseOp, deltasVectorOp, quasiPeriodicVectorOp byte
}

func (p *pduEncoding) owns(op byte) bool {
	return op >= p.envelopeOp && op <= p.quasiPeriodicVectorOp
}

type boolEncoding struct {
	trueOp, falseOp byte
}

func (b *boolEncoding) owns(op byte) bool {
	return op == b.trueOp || op == b.falseOp
}

var globalContext = &context{
	id: pdu.Global,
	strings: &stringEncoding{
		tiers: tiers{
			{op: 0x03, ops: 33, extra: 0, min: 0},
			{op: 0x24, ops: 4, extra: 1, min: 33},
			{op: 0x28, ops: 1, extra: 2, min: 1057},
		},
		chunkedOp: 0x29,
	},
	numbers: &numberEncoding{
		tinyOp:  0x80,
		tinyMin: -31,
		tinyMax: 64,
		positive: tiers{
			{op: 0xE0, ops: 8, extra: 1, min: 65},
			{op: 0xF0, ops: 4, extra: 2, min: 2113},
			{op: 0xF8, ops: 2, extra: 3, min: 264257},
		},
		negative: tiers{
			{op: 0xE8, ops: 8, extra: 1, min: 32},
			{op: 0xF4, ops: 4, extra: 2, min: 2080},
			{op: 0xFA, ops: 2, extra: 3, min: 264224},
		},
		int32Op:   0xFC,
		int64Op:   0xFD,
		float32Op: 0xFE,
		float64Op: 0xFF,
	},
	lists: &collectionEncoding{
		kind:         "list",
		emptyOp:      0x2A,
		tiny:         tier{op: 0x2B, ops: 9, min: 1},
		largeOp:      0x34,
		nullOp:       0x35,
		typedTiny:    tier{op: 0x36, ops: 9, min: 1},
		typedLargeOp: 0x3F,
		typedNullOp:  0x40,
	},
	maps: &collectionEncoding{
		kind:         "map",
		emptyOp:      0x41,
		tiny:         tier{op: 0x42, ops: 9, min: 1},
		largeOp:      0x4B,
		nullOp:       0x4C,
		typedTiny:    tier{op: 0x4D, ops: 9, min: 1},
		typedLargeOp: 0x56,
		typedNullOp:  0x57,
	},
	pdus: &pduEncoding{
		envelopeOp:            0x60,
		messageOp:             0x61,
		responseOp:            0x62,
		deltasVectorOp:        0x63,
		quasiPeriodicVectorOp: 0x64,
	},
	booleans: &boolEncoding{
		trueOp:  0x01,
		falseOp: 0x02,
	},
}

var uintsAndStrsContext = &context{
	id: pdu.UintsAndStrs,
	strings: &stringEncoding{
		tiers: tiers{
			{op: 0x01, ops: 48, extra: 0, min: 0},
			{op: 0x31, ops: 8, extra: 1, min: 48},
			{op: 0x39, ops: 1, extra: 2, min: 2096},
		},
		chunkedOp: 0x3A,
	},
	uints: &uintEncoding{
		tiers: tiers{
			{op: 0x3B, ops: 140, extra: 0, min: 0},
			{op: 0xC7, ops: 32, extra: 1, min: 140},
			{op: 0xE7, ops: 16, extra: 2, min: 8332},
			{op: 0xF7, ops: 8, extra: 3, min: 1056908},
		},
		uint32Op: 0xFF,
	},
}

var numbersContext = &context{
	id: pdu.Numbers,
	numbers: &numberEncoding{
		tinyOp:  0x01,
		tinyMin: -97,
		tinyMax: 97,
		positive: tiers{
			{op: 0xC4, ops: 16, extra: 1, min: 98},
			{op: 0xE4, ops: 8, extra: 2, min: 4194},
			{op: 0xF4, ops: 4, extra: 3, min: 528482},
		},
		negative: tiers{
			{op: 0xD4, ops: 16, extra: 1, min: 98},
			{op: 0xEC, ops: 8, extra: 2, min: 4194},
			{op: 0xF8, ops: 4, extra: 3, min: 528482},
		},
		int32Op:   0xFC,
		int64Op:   0xFD,
		float32Op: 0xFE,
		float64Op: 0xFF,
	},
}

var listAndMapsContext = &context{
	id: pdu.ListAndMaps,
	lists: &collectionEncoding{
		kind:         "list",
		emptyOp:      0x01,
		tiny:         tier{op: 0x02, ops: 60, min: 1},
		largeOp:      0x3E,
		nullOp:       0x3F,
		typedTiny:    tier{op: 0x40, ops: 60, min: 1},
		typedLargeOp: 0x7C,
		typedNullOp:  0x7D,
	},
	maps: &collectionEncoding{
		kind:         "map",
		emptyOp:      0x83,
		tiny:         tier{op: 0x84, ops: 60, min: 1},
		largeOp:      0xC0,
		nullOp:       0xC1,
		typedTiny:    tier{op: 0xC2, ops: 60, min: 1},
		typedLargeOp: 0xFE,
		typedNullOp:  0xFF,
	},
}

var contexts = [...]*context{
	pdu.Global:       globalContext,
	pdu.UintsAndStrs: uintsAndStrsContext,
	pdu.Numbers:      numbersContext,
	pdu.SignedInts32: nil,
	pdu.Floats32:     nil,
	pdu.Doubles64:    nil,
	pdu.ListAndMaps:  listAndMapsContext,
}

func lookupContext(id pdu.Context) (*context, error) {
	if int(id) < len(contexts) && contexts[id] != nil {
		return contexts[id], nil
	}
	return nil, errors.ContextError{ID: byte(id)}
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.e43.eu/m3da/internal/errors"
	"go.e43.eu/m3da/pdu"
)

func TestTierMax(t *testing.T) {
	testcases := []struct {
		name string
		t    tier
		max  uint64
	}{
		{"Global tiny strings", globalContext.strings.tiers[0], 32},
		{"Global small strings", globalContext.strings.tiers[1], 1056},
		{"Global large strings", globalContext.strings.tiers[2], 66592},
		{"UintsAndStrs large strings", uintsAndStrsContext.strings.tiers[2], 67631},
		{"UintsAndStrs tiny uints", uintsAndStrsContext.uints.tiers[0], 139},
		{"UintsAndStrs large uints", uintsAndStrsContext.uints.tiers[3], 135274635},
		{"Global large positive", globalContext.numbers.positive[2], 33818688},
		{"Numbers small negative", numbersContext.numbers.negative[0], 4193},
	}

	for _, tc := range testcases {
		assert.Equal(t, tc.max, tc.t.max(), tc.name)
	}
}

func TestTiersAreContiguous(t *testing.T) {
	all := map[string]tiers{
		"Global strings":       globalContext.strings.tiers,
		"UintsAndStrs strings": uintsAndStrsContext.strings.tiers,
		"UintsAndStrs uints":   uintsAndStrsContext.uints.tiers,
		"Global positive":      globalContext.numbers.positive,
		"Global negative":      globalContext.numbers.negative,
		"Numbers positive":     numbersContext.numbers.positive,
		"Numbers negative":     numbersContext.numbers.negative,
	}

	for name, ts := range all {
		for i := 1; i < len(ts); i++ {
			assert.Equalf(t, ts[i-1].max()+1, ts[i].min, "%s tier %d", name, i)
		}
	}

	for _, n := range []*numberEncoding{globalContext.numbers, numbersContext.numbers} {
		assert.Equal(t, uint64(n.tinyMax+1), n.positive[0].min)
		assert.Equal(t, uint64(-n.tinyMin+1), n.negative[0].min)
	}
}

// owners lists the kinds claiming op in c
func owners(c *context, op byte) []string {
	var out []string
	if op == opNull {
		out = append(out, "null")
	}
	if c.strings != nil && c.strings.owns(op) {
		out = append(out, "string")
	}
	if c.numbers != nil && c.numbers.owns(op) {
		out = append(out, "number")
	}
	if c.uints != nil && c.uints.owns(op) {
		out = append(out, "uint")
	}
	if c.maps != nil && c.maps.owns(op) {
		out = append(out, "map")
	}
	if c.lists != nil && c.lists.owns(op) {
		out = append(out, "list")
	}
	if c.pdus != nil && c.pdus.owns(op) {
		out = append(out, "pdu")
	}
	if c.booleans != nil && c.booleans.owns(op) {
		out = append(out, "bool")
	}
	return out
}

func TestOpcodesClaimedOnce(t *testing.T) {
	unclaimed := map[pdu.Context][]int{
		pdu.Global:       {},
		pdu.UintsAndStrs: {},
		pdu.Numbers:      {},
		pdu.ListAndMaps:  {},
	}

	for id := range unclaimed {
		c, err := lookupContext(id)
		require.NoError(t, err)

		for op := 0; op < 256; op++ {
			o := owners(c, byte(op))
			assert.LessOrEqualf(t, len(o), 1, "%s opcode 0x%02x claimed by %v", id, op, o)
			if len(o) == 0 {
				unclaimed[id] = append(unclaimed[id], op)
			}
		}
	}

	var globalGaps []int
	for op := 0x58; op <= 0x5F; op++ {
		globalGaps = append(globalGaps, op)
	}
	for op := 0x65; op <= 0x7F; op++ {
		globalGaps = append(globalGaps, op)
	}

	assert.Equal(t, globalGaps, unclaimed[pdu.Global])
	assert.Empty(t, unclaimed[pdu.UintsAndStrs])
	assert.Empty(t, unclaimed[pdu.Numbers])
	assert.Equal(t, []int{0x7E, 0x7F, 0x80, 0x81, 0x82}, unclaimed[pdu.ListAndMaps])
}

func TestReservedContexts(t *testing.T) {
	for _, id := range []pdu.Context{pdu.SignedInts32, pdu.Floats32, pdu.Doubles64, 7, 255} {
		_, err := lookupContext(id)
		assert.Equal(t, errors.ContextError{ID: byte(id)}, err)
	}
}

func TestEncoderTwoPasses(t *testing.T) {
	cr := NewCoder()
	values := []interface{}{
		"hello", 1, -70000, 1.25, []interface{}{true, nil},
		pdu.NewMap("k", []byte("v")),
	}

	n, err := cr.Size(pdu.Global, values...)
	require.NoError(t, err)

	buf, err := cr.Encode(pdu.Global, values...)
	require.NoError(t, err)
	assert.Len(t, buf, n)
	assert.Equal(t, len(buf), cap(buf), "buffer is sized exactly")
}

func TestEncodeErrorPaths(t *testing.T) {
	cr := NewCoder()

	_, err := cr.Encode(pdu.Global, 1, []interface{}{1, make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#1")
	assert.Contains(t, err.Error(), "[1]")

	var ite errors.InvalidTypeError
	assert.ErrorAs(t, err, &ite)
	assert.Equal(t, pdu.Global, ite.Context)
}

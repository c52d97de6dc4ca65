// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.e43.eu/m3da/internal/store"
	"go.e43.eu/m3da/pdu"
)

func TestValueList(t *testing.T) {
	type testcase struct {
		Name     string
		Value    interface{}
		Expected []interface{}
	}

	testcases := []testcase{
		{"Null", nil, []interface{}{nil}},
		{"Bool", true, []interface{}{true}},
		{"Int32", int32(-5), []interface{}{int64(-5)}},
		{"Int64", int64(1) << 40, []interface{}{int64(1) << 40}},
		{"Uint32", uint32(7), []interface{}{int64(7)}},
		{"Float32", float32(1.5), []interface{}{1.5}},
		{"Bytes", []byte("hello"), []interface{}{"hello"}},
		{"List", []interface{}{int32(1), []byte("a"), float32(0.5)}, []interface{}{int64(1), "a", 0.5}},
		{
			"NestedMap",
			[]interface{}{pdu.NewMap("a", int32(1), uint32(2), []byte("b"))},
			[]interface{}{map[string]interface{}{"a": int64(1), "2": "b"}},
		},
		{
			"DeltasVector",
			&pdu.DeltasVector{Factor: int32(2), Start: int32(1), Deltas: []interface{}{int32(1), int32(3)}},
			[]interface{}{int64(2), int64(4), int64(10)},
		},
		{
			"QuasiPeriodicVector",
			&pdu.QuasiPeriodicVector{Period: int32(10), Start: int32(0), Shifts: []interface{}{int32(1), int32(1), int32(0)}},
			[]interface{}{int64(0), int64(10), int64(21)},
		},
		{
			"FloatDeltas",
			&pdu.DeltasVector{Factor: int32(1), Start: 0.5, Deltas: []interface{}{float32(0.25)}},
			[]interface{}{0.5, 0.75},
		},
		{
			"VectorInList",
			[]interface{}{&pdu.DeltasVector{Factor: int32(1), Start: int32(1), Deltas: []interface{}{int32(1)}}},
			[]interface{}{[]interface{}{int64(1), int64(2)}},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := valueList(tc.Value)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, got)
		})
	}
}

func TestValueListErrors(t *testing.T) {
	_, err := valueList(&pdu.DeltasVector{Factor: "x", Start: int32(1)})
	assert.ErrorIs(t, err, pdu.ErrNotNumeric)

	_, err = valueList([]interface{}{&pdu.Response{}})
	assert.Error(t, err)
}

func TestToStoreMessage(t *testing.T) {
	msg := &pdu.Message{
		Path: "@sys.gps",
		Body: pdu.NewMap(
			"lat", []interface{}{float32(45.5), float32(45.25)},
			uint32(3), []byte("three"),
		),
	}

	got, err := ToStoreMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, store.Message{
		Path: "@sys.gps",
		Data: map[string][]interface{}{
			"lat": {45.5, 45.25},
			"3":   {"three"},
		},
	}, got)

	_, err = ToStoreMessage(&pdu.Message{Path: "@p", Body: pdu.NewMap("bad", &pdu.Envelope{})})
	assert.Error(t, err)
}

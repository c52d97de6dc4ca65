// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package pdu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltasVectorFlatten(t *testing.T) {
	testcases := []struct {
		Name   string
		Vector DeltasVector
		Family NumberFamily
		Values []interface{}
	}{
		{
			Name:   "integers",
			Vector: DeltasVector{Factor: int32(2), Start: int32(3), Deltas: []interface{}{int32(1), int32(1), int32(1)}},
			Family: IntegerFamily,
			Values: []interface{}{int64(6), int64(8), int64(10), int64(12)},
		}, {
			Name:   "no deltas",
			Vector: DeltasVector{Factor: int32(2), Start: int32(3)},
			Family: IntegerFamily,
			Values: []interface{}{int64(6)},
		}, {
			Name:   "float delta",
			Vector: DeltasVector{Factor: int32(2), Start: int32(1), Deltas: []interface{}{int32(1), float64(0.5)}},
			Family: FloatFamily,
			Values: []interface{}{float64(2), float64(4), float64(5)},
		}, {
			Name:   "float start",
			Vector: DeltasVector{Factor: int32(1), Start: float32(0.5), Deltas: []interface{}{int32(1)}},
			Family: FloatFamily,
			Values: []interface{}{float64(0.5), float64(1.5)},
		}, {
			Name:   "float factor alone keeps integers",
			Vector: DeltasVector{Factor: float64(2.9), Start: int32(3), Deltas: []interface{}{int64(-1)}},
			Family: IntegerFamily,
			Values: []interface{}{int64(6), int64(4)},
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			flat, err := tc.Vector.AsFlatList()
			require.NoError(t, err)
			assert.Equal(t, tc.Family, flat.Family)
			assert.Equal(t, len(tc.Values), flat.Len())
			assert.Equal(t, tc.Values, flat.Values())
		})
	}
}

func TestQuasiPeriodicVectorFlatten(t *testing.T) {
	testcases := []struct {
		Name   string
		Vector QuasiPeriodicVector
		Family NumberFamily
		Values []interface{}
	}{
		{
			Name:   "pair then zero trailing repeats",
			Vector: QuasiPeriodicVector{Period: int32(10), Start: int32(0), Shifts: []interface{}{int32(2), int32(1), int32(0)}},
			Family: IntegerFamily,
			Values: []interface{}{int64(0), int64(10), int64(20), int64(31)},
		}, {
			Name:   "trailing repeats",
			Vector: QuasiPeriodicVector{Period: int32(10), Start: int32(0), Shifts: []interface{}{int32(1), int32(-2), int32(2)}},
			Family: IntegerFamily,
			Values: []interface{}{int64(0), int64(10), int64(18), int64(28), int64(38)},
		}, {
			Name:   "even length repeats its last shift",
			Vector: QuasiPeriodicVector{Period: int32(5), Start: int32(100), Shifts: []interface{}{int32(0), int32(1), int32(1), int32(2)}},
			Family: IntegerFamily,
			Values: []interface{}{int64(100), int64(106), int64(111), int64(118), int64(123), int64(128)},
		}, {
			Name:   "even length with a negative last shift",
			Vector: QuasiPeriodicVector{Period: int32(10), Start: int32(0), Shifts: []interface{}{int32(1), int32(-3)}},
			Family: IntegerFamily,
			Values: []interface{}{int64(0), int64(10), int64(17)},
		}, {
			Name:   "only a trailing repeat",
			Vector: QuasiPeriodicVector{Period: int32(3), Start: int32(1), Shifts: []interface{}{int32(2)}},
			Family: IntegerFamily,
			Values: []interface{}{int64(1), int64(4), int64(7)},
		}, {
			Name:   "no shifts",
			Vector: QuasiPeriodicVector{Period: int32(10), Start: int32(7)},
			Family: IntegerFamily,
			Values: []interface{}{int64(7)},
		}, {
			Name:   "float shift",
			Vector: QuasiPeriodicVector{Period: int32(1), Start: int32(0), Shifts: []interface{}{int32(1), float64(0.5), int32(1)}},
			Family: FloatFamily,
			Values: []interface{}{float64(0), float64(1), float64(2.5), float64(3.5)},
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			flat, err := tc.Vector.AsFlatList()
			require.NoError(t, err)
			assert.Equal(t, tc.Family, flat.Family)
			assert.Equal(t, tc.Values, flat.Values())
		})
	}
}

func TestVectorRejectsNonNumeric(t *testing.T) {
	_, err := (&DeltasVector{Factor: int32(1), Start: int32(0), Deltas: []interface{}{int32(2), []byte("x")}}).AsFlatList()
	assert.True(t, errors.Is(err, ErrNotNumeric), "got %v", err)
	assert.Equal(t, NumericError{Field: "deltas[1]", Value: []byte("x")}, err)

	_, err = (&QuasiPeriodicVector{Period: nil, Start: int32(0)}).AsFlatList()
	assert.True(t, errors.Is(err, ErrNotNumeric), "got %v", err)
	assert.Equal(t, NumericError{Field: "period", Value: nil}, err)
	assert.Equal(t, "pdu: Vector holds a non-numeric value (period is <nil>)", err.Error())
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package pdu

import (
	"fmt"
)

type pduError string

func (e pduError) Error() string {
	return string(e)
}

// ErrNotNumeric is returned when flattening a vector which holds a
// non-numeric value
const ErrNotNumeric = pduError("pdu: Vector holds a non-numeric value")

// NumericError reports the vector field which is not a number
type NumericError struct {
	Field string
	Value interface{}
}

func (e NumericError) Is(target error) bool {
	return target == ErrNotNumeric
}

func (e NumericError) Error() string {
	return fmt.Sprintf("%s (%s is %T)", ErrNotNumeric, e.Field, e.Value)
}

// NumberFamily selects how a flattened vector is computed and represented
type NumberFamily int

const (
	IntegerFamily NumberFamily = iota
	FloatFamily
)

func (f NumberFamily) String() string {
	if f == FloatFamily {
		return "float"
	}
	return "integer"
}

// FlatList is an expanded vector. Exactly one of Ints and Floats is used,
// according to Family.
type FlatList struct {
	Family NumberFamily
	Ints   []int64
	Floats []float64
}

// Len returns the number of values in the list
func (l FlatList) Len() int {
	if l.Family == FloatFamily {
		return len(l.Floats)
	}
	return len(l.Ints)
}

// Values returns the list as int64 or float64 values
func (l FlatList) Values() []interface{} {
	out := make([]interface{}, 0, l.Len())
	if l.Family == FloatFamily {
		for _, f := range l.Floats {
			out = append(out, f)
		}
	} else {
		for _, i := range l.Ints {
			out = append(out, i)
		}
	}
	return out
}

// DeltasVector compresses a series as a start value and successive
// differences, all scaled by Factor
type DeltasVector struct {
	Factor interface{}
	Start  interface{}
	Deltas []interface{}
}

// AsFlatList expands the vector:
//
//     flat[0] = factor*start
//     flat[i] = factor*deltas[i-1] + flat[i-1]
//
// The result is in the float family if start or any delta is a float.
func (v *DeltasVector) AsFlatList() (FlatList, error) {
	factor, err := toNumber(v.Factor, "factor")
	if err != nil {
		return FlatList{}, err
	}
	start, err := toNumber(v.Start, "start")
	if err != nil {
		return FlatList{}, err
	}
	deltas, err := toNumbers(v.Deltas, "deltas")
	if err != nil {
		return FlatList{}, err
	}

	if familyOf(start, deltas) == FloatFamily {
		f := factor.float()
		last := f * start.float()
		out := make([]float64, 1, len(deltas)+1)
		out[0] = last
		for _, d := range deltas {
			last += d.float() * f
			out = append(out, last)
		}
		return FlatList{Family: FloatFamily, Floats: out}, nil
	}

	f := factor.int()
	last := f * start.int()
	out := make([]int64, 1, len(deltas)+1)
	out[0] = last
	for _, d := range deltas {
		last += d.int() * f
		out = append(out, last)
	}
	return FlatList{Family: IntegerFamily, Ints: out}, nil
}

// QuasiPeriodicVector compresses a mostly periodic series. Shifts is read
// as (repeat, shift) pairs followed by a final repeat count.
type QuasiPeriodicVector struct {
	Period interface{}
	Start  interface{}
	Shifts []interface{}
}

// AsFlatList expands the vector. For each (repeat, shift) pair, period is
// added repeat times and then period+shift once. The last element of Shifts
// is then a final number of pure period additions; for an even length list
// it is also the shift of the last pair.
//
// The result is in the float family if start or any shift is a float.
func (v *QuasiPeriodicVector) AsFlatList() (FlatList, error) {
	period, err := toNumber(v.Period, "period")
	if err != nil {
		return FlatList{}, err
	}
	start, err := toNumber(v.Start, "start")
	if err != nil {
		return FlatList{}, err
	}
	shifts, err := toNumbers(v.Shifts, "shifts")
	if err != nil {
		return FlatList{}, err
	}

	pairs := len(shifts) / 2
	var trailing int64
	if len(shifts) > 0 {
		trailing = shifts[len(shifts)-1].int()
	}

	if familyOf(start, shifts) == FloatFamily {
		p := period.float()
		last := start.float()
		out := []float64{last}
		for i := 0; i < pairs; i++ {
			for j := int64(0); j < shifts[2*i].int(); j++ {
				last += p
				out = append(out, last)
			}
			last += p + shifts[2*i+1].float()
			out = append(out, last)
		}
		for j := int64(0); j < trailing; j++ {
			last += p
			out = append(out, last)
		}
		return FlatList{Family: FloatFamily, Floats: out}, nil
	}

	p := period.int()
	last := start.int()
	out := []int64{last}
	for i := 0; i < pairs; i++ {
		for j := int64(0); j < shifts[2*i].int(); j++ {
			last += p
			out = append(out, last)
		}
		last += p + shifts[2*i+1].int()
		out = append(out, last)
	}
	for j := int64(0); j < trailing; j++ {
		last += p
		out = append(out, last)
	}
	return FlatList{Family: IntegerFamily, Ints: out}, nil
}

// number is a numeric vector element of either family
type number struct {
	family NumberFamily
	i      int64
	f      float64
}

func (n number) int() int64 {
	if n.family == FloatFamily {
		return int64(n.f)
	}
	return n.i
}

func (n number) float() float64 {
	if n.family == FloatFamily {
		return n.f
	}
	return float64(n.i)
}

// IsNumeric reports whether v is a Go integer or floating point value
func IsNumeric(v interface{}) bool {
	_, ok := asNumber(v)
	return ok
}

func asNumber(v interface{}) (number, bool) {
	switch v := v.(type) {
	case int:
		return number{i: int64(v)}, true
	case int8:
		return number{i: int64(v)}, true
	case int16:
		return number{i: int64(v)}, true
	case int32:
		return number{i: int64(v)}, true
	case int64:
		return number{i: v}, true
	case uint:
		return number{i: int64(v)}, true
	case uint8:
		return number{i: int64(v)}, true
	case uint16:
		return number{i: int64(v)}, true
	case uint32:
		return number{i: int64(v)}, true
	case uint64:
		return number{i: int64(v)}, true
	case float32:
		return number{family: FloatFamily, f: float64(v)}, true
	case float64:
		return number{family: FloatFamily, f: v}, true
	default:
		return number{}, false
	}
}

func toNumber(v interface{}, field string) (number, error) {
	n, ok := asNumber(v)
	if !ok {
		return n, NumericError{Field: field, Value: v}
	}
	return n, nil
}

func toNumbers(vs []interface{}, field string) ([]number, error) {
	out := make([]number, len(vs))
	for i, v := range vs {
		n, ok := asNumber(v)
		if !ok {
			return nil, NumericError{Field: fmt.Sprintf("%s[%d]", field, i), Value: v}
		}
		out[i] = n
	}
	return out, nil
}

func familyOf(start number, rest []number) NumberFamily {
	if start.family == FloatFamily {
		return FloatFamily
	}
	for _, n := range rest {
		if n.family == FloatFamily {
			return FloatFamily
		}
	}
	return IntegerFamily
}

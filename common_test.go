// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package m3da

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDirection int

const (
	bothTest testDirection = iota
	encodeTest
	decodeTest
)

// feeder splits an encoded buffer into the fragments handed to the decoder
type feeder func([]byte) [][]byte

func wholeFeeder(b []byte) [][]byte {
	return [][]byte{b}
}

// singleByteFeeder is a really annoying feeder which returns a single byte at a time
func singleByteFeeder(b []byte) [][]byte {
	out := make([][]byte, len(b))
	for i := range b {
		out[i] = b[i : i+1]
	}
	return out
}

// halvesFeeder splits the buffer in the middle
func halvesFeeder(b []byte) [][]byte {
	return [][]byte{b[:len(b)/2], b[len(b)/2:]}
}

// chunkFeeder splits the buffer into reads of at most n bytes
func chunkFeeder(n int) feeder {
	return func(b []byte) [][]byte {
		var out [][]byte
		for len(b) > n {
			out = append(out, b[:n])
			b = b[n:]
		}
		return append(out, b)
	}
}

// hexBytes decodes a hex string, ignoring whitespace
func hexBytes(s string) []byte {
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		panic(err)
	}
	return b
}

// repeated returns n copies of c
func repeated(c byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return b
}

func concat(bs ...[]byte) []byte {
	var out []byte
	for _, b := range bs {
		out = append(out, b...)
	}
	return out
}

type testcase struct {
	// Name of this test case
	Name string

	// Which directions to run this test in (defaults to both)
	Direction testDirection

	// Context the value is encoded in (defaults to Global)
	Context Context

	// The object to encode
	Object interface{}

	// The value expected from the decoder, if different from Object (for
	// example, Go ints decode as int32 and strings as []byte)
	Decoded interface{}

	// The encoded representation of the object
	Bytes []byte

	// Error expected on en/decode
	EncErrorIs error
	DecErrorIs error

	// Comparator to use (instead of default) after successful decoding
	// The NaN tests use this because NaN != NaN, so normal comparisons won't work
	DecodeComparator func(t *testing.T, expt, actual interface{})
}

// decodeAll feeds fragments to a fresh decoder and returns everything it
// produced. The first error, from either DecodeAndAccumulate or
// FinishDecode, is returned.
func decodeAll(ctx Context, frags [][]byte) ([]interface{}, error) {
	var out []interface{}
	d := NewDecoder()
	for _, f := range frags {
		err := d.DecodeAndAccumulate(f, ctx, DecoderOutputFunc(func(v interface{}) error {
			out = append(out, v)
			return nil
		}))
		if err != nil {
			return out, err
		}
	}
	return out, d.FinishDecode()
}

func RunTestcases(t *testing.T, tcs []testcase) {
	// Insert the default DecodeComparator
	for i := range tcs {
		tc := &tcs[i]

		if tc.Decoded == nil {
			tc.Decoded = tc.Object
		}

		if tc.DecodeComparator == nil {
			tc.DecodeComparator = func(t *testing.T, l, r interface{}) {
				t.Helper()
				assert.Equal(t, l, r, "decoded output should match")
			}
		}
	}

	t.Parallel()

	feeders := []struct {
		name string
		f    feeder
	}{
		{"", wholeFeeder},
		{"+singleByte", singleByteFeeder},
		{"+halves", halvesFeeder},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			if tc.Direction != decodeTest {
				t.Run("Encode", func(t *testing.T) {
					t.Parallel()

					buf, err := Encode(tc.Context, tc.Object)
					if tc.EncErrorIs != nil {
						require.Error(t, err, "Encoding should have returned an error")
						require.Truef(t, errors.Is(err, tc.EncErrorIs), "Error expected to be %s, but was %s", tc.EncErrorIs, err)
						return
					}

					require.NoError(t, err, "Encode should succeed")
					assert.Equal(t, hex.EncodeToString(tc.Bytes), hex.EncodeToString(buf), "Expected encoded data to match")

					n, err := Size(tc.Context, tc.Object)
					require.NoError(t, err, "Size should succeed")
					assert.Equal(t, len(tc.Bytes), n, "Size should match encoded length")
				})
			}

			if tc.Direction != encodeTest {
				for _, fd := range feeders {
					fd := fd
					t.Run("Decode"+fd.name, func(t *testing.T) {
						t.Parallel()

						out, err := decodeAll(tc.Context, fd.f(tc.Bytes))
						if tc.DecErrorIs != nil {
							if assert.Error(t, err, "Decoding should have returned an error") {
								assert.Truef(t, errors.Is(err, tc.DecErrorIs), "Error expected to be %s, but was %s", tc.DecErrorIs, err)
							} else {
								t.Logf("Returned %+v", out)
							}
							return
						}

						require.NoError(t, err, "Decode should succeed")
						require.Len(t, out, 1, "Expected exactly one value")
						tc.DecodeComparator(t, tc.Decoded, out[0])
					})
				}
			}
		})
	}
}

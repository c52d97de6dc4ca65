// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package m3da

import (
	"encoding/gob"
	"encoding/json"
	"io/ioutil"
	"testing"

	"go.e43.eu/m3da/pdu"
)

func EncodeBenchmarkCommon(b *testing.B, ob interface{}) {
	b.Run("BysantEncode", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, err := Encode(Global, ob)
			if err != nil {
				b.Fatalf("Encode: %s", err)
			}
		}
	})

	b.Run("BysantSize", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, err := Size(Global, ob)
			if err != nil {
				b.Fatalf("Size: %s", err)
			}
		}
	})

	b.Run("JSONMarshal", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, err := json.Marshal(ob)
			if err != nil {
				b.Fatalf("json.Marshal: %s", err)
			}
		}
	})

	b.Run("GobEncoderDiscard", func(b *testing.B) {
		w := gob.NewEncoder(ioutil.Discard)
		for i := 0; i < b.N; i++ {
			err := w.Encode(ob)
			if err != nil {
				b.Fatalf("Encode: %s", err)
			}
		}
	})
}

func DecodeBenchmarkCommon(b *testing.B, ob interface{}) {
	buf, err := Encode(Global, ob)
	if err != nil {
		b.Fatalf("Encode: %s", err)
	}

	b.Run("BysantDecode", func(b *testing.B) {
		out := DecoderOutputFunc(func(interface{}) error { return nil })
		for i := 0; i < b.N; i++ {
			d := NewDecoder()
			if err := d.DecodeAndAccumulate(buf, Global, out); err != nil {
				b.Fatalf("Decode: %s", err)
			}
		}
	})

	b.Run("BysantDecodeSingleByte", func(b *testing.B) {
		out := DecoderOutputFunc(func(interface{}) error { return nil })
		for i := 0; i < b.N; i++ {
			d := NewDecoder()
			for j := range buf {
				if err := d.DecodeAndAccumulate(buf[j:j+1], Global, out); err != nil {
					b.Fatalf("Decode: %s", err)
				}
			}
		}
	})
}

func BenchmarkIntegers(b *testing.B) {
	ob := []int64{0, 1, -1, 100, -100, 100000, -100000, 1 << 40}
	EncodeBenchmarkCommon(b, ob)
	DecodeBenchmarkCommon(b, ob)
}

func BenchmarkStringMap(b *testing.B) {
	ob := map[string]string{
		"temperature": "21.5",
		"humidity":    "40",
		"location":    "kitchen",
	}
	EncodeBenchmarkCommon(b, ob)
	DecodeBenchmarkCommon(b, ob)
}

func BenchmarkEnvelope(b *testing.B) {
	payload, err := Encode(Global, referenceMessage())
	if err != nil {
		b.Fatalf("Encode: %s", err)
	}
	env := &pdu.Envelope{
		Header:  pdu.NewMap("id", "bench-device"),
		Payload: payload,
	}

	b.Run("EncodeEnvelope", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := EncodeEnvelope(env); err != nil {
				b.Fatalf("EncodeEnvelope: %s", err)
			}
		}
	})

	DecodeBenchmarkCommon(b, env)
}

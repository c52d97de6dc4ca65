// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package server

import (
	"fmt"

	"github.com/pkg/errors"

	"go.e43.eu/m3da/internal/store"
	"go.e43.eu/m3da/pdu"
)

// ToStoreMessage converts a decoded Message. Every body entry becomes a list
// of values: lists are kept, vectors are expanded and anything else becomes
// a one element list.
func ToStoreMessage(msg *pdu.Message) (store.Message, error) {
	data := make(map[string][]interface{}, len(msg.Body))
	for _, e := range msg.Body {
		key := keyString(e.Key)

		values, err := valueList(e.Value)
		if err != nil {
			return store.Message{}, errors.Wrapf(err, "server: %s.%s", msg.Path, key)
		}
		data[key] = values
	}
	return store.Message{Path: msg.Path, Data: data}, nil
}

func keyString(k interface{}) string {
	switch k := k.(type) {
	case string:
		return k
	case []byte:
		return string(k)
	default:
		return fmt.Sprint(k)
	}
}

func valueList(v interface{}) ([]interface{}, error) {
	switch v := v.(type) {
	case []interface{}:
		return normalizeList(v)
	case *pdu.DeltasVector:
		return flatten(v.AsFlatList())
	case *pdu.QuasiPeriodicVector:
		return flatten(v.AsFlatList())
	default:
		n, err := normalize(v)
		if err != nil {
			return nil, err
		}
		return []interface{}{n}, nil
	}
}

func flatten(l pdu.FlatList, err error) ([]interface{}, error) {
	if err != nil {
		return nil, err
	}
	return l.Values(), nil
}

func normalizeList(vs []interface{}) ([]interface{}, error) {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		n, err := normalize(v)
		if err != nil {
			return nil, errors.Wrapf(err, "[%d]", i)
		}
		out[i] = n
	}
	return out, nil
}

// normalize converts a decoded value to one of the types kept by the store
func normalize(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case nil, bool, string, int64, float64:
		return v, nil
	case int32:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float32:
		return float64(v), nil
	case []byte:
		return string(v), nil
	case []interface{}:
		return normalizeList(v)
	case pdu.Map:
		out := make(map[string]interface{}, len(v))
		for _, e := range v {
			key := keyString(e.Key)
			n, err := normalize(e.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "[%s]", key)
			}
			out[key] = n
		}
		return out, nil
	case *pdu.DeltasVector:
		return flatten(v.AsFlatList())
	case *pdu.QuasiPeriodicVector:
		return flatten(v.AsFlatList())
	default:
		return nil, errors.Errorf("unsupported value %T", v)
	}
}

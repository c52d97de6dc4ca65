// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package api

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"go.e43.eu/m3da/internal/store"
)

// SystemData is one reception of a data id
type SystemData struct {
	Value []interface{} `json:"value"`

	// Timestamp is the reception time in microseconds, as a decimal string
	Timestamp string `json:"timestamp"`
}

// MapReceived groups receptions by data id (`<path>.<key>`), most recent
// first
func MapReceived(data map[int64][]store.Message) map[string][]SystemData {
	out := make(map[string][]SystemData)

	stamps := make([]int64, 0, len(data))
	for ts := range data {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] > stamps[j] })

	for _, ts := range stamps {
		timestamp := strconv.FormatInt(ts/1000, 10)
		for _, msg := range data[ts] {
			for key, values := range msg.Data {
				id := msg.Path + "." + key
				out[id] = append(out[id], SystemData{Value: values, Timestamp: timestamp})
			}
		}
	}
	return out
}

type postedMessage struct {
	Path string
	Data map[string]interface{}
}

// ParseMessages converts a decoded POST body to messages. The body is
// either an object of paths to objects of keys to values, or a list of
// {"path": ..., "data": {...}} objects. A value which is not a list becomes
// a one element list.
func ParseMessages(body interface{}) ([]store.Message, error) {
	var posted []postedMessage

	switch b := body.(type) {
	case map[string]interface{}:
		paths := make([]string, 0, len(b))
		for p := range b {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			data, ok := b[p].(map[string]interface{})
			if !ok {
				return nil, errors.Errorf("api: data of %q is not an object", p)
			}
			posted = append(posted, postedMessage{Path: p, Data: data})
		}

	case []interface{}:
		for i, e := range b {
			obj, ok := e.(map[string]interface{})
			if !ok {
				return nil, errors.Errorf("api: message %d is not an object", i)
			}
			path, ok := obj["path"].(string)
			if !ok || path == "" {
				return nil, errors.Errorf("api: message %d has no path", i)
			}
			data, ok := obj["data"].(map[string]interface{})
			if !ok {
				return nil, errors.Errorf("api: data of message %d is not an object", i)
			}
			posted = append(posted, postedMessage{Path: path, Data: data})
		}

	default:
		return nil, errors.New("api: body must be an object or a list")
	}

	msgs := make([]store.Message, 0, len(posted))
	for _, pm := range posted {
		data := make(map[string][]interface{}, len(pm.Data))
		for k, v := range pm.Data {
			if list, ok := v.([]interface{}); ok {
				data[k] = convertList(list)
			} else {
				data[k] = []interface{}{convert(v)}
			}
		}
		msgs = append(msgs, store.Message{Path: pm.Path, Data: data})
	}
	return msgs, nil
}

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// convert turns JSON numbers into int64 where exact and float64 otherwise
func convert(v interface{}) interface{} {
	switch v := v.(type) {
	case number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case []interface{}:
		return convertList(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = convert(e)
		}
		return out
	default:
		return v
	}
}

func convertList(vs []interface{}) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = convert(v)
	}
	return out
}

package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// Sentinel field values, resolved atomically inside the commit. They mirror
// the store's server-side primitives: a field increment survives concurrent
// writers, a whole-document set does not.

type incrementValue struct{ delta int64 }

// Increment atomically adds delta to a numeric field, treating a missing
// field as zero.
func Increment(delta int64) any { return incrementValue{delta: delta} }

type arrayUnionValue struct{ values []any }

// ArrayUnion atomically appends the values not already present, preserving
// existing order.
func ArrayUnion(values ...any) any { return arrayUnionValue{values: values} }

type arrayRemoveValue struct{ values []any }

// ArrayRemove atomically removes every occurrence of the given values.
func ArrayRemove(values ...any) any { return arrayRemoveValue{values: values} }

type serverTimestampValue struct{}

// ServerTimestamp resolves to the store's commit time as int64 UnixNano.
var ServerTimestamp any = serverTimestampValue{}

// applyFields resolves sentinels and merges incoming fields into existing.
// existing may be nil (document creation).
func applyFields(existing, incoming map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		switch op := v.(type) {
		case incrementValue:
			out[k] = asInt64(out[k]) + op.delta
		case arrayUnionValue:
			out[k] = unionArray(asArray(out[k]), op.values)
		case arrayRemoveValue:
			out[k] = removeFromArray(asArray(out[k]), op.values)
		case serverTimestampValue:
			out[k] = now.UnixNano()
		default:
			out[k] = v
		}
	}
	return out
}

// resolveFields is applyFields without an existing document, used for
// whole-document replaces.
func resolveFields(incoming map[string]any, now time.Time) map[string]any {
	return applyFields(nil, incoming, now)
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asArray(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	return nil
}

func unionArray(existing, values []any) []any {
	out := append([]any{}, existing...)
	for _, v := range values {
		if !containsValue(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func removeFromArray(existing, values []any) []any {
	out := make([]any, 0, len(existing))
	for _, v := range existing {
		if !containsValue(values, v) {
			out = append(out, v)
		}
	}
	return out
}

func containsValue(arr []any, v any) bool {
	for _, item := range arr {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

// encodeData serializes document fields for storage. Sentinels must already
// be resolved.
func encodeData(data map[string]any) ([]byte, error) {
	return json.Marshal(data)
}

// decodeData deserializes document fields, normalizing JSON numbers so that
// integral values come back as int64. Monetary quantities are integers
// throughout; float64 only appears for genuinely fractional values such as
// win-rate percentages.
func decodeData(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return normalizeMap(data), nil
}

func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		return normalizeMap(val)
	case []any:
		for i, item := range val {
			val[i] = normalizeValue(item)
		}
		return val
	}
	return v
}

// compareValues orders two field values for query sorting. Mixed numeric
// types compare numerically; everything else falls back to string order.
func compareValues(a, b any) int {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as := fmt.Sprint(a)
	bs := fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

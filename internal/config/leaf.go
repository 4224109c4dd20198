package config

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// KeyError reports a missing or mistyped entry of an experiment file.
type KeyError struct {
	Key     string
	Problem string
}

func (e *KeyError) Error() string {
	return e.Key + ": " + e.Problem
}

func notFound(path []string) error {
	return &KeyError{Key: strings.Join(path, "."), Problem: "not found"}
}

func notA(path []string, kind string) error {
	return &KeyError{Key: strings.Join(path, "."), Problem: "is not a " + kind}
}

func getLeafValue(jsonTable map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = jsonTable
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// has reports whether a group or key is present.
func has(jsonTable map[string]interface{}, path ...string) bool {
	_, ok := getLeafValue(jsonTable, path...)
	return ok
}

func requireFloat(jsonTable map[string]interface{}, path ...string) (float64, error) {
	v, ok := getLeafValue(jsonTable, path...)
	if !ok {
		return 0, notFound(path)
	}
	value, ok := v.(float64)
	if !ok {
		return 0, notA(path, "float64")
	}
	return value, nil
}

func floatOr(jsonTable map[string]interface{}, def float64, path ...string) (float64, error) {
	if !has(jsonTable, path...) {
		return def, nil
	}
	return requireFloat(jsonTable, path...)
}

func stringOr(jsonTable map[string]interface{}, def string, path ...string) (string, error) {
	v, ok := getLeafValue(jsonTable, path...)
	if !ok {
		return def, nil
	}
	value, ok := v.(string)
	if !ok {
		return "", notA(path, "string")
	}
	return value, nil
}

func boolOr(jsonTable map[string]interface{}, def bool, path ...string) (bool, error) {
	v, ok := getLeafValue(jsonTable, path...)
	if !ok {
		return def, nil
	}
	value, ok := v.(bool)
	if !ok {
		return false, notA(path, "bool")
	}
	return value, nil
}

// floatsOr reads an array of numbers. A nil def makes the key required.
func floatsOr(jsonTable map[string]interface{}, def []float64, path ...string) ([]float64, error) {
	v, ok := getLeafValue(jsonTable, path...)
	if !ok {
		if def == nil {
			return nil, notFound(path)
		}
		return def, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, notA(path, "list of float64")
	}
	out := make([]float64, len(items))
	for i, item := range items {
		out[i], ok = item.(float64)
		if !ok {
			return nil, notA(path, "list of float64")
		}
	}
	return out, nil
}

func requireVec(jsonTable map[string]interface{}, path ...string) (r3.Vec, error) {
	v, err := floatsOr(jsonTable, nil, path...)
	if err != nil {
		return r3.Vec{}, err
	}
	return toVec(v, path)
}

func vecOr(jsonTable map[string]interface{}, def r3.Vec, path ...string) (r3.Vec, error) {
	if !has(jsonTable, path...) {
		return def, nil
	}
	return requireVec(jsonTable, path...)
}

func toVec(v []float64, path []string) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, &KeyError{Key: strings.Join(path, "."), Problem: fmt.Sprintf("needs 3 values, got %d", len(v))}
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

// complexOr reads a complex number given either as a plain number or as
// [re, im].
func complexOr(jsonTable map[string]interface{}, def complex128, path ...string) (complex128, error) {
	v, ok := getLeafValue(jsonTable, path...)
	if !ok {
		return def, nil
	}
	if re, ok := v.(float64); ok {
		return complex(re, 0), nil
	}
	parts, err := floatsOr(jsonTable, nil, path...)
	if err != nil || len(parts) != 2 {
		return 0, notA(path, "float64 or [re, im] pair")
	}
	return complex(parts[0], parts[1]), nil
}

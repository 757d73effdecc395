// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: binding/errors.go
// Summary: Caller-side contract violations and argument coercion helpers.
// Notes: Engine-side failures are never reported through these errors.

package binding

import (
	"errors"
	"fmt"
	"math"
)

// ErrContractViolation matches every *ContractViolation via errors.Is.
var ErrContractViolation = errors.New("binding: contract violation")

// ContractViolation reports malformed arguments. It is returned before the
// engine is called, so the call had no side effects.
type ContractViolation struct {
	Op  string
	Msg string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("binding: %s: %s", e.Op, e.Msg)
}

func (e *ContractViolation) Is(target error) bool {
	return target == ErrContractViolation
}

func violation(op, format string, args ...any) *ContractViolation {
	return &ContractViolation{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Object is a host-supplied structural value, e.g. a decoded JSON object.
type Object = map[string]any

// number converts the numeric kinds a host boundary may produce.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

const twoTo32 = 4294967296.0

// toUint32 truncates and wraps like a 32-bit integer conversion; NaN and
// infinities become 0.
func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(f), twoTo32)
	if m < 0 {
		m += twoTo32
	}
	return uint32(m)
}

func toInt32(f float64) int32 {
	return int32(toUint32(f))
}

func requireNumber(op string, obj Object, key, what string) (float64, error) {
	v, ok := obj[key]
	if !ok {
		return 0, violation(op, "%s is missing numeric property '%s'", what, key)
	}
	n, ok := number(v)
	if !ok {
		return 0, violation(op, "%s property '%s' must be a number, got %T", what, key, v)
	}
	return n, nil
}

func optionalNumber(obj Object, key string, fallback float64) float64 {
	v, ok := obj[key]
	if !ok {
		return fallback
	}
	n, ok := number(v)
	if !ok {
		return fallback
	}
	return n
}

func requireID(op string, v any) (int32, error) {
	n, ok := number(v)
	if !ok {
		return 0, violation(op, "expected surface id number, got %T", v)
	}
	return toInt32(n), nil
}

func requireBool(op, name string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, violation(op, "expected %s boolean, got %T", name, v)
	}
	return b, nil
}

package envcascade

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parser converts a raw environment value into a T.
// TypeName is used in error messages.
type Parser[T any] interface {
	Parse(raw string) (T, error)
	TypeName() string
}

// NotFoundHandler is implemented by parsers that decide what happens when
// none of the candidate keys is present. Parsers without it fail with a
// NotFoundError.
type NotFoundHandler[T any] interface {
	OnNotFound(keys []string) (T, error)
}

// ParserFunc adapts a plain function into a Parser.
type ParserFunc[T any] struct {
	Name string
	Fn   func(raw string) (T, error)
}

// Func returns a Parser named name that calls fn.
func Func[T any](name string, fn func(raw string) (T, error)) ParserFunc[T] {
	return ParserFunc[T]{Name: name, Fn: fn}
}

func (p ParserFunc[T]) Parse(raw string) (T, error) { return p.Fn(raw) }

func (p ParserFunc[T]) TypeName() string { return p.Name }

// notFound applies p's not-found policy.
func notFound[T any](p Parser[T], keys []string) (T, error) {
	if h, ok := p.(NotFoundHandler[T]); ok {
		return h.OnNotFound(keys)
	}
	var zero T
	return zero, &NotFoundError{Keys: append([]string(nil), keys...)}
}

// BoolParseError is returned for tokens outside the accepted boolean sets.
type BoolParseError struct {
	Value string
}

func (e *BoolParseError) Error() string {
	return fmt.Sprintf("cannot parse '%s' as boolean", e.Value)
}

var (
	truthy = map[string]struct{}{
		"true": {}, "t": {}, "yes": {}, "y": {}, "1": {}, "on": {}, "enabled": {}, "enable": {}, "e": {},
	}
	falsy = map[string]struct{}{
		"false": {}, "f": {}, "no": {}, "n": {}, "0": {}, "off": {}, "disabled": {}, "disable": {}, "d": {},
	}
)

// Bool accepts, case-insensitively, true/t/yes/y/1/on/enabled/enable/e and
// false/f/no/n/0/off/disabled/disable/d. Anything else is an error.
func Bool() Parser[bool] {
	return Func("bool", func(raw string) (bool, error) {
		token := strings.ToLower(raw)
		if _, ok := truthy[token]; ok {
			return true, nil
		}
		if _, ok := falsy[token]; ok {
			return false, nil
		}
		return false, &BoolParseError{Value: raw}
	})
}

// String returns the raw value unchanged.
func String() Parser[string] {
	return Func("string", func(raw string) (string, error) { return raw, nil })
}

// Path returns the raw value unchanged. It only differs from String in the
// type name reported in errors.
func Path() Parser[string] {
	return Func("path", func(raw string) (string, error) { return raw, nil })
}

func signed[T ~int | ~int8 | ~int16 | ~int32 | ~int64](name string, bits int) Parser[T] {
	return Func(name, func(raw string) (T, error) {
		n, err := strconv.ParseInt(raw, 10, bits)
		return T(n), err
	})
}

func unsigned[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](name string, bits int) Parser[T] {
	return Func(name, func(raw string) (T, error) {
		n, err := strconv.ParseUint(raw, 10, bits)
		return T(n), err
	})
}

func float[T ~float32 | ~float64](name string, bits int) Parser[T] {
	return Func(name, func(raw string) (T, error) {
		f, err := strconv.ParseFloat(raw, bits)
		return T(f), err
	})
}

// Int parses a base-10 int.
func Int() Parser[int] { return signed[int]("int", strconv.IntSize) }

// Int8 parses a base-10 int8.
func Int8() Parser[int8] { return signed[int8]("int8", 8) }

// Int16 parses a base-10 int16.
func Int16() Parser[int16] { return signed[int16]("int16", 16) }

// Int32 parses a base-10 int32.
func Int32() Parser[int32] { return signed[int32]("int32", 32) }

// Int64 parses a base-10 int64.
func Int64() Parser[int64] { return signed[int64]("int64", 64) }

// Uint parses a base-10 uint.
func Uint() Parser[uint] { return unsigned[uint]("uint", strconv.IntSize) }

// Uint8 parses a base-10 uint8.
func Uint8() Parser[uint8] { return unsigned[uint8]("uint8", 8) }

// Uint16 parses a base-10 uint16, e.g. a port.
func Uint16() Parser[uint16] { return unsigned[uint16]("uint16", 16) }

// Uint32 parses a base-10 uint32.
func Uint32() Parser[uint32] { return unsigned[uint32]("uint32", 32) }

// Uint64 parses a base-10 uint64.
func Uint64() Parser[uint64] { return unsigned[uint64]("uint64", 64) }

// Float32 parses a float32 in any form strconv.ParseFloat accepts.
func Float32() Parser[float32] { return float[float32]("float32", 32) }

// Float64 parses a float64 in any form strconv.ParseFloat accepts.
func Float64() Parser[float64] { return float[float64]("float64", 64) }

// Duration parses values accepted by time.ParseDuration, e.g. "5m30s".
func Duration() Parser[time.Duration] {
	return Func("time.Duration", func(raw string) (time.Duration, error) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		return d, nil
	})
}

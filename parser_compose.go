package envcascade

import (
	"fmt"
	"strings"
)

type optionalParser[T any] struct {
	inner Parser[T]
}

// Optional wraps p so that a missing key resolves to nil instead of a
// NotFoundError. Present values are still parsed by p and parse failures
// still propagate.
func Optional[T any](p Parser[T]) Parser[*T] {
	return optionalParser[T]{inner: p}
}

func (o optionalParser[T]) Parse(raw string) (*T, error) {
	v, err := o.inner.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (o optionalParser[T]) TypeName() string { return o.inner.TypeName() }

func (o optionalParser[T]) OnNotFound([]string) (*T, error) { return nil, nil }

// ListElementError reports the first element of a list that failed to parse.
// Index is zero-based.
type ListElementError struct {
	Index int
	Err   error
}

func (e *ListElementError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

func (e *ListElementError) Unwrap() error { return e.Err }

type listParser[T any] struct {
	elem Parser[T]
}

// List parses a comma separated value, trimming each element and parsing it
// with p. An empty value yields an empty slice. Empty elements ("1,,3") are
// handed to p like any other.
func List[T any](p Parser[T]) Parser[[]T] {
	return listParser[T]{elem: p}
}

func (l listParser[T]) Parse(raw string) ([]T, error) {
	out := []T{}
	err := eachElement(raw, func(elem string) error {
		v, err := l.elem.Parse(elem)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// eachElement calls fn with every trimmed comma separated element of raw and
// stops at the first failure, reporting its index. An empty raw has no
// elements.
func eachElement(raw string, fn func(elem string) error) error {
	if raw == "" {
		return nil
	}
	for i, part := range strings.Split(raw, ",") {
		if err := fn(strings.TrimSpace(part)); err != nil {
			return &ListElementError{Index: i, Err: err}
		}
	}
	return nil
}

func (l listParser[T]) TypeName() string { return "[]" + l.elem.TypeName() }

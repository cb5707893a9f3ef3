package envcascade

import (
	"runtime"
)

// Request is a single resolution: an ordered list of candidate keys, the
// parser for the target type and the environment to search. Build one with
// Var or VarWith and finish it with Resolve, Or, OrParse or OrElse.
//
//	port, err := envcascade.Var[uint16]("PORT", "HTTP_PORT").Here().Or(8080)
type Request[T any] struct {
	keys   []string
	parser Parser[T]
	env    Environment
	loc    Location
	err    error
}

// Var starts a request for T using the parser registered for T.
func Var[T any](keys ...string) *Request[T] {
	p, err := ParserFor[T]()
	return &Request[T]{keys: keys, parser: p, env: OS, err: err}
}

// VarWith starts a request that parses with p.
func VarWith[T any](p Parser[T], keys ...string) *Request[T] {
	return &Request[T]{keys: keys, parser: p, env: OS}
}

// From makes the request read env instead of the process environment.
func (r *Request[T]) From(env Environment) *Request[T] {
	r.env = env
	return r
}

// At attaches a call site to NotFoundError and ParseError results.
func (r *Request[T]) At(file string, line int) *Request[T] {
	r.loc = Location{File: file, Line: line}
	return r
}

// Here is At with the location of its caller.
func (r *Request[T]) Here() *Request[T] {
	if _, file, line, ok := runtime.Caller(1); ok {
		r.loc = Location{File: file, Line: line}
	}
	return r
}

// Keys returns the candidate keys in search order.
func (r *Request[T]) Keys() []string {
	return append([]string(nil), r.keys...)
}

// lookup walks the candidate keys. The first present key wins, even if its
// value is empty, and a value that fails to parse ends the search.
// found is false only when no key was present.
func (r *Request[T]) lookup() (value T, found bool, err error) {
	if r.err != nil {
		return value, true, r.err
	}

	for _, key := range r.keys {
		raw, ok := r.env.LookupEnv(key)
		if !ok {
			continue
		}
		v, err := r.parser.Parse(raw)
		if err != nil {
			return value, true, &ParseError{
				Key:      key,
				Expected: r.parser.TypeName(),
				Got:      raw,
				Err:      err,
			}
		}
		return v, true, nil
	}
	return value, false, nil
}

func (r *Request[T]) stamp(err error) error {
	if err == nil || r.loc.IsZero() {
		return err
	}
	return WithLocation(err, r.loc.File, r.loc.Line)
}

// isMissing reports whether err is the plain not-found outcome, as opposed
// to a parse failure or an error from a custom not-found policy.
func isMissing(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// Resolve returns the parsed value of the first present key. When no key is
// present the parser's not-found policy applies: a NotFoundError by default,
// nil for Optional parsers.
func (r *Request[T]) Resolve() (T, error) {
	v, found, err := r.lookup()
	if !found {
		v, err = notFound(r.parser, r.keys)
	}
	return v, r.stamp(err)
}

// Or is Resolve with def returned in place of a NotFoundError.
func (r *Request[T]) Or(def T) (T, error) {
	v, err := r.Resolve()
	if isMissing(err) {
		return def, nil
	}
	return v, err
}

// OrParse is Resolve with def parsed by the request's parser in place of a
// NotFoundError. An unparsable def is a ParseError for DefaultKey.
func (r *Request[T]) OrParse(def string) (T, error) {
	v, err := r.Resolve()
	if !isMissing(err) {
		return v, err
	}

	v, err = r.parser.Parse(def)
	if err != nil {
		var zero T
		return zero, r.stamp(&ParseError{
			Key:      DefaultKey,
			Expected: r.parser.TypeName(),
			Got:      def,
			Err:      err,
		})
	}
	return v, nil
}

// OrElse is Resolve with fn() returned in place of a NotFoundError. fn is
// not called when any key is present.
func (r *Request[T]) OrElse(fn func() T) (T, error) {
	v, err := r.Resolve()
	if isMissing(err) {
		return fn(), nil
	}
	return v, err
}

// Resolve parses the first present key among keys as a T, using the parser
// registered for T.
func Resolve[T any](keys ...string) (T, error) {
	return Var[T](keys...).Resolve()
}

// ResolveOr is Resolve falling back to def when no key is present.
func ResolveOr[T any](def T, keys ...string) (T, error) {
	return Var[T](keys...).Or(def)
}

// ResolveOrParse is Resolve falling back to parsing def when no key is
// present.
func ResolveOrParse[T any](def string, keys ...string) (T, error) {
	return Var[T](keys...).OrParse(def)
}

// ResolveOrElse is Resolve falling back to fn() when no key is present.
func ResolveOrElse[T any](fn func() T, keys ...string) (T, error) {
	return Var[T](keys...).OrElse(fn)
}

package envcascade

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/mail"
	"net/url"
	"reflect"
	"time"

	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"k8s.io/apimachinery/pkg/api/resource"
)

// AnyParser is the type-erased form of a Parser, as stored in the registry.
type AnyParser interface {
	ParseAny(raw string) (any, error)
	TypeName() string
	// NotFound applies the parser's not-found policy.
	NotFound(keys []string) (any, error)
}

// Factory builds a parser for a whole category of types. It returns nil
// when it does not handle t.
type Factory func(t reflect.Type) AnyParser

// registry of explicit parsers
var customParsers = make(map[reflect.Type]AnyParser)

// registry of parser factories (checked in order)
var parserFactories []Factory

// Register makes p the parser used for T by Resolve, Var and Bind.
// Call it from init() or main() before resolving; the registry is not
// synchronised.
func Register[T any](p Parser[T]) {
	customParsers[reflect.TypeFor[T]()] = Erase(p)
}

// RegisterFactory adds a factory consulted, in registration order, for types
// without an explicit parser.
func RegisterFactory(f Factory) {
	parserFactories = append(parserFactories, f)
}

// Erase converts p into an AnyParser.
func Erase[T any](p Parser[T]) AnyParser {
	return erased[T]{p: p}
}

type erased[T any] struct {
	p Parser[T]
}

func (e erased[T]) ParseAny(raw string) (any, error) {
	v, err := e.p.Parse(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (e erased[T]) TypeName() string { return e.p.TypeName() }

func (e erased[T]) NotFound(keys []string) (any, error) {
	v, err := notFound(e.p, keys)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// typed turns an AnyParser whose values are Ts back into a Parser[T].
type typed[T any] struct {
	p AnyParser
}

func (t typed[T]) Parse(raw string) (T, error) {
	v, err := t.p.ParseAny(raw)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.cast(v)
}

func (t typed[T]) TypeName() string { return t.p.TypeName() }

func (t typed[T]) OnNotFound(keys []string) (T, error) {
	v, err := t.p.NotFound(keys)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.cast(v)
}

// cast converts a parser result to T. A nil result is the zero T.
func (t typed[T]) cast(v any) (T, error) {
	if v == nil {
		var zero T
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return out, fmt.Errorf("%w %s: parser %s returned %T", ErrUnsupportedType, reflect.TypeFor[T](), t.p.TypeName(), v)
	}
	return out, nil
}

// ParserFor returns the parser Resolve uses for T.
func ParserFor[T any]() (Parser[T], error) {
	p, err := parserForType(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return typed[T]{p: p}, nil
}

// parserForType checks explicit parsers first, then factories, before
// falling back to the structural parsers (basic kinds, slices, pointers).
func parserForType(t reflect.Type) (AnyParser, error) {
	if p, ok := customParsers[t]; ok {
		return p, nil
	}

	for _, factory := range parserFactories {
		if p := factory(t); p != nil {
			return p, nil
		}
	}

	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindParser(t)
	case reflect.Slice:
		elem, err := parserForType(t.Elem())
		if err != nil {
			return nil, err
		}
		return sliceParser(t, elem), nil
	case reflect.Pointer:
		elem, err := parserForType(t.Elem())
		if err != nil {
			return nil, err
		}
		return pointerParser(t, elem), nil
	}

	return nil, fmt.Errorf("%w %s: no parser registered", ErrUnsupportedType, t)
}

// reflectParser is an AnyParser assembled from closures.
type reflectParser struct {
	name     string
	parse    func(raw string) (any, error)
	notFound func(keys []string) (any, error)
}

func (r reflectParser) ParseAny(raw string) (any, error) { return r.parse(raw) }

func (r reflectParser) TypeName() string { return r.name }

func (r reflectParser) NotFound(keys []string) (any, error) {
	if r.notFound != nil {
		return r.notFound(keys)
	}
	return nil, &NotFoundError{Keys: append([]string(nil), keys...)}
}

// valueOf is reflect.ValueOf that tolerates untyped nils.
func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}

// kindParser handles named types over basic kinds (type Port int) by
// converting the result of the built-in parser for the underlying kind.
func kindParser(t reflect.Type) (AnyParser, error) {
	var base AnyParser
	switch t.Kind() {
	case reflect.String:
		base = Erase(String())
	case reflect.Bool:
		base = Erase(Bool())
	case reflect.Int:
		base = Erase(Int())
	case reflect.Int8:
		base = Erase(Int8())
	case reflect.Int16:
		base = Erase(Int16())
	case reflect.Int32:
		base = Erase(Int32())
	case reflect.Int64:
		base = Erase(Int64())
	case reflect.Uint:
		base = Erase(Uint())
	case reflect.Uint8:
		base = Erase(Uint8())
	case reflect.Uint16:
		base = Erase(Uint16())
	case reflect.Uint32:
		base = Erase(Uint32())
	case reflect.Uint64:
		base = Erase(Uint64())
	case reflect.Float32:
		base = Erase(Float32())
	case reflect.Float64:
		base = Erase(Float64())
	default:
		return nil, fmt.Errorf("%w %s", ErrUnsupportedType, t)
	}

	return reflectParser{
		name: t.String(),
		parse: func(raw string) (any, error) {
			v, err := base.ParseAny(raw)
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(v).Convert(t).Interface(), nil
		},
	}, nil
}

func sliceParser(t reflect.Type, elem AnyParser) AnyParser {
	elemType := t.Elem()
	return reflectParser{
		name: "[]" + elem.TypeName(),
		parse: func(raw string) (any, error) {
			out := reflect.MakeSlice(t, 0, 0)
			err := eachElement(raw, func(s string) error {
				v, err := elem.ParseAny(s)
				if err != nil {
					return err
				}
				out = reflect.Append(out, valueOf(v, elemType))
				return nil
			})
			if err != nil {
				return nil, err
			}
			return out.Interface(), nil
		},
	}
}

// pointerParser gives *E the Optional policy: absent keys resolve to nil.
func pointerParser(t reflect.Type, elem AnyParser) AnyParser {
	elemType := t.Elem()
	return reflectParser{
		name: elem.TypeName(),
		parse: func(raw string) (any, error) {
			v, err := elem.ParseAny(raw)
			if err != nil {
				return nil, err
			}
			ptr := reflect.New(elemType)
			ptr.Elem().Set(valueOf(v, elemType))
			return ptr.Interface(), nil
		},
		notFound: func([]string) (any, error) {
			return reflect.Zero(t).Interface(), nil
		},
	}
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// textUnmarshalerFactory handles any non-pointer T whose *T implements
// encoding.TextUnmarshaler.
func textUnmarshalerFactory(t reflect.Type) AnyParser {
	if t.Kind() == reflect.Pointer || !reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return nil
	}

	return reflectParser{
		name: t.String(),
		parse: func(raw string) (any, error) {
			v := reflect.New(t)
			if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
				return nil, fmt.Errorf("failed to unmarshal text: %w", err)
			}
			return v.Elem().Interface(), nil
		},
	}
}

func init() {
	// TextUnmarshaler first: it unlocks many std-lib and third-party types.
	RegisterFactory(textUnmarshalerFactory)

	Register(Bool())
	Register(String())
	Register(Int())
	Register(Int8())
	Register(Int16())
	Register(Int32())
	Register(Int64())
	Register(Uint())
	Register(Uint8())
	Register(Uint16())
	Register(Uint32())
	Register(Uint64())
	Register(Float32())
	Register(Float64())

	Register[time.Duration](Duration())
	Register[time.Time](DateTime())
	Register[url.URL](URL())
	Register[net.IP](IP())
	Register[mail.Address](MailAddress())
	Register[big.Int](BigInt())
	Register[slog.Level](LogLevel())
	Register[*rsa.PrivateKey](RSAPrivateKey())
	Register[*ecdsa.PrivateKey](ECDSAPrivateKey())
	Register[uuid.UUID](UUID())
	Register[decimal.Decimal](Decimal())
	Register[resource.Quantity](Quantity())
	Register[*vm.Program](Expr())
}

package envcascade

import (
	"fmt"
	"reflect"
	"strings"
)

// Bind populates a configuration struct from environment variables using the
// parser registry. cfg may be a struct value or a pointer to a struct; the
// populated struct is returned either way.
//
// It supports the following struct tags:
//   - `env:"KEY[,FALLBACK...]"`: candidate keys, searched in order
//   - `secret:"KEY[,FALLBACK...]"`: same as env, but masked by PrettyString
//   - `default:"value"`: parsed like an environment value when no key is set
//   - `required:"true"`: no key set and no default is an error
//
// A field with no key present keeps its current value if it is non-zero.
// Untagged struct fields (and pointers to structs) are bound recursively,
// other untagged fields are left alone.
//
// Example:
//
//	type Config struct {
//	    Port   int    `env:"PORT,HTTP_PORT" default:"8080"`
//	    Debug  bool   `env:"DEBUG" default:"off"`
//	    APIKey string `secret:"API_KEY" required:"true"`
//	    DB     struct {
//	        Host string `env:"DB_HOST,PGHOST" default:"localhost"`
//	    }
//	}
//
//	cfg, err := envcascade.Bind(Config{})
func Bind[T any](cfg T) (T, error) {
	return BindFrom(OS, cfg)
}

// BindFrom is Bind reading from env.
func BindFrom[T any](env Environment, cfg T) (T, error) {
	rv := reflect.ValueOf(cfg)

	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct {
		err := bindStruct(env, rv.Elem(), "")
		return cfg, err
	}

	if rv.Kind() == reflect.Struct {
		if reflect.TypeFor[T]().Kind() == reflect.Struct {
			err := bindStruct(env, reflect.ValueOf(&cfg).Elem(), "")
			return cfg, err
		}

		// T is an interface holding a struct: bind an addressable copy.
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		err := bindStruct(env, cp, "")
		return cp.Interface().(T), err
	}

	var zero T
	return zero, fmt.Errorf("config must be struct or pointer to struct, got %T", cfg)
}

// fieldKeys returns the candidate keys from the env or secret tag.
func fieldKeys(sf reflect.StructField) (keys []string, secret bool) {
	tag := sf.Tag.Get("env")
	if tag == "" {
		tag = sf.Tag.Get("secret")
		secret = tag != ""
	}
	for _, k := range strings.Split(tag, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys, secret
}

// isLeafType reports whether t is parsed from a single value rather than
// traversed field by field.
func isLeafType(t reflect.Type) bool {
	if _, ok := customParsers[t]; ok {
		return true
	}
	for _, factory := range parserFactories {
		if factory(t) != nil {
			return true
		}
	}
	return false
}

// nestedStruct reports whether a field of type t is bound recursively.
func nestedStruct(t reflect.Type) bool {
	switch {
	case t.Kind() == reflect.Struct:
		return !isLeafType(t)
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return !isLeafType(t) && !isLeafType(t.Elem())
	}
	return false
}

func anyPresent(env Environment, keys []string) bool {
	for _, k := range keys {
		if _, ok := env.LookupEnv(k); ok {
			return true
		}
	}
	return false
}

// bindStruct recursively resolves the tagged fields of val.
func bindStruct(env Environment, val reflect.Value, prefix string) error {
	typ := val.Type()

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		fv := val.Field(i)

		if !fv.CanSet() {
			continue
		}

		path := sf.Name
		if prefix != "" {
			path = prefix + "." + sf.Name
		}

		keys, _ := fieldKeys(sf)

		if len(keys) == 0 && nestedStruct(fv.Type()) {
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					fv.Set(reflect.New(fv.Type().Elem()))
				}
				fv = fv.Elem()
			}
			if err := bindStruct(env, fv, path); err != nil {
				return err
			}
			continue
		}
		if len(keys) == 0 {
			continue
		}

		p, err := parserForType(fv.Type())
		if err != nil {
			return fmt.Errorf("field %s: %w", path, err)
		}
		def, hasDefault := sf.Tag.Lookup("default")
		var v any
		switch {
		case anyPresent(env, keys):
			v, err = VarWith[any](typed[any]{p: p}, keys...).From(env).Resolve()
		case !fv.IsZero():
			continue
		case hasDefault:
			// Parsed directly: pointer fields would otherwise take the
			// Optional not-found result and ignore the default.
			if v, err = p.ParseAny(def); err != nil {
				err = &ParseError{Key: DefaultKey, Expected: p.TypeName(), Got: def, Err: err}
			}
		case strings.EqualFold(sf.Tag.Get("required"), "true"):
			err = &NotFoundError{Keys: keys}
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("field %s: %w", path, err)
		}

		fv.Set(valueOf(v, fv.Type()))
	}

	return nil
}

// Field describes one bindable configuration field.
type Field struct {
	Path       string   // Dot-separated field path (e.g., "DB.Host")
	Keys       []string // Candidate environment variables, in search order
	Type       string   // Go type name
	Default    string   // Default value from tag
	HasDefault bool
	Required   bool
	Secret     bool
}

// Fields lists the fields Bind would resolve, including those of nested
// structs, in declaration order.
func Fields(cfg any) []Field {
	rv := reflect.ValueOf(cfg)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	var fields []Field
	collectFields(rv.Type(), "", &fields)
	return fields
}

func collectFields(typ reflect.Type, prefix string, fields *[]Field) {
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}

		path := sf.Name
		if prefix != "" {
			path = prefix + "." + sf.Name
		}

		keys, secret := fieldKeys(sf)
		if len(keys) == 0 {
			if nestedStruct(sf.Type) {
				t := sf.Type
				if t.Kind() == reflect.Pointer {
					t = t.Elem()
				}
				collectFields(t, path, fields)
			}
			continue
		}

		def, hasDefault := sf.Tag.Lookup("default")
		*fields = append(*fields, Field{
			Path:       path,
			Keys:       keys,
			Type:       sf.Type.String(),
			Default:    def,
			HasDefault: hasDefault,
			Required:   strings.EqualFold(sf.Tag.Get("required"), "true"),
			Secret:     secret,
		})
	}
}

// FilterFields returns the fields for which keep reports true.
func FilterFields(fields []Field, keep func(Field) bool) []Field {
	var out []Field
	for _, f := range fields {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// SecretFields returns the fields tagged secret.
func SecretFields(cfg any) []Field {
	return FilterFields(Fields(cfg), func(f Field) bool { return f.Secret })
}

// RequiredFields returns the fields that must be set.
func RequiredFields(cfg any) []Field {
	return FilterFields(Fields(cfg), func(f Field) bool { return f.Required })
}

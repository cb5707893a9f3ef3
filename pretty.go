package envcascade

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/expr-lang/expr/vm"
)

// PrettyString returns an indented JSON rendering of a bound configuration
// struct, safe for logs. Keys are each field's first candidate key (the field
// name when untagged). Fields tagged `secret` are masked and passwords in
// URLs are replaced by "***".
//
//	type Config struct {
//	    Port   int    `env:"PORT,HTTP_PORT"`
//	    APIKey string `secret:"API_KEY"`
//	}
//	fmt.Println(PrettyString(&Config{Port: 8080, APIKey: "secret123"}))
//	// {"API_KEY": "sec******", "PORT": 8080}
func PrettyString(cfg any) string {
	rv := reflect.ValueOf(cfg)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Sprintf("%T is not a struct", cfg)
	}

	b, err := json.MarshalIndent(safeMap(rv), "", "  ")
	if err != nil {
		return fmt.Sprintf("error pretty-printing config: %v", err)
	}
	return string(b)
}

// maskURLPassword hides the password of a url.URL or *url.URL.
func maskURLPassword(val any) any {
	var u *url.URL
	switch v := val.(type) {
	case url.URL:
		u = &v
	case *url.URL:
		if v == nil {
			return nil
		}
		u = v
	default:
		return val
	}

	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			masked := *u
			masked.User = url.UserPassword(u.User.Username(), "***")
			// url escapes '*' in userinfo
			return strings.Replace(masked.String(), ":%2A%2A%2A@", ":***@", 1)
		}
	}
	return u.String()
}

func displayValue(fv reflect.Value, secret bool) any {
	if secret {
		if s, ok := fv.Interface().(string); ok {
			return mask(s)
		}
		return "***"
	}

	switch v := fv.Interface().(type) {
	case *vm.Program:
		// bytecode is not worth printing
		if v == nil {
			return nil
		}
		return fmt.Sprintf("<%T>", v)
	default:
		out := maskURLPassword(v)
		if _, err := json.Marshal(out); err != nil {
			return fmt.Sprintf("<%T>", v)
		}
		return out
	}
}

// safeMap builds the map rendered by PrettyString. JSON encoding sorts the
// keys.
func safeMap(val reflect.Value) map[string]any {
	typ := val.Type()
	out := make(map[string]any, typ.NumField())

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		fv := val.Field(i)
		if !fv.CanInterface() {
			continue
		}

		keys, secret := fieldKeys(sf)
		key := sf.Name
		if len(keys) > 0 {
			key = keys[0]
		}

		switch {
		case len(keys) == 0 && nestedStruct(fv.Type()):
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					out[key] = nil
					continue
				}
				fv = fv.Elem()
			}
			out[key] = safeMap(fv)
		case fv.Kind() == reflect.Slice && fv.Type() != reflect.TypeFor[[]byte]() && !isLeafType(fv.Type()):
			items := make([]any, fv.Len())
			for j := range items {
				items[j] = displayValue(fv.Index(j), secret)
			}
			out[key] = items
		default:
			out[key] = displayValue(fv, secret)
		}
	}
	return out
}

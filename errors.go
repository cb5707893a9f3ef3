package envcascade

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultKey is the key reported by a ParseError raised while parsing the
// fallback string given to ResolveOrParse or Request.OrParse.
const DefaultKey = "<default>"

// ErrUnsupportedType is returned when no parser is registered for the
// requested type and no factory can build one.
var ErrUnsupportedType = errors.New("unsupported type")

// Location is the call site an error was produced for. The zero value means
// no location is attached.
type Location struct {
	File string
	Line int
}

// IsZero reports whether no location is set.
func (l Location) IsZero() bool {
	return l.File == ""
}

// String renders the location as an error prefix ("file:line: "), or the
// empty string when unset.
func (l Location) String() string {
	if l.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%d: ", l.File, l.Line)
}

// NotFoundError reports that none of the candidate keys was present.
type NotFoundError struct {
	Keys     []string
	Location Location
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%snone of [%s] found in environment", e.Location, strings.Join(e.Keys, ", "))
}

// ParseError reports that the value of Key could not be converted to the
// Expected type. Got holds the raw value, Err the parser's failure.
type ParseError struct {
	Key      string
	Expected string
	Got      string
	Err      error
	Location Location
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s%s: expected %s, got '%s': %v", e.Location, e.Key, e.Expected, e.Got, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DotenvLoadError reports an I/O failure while loading a dotenv file.
type DotenvLoadError struct {
	Path string
	Err  error
}

func (e *DotenvLoadError) Error() string {
	return fmt.Sprintf("failed to load dotenv from %s: %v", e.Path, e.Err)
}

func (e *DotenvLoadError) Unwrap() error { return e.Err }

// DotenvParseError reports a malformed line in a dotenv file. Line is 1-based.
type DotenvParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *DotenvParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

// WithLocation returns err annotated with the given call site.
// Only NotFoundError and ParseError carry a location; dotenv errors already
// point at a file and line and any other error (including nil) is returned
// unchanged. The original error value is not modified.
func WithLocation(err error, file string, line int) error {
	loc := Location{File: file, Line: line}

	switch e := err.(type) {
	case *NotFoundError:
		stamped := *e
		stamped.Location = loc
		return &stamped
	case *ParseError:
		stamped := *e
		stamped.Location = loc
		return &stamped
	default:
		return err
	}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

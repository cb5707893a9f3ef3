package envcascade

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/joho/godotenv"
)

const (
	// DotenvPathKey names the variable that overrides the dotenv location.
	DotenvPathKey = "DOTENV_PATH"
	// DefaultDotenvFile is loaded when DotenvPathKey is unset.
	DefaultDotenvFile = ".env"
)

// Entry is one KEY=VALUE assignment read from a dotenv file.
type Entry struct {
	Key   string
	Value string
	Line  int // 1-based
}

// parseValue extracts the value part of an assignment. A leading single or
// double quote keeps everything up to the matching quote (or the end of the
// line if it is never closed); unquoted values stop at the first '#'.
func parseValue(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if quote := trimmed[0]; quote == '"' || quote == '\'' {
		rest := trimmed[1:]
		if end := strings.IndexByte(rest, quote); end >= 0 {
			return rest[:end]
		}
		return rest
	}

	if pos := strings.IndexByte(trimmed, '#'); pos >= 0 {
		return strings.TrimRightFunc(trimmed[:pos], unicode.IsSpace)
	}
	return trimmed
}

// parseLine returns ok=false for blank lines, comments and lines without '='.
// The returned key may be empty; the caller reports that as an error.
func parseLine(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}

	trimmed = strings.TrimPrefix(trimmed, "export ")

	k, v, found := strings.Cut(trimmed, "=")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(k), parseValue(v), true
}

// Parse reads dotenv assignments from r. path is only used in errors.
func Parse(r io.Reader, path string) ([]Entry, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, &DotenvLoadError{Path: path, Err: err}
	}

	var entries []Entry
	for i, line := range strings.Split(string(content), "\n") {
		key, value, ok := parseLine(line)
		if !ok {
			continue
		}
		if key == "" {
			return nil, &DotenvParseError{Path: path, Line: i + 1, Message: "empty key"}
		}
		entries = append(entries, Entry{Key: key, Value: value, Line: i + 1})
	}
	return entries, nil
}

// ParseFile reads and parses the dotenv file at path without applying it.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DotenvLoadError{Path: path, Err: err}
	}
	defer f.Close()

	return Parse(f, path)
}

// ReadFile returns the assignments in path as a map. Later assignments of
// the same key win.
func ReadFile(path string) (map[string]string, error) {
	entries, err := ParseFile(path)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out, nil
}

// Loader applies dotenv files to an Environment.
//
// Loading mutates shared state without locking. When Env is the process
// environment, load before starting goroutines that resolve values.
type Loader struct {
	// Env defaults to OS.
	Env Environment
	// Override lets file values replace variables that are already set.
	Override bool
	// Logger defaults to the package logger (see SetLogger).
	Logger *slog.Logger
}

func (l *Loader) env() Environment {
	if l.Env == nil {
		return OS
	}
	return l.Env
}

func (l *Loader) log() *slog.Logger {
	if l.Logger == nil {
		return packageLogger()
	}
	return l.Logger
}

// Path returns the dotenv location: DOTENV_PATH when set and non-empty,
// otherwise ".env" in the working directory.
func (l *Loader) Path() string {
	if p, ok := l.env().LookupEnv(DotenvPathKey); ok && p != "" {
		return p
	}
	return DefaultDotenvFile
}

// Load applies the file at Path. A missing file is not an error.
func (l *Loader) Load() error {
	path := l.Path()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		l.log().Debug("dotenv file not found, skipping", "path", path)
		return nil
	}
	return l.LoadPath(path)
}

// LoadPath applies the file at path, which must exist. The file is parsed
// completely before anything is applied, so a malformed line leaves the
// environment untouched.
func (l *Loader) LoadPath(path string) error {
	entries, err := ParseFile(path)
	if err != nil {
		return err
	}

	env := l.env()
	log := l.log()
	applied := 0
	for _, e := range entries {
		_, exists := env.LookupEnv(e.Key)
		if exists && !l.Override {
			log.Debug("dotenv entry", "key", e.Key, "value", mask(e.Value), "applied", false)
			continue
		}
		if err := env.Setenv(e.Key, e.Value); err != nil {
			return &DotenvLoadError{Path: path, Err: fmt.Errorf("set %s: %w", e.Key, err)}
		}
		applied++
		log.Debug("dotenv entry", "key", e.Key, "value", mask(e.Value), "applied", true)
	}

	log.Debug("loaded dotenv", "path", path, "entries", len(entries), "applied", applied)
	return nil
}

// Export writes the keys that are present in the environment to a dotenv
// file at path, in godotenv's format. Absent keys are skipped.
//
// godotenv double quotes every non-integer value and backslash-escapes
// quotes, backslashes, newlines, '$', '!' and '`' inside it. This package's
// parser does not unescape, so only values free of those characters read
// back unchanged.
func (l *Loader) Export(path string, keys ...string) error {
	env := l.env()
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := env.LookupEnv(key); ok {
			values[key] = v
		}
	}

	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("export dotenv to %s: %w", path, err)
	}
	l.log().Debug("exported dotenv", "path", path, "entries", len(values))
	return nil
}

// Load applies the dotenv file named by DOTENV_PATH (default ".env") to the
// process environment. Variables that are already set keep their value and
// a missing file is not an error.
func Load() error {
	return (&Loader{}).Load()
}

// LoadPath applies the dotenv file at path without overriding variables
// that are already set.
func LoadPath(path string) error {
	return (&Loader{}).LoadPath(path)
}

// LoadOverride is Load with file values replacing existing variables.
func LoadOverride() error {
	return (&Loader{Override: true}).Load()
}

// LoadOverridePath is LoadPath with file values replacing existing variables.
func LoadOverridePath(path string) error {
	return (&Loader{Override: true}).LoadPath(path)
}

// Export writes the present keys of the process environment to path.
func Export(path string, keys ...string) error {
	return (&Loader{}).Export(path, keys...)
}

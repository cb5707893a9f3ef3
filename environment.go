package envcascade

import (
	"errors"
	"os"
)

// Environment is the key-value table values are resolved from and dotenv
// entries are applied to.
type Environment interface {
	LookupEnv(key string) (string, bool)
	Setenv(key, value string) error
}

// OS is the process environment. It is not synchronised: load dotenv files
// before starting goroutines that read it.
var OS Environment = osEnvironment{}

type osEnvironment struct{}

func (osEnvironment) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }

func (osEnvironment) Setenv(key, value string) error { return os.Setenv(key, value) }

// MapEnvironment is an in-memory Environment, useful for isolating a
// resolution from the process environment. A nil MapEnvironment can be read
// but Setenv on it fails.
type MapEnvironment map[string]string

func (m MapEnvironment) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapEnvironment) Setenv(key, value string) error {
	if key == "" {
		return errors.New("setenv: empty key")
	}
	if m == nil {
		return errors.New("setenv: nil MapEnvironment")
	}
	m[key] = value
	return nil
}

// Package envcascade resolves typed configuration values from environment
// variables, optionally after loading a .env file into the environment.
//
// A value is requested with an ordered list of candidate keys. The first key
// present in the environment wins, its raw value is parsed into the target
// type, and failures come back as errors that name the key, the expected
// type and the raw value.
//
// # Features
//
//   - Cascading lookups: PORT, then HTTP_PORT, then a default
//   - Default policies: fixed value, string parsed like an environment value,
//     or a lazily computed value
//   - Pluggable per-type parsers with a registry, in the style of
//     encoding.TextUnmarshaler
//   - A small .env loader with override and no-override modes
//   - Struct binding with `env`, `secret`, `default` and `required` tags
//   - Secret masking for logging bound configuration
//
// # Supported Types
//
// The registry knows these types out of the box:
//   - Basic types: string, bool, int (all sizes), uint (all sizes), float32, float64
//   - Collections: slices of supported types (comma separated)
//   - Optional values: pointers to supported types (nil when no key is set)
//   - Time types: time.Duration, time.Time
//   - Network types: net.IP, mail.Address, url.URL
//   - Crypto types: *rsa.PrivateKey, *ecdsa.PrivateKey (from PEM format)
//   - Specialized types: uuid.UUID, decimal.Decimal, big.Int, slog.Level
//   - Kubernetes types: resource.Quantity
//   - Expression language: *vm.Program (expr-lang/expr)
//   - Any type implementing encoding.TextUnmarshaler
//   - Named types over the basic kinds (type Port uint16)
//
// Parsers that are not tied to a Go type, such as Date, TimeOfDay, Path,
// Optional and List, are used through VarWith.
//
// # Quick Start
//
//	package main
//
//	import (
//		"log"
//		"time"
//
//		"github.com/vivaneiona/envcascade"
//	)
//
//	func main() {
//		if err := envcascade.Load(); err != nil { // .env, or $DOTENV_PATH
//			log.Fatal(err)
//		}
//
//		port, err := envcascade.ResolveOr[uint16](8080, "PORT", "HTTP_PORT")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		timeout, err := envcascade.ResolveOrParse[time.Duration]("30s", "HTTP_TIMEOUT")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		hosts, err := envcascade.VarWith(envcascade.List(envcascade.String()), "ALLOWED_HOSTS").Here().Resolve()
//		if err != nil {
//			log.Fatal(err) // e.g. "main.go:25: none of [ALLOWED_HOSTS] found in environment"
//		}
//		_, _, _ = port, timeout, hosts
//	}
//
// # Environment File Support
//
// Load reads the file named by DOTENV_PATH, or .env in the working directory.
// A missing file is skipped. Lines have the form
//
//	# comment
//	export KEY=value # trailing comment
//	QUOTED="keeps # and   spaces"
//
// Load and LoadPath leave variables that are already set alone; LoadOverride
// and LoadOverridePath replace them. Values are taken literally: there is no
// ${VAR} expansion.
//
// The loader writes to the process environment without locking. Load files
// before starting goroutines that resolve values, or use a Loader and
// Request.From with a MapEnvironment to keep everything local.
//
// # Error Handling
//
// Four error types describe every failure:
//   - *NotFoundError: none of the candidate keys was set
//   - *ParseError: the first present key held an invalid value
//   - *DotenvLoadError: the dotenv file could not be read
//   - *DotenvParseError: a dotenv line has an empty key
//
// Request.At and Request.Here attach the caller's file and line to
// NotFoundError and ParseError messages.
package envcascade

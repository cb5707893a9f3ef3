package envcascade

import (
	"log/slog"
	"strings"
)

var logger *slog.Logger

// SetLogger replaces the logger used by loaders without their own Logger.
// A nil logger restores slog.Default().
func SetLogger(l *slog.Logger) {
	logger = l
}

func packageLogger() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// mask returns a masked version of the secret string.
// It keeps the first 3 characters visible and replaces the rest with asterisks.
// For strings with 3 or fewer characters, all characters are replaced with asterisks.
//
// Examples:
//   - mask("") returns ""
//   - mask("a") returns "*"
//   - mask("abc") returns "***"
//   - mask("secret123") returns "sec******"
func mask(secret string) string {
	const keep = 3
	n := len(secret)
	if n <= keep {
		return strings.Repeat("*", n)
	}
	return secret[:keep] + strings.Repeat("*", n-keep)
}

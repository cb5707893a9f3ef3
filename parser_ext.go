package envcascade

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/mail"
	"net/url"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"k8s.io/apimachinery/pkg/api/resource"
)

// URL parses with url.Parse. Both TCP and Unix socket database URLs are
// accepted, e.g. postgresql://user:pass@/db?host=/var/run/postgresql.
func URL() Parser[url.URL] {
	return Func("url.URL", func(raw string) (url.URL, error) {
		u, err := url.Parse(raw)
		if err != nil {
			return url.URL{}, fmt.Errorf("invalid URL %q: %w", raw, err)
		}
		return *u, nil
	})
}

// IP parses IPv4 and IPv6 addresses.
func IP() Parser[net.IP] {
	return Func("net.IP", func(raw string) (net.IP, error) {
		ip := net.ParseIP(raw)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address %q", raw)
		}
		return ip, nil
	})
}

// MailAddress parses RFC 5322 addresses with an optional display name.
func MailAddress() Parser[mail.Address] {
	return Func("mail.Address", func(raw string) (mail.Address, error) {
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return mail.Address{}, fmt.Errorf("invalid email address %q: %w", raw, err)
		}
		return *addr, nil
	})
}

// UUID parses any form accepted by uuid.Parse, including urn:uuid: and braces.
func UUID() Parser[uuid.UUID] {
	return Func("uuid.UUID", func(raw string) (uuid.UUID, error) {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid UUID %q: %w", raw, err)
		}
		return id, nil
	})
}

// Decimal parses exact decimals such as prices or rates.
func Decimal() Parser[decimal.Decimal] {
	return Func("decimal.Decimal", func(raw string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", raw, err)
		}
		return d, nil
	})
}

// BigInt parses arbitrarily large base-10 integers.
func BigInt() Parser[big.Int] {
	return Func("big.Int", func(raw string) (big.Int, error) {
		var bi big.Int
		if _, ok := bi.SetString(raw, 10); !ok {
			return big.Int{}, fmt.Errorf("invalid big.Int %q: must be base-10 integer", raw)
		}
		return bi, nil
	})
}

// Quantity parses Kubernetes resource units like 250m or 1.5Gi.
func Quantity() Parser[resource.Quantity] {
	return Func("resource.Quantity", func(raw string) (resource.Quantity, error) {
		q, err := resource.ParseQuantity(raw)
		if err != nil {
			return resource.Quantity{}, fmt.Errorf("invalid k8s quantity %q: %w", raw, err)
		}
		return q, nil
	})
}

// LogLevel accepts debug, info, warn (or warning), error, or an integer level.
func LogLevel() Parser[slog.Level] {
	return Func("slog.Level", func(raw string) (slog.Level, error) {
		switch strings.ToLower(raw) {
		case "debug":
			return slog.LevelDebug, nil
		case "info":
			return slog.LevelInfo, nil
		case "warn", "warning":
			return slog.LevelWarn, nil
		case "error":
			return slog.LevelError, nil
		}
		if level, err := strconv.Atoi(raw); err == nil {
			return slog.Level(level), nil
		}
		return 0, fmt.Errorf("invalid slog level %q: must be debug|info|warn|error or integer", raw)
	})
}

// Expr compiles the value as an expr-lang expression.
func Expr(opts ...expr.Option) Parser[*vm.Program] {
	return Func("*vm.Program", func(raw string) (*vm.Program, error) {
		program, err := expr.Compile(raw, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression %q: %w", raw, err)
		}
		return program, nil
	})
}

func decodePEM(raw, what string) (*pem.Block, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, fmt.Errorf("invalid PEM format for %s private key", what)
	}
	return block, nil
}

// RSAPrivateKey parses a PEM encoded PKCS#1 or PKCS#8 RSA key.
func RSAPrivateKey() Parser[*rsa.PrivateKey] {
	return Func("*rsa.PrivateKey", func(raw string) (*rsa.PrivateKey, error) {
		block, err := decodePEM(raw, "RSA")
		if err != nil {
			return nil, err
		}

		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
			}
			return key, nil
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
			}
			if rsaKey, ok := key.(*rsa.PrivateKey); ok {
				return rsaKey, nil
			}
			return nil, errors.New("PKCS#8 key is not an RSA private key")
		default:
			return nil, fmt.Errorf("unsupported PEM block type for RSA private key: %s", block.Type)
		}
	})
}

// ECDSAPrivateKey parses a PEM encoded SEC 1 or PKCS#8 ECDSA key.
func ECDSAPrivateKey() Parser[*ecdsa.PrivateKey] {
	return Func("*ecdsa.PrivateKey", func(raw string) (*ecdsa.PrivateKey, error) {
		block, err := decodePEM(raw, "ECDSA")
		if err != nil {
			return nil, err
		}

		switch block.Type {
		case "EC PRIVATE KEY":
			key, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse EC private key: %w", err)
			}
			return key, nil
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
			}
			if ecKey, ok := key.(*ecdsa.PrivateKey); ok {
				return ecKey, nil
			}
			return nil, errors.New("PKCS#8 key is not an ECDSA private key")
		default:
			return nil, fmt.Errorf("unsupported PEM block type for ECDSA private key: %s", block.Type)
		}
	})
}

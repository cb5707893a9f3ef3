package cli

import (
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/vivaneiona/envcascade"
	"k8s.io/apimachinery/pkg/api/resource"
)

type request struct {
	env        envcascade.Environment
	keys       []string
	def        string
	hasDefault bool
	list       bool
}

// resolver resolves a request and formats the result for printing.
type resolver func(r request) (string, error)

func resolve[T any](p envcascade.Parser[T], r request) (T, error) {
	req := envcascade.VarWith(p, r.keys...).From(r.env)
	if r.hasDefault {
		return req.OrParse(r.def)
	}
	return req.Resolve()
}

func typeOf[T any](p envcascade.Parser[T], format func(T) string) resolver {
	return func(r request) (string, error) {
		if !r.list {
			v, err := resolve(p, r)
			if err != nil {
				return "", err
			}
			return format(v), nil
		}

		vs, err := resolve(envcascade.List(p), r)
		if err != nil {
			return "", err
		}
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = format(v)
		}
		return strings.Join(out, ","), nil
	}
}

func sprint[T any](v T) string { return fmt.Sprint(v) }

var valueTypes = map[string]resolver{
	"string":   typeOf(envcascade.String(), sprint),
	"path":     typeOf(envcascade.Path(), sprint),
	"bool":     typeOf(envcascade.Bool(), sprint),
	"int":      typeOf(envcascade.Int(), sprint),
	"int64":    typeOf(envcascade.Int64(), sprint),
	"uint":     typeOf(envcascade.Uint(), sprint),
	"uint16":   typeOf(envcascade.Uint16(), sprint),
	"uint64":   typeOf(envcascade.Uint64(), sprint),
	"float":    typeOf(envcascade.Float64(), sprint),
	"duration": typeOf(envcascade.Duration(), time.Duration.String),
	"datetime": typeOf(envcascade.DateTime(), func(t time.Time) string { return t.Format(time.RFC3339Nano) }),
	"date":     typeOf(envcascade.Date(), func(t time.Time) string { return t.Format(time.DateOnly) }),
	"time":     typeOf(envcascade.TimeOfDay(), func(t time.Time) string { return t.Format("15:04:05.999999999") }),
	"url":      typeOf(envcascade.URL(), func(u url.URL) string { return u.String() }),
	"ip":       typeOf(envcascade.IP(), net.IP.String),
	"email":    typeOf(envcascade.MailAddress(), func(a mail.Address) string { return a.String() }),
	"uuid":     typeOf(envcascade.UUID(), uuid.UUID.String),
	"decimal":  typeOf(envcascade.Decimal(), decimal.Decimal.String),
	"quantity": typeOf(envcascade.Quantity(), func(q resource.Quantity) string { return q.String() }),
	"level":    typeOf(envcascade.LogLevel(), slog.Level.String),
}

func typeNames() []string {
	names := make([]string, 0, len(valueTypes))
	for name := range valueTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func newGetCommand(opts *options) *cobra.Command {
	var (
		typeName string
		def      string
		list     bool
		optional bool
		noLoad   bool
	)

	cmd := &cobra.Command{
		Use:   "get KEY [FALLBACK_KEY...]",
		Short: "Resolve a typed value from the first set key",
		Long: `Resolve a value from the first of the given keys that is set, parse it
as --type and print it in canonical form.

Types: ` + strings.Join(typeNames(), ", ") + `

Examples:
  envcascade get PORT HTTP_PORT --type uint16 --default 8080
  envcascade get ALLOWED_HOSTS --list
  envcascade get --type duration --optional SHUTDOWN_GRACE`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, ok := valueTypes[typeName]
			if !ok {
				return fmt.Errorf("unknown type %q (want one of %s)", typeName, strings.Join(typeNames(), ", "))
			}

			if !noLoad {
				if err := opts.loadDotenv(); err != nil {
					return err
				}
			}

			out, err := res(request{
				env:        envcascade.OS,
				keys:       args,
				def:        def,
				hasDefault: cmd.Flags().Changed("default"),
				list:       list,
			})
			if optional && envcascade.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "string", "value type")
	cmd.Flags().StringVarP(&def, "default", "d", "", "value parsed when no key is set")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "parse a comma separated list of --type")
	cmd.Flags().BoolVar(&optional, "optional", false, "print nothing and succeed when no key is set")
	cmd.Flags().BoolVar(&noLoad, "no-dotenv", false, "do not load a dotenv file first")

	return cmd
}

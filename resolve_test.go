package envcascade

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestResolveFirstPresentKeyWins(t *testing.T) {
	env := MapEnvironment{"HTTP_PORT": "9090", "APP_PORT": "7070"}

	port, err := Var[uint16]("PORT", "HTTP_PORT", "APP_PORT").From(env).Resolve()
	require.NoError(t, err)
	assert.Equal(t, uint16(9090), port)

	env["PORT"] = "8080"
	port, err = Var[uint16]("PORT", "HTTP_PORT", "APP_PORT").From(env).Resolve()
	require.NoError(t, err)
	assert.Equal(t, uint16(8080), port)
}

func TestResolveProcessEnvironment(t *testing.T) {
	unsetenv(t, "ENVCASCADE_TEST_PORT")
	t.Setenv("ENVCASCADE_TEST_HTTP_PORT", "3000")

	port, err := Resolve[int]("ENVCASCADE_TEST_PORT", "ENVCASCADE_TEST_HTTP_PORT")
	require.NoError(t, err)
	assert.Equal(t, 3000, port)
}

func TestResolveParseErrorStopsCascade(t *testing.T) {
	env := MapEnvironment{"PORT": "banana", "HTTP_PORT": "9090"}

	_, err := Var[uint16]("PORT", "HTTP_PORT").From(env).Resolve()

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "PORT", parseErr.Key)
	assert.Equal(t, "uint16", parseErr.Expected)
	assert.Equal(t, "banana", parseErr.Got)
	assert.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestResolveEmptyValueIsPresent(t *testing.T) {
	env := MapEnvironment{"NAME": "", "FALLBACK_NAME": "svc"}

	name, err := Var[string]("NAME", "FALLBACK_NAME").From(env).Resolve()
	require.NoError(t, err)
	assert.Equal(t, "", name)

	_, err = Var[int]("NAME", "FALLBACK_NAME").From(env).Resolve()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "NAME", parseErr.Key)
}

func TestResolveNotFound(t *testing.T) {
	_, err := Var[int]("A", "B").From(MapEnvironment{}).Resolve()

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"A", "B"}, nf.Keys)
	assert.Equal(t, "none of [A, B] found in environment", err.Error())
}

func TestResolveNoKeys(t *testing.T) {
	_, err := Var[int]().From(MapEnvironment{"A": "1"}).Resolve()

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, nf.Keys)

	v, err := Var[int]().Or(5)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestResolveOptional(t *testing.T) {
	env := MapEnvironment{"TIMEOUT": "30s"}

	d, err := VarWith(Optional(Duration()), "TIMEOUT").From(env).Resolve()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 30*time.Second, *d)

	d, err = VarWith(Optional(Duration()), "MISSING").From(env).Resolve()
	require.NoError(t, err)
	assert.Nil(t, d)

	ptr, err := Var[*int]("MISSING").From(env).Resolve()
	require.NoError(t, err)
	assert.Nil(t, ptr)

	env["BAD"] = "soon"
	_, err = VarWith(Optional(Duration()), "BAD").From(env).Resolve()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "time.Duration", parseErr.Expected)
}

func TestResolveList(t *testing.T) {
	env := MapEnvironment{"HOSTS": "a.example.com, b.example.com", "PORTS": "80,x"}

	hosts, err := Var[[]string]("HOSTS").From(env).Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, hosts)

	_, err = VarWith(List(Uint16()), "PORTS").From(env).Resolve()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "[]uint16", parseErr.Expected)
	assert.Equal(t, "80,x", parseErr.Got)

	var elemErr *ListElementError
	require.ErrorAs(t, err, &elemErr)
	assert.Equal(t, 1, elemErr.Index)
}

func TestOr(t *testing.T) {
	env := MapEnvironment{"WORKERS": "4", "BAD": "four"}

	n, err := Var[int]("WORKERS").From(env).Or(1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = Var[int]("MISSING").From(env).Or(1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = Var[int]("BAD", "WORKERS").From(env).Or(1)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr, "a parse failure is not replaced by the default")
	assert.Equal(t, "BAD", parseErr.Key)
}

func TestOrParse(t *testing.T) {
	env := MapEnvironment{"TIMEOUT": "5s"}

	d, err := Var[time.Duration]("TIMEOUT").From(env).OrParse("30s")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = Var[time.Duration]("MISSING").From(env).OrParse("30s")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	_, err = Var[time.Duration]("MISSING").From(env).OrParse("half a minute")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, DefaultKey, parseErr.Key)
	assert.Equal(t, "half a minute", parseErr.Got)
	assert.Equal(t, "time.Duration", parseErr.Expected)
}

func TestOrParseDefaultIsNotCheckedWhenKeyPresent(t *testing.T) {
	env := MapEnvironment{"RETRIES": "3"}

	n, err := Var[int]("RETRIES").From(env).OrParse("not a number")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOrElseIsLazy(t *testing.T) {
	env := MapEnvironment{"REGION": "eu-west-1"}

	region, err := Var[string]("REGION").From(env).OrElse(func() string {
		panic("fallback must not be evaluated when a key is present")
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", region)

	calls := 0
	region, err = Var[string]("MISSING").From(env).OrElse(func() string {
		calls++
		return "us-east-1"
	})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", region)
	assert.Equal(t, 1, calls)

	env["BAD"] = "x"
	_, err = Var[int]("BAD").From(env).OrElse(func() int {
		panic("fallback must not be evaluated on a parse failure")
	})
	assert.Error(t, err)
}

func TestPackageLevelResolvers(t *testing.T) {
	unsetenv(t, "ENVCASCADE_TEST_MISSING")
	t.Setenv("ENVCASCADE_TEST_RATIO", "0.25")

	ratio, err := ResolveOr(1.0, "ENVCASCADE_TEST_RATIO")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, ratio, 1e-12)

	n, err := ResolveOr(7, "ENVCASCADE_TEST_MISSING")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	d, err := ResolveOrParse[time.Duration]("1m", "ENVCASCADE_TEST_MISSING")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	s, err := ResolveOrElse(func() string { return "computed" }, "ENVCASCADE_TEST_MISSING")
	require.NoError(t, err)
	assert.Equal(t, "computed", s)
}

func TestUnsupportedTypeIsNotDefaulted(t *testing.T) {
	_, err := Var[map[string]int]("ANY").From(MapEnvironment{}).Resolve()
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Var[map[string]int]("ANY").From(MapEnvironment{}).Or(map[string]int{})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.False(t, IsNotFound(err))
}

func TestAtStampsLocation(t *testing.T) {
	_, err := Var[int]("PORT").From(MapEnvironment{}).At("cmd/api/main.go", 12).Resolve()
	assert.EqualError(t, err, "cmd/api/main.go:12: none of [PORT] found in environment")

	_, err = Var[int]("PORT").From(MapEnvironment{"PORT": "x"}).At("cmd/api/main.go", 12).Resolve()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, Location{File: "cmd/api/main.go", Line: 12}, parseErr.Location)

	_, err = Var[int]("PORT").From(MapEnvironment{}).At("cmd/api/main.go", 12).OrParse("y")
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, DefaultKey, parseErr.Key)
	assert.Equal(t, 12, parseErr.Location.Line)
}

func TestHereStampsCaller(t *testing.T) {
	_, file, line, _ := runtime.Caller(0)
	_, err := Var[int]("PORT").From(MapEnvironment{}).Here().Resolve()

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, filepath.Base(file), filepath.Base(nf.Location.File))
	assert.Equal(t, line+1, nf.Location.Line)
}

func TestKeysReturnsCopy(t *testing.T) {
	req := Var[int]("A", "B")
	keys := req.Keys()
	keys[0] = "Z"
	assert.Equal(t, []string{"A", "B"}, req.Keys())
}

func TestVarWithCustomNotFoundPolicy(t *testing.T) {
	_, err := VarWith[int](countdown{}, "MISSING").From(MapEnvironment{}).Or(9)
	assert.EqualError(t, err, "countdown requires one of [MISSING]")
}

// countdown reports absence with its own error instead of NotFoundError.
type countdown struct{}

func (countdown) Parse(raw string) (int, error) { return strconv.Atoi(raw) }

func (countdown) TypeName() string { return "countdown" }

func (countdown) OnNotFound(keys []string) (int, error) {
	return 0, &customMissing{keys: keys}
}

type customMissing struct{ keys []string }

func (e *customMissing) Error() string {
	return "countdown requires one of [" + strings.Join(e.keys, ", ") + "]"
}

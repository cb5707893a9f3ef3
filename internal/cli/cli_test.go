package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivaneiona/envcascade"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color"}, args...))

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetCascade(t *testing.T) {
	unsetenv(t, "CLI_PORT")
	t.Setenv("CLI_HTTP_PORT", "9090")

	out, _, err := run(t, "get", "--no-dotenv", "--type", "uint16", "CLI_PORT", "CLI_HTTP_PORT")
	require.NoError(t, err)
	assert.Equal(t, "9090\n", out)
}

func TestGetDefault(t *testing.T) {
	unsetenv(t, "CLI_PORT")

	out, _, err := run(t, "get", "--no-dotenv", "-t", "uint16", "-d", "8080", "CLI_PORT")
	require.NoError(t, err)
	assert.Equal(t, "8080\n", out)

	_, _, err = run(t, "get", "--no-dotenv", "-t", "uint16", "-d", "http", "CLI_PORT")
	var parseErr *envcascade.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, envcascade.DefaultKey, parseErr.Key)
}

func TestGetEmptyDefaultIsStillADefault(t *testing.T) {
	unsetenv(t, "CLI_NAME")

	out, _, err := run(t, "get", "--no-dotenv", "--default=", "CLI_NAME")
	require.NoError(t, err)
	assert.Equal(t, "\n", out)
}

func TestGetNotFound(t *testing.T) {
	unsetenv(t, "CLI_A", "CLI_B")

	_, _, err := run(t, "get", "--no-dotenv", "CLI_A", "CLI_B")
	assert.True(t, envcascade.IsNotFound(err))
	assert.EqualError(t, err, "none of [CLI_A, CLI_B] found in environment")

	out, _, err := run(t, "get", "--no-dotenv", "--optional", "CLI_A", "CLI_B")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGetOptionalStillReportsParseErrors(t *testing.T) {
	t.Setenv("CLI_TIMEOUT", "soon")

	_, _, err := run(t, "get", "--no-dotenv", "--optional", "-t", "duration", "CLI_TIMEOUT")
	var parseErr *envcascade.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "CLI_TIMEOUT", parseErr.Key)
}

func TestGetFormatsTypes(t *testing.T) {
	cases := []struct {
		typ   string
		value string
		want  string
	}{
		{"bool", "yes", "true"},
		{"duration", "90s", "1m30s"},
		{"datetime", "2024-03-15T10:30:00+05:00", "2024-03-15T05:30:00Z"},
		{"date", "03/15/2024", "2024-03-15"},
		{"time", "10:30", "10:30:00"},
		{"url", "https://example.com/a", "https://example.com/a"},
		{"ip", "10.0.0.1", "10.0.0.1"},
		{"decimal", "19.990", "19.99"},
		{"quantity", "1024Mi", "1Gi"},
		{"level", "warning", "WARN"},
		{"uuid", "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
	}

	for _, c := range cases {
		t.Run(c.typ, func(t *testing.T) {
			t.Setenv("CLI_VALUE", c.value)

			out, _, err := run(t, "get", "--no-dotenv", "--type", c.typ, "CLI_VALUE")
			require.NoError(t, err)
			assert.Equal(t, c.want+"\n", out)
		})
	}
}

func TestGetList(t *testing.T) {
	t.Setenv("CLI_PORTS", "80, 443 ,8080")

	out, _, err := run(t, "get", "--no-dotenv", "--list", "--type", "int", "CLI_PORTS")
	require.NoError(t, err)
	assert.Equal(t, "80,443,8080\n", out)

	t.Setenv("CLI_PORTS", "80,https")
	_, _, err = run(t, "get", "--no-dotenv", "--list", "--type", "int", "CLI_PORTS")
	var elemErr *envcascade.ListElementError
	require.ErrorAs(t, err, &elemErr)
	assert.Equal(t, 1, elemErr.Index)
}

func TestGetUnknownType(t *testing.T) {
	_, _, err := run(t, "get", "--no-dotenv", "--type", "complex128", "X")
	assert.ErrorContains(t, err, `unknown type "complex128"`)
}

func TestGetLoadsEnvFile(t *testing.T) {
	unsetenv(t, "CLI_FROM_FILE")
	t.Setenv("CLI_PRESET", "env")
	path := writeFile(t, "app.env", "CLI_FROM_FILE=file\nCLI_PRESET=file\n")

	out, _, err := run(t, "get", "--env-file", path, "CLI_FROM_FILE")
	require.NoError(t, err)
	assert.Equal(t, "file\n", out)

	out, _, err = run(t, "get", "--env-file", path, "CLI_PRESET")
	require.NoError(t, err)
	assert.Equal(t, "env\n", out)

	out, _, err = run(t, "get", "--env-file", path, "--override", "CLI_PRESET")
	require.NoError(t, err)
	assert.Equal(t, "file\n", out)
}

func TestGetLoadsDotenvPath(t *testing.T) {
	unsetenv(t, "CLI_DOTENV_VALUE")
	t.Setenv(envcascade.DotenvPathKey, writeFile(t, ".env", "export CLI_DOTENV_VALUE=42\n"))

	out, _, err := run(t, "get", "-t", "int", "CLI_DOTENV_VALUE")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestGetMissingEnvFile(t *testing.T) {
	_, _, err := run(t, "get", "--env-file", filepath.Join(t.TempDir(), "missing.env"), "X")

	var loadErr *envcascade.DotenvLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestVerboseLogsDotenvActivity(t *testing.T) {
	t.Cleanup(func() { envcascade.SetLogger(nil) })
	unsetenv(t, "CLI_VERBOSE")
	path := writeFile(t, "v.env", "CLI_VERBOSE=1\n")

	_, stderr, err := run(t, "-v", "get", "--env-file", path, "CLI_VERBOSE")
	require.NoError(t, err)
	assert.Contains(t, stderr, "loaded dotenv")
}

func TestCheck(t *testing.T) {
	good := writeFile(t, "good.env", "# comment\nA=1\nexport B=\"two\"\n")
	bad := writeFile(t, "bad.env", "A=1\n=2\n")

	out, _, err := run(t, "check", good)
	require.NoError(t, err)
	assert.Equal(t, "valid: "+good+" (2 entries)\n", out)

	out, _, err = run(t, "check", "--keys", good)
	require.NoError(t, err)
	assert.Contains(t, out, "   2  A\n")
	assert.Contains(t, out, "   3  B\n")

	out, stderr, err := run(t, "check", good, bad)
	assert.EqualError(t, err, "1 of 2 files failed validation")
	assert.Contains(t, out, good)
	assert.Contains(t, stderr, "invalid: "+bad+":2: empty key")
}

func TestExport(t *testing.T) {
	t.Setenv("CLI_EXPORT_A", "alpha")
	t.Setenv("CLI_EXPORT_N", "7")
	unsetenv(t, "CLI_EXPORT_MISSING")
	path := filepath.Join(t.TempDir(), "out.env")

	out, _, err := run(t, "export", "--no-dotenv", "-o", path, "CLI_EXPORT_A", "CLI_EXPORT_N", "CLI_EXPORT_MISSING")
	require.NoError(t, err)
	assert.Equal(t, "exported to "+path+"\n", out)

	got, err := envcascade.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"CLI_EXPORT_A": "alpha", "CLI_EXPORT_N": "7"}, got)
}

func TestExportFileFromEnvironment(t *testing.T) {
	t.Setenv("CLI_EXPORT_A", "alpha")
	path := filepath.Join(t.TempDir(), "from-env.env")
	t.Setenv("ENVCASCADE_EXPORT_FILE", path)

	_, _, err := run(t, "export", "--no-dotenv", "CLI_EXPORT_A")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-fe/api"
	"github.com/momentics/hioload-fe/client"
)

func TestReadCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmds.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"method":"a"},{"id":"x","method":"b","params":{"k":1}}]`), 0o600))

	cmds, err := readCommands(nil, path)
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "a", cmds[0].Method)
	assert.Equal(t, "x", cmds[1].ID)
	assert.JSONEq(t, `{"k":1}`, string(cmds[1].Params))

	cmds, err = readCommands(strings.NewReader(`[{"method":"s"}]`), "-")
	require.NoError(t, err)
	assert.Equal(t, "s", cmds[0].Method)

	_, err = readCommands(strings.NewReader(`{"method":"s"}`), "-")
	assert.Error(t, err)
	_, err = readCommands(strings.NewReader(`[{"id":"1"}]`), "-")
	assert.ErrorContains(t, err, "no method")
}

func TestWriteReplies(t *testing.T) {
	var out bytes.Buffer
	err := writeReplies(&out, []client.Reply{
		{ID: "1", Result: api.Result{Payload: json.RawMessage(`{"ok":true}`), HTTPRequestID: "h"}},
		{ID: "2", Result: api.Result{Payload: json.RawMessage(`null`)}},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"id":"1","http_request_id":"h","result":{"ok":true}}`, lines[0])
	assert.JSONEq(t, `{"id":"2","result":null}`, lines[1])
}

func TestCallRejectsInvalidParams(t *testing.T) {
	rootCmd.SetArgs([]string{"call", "m", "{bad"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "not valid JSON")
}

// setFlags assigns the flag variables for one test and reports the named
// flags as changed.
func setFlags(t *testing.T, file string, set map[string]any) func(string) bool {
	t.Helper()
	saved := []any{cfgFile, endpoint, port, useTLS, auth, verbose}
	t.Cleanup(func() {
		cfgFile = saved[0].(string)
		endpoint = saved[1].(string)
		port = saved[2].(int)
		useTLS = saved[3].(bool)
		auth = saved[4].(string)
		verbose = saved[5].(bool)
	})
	cfgFile = file
	for name, v := range set {
		switch name {
		case "endpoint":
			endpoint = v.(string)
		case "port":
			port = v.(int)
		case "tls":
			useTLS = v.(bool)
		case "auth":
			auth = v.(string)
		}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fe.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigTLSFlagPicksTLSPort(t *testing.T) {
	changed := setFlags(t, writeConfig(t, "endpoint = \"h\"\ntls = false\n"), map[string]any{"tls": true})
	cfg, err := loadConfig(changed)
	require.NoError(t, err)
	assert.True(t, cfg.TLS)
	assert.Equal(t, 443, cfg.Port)
}

func TestLoadConfigKeepsExplicitPort(t *testing.T) {
	changed := setFlags(t, writeConfig(t, "endpoint = \"h\"\nport = 8080\n"), map[string]any{"tls": true})
	cfg, err := loadConfig(changed)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)

	changed = setFlags(t, "", map[string]any{"endpoint": "h", "port": 9000, "auth": "tok"})
	cfg, err = loadConfig(changed)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "tok", cfg.Auth)
}

func TestLoadConfigEndpointFromFlag(t *testing.T) {
	changed := setFlags(t, writeConfig(t, "compression = true\n"), map[string]any{"endpoint": "api.example.org"})
	cfg, err := loadConfig(changed)
	require.NoError(t, err)
	assert.Equal(t, "api.example.org", cfg.Endpoint)
	assert.Equal(t, 80, cfg.Port)
	assert.True(t, cfg.Compression)

	_, err = loadConfig(setFlags(t, writeConfig(t, "compression = true\n"), nil))
	assert.Error(t, err)
}

func TestBuildCommandParams(t *testing.T) {
	c, err := buildCommand([]string{"m"}, "")
	require.NoError(t, err)
	assert.Nil(t, c.Params)

	c, err = buildCommand([]string{"m", `{"a":1}`}, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(c.Params))

	// {"a":1}
	c, err = buildCommand([]string{"m"}, "0x7b2261223a317d")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(c.Params))

	_, err = buildCommand([]string{"m"}, "0xzz")
	assert.ErrorContains(t, err, "--params-hex")
	_, err = buildCommand([]string{"m"}, "7b")
	assert.ErrorContains(t, err, "not valid JSON")
	_, err = buildCommand([]string{"m", "{}"}, "7b7d")
	assert.Error(t, err)
}

func TestDumpMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "fe_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	var out bytes.Buffer
	require.NoError(t, dumpMetrics(&out, reg))
	assert.Contains(t, out.String(), "fe_test_total 3")
}

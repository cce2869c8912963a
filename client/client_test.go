//go:build linux

package client_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-fe/api"
	"github.com/momentics/hioload-fe/client"
	"github.com/momentics/hioload-fe/connection"
	"github.com/momentics/hioload-fe/control"
)

// echoHandler answers a batch with one element per command and the ids in
// x-jsonrequestid, or a single command with a single object.
func echoHandler(withIDs bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var cmds []client.Command
		if err := json.Unmarshal(raw, &cmds); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ids := make([]string, len(cmds))
		out := make([]map[string]string, len(cmds))
		for i, c := range cmds {
			ids[i] = c.ID
			out[i] = map[string]string{"method": c.Method, "auth": r.Header.Get("X-Auth")}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-HttpRequestId", "req")
		if withIDs {
			w.Header().Set("X-JsonRequestId", strings.Join(ids, ","))
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

func newClient(t *testing.T, srvURL string, mutate func(*control.Config), opts ...client.Option) *client.Client {
	t.Helper()
	u, err := url.Parse(srvURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg := &control.Config{Endpoint: u.Hostname(), Port: port, Auth: "secret"}
	if mutate != nil {
		mutate(cfg)
	}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	sig := control.NewSignal()
	watchdog := time.AfterFunc(5*time.Second, sig.Cancel)
	t.Cleanup(func() { watchdog.Stop() })

	opts = append([]client.Option{
		client.WithSignal(sig),
		client.WithConnectionOptions(connection.WithPollInterval(10 * time.Millisecond)),
	}, opts...)
	c, err := client.New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown() })
	return c
}

func commands(methods ...string) []client.Command {
	out := make([]client.Command, len(methods))
	for i, m := range methods {
		out[i] = client.Command{Method: m}
	}
	return out
}

func TestCallCorrelatesBatches(t *testing.T) {
	srv := httptest.NewServer(echoHandler(true))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	probes := control.NewDebugProbes()
	c := newClient(t, srv.URL, func(cfg *control.Config) {
		cfg.Batch.MaxCount = 2
		cfg.Metrics.Enabled = true
	}, client.WithRegisterer(reg), client.WithProbes(probes))

	cmds := commands("a", "b", "c", "d", "e")
	replies, err := c.Call(cmds)
	require.NoError(t, err)
	require.Len(t, replies, 5)

	for i, r := range replies {
		_, err := uuid.Parse(r.ID)
		assert.NoError(t, err)
		assert.Equal(t, cmds[i].ID, r.ID)
		assert.Equal(t, r.ID, r.Result.JSONRequestID)
		assert.Equal(t, "req", r.Result.HTTPRequestID)

		var body map[string]string
		require.NoError(t, json.Unmarshal(r.Result.Payload, &body))
		assert.Equal(t, cmds[i].Method, body["method"])
		assert.Equal(t, "secret", body["auth"])
	}

	stats := c.Stats()
	assert.EqualValues(t, 3, stats.Frames)
	assert.EqualValues(t, 5, stats.Results)
	assert.Equal(t, "connected", probes.DumpState()["connection.state"])

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "fe_results_total")
	assert.Empty(t, c.Unsolicited())

	// The connection is reused.
	replies, err = c.Call(commands("f"))
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.EqualValues(t, 4, c.Stats().Frames)
}

func TestCallWithoutIDsAnswersInOrder(t *testing.T) {
	srv := httptest.NewServer(echoHandler(false))
	defer srv.Close()

	c := newClient(t, srv.URL, nil)
	cmds := []client.Command{{ID: "one", Method: "x"}, {ID: "two", Method: "y"}}
	replies, err := c.Call(cmds)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "one", replies[0].ID)
	assert.Equal(t, "two", replies[1].ID)
	assert.Contains(t, string(replies[1].Result.Payload), `"y"`)
}

func TestCallUnsolicited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-JsonRequestId", "stranger,"+extractID(t, r))
		_, _ = w.Write([]byte(`[{"who":"stranger"},{"who":"mine"}]`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, nil)
	replies, err := c.Call(commands("m"))
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.JSONEq(t, `{"who":"mine"}`, string(replies[0].Result.Payload))

	extra := c.Unsolicited()
	require.Len(t, extra, 1)
	assert.Equal(t, "stranger", extra[0].JSONRequestID)
}

func extractID(t *testing.T, r *http.Request) string {
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r.Body)
	var cmds []client.Command
	if err := json.Unmarshal(buf.Bytes(), &cmds); err != nil || len(cmds) == 0 {
		t.Errorf("bad request body %q", buf.String())
		return ""
	}
	return cmds[0].ID
}

func TestCallServerOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, nil)
	replies, err := c.Call(commands("a"))
	assert.ErrorIs(t, err, api.ErrServerOffline)
	assert.Empty(t, replies)
	assert.Equal(t, api.StateDisconnected, c.Stats().State)
}

func TestCallCancelled(t *testing.T) {
	srv := httptest.NewServer(echoHandler(true))
	defer srv.Close()

	c := newClient(t, srv.URL, nil)
	c.Signal().Cancel()
	_, err := c.Call(commands("a"))
	assert.ErrorIs(t, err, api.ErrCancelled)
}

func TestCallEmpty(t *testing.T) {
	c := newClient(t, "http://127.0.0.1:1", nil)
	replies, err := c.Call(nil)
	assert.NoError(t, err)
	assert.Nil(t, replies)
}

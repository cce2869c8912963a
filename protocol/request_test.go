package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-fe/api"
	"github.com/momentics/hioload-fe/protocol"
)

func TestRequestPreamble(t *testing.T) {
	w, err := protocol.NewRequestWriter("api.example.org", 443, "fe-test/2", true)
	require.NoError(t, err)

	payload := []byte(`{"cmd":1}`)
	pre, err := w.Preamble(len(payload), "secret")
	require.NoError(t, err)
	out := append(pre, payload...)
	want := "POST / HTTP/1.1\r\n" +
		"Host: api.example.org:443\r\n" +
		"User-Agent: fe-test/2\r\n" +
		"Accept: */*\r\n" +
		"Connection: Keep-Alive\r\n" +
		"Content-Type: application/json;charset=utf-8\r\n" +
		"Accept-Encoding: deflate\r\n" +
		"X-Auth: secret\r\n" +
		"Content-Length: 9\r\n" +
		"\r\n" +
		`{"cmd":1}`
	assert.Equal(t, want, string(out))
}

func TestRequestPreambleOptionalHeaders(t *testing.T) {
	w, err := protocol.NewRequestWriter("h", 80, "", false)
	require.NoError(t, err)

	pre, err := w.Preamble(0, "")
	require.NoError(t, err)
	s := string(pre)
	assert.NotContains(t, s, "Accept-Encoding")
	assert.NotContains(t, s, "X-Auth")
	assert.Contains(t, s, "User-Agent: "+protocol.DefaultUserAgent+"\r\n")
	assert.Contains(t, s, "Content-Length: 0\r\n\r\n")
}

func TestRequestPreambleLatin1(t *testing.T) {
	w, err := protocol.NewRequestWriter("h", 80, "", false)
	require.NoError(t, err)

	pre, err := w.Preamble(2, "pässwort")
	require.NoError(t, err)
	assert.Contains(t, string(pre), "X-Auth: p\xe4sswort\r\n")

	_, err = w.Preamble(2, "токен")
	assert.ErrorIs(t, err, api.ErrRequestHeader)
}

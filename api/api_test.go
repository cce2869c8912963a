package api_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/momentics/hioload-fe/api"
)

func TestTransportInterfaceCompliance(t *testing.T) {
	var _ api.Transport = (*mockTransport)(nil)
	var _ api.Handshaker = (*mockTransport)(nil)
}

type mockTransport struct{}

func (*mockTransport) Fd() int                    { return -1 }
func (*mockTransport) Recv([]byte) (int, error)   { return 0, io.EOF }
func (*mockTransport) Send([][]byte) (int, error) { return 0, api.ErrWouldBlock }
func (*mockTransport) Pending() bool              { return false }
func (*mockTransport) Close() error               { return nil }
func (*mockTransport) Handshake() error           { return api.ErrWantRead }

func TestErrorUnwrapAndKind(t *testing.T) {
	err := api.NewError(api.KindProtocol, api.ErrServerOffline, "Server offline").
		WithContext("status", 503)
	wrapped := fmt.Errorf("call: %w", err)

	if !errors.Is(wrapped, api.ErrServerOffline) {
		t.Fatal("sentinel not reachable through wrapping")
	}
	if api.KindOf(wrapped) != api.KindProtocol {
		t.Fatalf("kind = %v", api.KindOf(wrapped))
	}
	if !strings.Contains(err.Error(), "Server offline") || !strings.Contains(err.Error(), "status:503") {
		t.Fatalf("message = %q", err.Error())
	}
	if api.KindOf(api.ErrCancelled) != 0 {
		t.Fatal("cancellation must not carry a kind")
	}
}

func TestErrorMessageFallsBackToCause(t *testing.T) {
	err := api.NewError(api.KindTimeout, api.ErrDataTimeout, "")
	if err.Error() != api.ErrDataTimeout.Error() {
		t.Fatalf("message = %q", err.Error())
	}
	e := api.Errorf(api.KindConnection, api.ErrRefused, "Connection failed: %d", 111)
	if e.Error() != "Connection failed: 111" {
		t.Fatalf("message = %q", e.Error())
	}
}

func TestIsTemporary(t *testing.T) {
	for _, err := range []error{api.ErrWouldBlock, api.ErrWantRead, fmt.Errorf("x: %w", api.ErrWantWrite)} {
		if !api.IsTemporary(err) {
			t.Errorf("%v should be temporary", err)
		}
	}
	if api.IsTemporary(api.ErrBroken) || api.IsTemporary(io.EOF) {
		t.Error("terminal errors reported as temporary")
	}
}

func TestStrings(t *testing.T) {
	if api.StateConnecting.String() != "connecting" || api.State(9).String() != "unknown" {
		t.Error("state names")
	}
	if api.KindTLS.String() != "tls" || api.ErrorKind(0).String() != "unknown" {
		t.Error("kind names")
	}
}

func TestResultHandlerFunc(t *testing.T) {
	var got api.Result
	h := api.ResultHandlerFunc(func(r api.Result) { got = r })
	h.HandleResult(api.Result{JSONRequestID: "7"})
	if got.JSONRequestID != "7" {
		t.Fatal("handler not called")
	}
}

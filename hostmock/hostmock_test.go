package hostmock

import (
	"bytes"
	"errors"
	"testing"
)

var errMock = errors.New("mock error")

func TestHostMock(t *testing.T) {
	tt := []struct {
		name       string
		cfg        Config
		namespace  string
		capability string
		function   string
		payload    []byte
		want       []byte
		wantErr    error
	}{
		{
			name: "scripted response",
			cfg: Config{
				ExpectedNamespace:  "tarmac",
				ExpectedCapability: "logging",
				ExpectedFunction:   "Info",
				Response:           func() []byte { return []byte("ok") },
			},
			namespace:  "tarmac",
			capability: "logging",
			function:   "Info",
			payload:    []byte("hello"),
			want:       []byte("ok"),
		},
		{
			name:       "custom failure",
			cfg:        Config{Fail: true, Error: errMock},
			namespace:  "tarmac",
			capability: "logging",
			function:   "Info",
			wantErr:    errMock,
		},
		{
			name:       "default failure",
			cfg:        Config{Fail: true},
			namespace:  "tarmac",
			capability: "logging",
			function:   "Info",
			wantErr:    ErrOperationFailed,
		},
		{
			name:       "wildcard routing",
			cfg:        Config{},
			namespace:  "anything",
			capability: "goes",
			function:   "here",
		},
		{
			name:       "unexpected namespace",
			cfg:        Config{ExpectedNamespace: "tarmac"},
			namespace:  "other",
			capability: "kvstore",
			function:   "get",
			wantErr:    ErrUnexpectedNamespace,
		},
		{
			name:       "unexpected capability",
			cfg:        Config{ExpectedCapability: "kvstore"},
			namespace:  "tarmac",
			capability: "metrics",
			function:   "get",
			wantErr:    ErrUnexpectedCapability,
		},
		{
			name:       "unexpected function",
			cfg:        Config{ExpectedFunction: "get"},
			namespace:  "tarmac",
			capability: "kvstore",
			function:   "set",
			wantErr:    ErrUnexpectedFunction,
		},
		{
			name: "payload rejected",
			cfg: Config{
				PayloadValidator: func(p []byte) error {
					if string(p) != "valid" {
						return errMock
					}
					return nil
				},
				Response: func() []byte { return []byte("ok") },
			},
			payload: []byte("invalid"),
			wantErr: errMock,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			m, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			got, err := m.HostCall(tc.namespace, tc.capability, tc.function, tc.payload)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}

			if !bytes.Equal(got, tc.want) {
				t.Fatalf("expected response %q, got %q", tc.want, got)
			}

			if len(m.Calls) != 1 {
				t.Fatalf("expected 1 recorded call, got %d", len(m.Calls))
			}
		})
	}
}

func TestHostMockRecordsCalls(t *testing.T) {
	m, err := New(Config{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	payload := []byte("first")
	_, _ = m.HostCall("tarmac", "logging", "Info", payload)
	_, _ = m.HostCall("tarmac", "metrics", "counter", []byte("second"))

	// the recorded payload must not alias the caller's buffer
	payload[0] = 'F'

	if len(m.Calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(m.Calls))
	}

	first := m.Calls[0]
	if first.Namespace != "tarmac" || first.Capability != "logging" || first.Function != "Info" {
		t.Fatalf("unexpected routing for first call: %+v", first)
	}
	if string(first.Payload) != "first" {
		t.Fatalf("expected payload %q, got %q", "first", first.Payload)
	}

	if m.Calls[1].Capability != "metrics" {
		t.Fatalf("expected second call to metrics, got %q", m.Calls[1].Capability)
	}

	m.Reset()
	if len(m.Calls) != 0 {
		t.Fatalf("expected no calls after Reset, got %d", len(m.Calls))
	}
}

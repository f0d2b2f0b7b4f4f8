/*
Package hostmock provides a pretend waPC host for tests.

It stands in for the Tarmac, browser or Node host when you want to check what a
capability client sends across the guest boundary without running a real host.

	m, _ := hostmock.New(hostmock.Config{
	  ExpectedNamespace:  "tarmac",
	  ExpectedCapability: "kvstore",
	  ExpectedFunction:   "get",
	  Response: func() []byte { return encodedResponse },
	})

	client, _ := kv.New(kv.Config{HostCall: m.HostCall})

Behavior

  - If Fail is true and Error is set, HostCall returns that error.
  - If Fail is true and Error is nil, HostCall returns ErrOperationFailed.
  - Otherwise HostCall enforces the Expected* fields that are set, runs
    PayloadValidator, and returns Response (or nil).
  - Every call is appended to Calls, so tests can assert how many host calls
    were made and with what payload.
*/
package hostmock

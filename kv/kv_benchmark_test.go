package kv

import (
	"testing"

	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/kvstore"
	sam "github.com/tarmac-project/sam"
	"github.com/tarmac-project/sam/hostmock"
)

func BenchmarkKVClient(b *testing.B) {
	const namespace = "benchmark"
	const key = "embeddings:sam_base:0123456789abcdef"

	value := make([]byte, 64*1024)

	newClient := func(b *testing.B, function string, response func() []byte) (*Client, *hostmock.Mock) {
		b.Helper()

		m, err := hostmock.New(hostmock.Config{
			ExpectedNamespace:  namespace,
			ExpectedCapability: capabilityName,
			ExpectedFunction:   function,
			Response:           response,
		})
		if err != nil {
			b.Fatalf("hostmock: %v", err)
		}
		c, err := New(Config{SDKConfig: sam.RuntimeConfig{Namespace: namespace}, HostCall: m.HostCall})
		if err != nil {
			b.Fatalf("client: %v", err)
		}
		return c, m
	}

	// Pre-marshal a happy-path GET response
	getResp, _ := (&proto.KVStoreGetResponse{
		Status: &sdkproto.Status{Status: "OK", Code: 200},
		Data:   value,
	}).MarshalVT()
	clientGet, mockGet := newClient(b, fnGet, func() []byte { return getResp })

	b.Run("Get", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for range b.N {
			if _, err := clientGet.Get(key); err != nil {
				b.Fatalf("Get failed: %v", err)
			}
			mockGet.Reset()
		}
	})

	// Pre-marshal a happy-path SET response
	setResp, _ := (&proto.KVStoreSetResponse{Status: &sdkproto.Status{Status: "OK", Code: 200}}).MarshalVT()
	clientSet, mockSet := newClient(b, fnSet, func() []byte { return setResp })

	b.Run("Set", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for range b.N {
			if err := clientSet.Set(key, value); err != nil {
				b.Fatalf("Set failed: %v", err)
			}
			mockSet.Reset()
		}
	})

	// Pre-marshal a happy-path DELETE response
	delResp, _ := (&proto.KVStoreDeleteResponse{Status: &sdkproto.Status{Status: "OK", Code: 200}}).MarshalVT()
	clientDel, mockDel := newClient(b, fnDelete, func() []byte { return delResp })

	b.Run("Delete", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for range b.N {
			if err := clientDel.Delete(key); err != nil {
				b.Fatalf("Delete failed: %v", err)
			}
			mockDel.Reset()
		}
	})
}

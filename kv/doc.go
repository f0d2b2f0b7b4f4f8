/*
Package kv is a client for the host key-value capability.

Requests are encoded with the kvstore protobufs and forwarded with waPC. The
worker uses it to keep image embeddings between requests, since the guest
itself may be re-instantiated by the host at any time.

Tests can inject host behaviour with Config.HostCall, or replace the whole
client with kv/mock.
*/
package kv

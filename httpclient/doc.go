/*
Package httpclient fetches remote resources from a guest through the host's
httpclient capability.

The guest cannot open sockets itself, so Get encodes the request as a
protobuf HTTPClient message, hands it to the host with waPC and converts the
host's HTTPClientResponse back into a Response. The worker uses it to pull model
weights and source images.
*/
package httpclient

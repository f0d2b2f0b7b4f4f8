/*
Package sam is the entry point of a segment-anything WebAssembly guest.

New registers the guest handler with waPC so a browser, Node or Tarmac host can
drive segmentation requests. RuntimeConfig is shared by the capability clients
(console, httpclient, kv, metrics); DefaultNamespace is used when a namespace is
not provided.

The model type and its input dimension are re-exported from the segment package
as Sam and ImageSize, so consumers can depend on this package alone.
*/
package sam

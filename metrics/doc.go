/*
Package metrics records the guest's segmentation metrics through the Tarmac
host metrics capability.

A Recorder exposes one method per event the worker cares about (model loads,
embeddings computed or recalled from cache, failed requests, mask decode time).
Each call becomes a MetricsCounter or MetricsHistogram payload sent over waPC.
Emission follows Prometheus-style ergonomics and never returns errors.
*/
package metrics

/*
Package console lets guest code write log lines to the embedding host.

Log and Logf forward a single line to the host console sink: console.log when
the guest runs under GOOS=js, the waPC console import everywhere else. Logf
builds the line with fmt.Sprintf only when it is called, and nothing is ever
written unless one of these functions is called.

The leveled methods (Info, Warn, Error, Debug, Trace) go through the host
logging capability instead, so a Tarmac host can route them to its own logger.

	console.Logf("loaded %d bytes", 1024) // host sink receives "loaded 1024 bytes"

Tests swap the sink with Config.Sink, or the package default with SetDefault.
*/
package console

//go:build js && wasm

package console

import "syscall/js"

func defaultSink() Sink {
	c := js.Global().Get("console")
	return func(message string) {
		c.Call("log", message)
	}
}

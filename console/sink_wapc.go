//go:build !js

package console

import wapc "github.com/wapc/wapc-guest-tinygo"

func defaultSink() Sink { return wapc.ConsoleLog }

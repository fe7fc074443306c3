package otel

import (
	"os"
	"strings"
	"sync/atomic"
)

var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(traceSetting(os.Getenv("GALLERY_TRACE")))
}

// traceSetting parses GALLERY_TRACE. Empty, "0", "false", "off" and "no" disable
// tracing; anything else enables it.
func traceSetting(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// TraceEnabled reports whether the UI should emit a trace.msg_received event
// for every message it handles.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}

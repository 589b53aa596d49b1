//go:build windows

package signals

import "os"

// Windows has no hangup or job-control signals. The Go runtime maps
// CTRL_BREAK_EVENT and console-close events to os.Interrupt, which is the
// only way to ask the process to stop.
var (
	hangupSignals        []os.Signal
	terminateSignals     = []os.Signal{os.Interrupt}
	ignoredSignals       []os.Signal
	ignoredUnlessIgnored []os.Signal
)

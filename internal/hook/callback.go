package hook

import "sync/atomic"

// The OS invokes hook procedures without any caller-supplied context, so
// the platform callbacks reach the currently installed instances through
// these process-wide slots. At most one watcher and one forwarder can be
// active per process; the slots are written only inside install/uninstall
// transitions and read on every hook event.
var (
	activeWatcher   atomic.Pointer[Watcher]
	activeForwarder atomic.Pointer[Forwarder]
)

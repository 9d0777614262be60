// Package hook implements the global input interception subsystem: the
// lifecycle management of OS-level low-level input hooks and the two
// concrete hooks the overlay needs.
//
// A low-level hook lets the process observe (and optionally swallow)
// system-wide input before it reaches any window. The OS delivers hook
// callbacks on the thread that registered the hook, and that thread must
// keep running a message pump for the hook to stay alive. Each Manager
// therefore owns one dedicated pump goroutine pinned to an OS thread; the
// controlling goroutine installs and uninstalls the hook across that
// thread boundary through a one-shot handshake channel.
//
// Two hooks are provided:
//
//   - Watcher observes the panic/unlock key (bare Escape by default) and
//     notifies a Sink on every press. Key events are never consumed, so
//     the key keeps working for every other application.
//
//   - Forwarder re-injects scroll-wheel input into the overlay window
//     while the overlay is click-through. Scroll events over the window
//     are consumed from the hook chain and posted directly to the
//     window's own message queue; everything else passes through.
//
// Install and uninstall are idempotent and safe to call concurrently.
// Hook callbacks read their shared context (sink, target window) through
// short read locks, never through the install lock, so a callback can
// never block on an in-flight install or uninstall transition.
package hook

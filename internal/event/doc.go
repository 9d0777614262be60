// Package event provides the application event bus.
//
// The bus routes events by hierarchical dot-separated topics
// (e.g. "overlay.emergency-unlock") to registered subscriptions. A topic
// pattern may end with a "*" segment to match any suffix. Delivery is
// synchronous by default; subscriptions created with WithAsync receive
// events from a worker pool so publishers are never blocked by slow
// handlers. Handler panics are recovered and counted, never propagated.
//
// The bus exists so that components with no direct reference to one
// another (in particular the OS-level input hooks and the overlay
// controller) can communicate without coupling: the keyboard escape
// watcher publishes a single parameterless notification here, and the
// controller reacts to it.
package event

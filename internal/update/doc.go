// Package update checks GitHub releases for a newer build, downloads the
// installer asset, and launches it. The caller decides when to check and
// whether to apply; nothing here runs on a schedule.
package update

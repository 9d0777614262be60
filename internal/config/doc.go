// Package config manages the overlay's settings file.
//
// Settings live in a single JSON document at
// %APPDATA%\ScreenPrompt\config.json (the user config dir elsewhere).
// Loading merges the saved document over the built-in defaults so a file
// written by an older release keeps working, and keys this build does
// not know about survive a round trip untouched.
//
// The Watcher delivers live-reload notifications when the file changes
// on disk, so an external edit takes effect without a restart.
package config

// Package winapi wraps the one-shot window calls the overlay needs:
// screen-capture exclusion, click-through toggling, screen metrics,
// keyboard-layout detection, and window lookup. Unlike the hook
// subsystem these carry no lifecycle state; each call stands alone.
package winapi

import "errors"

// Window is an opaque native window handle.
type Window uintptr

// Sentinel errors for the window call layer.
var (
	// ErrUnsupported is returned on platforms without the native window API.
	ErrUnsupported = errors.New("native window calls are not supported on this platform")

	// ErrWindowNotFound is returned when no top-level window matches a title.
	ErrWindowNotFound = errors.New("window not found")
)

// captureExclusionMinBuild is the first Windows 10 build that accepts
// WDA_EXCLUDEFROMCAPTURE (version 2004).
const captureExclusionMinBuild = 19041

// windowLongIndex widens a GetWindowLongW/SetWindowLongW index for the
// syscall boundary. The interesting indexes (GWL_EXSTYLE is -20) are
// negative, and a negative constant cannot be converted to uintptr
// directly; going through uint32 at runtime produces the 32-bit
// two's-complement DWORD the API reads back as the signed index.
func windowLongIndex(i int32) uintptr {
	return uintptr(uint32(i))
}

// buildSupportsCaptureExclusion reports whether the given OS version can
// exclude a window from screen capture.
func buildSupportsCaptureExclusion(major, build uint32) bool {
	if major > 10 {
		return true
	}
	return major == 10 && build >= captureExclusionMinBuild
}

// LocaleFromLangID maps a keyboard-layout language identifier to the
// overlay's two-letter locale. Hungarian layouts select "hu"; everything
// else falls back to "en".
func LocaleFromLangID(langID uint16) string {
	if langID == 0x040E {
		return "hu"
	}
	return "en"
}

//go:build !windows

package winapi

// ApplyCaptureExclusion is unavailable off Windows.
func ApplyCaptureExclusion(Window) error {
	return ErrUnsupported
}

// SetClickThrough is unavailable off Windows.
func SetClickThrough(Window, bool) error {
	return ErrUnsupported
}

// ScreenSize is unavailable off Windows.
func ScreenSize() (int, int, error) {
	return 0, 0, ErrUnsupported
}

// KeyboardLayout falls back to the default locale off Windows.
func KeyboardLayout() string {
	return "en"
}

// SupportsCaptureExclusion is always false off Windows.
func SupportsCaptureExclusion() bool {
	return false
}

// FindWindow is unavailable off Windows.
func FindWindow(string) (Window, error) {
	return 0, ErrUnsupported
}

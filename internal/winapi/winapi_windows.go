//go:build windows

package winapi

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procGetWindowLongW             = user32.NewProc("GetWindowLongW")
	procSetWindowLongW             = user32.NewProc("SetWindowLongW")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procSetWindowDisplayAffinity   = user32.NewProc("SetWindowDisplayAffinity")
	procGetSystemMetrics           = user32.NewProc("GetSystemMetrics")
	procGetKeyboardLayout          = user32.NewProc("GetKeyboardLayout")
	procFindWindowW                = user32.NewProc("FindWindowW")
)

const (
	gwlExStyle = -20

	wsExLayered     = 0x00080000
	wsExTransparent = 0x00000020

	lwaAlpha = 0x02

	wdaExcludeFromCapture = 0x11

	smCxScreen = 0
	smCyScreen = 1
)

func exStyle(w Window) uintptr {
	style, _, _ := procGetWindowLongW.Call(uintptr(w), windowLongIndex(gwlExStyle))
	return style
}

func setExStyle(w Window, style uintptr) error {
	ret, _, callErr := procSetWindowLongW.Call(uintptr(w), windowLongIndex(gwlExStyle), style)
	if ret == 0 {
		if errno, ok := callErr.(windows.Errno); !ok || errno != 0 {
			return fmt.Errorf("SetWindowLongW: %w", callErr)
		}
	}
	return nil
}

// ApplyCaptureExclusion hides the window from screen captures and screen
// sharing. The display affinity call only takes effect on layered
// windows, so the window is first made layered and fully opaque.
func ApplyCaptureExclusion(w Window) error {
	if err := setExStyle(w, exStyle(w)|wsExLayered); err != nil {
		return err
	}
	ret, _, callErr := procSetLayeredWindowAttributes.Call(uintptr(w), 0, 255, lwaAlpha)
	if ret == 0 {
		return fmt.Errorf("SetLayeredWindowAttributes: %w", callErr)
	}
	ret, _, callErr = procSetWindowDisplayAffinity.Call(uintptr(w), wdaExcludeFromCapture)
	if ret == 0 {
		return fmt.Errorf("SetWindowDisplayAffinity: %w", callErr)
	}
	return nil
}

// SetClickThrough toggles whether pointer events fall through the window
// to whatever sits beneath it.
func SetClickThrough(w Window, enabled bool) error {
	style := exStyle(w)
	if enabled {
		style |= wsExTransparent
	} else {
		style &^= wsExTransparent
	}
	return setExStyle(w, style)
}

// ScreenSize returns the primary monitor's dimensions in pixels.
func ScreenSize() (width, height int, err error) {
	cx, _, _ := procGetSystemMetrics.Call(smCxScreen)
	cy, _, _ := procGetSystemMetrics.Call(smCyScreen)
	if cx == 0 || cy == 0 {
		return 0, 0, fmt.Errorf("GetSystemMetrics returned %dx%d", cx, cy)
	}
	return int(cx), int(cy), nil
}

// KeyboardLayout returns the two-letter locale of the foreground thread's
// active keyboard layout.
func KeyboardLayout() string {
	layout, _, _ := procGetKeyboardLayout.Call(0)
	return LocaleFromLangID(uint16(layout & 0xFFFF))
}

// SupportsCaptureExclusion reports whether this OS build can exclude
// windows from screen capture.
func SupportsCaptureExclusion() bool {
	major, _, build := windows.RtlGetNtVersionNumbers()
	// The build number carries flag bits in its high word on some
	// pre-release kernels.
	return buildSupportsCaptureExclusion(major, build&0xFFFF)
}

// FindWindow resolves a top-level window by its exact title.
func FindWindow(title string) (Window, error) {
	p, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, err
	}
	h, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(p)))
	if h == 0 {
		return 0, fmt.Errorf("%q: %w", title, ErrWindowNotFound)
	}
	return Window(h), nil
}

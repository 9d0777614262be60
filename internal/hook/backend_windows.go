//go:build windows

package hook

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procPostMessageW        = user32.NewProc("PostMessageW")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmKeyDown    = 0x0100
	wmMouseWheel = 0x020A
	wmQuit       = 0x0012

	pmNoRemove = 0x0000
)

// kbdllHookStruct mirrors KBDLLHOOKSTRUCT from winuser.h.
type kbdllHookStruct struct {
	VkCode    uint32
	ScanCode  uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// msllHookStruct mirrors MSLLHOOKSTRUCT from winuser.h.
type msllHookStruct struct {
	Pt        Point
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// winMsg mirrors the Win32 MSG struct (tagMSG from winuser.h). The field
// layout must match the Win32 binary layout exactly.
type winMsg struct {
	HWnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       Point
	LPrivate uint32
}

// Hook procedure pointers are created once per process: windows.NewCallback
// allocates from a small fixed pool and the pointers are never released.
var (
	callbackOnce sync.Once
	keyboardProc uintptr
	mouseProc    uintptr
)

func hookProcs() (kb, ms uintptr) {
	callbackOnce.Do(func() {
		keyboardProc = windows.NewCallback(lowLevelKeyboardProc)
		mouseProc = windows.NewCallback(lowLevelMouseProc)
	})
	return keyboardProc, mouseProc
}

// lowLevelKeyboardProc is the process-wide WH_KEYBOARD_LL procedure.
func lowLevelKeyboardProc(nCode int32, wParam, lParam uintptr) uintptr {
	if nCode >= 0 {
		if w := activeWatcher.Load(); w != nil {
			kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			if w.HandleKey(wParam == wmKeyDown, kb.VkCode) {
				return 1
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(int(nCode)), wParam, lParam)
	return ret
}

// lowLevelMouseProc is the process-wide WH_MOUSE_LL procedure.
func lowLevelMouseProc(nCode int32, wParam, lParam uintptr) uintptr {
	if nCode >= 0 && wParam == wmMouseWheel {
		if f := activeForwarder.Load(); f != nil {
			ms := (*msllHookStruct)(unsafe.Pointer(lParam))
			// The wheel rotation delta rides in the high word of mouseData.
			delta := int16(ms.MouseData >> 16)
			if f.HandleWheel(ms.Pt, delta) {
				return 1
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(int(nCode)), wParam, lParam)
	return ret
}

// windowsBackend installs WH_KEYBOARD_LL / WH_MOUSE_LL hooks through
// user32 and pumps messages with GetMessageW.
type windowsBackend struct{}

// NewBackend returns the platform hook backend.
func NewBackend() Backend {
	return windowsBackend{}
}

// Register installs the hook of the given kind on the calling thread.
func (windowsBackend) Register(kind Kind) (Registration, error) {
	kb, ms := hookProcs()

	var id uintptr
	var proc uintptr
	switch kind {
	case Keyboard:
		id, proc = whKeyboardLL, kb
	case Mouse:
		id, proc = whMouseLL, ms
	default:
		return Registration{}, fmt.Errorf("unknown hook kind %d", kind)
	}

	tid := windows.GetCurrentThreadId()

	// Touch the message queue before reporting ready so PostThreadMessageW
	// can deliver WM_QUIT even if uninstall races the first GetMessageW.
	var m winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove)

	h, _, callErr := procSetWindowsHookExW.Call(id, proc, 0, 0)
	if h == 0 {
		return Registration{}, fmt.Errorf("SetWindowsHookExW: %w", callErr)
	}
	return Registration{Handle: Handle(h), Thread: ThreadID(tid), Pump: pumpMessages}, nil
}

// pumpMessages runs the blocking message loop until WM_QUIT arrives.
func pumpMessages() {
	var m winMsg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// 0 means WM_QUIT; ^uintptr(0) is GetMessage's -1 error return.
		if ret == 0 || ret == ^uintptr(0) {
			return
		}
	}
}

// Unhook releases the OS hook object.
func (windowsBackend) Unhook(h Handle) error {
	ret, _, callErr := procUnhookWindowsHookEx.Call(uintptr(h))
	if ret == 0 {
		return fmt.Errorf("UnhookWindowsHookEx: %w", callErr)
	}
	return nil
}

// PostQuit posts WM_QUIT to the given thread's message queue.
func (windowsBackend) PostQuit(tid ThreadID) error {
	ret, _, callErr := procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
	if ret == 0 {
		return fmt.Errorf("PostThreadMessageW: %w", callErr)
	}
	return nil
}

// windowsProber implements WindowProber against user32.
type windowsProber struct{}

// NewWindowProber returns the platform window prober.
func NewWindowProber() WindowProber {
	return windowsProber{}
}

// Rect returns the window's current screen-space bounding rectangle.
func (windowsProber) Rect(w WindowHandle) (Rect, error) {
	var r Rect
	ret, _, callErr := procGetWindowRect.Call(uintptr(w), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return Rect{}, fmt.Errorf("GetWindowRect: %w", callErr)
	}
	return r, nil
}

// PostWheel reconstructs a WM_MOUSEWHEEL message with the rotation delta
// in the wParam high word and the cursor position packed into lParam,
// and posts it to the window's queue.
func (windowsProber) PostWheel(w WindowHandle, delta int16, pt Point) error {
	wp := uintptr(uint32(uint16(delta)) << 16)
	lp := uintptr((uint32(pt.Y)&0xFFFF)<<16 | uint32(pt.X)&0xFFFF)
	ret, _, callErr := procPostMessageW.Call(uintptr(w), wmMouseWheel, wp, lp)
	if ret == 0 {
		return fmt.Errorf("PostMessageW: %w", callErr)
	}
	return nil
}

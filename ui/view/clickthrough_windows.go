//go:build windows

package view

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	gwlExStyle      int32 = -20
	wsExLayered           = 0x00080000
	wsExTransparent       = 0x00000020
	wsExTopmost           = 0x00000008
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW    = user32.NewProc("FindWindowW")
	procGetWindowLongW = user32.NewProc("GetWindowLongW")
	procSetWindowLongW = user32.NewProc("SetWindowLongW")
)

// makeClickThrough marks the window with the given title as layered and
// transparent to mouse input, so overlay icons never steal clicks from the
// application underneath. Titles are unique per icon window.
func makeClickThrough(title string) {
	p, err := syscall.UTF16PtrFromString(title)
	if err != nil {
		return
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(p)))
	if hwnd == 0 {
		return
	}
	idx := uintptr(uint32(gwlExStyle))
	style, _, _ := procGetWindowLongW.Call(hwnd, idx)
	procSetWindowLongW.Call(hwnd, idx, style|wsExLayered|wsExTransparent|wsExTopmost)
}

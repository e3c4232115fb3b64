//go:build windows

package main

import "syscall"

// hideConsoleWindow detaches from the console so the monitor lives only
// in the tray, and hides any window still associated with the process.
func hideConsoleWindow() {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	user32 := syscall.NewLazyDLL("user32.dll")
	freeConsole := kernel32.NewProc("FreeConsole")
	getConsoleWindow := kernel32.NewProc("GetConsoleWindow")
	showWindow := user32.NewProc("ShowWindow")

	_, _, _ = freeConsole.Call()

	hwnd, _, _ := getConsoleWindow.Call()
	if hwnd != 0 {
		const SW_HIDE = 0
		showWindow.Call(hwnd, uintptr(SW_HIDE))
	}
}

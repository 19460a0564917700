//go:build !windows

package view

// makeClickThrough is a no-op outside Windows; Tk offers no portable way to
// forward mouse input through a toplevel.
func makeClickThrough(string) {}

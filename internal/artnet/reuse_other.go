// SPDX-License-Identifier: MIT

//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package artnet

import "syscall"

// reuseControl is a no-op where reuse options are not portable; the listener
// falls back to an exclusive bind.
func reuseControl(_, _ string, _ syscall.RawConn) error {
	return nil
}

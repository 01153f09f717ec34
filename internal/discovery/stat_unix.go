//go:build unix

package discovery

import (
	"io/fs"
	"syscall"
)

// statKey extracts the device+inode pair used to detect symlink re-entry.
func statKey(info fs.FileInfo) (visitKey, bool) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return visitKey{}, false
	}
	return visitKey{dev: uint64(sys.Dev), ino: sys.Ino}, true
}

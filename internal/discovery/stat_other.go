//go:build !unix

package discovery

import "io/fs"

// statKey has no portable device+inode representation outside unix; the
// symlink re-entry guard is simply disabled.
func statKey(info fs.FileInfo) (visitKey, bool) {
	return visitKey{}, false
}

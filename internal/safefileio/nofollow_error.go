package safefileio

import (
	"errors"
	"os"
	"syscall"
)

// isNoFollowError reports whether an open with O_NOFOLLOW failed because the
// final path component is a symlink. Linux returns ELOOP, FreeBSD EMLINK.
func isNoFollowError(err error) bool {
	var e *os.PathError
	if !errors.As(err, &e) {
		return false
	}
	return errors.Is(e.Err, syscall.ELOOP) || errors.Is(e.Err, syscall.EMLINK)
}

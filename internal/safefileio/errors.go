package safefileio

import "errors"

var (
	// ErrInvalidFilePath indicates that the specified file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrIsSymlink indicates that the specified path is a symbolic link, which is not allowed.
	ErrIsSymlink = errors.New("path is a symbolic link")

	// ErrNotRegularFile indicates the path names a directory, device, FIFO or socket.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrFileTooLarge indicates a file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
)

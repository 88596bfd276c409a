package post

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid post input")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrInvalidUpload   = errors.New("invalid upload")
	ErrInvalidGame     = errors.New("invalid game")
	ErrPostNotFound    = errors.New("post not found")
	// ErrUploadConsumed means another request consumed the same upload first.
	ErrUploadConsumed = errors.New("upload already consumed")
	// ErrStoredObjectMissing is returned by storage when an upload's bytes never arrived.
	ErrStoredObjectMissing = errors.New("stored object not found")
)

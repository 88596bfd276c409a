package uploadclient

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// MinDimension is the smallest accepted width and height in pixels.
const MinDimension = 720

var (
	ErrImageTooSmall = errors.New("image must be at least 720 by 720 pixels")
	ErrImageDecode   = errors.New("file is not a decodable jpeg or png image")
)

// Status tracks an entry through the pipeline.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusUploaded  Status = "uploaded"
	StatusError     Status = "error"
)

// Entry is one local image moving through validation and upload.
type Entry struct {
	Path        string
	FileName    string
	FileSize    int64
	ContentType string
	Width       int
	Height      int

	UploadID string
	Status   Status
	Progress int
	Err      error
}

// Inspect reads the image header at path and checks its dimensions. The
// returned entry is pending upload.
func Inspect(path string) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind %s: %w", path, err)
	}

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if cfg.Width < MinDimension || cfg.Height < MinDimension {
		return nil, fmt.Errorf("%w: got %dx%d", ErrImageTooSmall, cfg.Width, cfg.Height)
	}

	return &Entry{
		Path:        path,
		FileName:    filepath.Base(path),
		FileSize:    stat.Size(),
		ContentType: mtype.String(),
		Width:       cfg.Width,
		Height:      cfg.Height,
		Status:      StatusPending,
	}, nil
}

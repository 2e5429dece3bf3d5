package chat

import (
	"errors"
	"strings"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

var (
	ErrUnsupportedFileType  = errors.New("Unsupported file type")
	ErrEmptyFilename        = errors.New("Empty file")
	ErrLocalFileUnsupported = errors.New("Selected local model does not support files")
)

// allowedExtensions is the fixed upload allow-list.
var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"mp4":  true,
	"pdf":  true,
	"mp3":  true,
}

// FileExt returns the lowercased extension of filename, without the dot.
func FileExt(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// AllowedFile reports whether the filename carries an allowed extension.
func AllowedFile(filename string) bool {
	return allowedExtensions[FileExt(filename)]
}

// ValidateAttachment applies the upload allow-list, independent of
// backend selection.
func ValidateAttachment(att *domain.Attachment) error {
	if att == nil {
		return nil
	}
	if att.Filename == "" {
		return ErrEmptyFilename
	}
	if !AllowedFile(att.Filename) {
		return ErrUnsupportedFileType
	}
	return nil
}

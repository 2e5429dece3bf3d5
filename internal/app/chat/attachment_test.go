package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/app/chat"
	"github.com/Shaesh-Kuiper/PrivGPT-Studio/internal/domain"
)

func TestFileExt(t *testing.T) {
	assert.Equal(t, "pdf", chat.FileExt("report.pdf"))
	assert.Equal(t, "jpeg", chat.FileExt("photo.holiday.JPEG"))
	assert.Equal(t, "", chat.FileExt("noextension"))
	assert.Equal(t, "", chat.FileExt("trailingdot."))
}

func TestAllowedFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"image.png", true},
		{"image.JPG", true},
		{"clip.mp4", true},
		{"song.mp3", true},
		{"doc.pdf", true},
		{"script.exe", false},
		{"archive.zip", false},
		{"", false},
		{"nodot", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, chat.AllowedFile(tt.filename), "filename=%q", tt.filename)
	}
}

func TestValidateAttachment(t *testing.T) {
	assert.NoError(t, chat.ValidateAttachment(nil))

	err := chat.ValidateAttachment(&domain.Attachment{Filename: ""})
	assert.ErrorIs(t, err, chat.ErrEmptyFilename)

	err = chat.ValidateAttachment(&domain.Attachment{Filename: "virus.exe"})
	assert.ErrorIs(t, err, chat.ErrUnsupportedFileType)

	assert.NoError(t, chat.ValidateAttachment(&domain.Attachment{Filename: "cat.png"}))
}

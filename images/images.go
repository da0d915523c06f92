package images

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"echonest/models"
)

// MaxUploadSize caps post images at 5MB.
const MaxUploadSize = 5 << 20

// allowedTypes are the content types the host accepts. The type is sniffed
// from the file bytes, not taken from the client's headers.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// File is an image held in memory, small enough to buffer under the upload cap.
type File struct {
	Name string
	Data []byte
}

func (f *File) Size() int64 {
	return int64(len(f.Data))
}

func (f *File) ContentType() string {
	return http.DetectContentType(f.Data)
}

// FromMultipart buffers an uploaded form file. Oversized files are rejected
// before the whole body is read.
func FromMultipart(fh *multipart.FileHeader) (*File, error) {
	if fh.Size > MaxUploadSize {
		return nil, &models.ValidationError{
			Field:  "image",
			Reason: fmt.Sprintf("file exceeds %dMB limit", MaxUploadSize>>20),
		}
	}

	src, err := fh.Open()
	if err != nil {
		return nil, &models.ValidationError{Field: "image", Reason: "unreadable file"}
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		return nil, &models.ValidationError{Field: "image", Reason: "unreadable file"}
	}
	return &File{Name: fh.Filename, Data: data}, nil
}

// Validate enforces the caller-side constraints from the image host boundary:
// size at most 5MB, sniffed type in {jpeg, png, gif}. It never touches the
// network, so a rejected file costs no collaborator call.
func Validate(f *File) error {
	if f.Size() == 0 {
		return &models.ValidationError{Field: "image", Reason: "empty file"}
	}
	if f.Size() > MaxUploadSize {
		return &models.ValidationError{
			Field:  "image",
			Reason: fmt.Sprintf("file exceeds %dMB limit", MaxUploadSize>>20),
		}
	}
	if ct := f.ContentType(); !allowedTypes[ct] {
		return &models.ValidationError{Field: "image", Reason: "unsupported type " + ct}
	}
	return nil
}

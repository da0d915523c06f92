package images

import (
	"bytes"
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// Cloudinary uploads post images and returns their public URLs.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary builds an uploader from a CLOUDINARY_URL-style connection
// string.
func NewCloudinary(url string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, err
	}
	return &Cloudinary{cld: cld, folder: "echonest/posts"}, nil
}

// Upload pushes the file to the host and returns its stable public URL. The
// caller is expected to have validated the file first.
func (c *Cloudinary) Upload(ctx context.Context, f *File) (string, error) {
	params := uploader.UploadParams{
		Folder:         c.folder,
		PublicID:       uuid.NewString(),
		Transformation: "c_limit,w_1600,q_auto",
	}

	result, err := c.cld.Upload.Upload(ctx, bytes.NewReader(f.Data), params)
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}

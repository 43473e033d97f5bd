package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gabriel-vasile/mimetype"
)

const (
	ProfilePictureFolder = "provider-profiles"
	MaxImageSize         = 5 << 20
)

var (
	ErrFileTooLarge = errors.New("file exceeds the size limit")
	ErrNotImage     = errors.New("file is not an image")
)

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	numberRe  = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[@$!%*?&]`)
)

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	return lowerRe.MatchString(password) &&
		upperRe.MatchString(password) &&
		numberRe.MatchString(password) &&
		specialRe.MatchString(password)
}

// ReadImage reads at most limit bytes from r and checks the content sniffs as
// an image. The detected MIME type is returned with the data.
func ReadImage(r io.Reader, limit int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", ErrFileTooLarge
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", ErrNotImage
	}
	return data, mtype.String(), nil
}

// CloudinaryUploader stores profile pictures in Cloudinary.
type CloudinaryUploader struct {
	Cld *cloudinary.Cloudinary
}

func (u CloudinaryUploader) UploadImage(ctx context.Context, data []byte, folder, publicID string) (string, error) {
	return UploadImage(ctx, u.Cld, data, folder, publicID)
}

// UploadImage stores an image under folder/publicID, replacing any previous
// version, and returns its secure URL.
func UploadImage(ctx context.Context, cld *cloudinary.Cloudinary, data []byte, folder, publicID string) (string, error) {
	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:    folder,
		PublicID:  publicID,
		Overwrite: api.Bool(true),
		Tags:      []string{"dialaservice"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", publicID, err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("failed to upload image %s: %s", publicID, uploadResult.Error.Message)
	}
	return uploadResult.SecureURL, nil
}

// StartOfWeek returns midnight on the Sunday starting t's week, in t's location.
func StartOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

package envelope

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrEmptyImage   = errors.New("empty image")
	ErrNotAnImage   = errors.New("not an image")
	ErrInvalidImage = errors.New("invalid data url")
)

const fallbackMimeType = "image/jpeg"

type Image struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

func (img Image) IsZero() bool {
	return len(img.Data) == 0
}

// Base64 returns the payload without the data URL prefix.
func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

func (img Image) DataURL() string {
	if img.IsZero() {
		return ""
	}
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = fallbackMimeType
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, img.Base64())
}

// ParseDataURL accepts either a full data URL or a bare base64 payload.
func ParseDataURL(value string) (Image, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Image{}, ErrEmptyImage
	}

	mimeType := ""
	payload := value
	if strings.HasPrefix(value, "data:") {
		meta, data, ok := strings.Cut(value, ",")
		if !ok {
			return Image{}, ErrInvalidImage
		}
		meta = strings.TrimPrefix(meta, "data:")
		mimeType = strings.TrimSpace(strings.Split(meta, ";")[0])
		payload = data
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode base64: %w", err)
	}
	return NewImage(raw, mimeType)
}

// ReadUpload drains r into an Image. declaredType is the client supplied
// content type and may be empty.
func ReadUpload(r io.Reader, declaredType string) (Image, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Image{}, fmt.Errorf("read upload: %w", err)
	}
	return NewImage(raw, declaredType)
}

func NewImage(raw []byte, declaredType string) (Image, error) {
	if len(raw) == 0 {
		return Image{}, ErrEmptyImage
	}

	mimeType := ResolveMimeType(declaredType, raw)
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, fmt.Errorf("%w: %s", ErrNotAnImage, mimeType)
	}
	return Image{MimeType: mimeType, Data: raw}, nil
}

// ResolveMimeType prefers the declared type, then sniffs the bytes, then
// falls back to image/jpeg.
func ResolveMimeType(declared string, raw []byte) string {
	mimeType := stripParams(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = stripParams(http.DetectContentType(raw))
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = fallbackMimeType
	}
	return mimeType
}

func stripParams(value string) string {
	value = strings.TrimSpace(value)
	if before, _, ok := strings.Cut(value, ";"); ok {
		value = strings.TrimSpace(before)
	}
	return strings.ToLower(value)
}

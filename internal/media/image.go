// Package media turns user supplied pictures (file uploads and camera
// captures) into generation requests.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
	"golang.org/x/text/unicode/norm"

	"animator/internal/domain"
)

// Format enumerates the image formats accepted by the uploader.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WEBP Format = "webp"
)

// Image is a decoded-enough picture: its format is verified but pixels are
// never decoded.
type Image struct {
	data     []byte
	mimeType string
	format   Format
	width    int
	height   int
}

// NewImage validates data and keeps the declared mime type untouched. The mime
// type is derived from the detected format only when none was declared.
func NewImage(data []byte, mimeType string) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image data is empty", domain.ErrEncoding)
	}
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable image: %v", domain.ErrEncoding, err)
	}
	format := Format(name)
	switch format {
	case PNG, JPEG, WEBP:
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", domain.ErrEncoding, name)
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/" + string(format)
	}
	return &Image{
		data:     data,
		mimeType: mimeType,
		format:   format,
		width:    cfg.Width,
		height:   cfg.Height,
	}, nil
}

func (i *Image) Data() []byte     { return i.data }
func (i *Image) MIMEType() string { return i.mimeType }
func (i *Image) Format() Format   { return i.format }

// Dimensions returns the pixel size read from the image header.
func (i *Image) Dimensions() (int, int) { return i.width, i.height }

// Base64 returns the transfer representation expected by the video API.
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.data)
}

// FromFile reads a picture from disk. The mime type comes from the extension.
func FromFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrEncoding, path, err)
	}
	return NewImage(data, mime.TypeByExtension(strings.ToLower(filepath.Ext(path))))
}

// FromUpload reads a multipart file field.
func FromUpload(file io.Reader, header *multipart.FileHeader) (*Image, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", domain.ErrEncoding, err)
	}
	declared := ""
	if header != nil {
		declared = header.Header.Get("Content-Type")
		if declared == "" {
			declared = mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
		}
	}
	return NewImage(data, declared)
}

// FromDataURL decodes a camera capture encoded as
// "data:<mime>;base64,<payload>". The prefix is dropped and the mime type kept.
func FromDataURL(dataURL string) (*Image, error) {
	dataURL = strings.TrimSpace(dataURL)
	meta, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(meta, "data:") {
		return nil, fmt.Errorf("%w: malformed data url", domain.ErrEncoding)
	}
	meta = strings.TrimPrefix(meta, "data:")
	mimeType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return nil, fmt.Errorf("%w: data url is not base64 encoded", domain.ErrEncoding)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decode data url: %v", domain.ErrEncoding, err)
	}
	return NewImage(data, mimeType)
}

// NewGenerationRequest pairs an image with a prompt. Both are required; the
// prompt is NFC-normalized but otherwise sent as typed.
func NewGenerationRequest(img *Image, prompt string) (domain.GenerationRequest, error) {
	if img == nil || strings.TrimSpace(prompt) == "" {
		return domain.GenerationRequest{}, domain.ErrInvalidRequest
	}
	return domain.GenerationRequest{
		ImageBytes: img.Data(),
		MIMEType:   img.MIMEType(),
		Prompt:     norm.NFC.String(prompt),
	}, nil
}

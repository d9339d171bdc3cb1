package storage

import (
	"fmt"
	"strings"
)

// VideoKey returns the storage key used for a generated video.
func VideoKey(id, mime string) string {
	id = strings.Trim(strings.TrimSpace(id), "/")
	if id == "" {
		id = "unnamed"
	}
	ext := extensionForMIME(mime)
	if ext == "" {
		ext = ".mp4"
	}
	return fmt.Sprintf("generated/videos/%s/video%s", id, ext)
}

func extensionForMIME(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	switch mime {
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	default:
		return ""
	}
}

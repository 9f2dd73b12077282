package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var allowedExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// ExtensionFor returns the file extension for an accepted content type.
func ExtensionFor(contentType string) (string, bool) {
	ext, ok := allowedExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// ObjectPath builds a collision-free key under prefix, e.g.
// tenants/<id>/2026/10/<uuid>.pdf.
func ObjectPath(prefix, contentType string, now time.Time) (string, error) {
	ext, ok := ExtensionFor(contentType)
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	p := path.Join(prefix, now.Format("2006/01"), uuid.NewString()+ext)
	if err := ValidatePath(p); err != nil {
		return "", err
	}
	return p, nil
}

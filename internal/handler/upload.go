package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/storage"
)

const sniffLen = 512

var (
	imageTypes    = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}
	documentTypes = map[string]bool{"image/jpeg": true, "image/png": true, "application/pdf": true}
)

type uploadResult struct {
	Path        string `json:"path"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// receiveUpload stores the multipart "file" field under prefix. The content
// type is sniffed from the bytes, never taken from the client. Callers fill
// in URL.
func receiveUpload(w http.ResponseWriter, r *http.Request, store storage.Store, maxSize int64, prefix string, allowed map[string]bool) (*uploadResult, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.PayloadTooLarge(maxSize)
		}
		return nil, apperrors.MissingRequired("file")
	}
	defer file.Close()

	// read fully so the S3 client gets a seekable body
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.InvalidInput("file", "unreadable file")
	}
	if len(data) == 0 {
		return nil, apperrors.InvalidInput("file", "empty file")
	}

	contentType := http.DetectContentType(data[:min(len(data), sniffLen)])
	if !allowed[contentType] {
		return nil, apperrors.InvalidInput("file", "unsupported file type "+contentType)
	}

	objectPath, err := storage.ObjectPath(prefix, contentType, time.Now().UTC())
	if err != nil {
		return nil, apperrors.InvalidInput("file", err.Error())
	}

	if err := store.Upload(r.Context(), objectPath, contentType, bytes.NewReader(data)); err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, apperrors.Unavailable("Storage")
		}
		return nil, apperrors.External("storage", err)
	}

	return &uploadResult{
		Path:        objectPath,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

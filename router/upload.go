package router

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// allowedImageTypes maps accepted content types to the extension used when
// the client file name has none.
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true,
}

func tooLarge() *HTTPError {
	return &HTTPError{
		Level:     1,
		Error:     "File too large (max 5MB)",
		Status:    http.StatusBadRequest,
		ErrorCode: ErrTooLarge,
	}
}

// Upload stores one image from the multipart field "file" and returns its
// public URL.
func Upload() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		limit := rc.cfg.Upload.MaxBytes
		// leave room for the multipart envelope
		r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

		file, header, err := r.FormFile("file")
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return tooLarge()
			}
			if errors.Is(err, http.ErrMissingFile) {
				return &HTTPError{
					IError:    err,
					Level:     1,
					Error:     "No file provided",
					Status:    http.StatusBadRequest,
					ErrorCode: ErrNotFound,
				}
			}
			return &HTTPError{
				IError:    err,
				Level:     1,
				Error:     "error in parsing form",
				Status:    http.StatusBadRequest,
				ErrorCode: ErrParsing,
			}
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		defaultExt, ok := allowedImageTypes[contentType]
		if !ok {
			return &HTTPError{
				Level:     1,
				Error:     "File type not allowed",
				Status:    http.StatusBadRequest,
				ErrorCode: ErrUnsupportedType,
			}
		}
		if header.Size > limit {
			return tooLarge()
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
		if !imageExtensions[ext] {
			ext = defaultExt
		}
		name := uuid.NewString() + "." + ext

		if err := os.MkdirAll(rc.cfg.Upload.Dir, 0o755); err != nil {
			return uploadFailed(err)
		}
		dst, err := os.Create(filepath.Join(rc.cfg.Upload.Dir, name))
		if err != nil {
			return uploadFailed(err)
		}
		defer dst.Close()
		if _, err := io.Copy(dst, file); err != nil {
			os.Remove(dst.Name())
			return uploadFailed(err)
		}

		return writeJSON(w, http.StatusOK, &UploadResponse{URL: "/uploads/" + name})
	}
}

func uploadFailed(err error) *HTTPError {
	return &HTTPError{
		IError:    err,
		Level:     3,
		Error:     "Upload failed",
		Status:    http.StatusInternalServerError,
		ErrorCode: ErrInternal,
	}
}

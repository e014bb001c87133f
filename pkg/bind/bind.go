// Package bind decodes console request bodies.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/catalog"
)

// ErrNoFiles is returned by Files when the form carries no file parts.
var ErrNoFiles = errors.New("bind: no files in request")

// JSON decodes r.Body as JSON into dest. The body is capped at
// MAX_BODY_BYTES (default 4 MB).
func JSON(r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, config.MaxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// Files reads the multipart parts named "file" or "files" (capped at
// MAX_UPLOAD_BYTES). The "names" values are paired with the files in order.
// The returned closer releases the opened parts.
func Files(r *http.Request) ([]catalog.File, func(), error) {
	if err := r.ParseMultipartForm(config.MaxUploadBytes()); err != nil {
		return nil, func() {}, fmt.Errorf("invalid multipart form: %w", err)
	}

	var headers []*multipart.FileHeader
	headers = append(headers, r.MultipartForm.File["file"]...)
	headers = append(headers, r.MultipartForm.File["files"]...)
	if len(headers) == 0 {
		return nil, func() {}, ErrNoFiles
	}
	names := r.MultipartForm.Value["names"]

	var opened []multipart.File
	release := func() {
		for _, f := range opened {
			f.Close()
		}
		r.MultipartForm.RemoveAll() //nolint:errcheck
	}

	files := make([]catalog.File, 0, len(headers))
	for i, h := range headers {
		f, err := h.Open()
		if err != nil {
			release()
			return nil, func() {}, fmt.Errorf("open %s: %w", h.Filename, err)
		}
		opened = append(opened, f)

		cf := catalog.File{Filename: h.Filename, Content: f}
		if i < len(names) {
			cf.Name = names[i]
		}
		files = append(files, cf)
	}
	return files, release, nil
}

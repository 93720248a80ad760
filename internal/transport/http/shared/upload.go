package shared

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hrms/internal/platform/spreadsheet"
	"hrms/internal/transport/http/api"
)

const multipartMemory = 32 << 20

var ErrMissingFile = errors.New("no file uploaded")

type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadUpload parses a multipart form and reads the file under field.
func ReadUpload(r *http.Request, field string) (*UploadedFile, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, ErrMissingFile
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &UploadedFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// FormBool reads a checkbox style form value. "true", "1", "on" and "yes" are
// true.
func FormBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(key))) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// FailUpload writes the response for a rejected upload and reports whether err
// was one it knows.
func FailUpload(w http.ResponseWriter, err error, requestID string) bool {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "uploaded file is too large", requestID)
	case errors.Is(err, ErrMissingFile):
		api.Fail(w, http.StatusBadRequest, "file_required", "No file uploaded", requestID)
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		api.Fail(w, http.StatusBadRequest, "invalid_request", "expected a multipart/form-data body", requestID)
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		api.Fail(w, http.StatusBadRequest, "unsupported_format", err.Error(), requestID)
	case errors.Is(err, spreadsheet.ErrNoRows):
		api.Fail(w, http.StatusBadRequest, "no_rows", err.Error(), requestID)
	case errors.Is(err, spreadsheet.ErrEmptyFile), errors.Is(err, spreadsheet.ErrParse):
		api.Fail(w, http.StatusBadRequest, "parse_error", err.Error(), requestID)
	default:
		return false
	}
	return true
}

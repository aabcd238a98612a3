package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// multipartOverhead is the allowance for multipart framing and form fields
// on top of the file size limit. The file itself is held to the exact limit
// by the service.
const multipartOverhead = 1 << 20

// allowedMediaTypes are the accepted file part types. Parameters such as
// charset are ignored.
var allowedMediaTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// handleUpload streams the "file" part of a multipart request into the
// ingestion pipeline. Size, presence and type are checked before parsing.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.service.MaxFileSize() + multipartOverhead
	if r.ContentLength > limit {
		respondError(w, r, fmt.Errorf("%w: request of %d bytes", core.ErrFileTooLarge, r.ContentLength))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	part, err := filePart(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer part.Close()

	if err := checkMediaType(part.Header.Get("Content-Type")); err != nil {
		respondError(w, r, err)
		return
	}

	ctx := core.WithRequestMeta(r.Context(), requestMeta(r))
	report, err := s.service.IngestUpload(ctx, core.Upload{
		FileName: part.FileName(),
		Body:     bodyLimitReader{part},
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, Envelope{
		Success: true,
		Message: fmt.Sprintf("Successfully imported %d records", report.Inserted),
		Data:    report,
	})
}

// filePart advances to the first part named "file" that carries a file name.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, core.ErrNoFile
		}
		if err != nil {
			if tooLarge(err) {
				return nil, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
			}
			return nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
		}
		if part.FormName() == "file" && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

func checkMediaType(contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !allowedMediaTypes[mediaType] {
		return fmt.Errorf("%w: %q", core.ErrUnsupportedMediaType, contentType)
	}
	return nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// bodyLimitReader reports the request body limit as ErrFileTooLarge.
type bodyLimitReader struct {
	r io.Reader
}

func (b bodyLimitReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && tooLarge(err) {
		return n, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
	}
	return n, err
}

// handleUploadHistory lists recent successful uploads, newest first.
func (s *Server) handleUploadHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := core.ParseHistoryLimit(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	entries, err := s.service.UploadHistory(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, entries)
}

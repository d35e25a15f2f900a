package web

// handlers_common.go holds helpers shared by the page and API handlers.

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fileconverter/internal/core"
	"github.com/JonMunkholm/fileconverter/internal/logging"
	"github.com/JonMunkholm/fileconverter/internal/pipeline"
)

// multipartMemory is the part of a multipart body held in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// uploadOutcome is the result of storing one uploaded file.
type uploadOutcome struct {
	Name string
	File core.FileInfo
	Err  error
}

// storeUploads reads the multipart "files" field (or "file") and stores each
// file in the session. Each file succeeds or fails on its own; only a
// malformed request returns an error.
func (s *Server) storeUploads(w http.ResponseWriter, r *http.Request) ([]uploadOutcome, error) {
	maxFiles := s.cfg.Upload.MaxFiles
	limit := s.service.MaxFileSize()*int64(maxFiles) + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, fmt.Errorf("upload: %w: %v", core.ErrFileTooLarge, err)
		}
		return nil, fmt.Errorf("upload: %w: %v", core.ErrNoFile, err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		return nil, core.ErrNoFile
	}

	outcomes := make([]uploadOutcome, 0, len(headers))
	for i, fh := range headers {
		out := uploadOutcome{Name: fh.Filename}
		if i >= maxFiles {
			out.Err = fmt.Errorf("%s: %w (limit %d)", fh.Filename, core.ErrTooManyFiles, maxFiles)
			outcomes = append(outcomes, out)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			out.Err = fmt.Errorf("open %s: %w", fh.Filename, err)
			outcomes = append(outcomes, out)
			continue
		}
		out.File, out.Err = s.service.AddFile(r.Context(), fh.Filename, f)
		f.Close()

		if out.Err != nil {
			logging.FromContext(r.Context()).Warn("upload rejected",
				"file", fh.Filename,
				"error", out.Err,
			)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// requestOptions parses pipeline options from the query string.
func requestOptions(r *http.Request) (pipeline.Options, error) {
	return pipeline.ParseOptions(r.URL.Query())
}

func fileID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// writeArtifact sends a converted file as an attachment.
func writeArtifact(w http.ResponseWriter, a *pipeline.Artifact) {
	w.Header().Set("Content-Type", a.MIME)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(a.Data)
}

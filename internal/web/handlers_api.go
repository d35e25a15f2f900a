package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/fileconverter/internal/core"
	"github.com/JonMunkholm/fileconverter/internal/history"
	"github.com/JonMunkholm/fileconverter/internal/pipeline"
)

const maxHistoryLimit = 500

// UploadResponse reports one file of an API upload.
type UploadResponse struct {
	Name  string            `json:"name"`
	File  *core.FileInfo    `json:"file,omitempty"`
	Error *core.UserMessage `json:"error,omitempty"`
}

// PreviewResponse is the body of GET /api/files/{id}/preview.
type PreviewResponse struct {
	File   core.FileInfo    `json:"file"`
	Result *pipeline.Result `json:"result"`
	Output string           `json:"output"`
	Bytes  int              `json:"bytes"`
}

// handleAPIUpload stores files and reports each one. The status is 201 when
// at least one file was stored.
func (s *Server) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	outcomes, err := s.storeUploads(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := make([]UploadResponse, 0, len(outcomes))
	status := http.StatusCreated
	failed := 0
	for _, out := range outcomes {
		item := UploadResponse{Name: out.Name}
		if out.Err != nil {
			msg := core.MapError(out.Err)
			item.Error = &msg
			failed++
		} else {
			file := out.File
			item.File = &file
		}
		resp = append(resp, item)
	}
	if failed == len(outcomes) {
		status = statusFor(outcomes[0].Err)
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

func (s *Server) handleAPIListFiles(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.service.List(r.Context()))
}

func (s *Server) handleAPIGetFile(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Describe(r.Context(), fileID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

func (s *Server) handleAPIDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Remove(r.Context(), fileID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAPIPreview runs the pipeline without recording history and returns
// previews, report and chart data.
func (s *Server) handleAPIPreview(w http.ResponseWriter, r *http.Request) {
	opts, err := requestOptions(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	info, err := s.service.Describe(r.Context(), fileID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Process(r.Context(), info.ID, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	render.JSON(w, r, PreviewResponse{
		File:   info,
		Result: res,
		Output: res.Artifact.Name,
		Bytes:  len(res.Artifact.Data),
	})
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", history.DefaultRecentLimit), maxHistoryLimit)
	entries, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	render.JSON(w, r, entries)
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.service.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "ok")
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrFileNotFound)
}
